/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package board

const (
	hiddenText = "?"

	ClassQuestion = "revealed-question"
	ClassAnswer   = "revealed-answer"
)

// CellView is what one body cell of the grid displays.
type CellView struct {
	ID    string `json:"id"`
	Text  string `json:"text"`
	Class string `json:"class,omitempty"`
}

// Grid is the display projection of a board: one header per category and
// one row per clue rank. Rows are clue-major, so Rows[y][x] is clue y of
// category x.
type Grid struct {
	Headers []string     `json:"headers"`
	Rows    [][]CellView `json:"rows"`
}

func ViewOf(c Cell, clue Clue) CellView {
	v := CellView{ID: c.String()}

	switch clue.Showing {
	case ShowingQuestion:
		v.Text = clue.Question
		v.Class = ClassQuestion
	case ShowingAnswer:
		v.Text = clue.Answer
		v.Class = ClassAnswer
	default:
		v.Text = hiddenText
	}

	return v
}

// Render projects b into a grid. Categories with fewer clues than the
// longest one leave their trailing cells empty (zero CellView).
func Render(b *Board) Grid {
	g := Grid{
		Headers: []string{},
		Rows:    [][]CellView{},
	}
	if b == nil {
		return g
	}

	depth := 0
	for _, cat := range b.Categories {
		g.Headers = append(g.Headers, cat.Title)
		depth = max(depth, len(cat.Clues))
	}

	for y := 0; y < depth; y++ {
		row := make([]CellView, len(b.Categories))
		for x, cat := range b.Categories {
			if y < len(cat.Clues) {
				row[x] = ViewOf(Cell{Category: x, Clue: y}, cat.Clues[y])
			}
		}
		g.Rows = append(g.Rows, row)
	}

	return g
}
