package board

import (
	"errors"
	"fmt"
	"testing"
)

func newTestBoard(categories, clues int) *Board {
	b := &Board{}
	for x := 0; x < categories; x++ {
		cat := Category{Title: fmt.Sprintf("cat %d", x)}
		for y := 0; y < clues; y++ {
			cat.Clues = append(cat.Clues, Clue{
				Question: fmt.Sprintf("q%d-%d", x, y),
				Answer:   fmt.Sprintf("a%d-%d", x, y),
			})
		}
		b.Categories = append(b.Categories, cat)
	}
	return b
}

func TestShowingNext(t *testing.T) {
	cases := []struct {
		from Showing
		want Showing
	}{
		{ShowingNone, ShowingQuestion},
		{ShowingQuestion, ShowingAnswer},
		{ShowingAnswer, ShowingAnswer},
	}

	for _, tc := range cases {
		t.Run(tc.from.String(), func(t *testing.T) {
			if got := tc.from.Next(); got != tc.want {
				t.Fatalf("Next() = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestShowingNeverRegresses(t *testing.T) {
	for _, start := range []Showing{ShowingNone, ShowingQuestion, ShowingAnswer} {
		s := start
		for range 10 {
			next := s.Next()
			if next < s {
				t.Fatalf("%s regressed to %s", s, next)
			}
			s = next
		}
		if s != ShowingAnswer {
			t.Fatalf("starting at %s ended at %s", start, s)
		}
	}
}

func TestRevealCycle(t *testing.T) {
	b := newTestBoard(6, 5)
	cell := Cell{Category: 2, Clue: 3}

	clue, changed, err := b.Reveal(cell)
	if err != nil || !changed {
		t.Fatalf("first click: changed=%v err=%v", changed, err)
	}
	if clue.Showing != ShowingQuestion {
		t.Fatalf("first click: showing %s", clue.Showing)
	}
	if v := ViewOf(cell, clue); v.Text != "q2-3" || v.Class != ClassQuestion {
		t.Fatalf("first click view: %+v", v)
	}

	clue, changed, err = b.Reveal(cell)
	if err != nil || !changed {
		t.Fatalf("second click: changed=%v err=%v", changed, err)
	}
	if v := ViewOf(cell, clue); v.Text != "a2-3" || v.Class != ClassAnswer {
		t.Fatalf("second click view: %+v", v)
	}

	clue, changed, err = b.Reveal(cell)
	if err != nil {
		t.Fatalf("third click: %v", err)
	}
	if changed {
		t.Fatal("third click reported a change")
	}
	if v := ViewOf(cell, clue); v.Text != "a2-3" || v.Class != ClassAnswer {
		t.Fatalf("third click view: %+v", v)
	}
}

func TestRevealOnlyTouchesTargetCell(t *testing.T) {
	b := newTestBoard(6, 5)

	if _, _, err := b.Reveal(Cell{Category: 2, Clue: 3}); err != nil {
		t.Fatal(err)
	}

	for x, cat := range b.Categories {
		for y, clue := range cat.Clues {
			if x == 2 && y == 3 {
				continue
			}
			if clue.Showing != ShowingNone {
				t.Errorf("cell %d-%d is %s", x, y, clue.Showing)
			}
		}
	}
}

func TestRevealOutOfRange(t *testing.T) {
	b := newTestBoard(2, 2)

	for _, c := range []Cell{{-1, 0}, {0, -1}, {2, 0}, {0, 2}} {
		if _, _, err := b.Reveal(c); !errors.Is(err, ErrNoSuchCell) {
			t.Errorf("Reveal(%s) err = %v", c, err)
		}
	}

	var empty *Board
	if _, _, err := empty.Reveal(Cell{}); !errors.Is(err, ErrNoBoard) {
		t.Errorf("nil board err = %v", err)
	}
}

func TestParseCell(t *testing.T) {
	cases := []struct {
		in      string
		want    Cell
		wantErr bool
	}{
		{in: "2-3", want: Cell{2, 3}},
		{in: "0-0", want: Cell{0, 0}},
		{in: "10-4", want: Cell{10, 4}},
		{in: "2", wantErr: true},
		{in: "a-1", wantErr: true},
		{in: "1-b", wantErr: true},
		{in: "-1-2", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseCell(tc.in)
			if tc.wantErr {
				if !errors.Is(err, ErrNoSuchCell) {
					t.Fatalf("expected ErrNoSuchCell, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected err: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
			if got.String() != tc.in {
				t.Fatalf("String() = %q", got.String())
			}
		})
	}
}

func TestCloneIsDeep(t *testing.T) {
	b := newTestBoard(1, 1)
	c := b.Clone()

	if _, _, err := c.Reveal(Cell{}); err != nil {
		t.Fatal(err)
	}
	if b.Categories[0].Clues[0].Showing != ShowingNone {
		t.Fatal("reveal on clone leaked into original")
	}
}

func TestRender(t *testing.T) {
	b := newTestBoard(6, 5)
	b.Categories[1].Clues[0].Showing = ShowingAnswer

	g := Render(b)
	if len(g.Headers) != 6 || g.Headers[4] != "cat 4" {
		t.Fatalf("headers = %v", g.Headers)
	}
	if len(g.Rows) != 5 {
		t.Fatalf("got %d rows", len(g.Rows))
	}

	for y, row := range g.Rows {
		if len(row) != 6 {
			t.Fatalf("row %d has %d cells", y, len(row))
		}
		for x, v := range row {
			if v.ID != fmt.Sprintf("%d-%d", x, y) {
				t.Errorf("cell id %q at %d,%d", v.ID, x, y)
			}
			if x == 1 && y == 0 {
				if v.Text != "a1-0" || v.Class != ClassAnswer {
					t.Errorf("revealed cell %+v", v)
				}
				continue
			}
			if v.Text != "?" || v.Class != "" {
				t.Errorf("hidden cell %+v", v)
			}
		}
	}
}

func TestRenderRagged(t *testing.T) {
	b := newTestBoard(2, 3)
	b.Categories[1].Clues = b.Categories[1].Clues[:1]

	g := Render(b)
	if len(g.Rows) != 3 {
		t.Fatalf("got %d rows", len(g.Rows))
	}
	if g.Rows[2][1] != (CellView{}) {
		t.Fatalf("missing clue rendered as %+v", g.Rows[2][1])
	}
}

func TestRenderNil(t *testing.T) {
	g := Render(nil)
	if g.Headers == nil || g.Rows == nil || len(g.Headers) != 0 || len(g.Rows) != 0 {
		t.Fatalf("got %+v", g)
	}
}
