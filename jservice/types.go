/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package jservice

// CategorySummary is one entry of the /categories listing.
type CategorySummary struct {
	ID         int    `json:"id"`
	Title      string `json:"title"`
	CluesCount int    `json:"clues_count"`
}

// rawClue mirrors a clue as served by /category. Only the question and
// answer survive conversion to Clue.
type rawClue struct {
	ID         int    `json:"id"`
	Question   string `json:"question"`
	Answer     string `json:"answer"`
	Value      *int   `json:"value"`
	AirDate    string `json:"airdate"`
	CategoryID int    `json:"category_id"`
}

type rawCategory struct {
	ID         int       `json:"id"`
	Title      string    `json:"title"`
	CluesCount int       `json:"clues_count"`
	Clues      []rawClue `json:"clues"`
}

type Clue struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Category is a titled set of clues with all service metadata stripped.
type Category struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
	Clues []Clue `json:"clues"`
}

func (r rawCategory) category() Category {
	clues := make([]Clue, 0, len(r.Clues))
	for _, c := range r.Clues {
		clues = append(clues, Clue{
			Question: c.Question,
			Answer:   c.Answer,
		})
	}

	return Category{
		ID:    r.ID,
		Title: r.Title,
		Clues: clues,
	}
}
