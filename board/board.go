/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package board holds the game board for a trivia session: categories of
// clues, the per-clue reveal state machine, and the projection of a board
// into display cells.
package board

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrNoBoard    = errors.New("no board has been set up")
	ErrNoSuchCell = errors.New("no such cell")
)

// Showing is the reveal state of a single clue.
type Showing int

const (
	ShowingNone Showing = iota
	ShowingQuestion
	ShowingAnswer
)

func (s Showing) String() string {
	switch s {
	case ShowingNone:
		return "none"
	case ShowingQuestion:
		return "question"
	case ShowingAnswer:
		return "answer"
	default:
		return "Showing(" + strconv.Itoa(int(s)) + ")"
	}
}

func (s Showing) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Next is the transition applied by a click: none advances to question,
// question to answer, and answer stays put.
func (s Showing) Next() Showing {
	switch s {
	case ShowingNone:
		return ShowingQuestion
	case ShowingQuestion:
		return ShowingAnswer
	default:
		return ShowingAnswer
	}
}

type Clue struct {
	Question string  `json:"question"`
	Answer   string  `json:"answer"`
	Showing  Showing `json:"showing"`
}

type Category struct {
	Title string `json:"title"`
	Clues []Clue `json:"clues"`
}

type Board struct {
	Categories []Category `json:"categories"`
}

// Cell addresses one clue by category index and clue index.
type Cell struct {
	Category int
	Clue     int
}

func (c Cell) String() string {
	return strconv.Itoa(c.Category) + "-" + strconv.Itoa(c.Clue)
}

// ParseCell reads the "<category>-<clue>" form produced by Cell.String.
func ParseCell(id string) (Cell, error) {
	x, y, ok := strings.Cut(id, "-")
	if !ok {
		return Cell{}, fmt.Errorf("%w: %q", ErrNoSuchCell, id)
	}

	cat, err := strconv.Atoi(x)
	if err != nil || cat < 0 {
		return Cell{}, fmt.Errorf("%w: %q", ErrNoSuchCell, id)
	}

	clue, err := strconv.Atoi(y)
	if err != nil || clue < 0 {
		return Cell{}, fmt.Errorf("%w: %q", ErrNoSuchCell, id)
	}

	return Cell{Category: cat, Clue: clue}, nil
}

func (b *Board) clue(c Cell) (*Clue, error) {
	if b == nil {
		return nil, ErrNoBoard
	}
	if c.Category < 0 || c.Category >= len(b.Categories) {
		return nil, fmt.Errorf("%w: %s", ErrNoSuchCell, c)
	}

	clues := b.Categories[c.Category].Clues
	if c.Clue < 0 || c.Clue >= len(clues) {
		return nil, fmt.Errorf("%w: %s", ErrNoSuchCell, c)
	}

	return &clues[c.Clue], nil
}

// Clue returns a copy of the clue at c.
func (b *Board) Clue(c Cell) (Clue, error) {
	clue, err := b.clue(c)
	if err != nil {
		return Clue{}, err
	}

	return *clue, nil
}

// Reveal advances the clue at c by one step. changed is false when the clue
// was already showing its answer.
func (b *Board) Reveal(c Cell) (clue Clue, changed bool, err error) {
	p, err := b.clue(c)
	if err != nil {
		return Clue{}, false, err
	}

	next := p.Showing.Next()
	changed = next != p.Showing
	p.Showing = next

	return *p, changed, nil
}

// Clone returns a deep copy of b.
func (b *Board) Clone() *Board {
	if b == nil {
		return nil
	}

	out := &Board{Categories: make([]Category, len(b.Categories))}
	for i, cat := range b.Categories {
		clues := make([]Clue, len(cat.Clues))
		copy(clues, cat.Clues)
		out.Categories[i] = Category{Title: cat.Title, Clues: clues}
	}

	return out
}
