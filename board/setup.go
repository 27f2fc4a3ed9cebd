/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package board

import (
	"context"
	"fmt"

	"github.com/Seednode/quizboard/jservice"
)

// Source supplies randomly chosen categories. *jservice.Client satisfies it.
type Source interface {
	RandomCategoryIDs(ctx context.Context, n int) ([]int, error)
	RandomCategory(ctx context.Context, id, m int) (jservice.Category, error)
}

// Dimensions is the board size: categories across, clues down.
type Dimensions struct {
	Categories int
	Clues      int
}

var DefaultDimensions = Dimensions{Categories: 6, Clues: 5}

// Setup builds a fresh board from src. Categories are fetched one at a time,
// in the order their ids were drawn. Any failure discards the partial board.
func Setup(ctx context.Context, src Source, dims Dimensions) (*Board, error) {
	ids, err := src.RandomCategoryIDs(ctx, dims.Categories)
	if err != nil {
		return nil, fmt.Errorf("choose categories: %w", err)
	}

	b := &Board{Categories: make([]Category, 0, len(ids))}

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		cat, err := src.RandomCategory(ctx, id, dims.Clues)
		if err != nil {
			return nil, fmt.Errorf("fetch category %d: %w", id, err)
		}

		clues := make([]Clue, 0, len(cat.Clues))
		for _, c := range cat.Clues {
			clues = append(clues, Clue{
				Question: c.Question,
				Answer:   c.Answer,
				Showing:  ShowingNone,
			})
		}

		b.Categories = append(b.Categories, Category{
			Title: cat.Title,
			Clues: clues,
		})
	}

	return b, nil
}
