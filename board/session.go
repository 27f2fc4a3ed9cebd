/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package board

import (
	"context"
	"errors"
	"sync"
)

// ErrSuperseded is returned by Restart and Commit when a newer setup began before
// this one finished.
var ErrSuperseded = errors.New("setup superseded by a newer game")

type Phase int

const (
	PhaseEmpty Phase = iota
	PhaseLoading
	PhaseReady
)

func (p Phase) String() string {
	switch p {
	case PhaseEmpty:
		return "empty"
	case PhaseLoading:
		return "loading"
	case PhaseReady:
		return "ready"
	default:
		return "unknown"
	}
}

// Session owns the board of one game and serialises every change to it.
type Session struct {
	src  Source
	dims Dimensions

	mu         sync.Mutex
	board      *Board
	generation uint64
	boardGen   uint64
	loading    bool
	cancel     context.CancelFunc
}

func NewSession(src Source, dims Dimensions) *Session {
	return &Session{
		src:  src,
		dims: dims,
	}
}

// Restart discards the current game and sets up a new one. An in-flight
// setup from an earlier Restart is cancelled, and its result is dropped even
// if it completes. On failure the previous board, if any, stays in place.
func (s *Session) Restart(ctx context.Context) (*Board, uint64, error) {
	ctx, gen := s.Begin(ctx)

	b, err := s.Setup(ctx)

	b, err = s.Commit(gen, b, err)

	return b, gen, err
}

// Begin claims the next generation and cancels any setup still in flight.
// The returned context is cancelled once a newer generation begins or the
// setup for gen is committed.
func (s *Session) Begin(ctx context.Context) (context.Context, uint64) {
	ctx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
	s.generation++
	s.cancel = cancel
	s.loading = true

	return ctx, s.generation
}

// Setup builds a board for the session's dimensions without touching the
// current one.
func (s *Session) Setup(ctx context.Context) (*Board, error) {
	return Setup(ctx, s.src, s.dims)
}

// Commit installs the outcome of the setup begun for gen. It returns
// ErrSuperseded when a newer generation has begun since, and setupErr
// unchanged when the setup failed, leaving the previous board in place.
func (s *Session) Commit(gen uint64, b *Board, setupErr error) (*Board, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		return nil, ErrSuperseded
	}

	s.loading = false
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}

	if setupErr != nil {
		return nil, setupErr
	}

	s.board = b
	s.boardGen = gen

	return b.Clone(), nil
}

// Reveal advances the clue at c and returns how its cell should now look.
func (s *Session) Reveal(c Cell) (CellView, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.board == nil {
		return CellView{}, false, ErrNoBoard
	}

	clue, changed, err := s.board.Reveal(c)
	if err != nil {
		return CellView{}, false, err
	}

	return ViewOf(c, clue), changed, nil
}

func (s *Session) Board() *Board {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.board.Clone()
}

func (s *Session) Grid() Grid {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Render(s.board)
}

func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.loading:
		return PhaseLoading
	case s.board != nil:
		return PhaseReady
	default:
		return PhaseEmpty
	}
}

// Generation identifies the most recent Begin.
func (s *Session) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.generation
}

// BoardGeneration is the generation of the board currently installed, or 0
// before the first successful setup.
func (s *Session) BoardGeneration() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.boardGen
}

// Close cancels any in-flight setup and drops its result.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.loading = false
	if s.cancel != nil {
		s.generation++
		s.cancel()
		s.cancel = nil
	}
}
