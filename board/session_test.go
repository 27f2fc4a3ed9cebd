package board

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Seednode/quizboard/jservice"
)

// stubSource hands out categories with ids offset by a per-call counter, so
// consecutive games are distinguishable.
type stubSource struct {
	mu       sync.Mutex
	calls    int
	failOn   int // fail the Nth RandomCategory call (1-based), 0 never
	catCalls int
	gate     chan struct{}
	order    []int
}

func (s *stubSource) RandomCategoryIDs(ctx context.Context, n int) ([]int, error) {
	s.mu.Lock()
	s.calls++
	base := s.calls * 100
	gate := s.gate
	s.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	ids := make([]int, n)
	for i := range ids {
		ids[i] = base + i
	}
	return ids, nil
}

func (s *stubSource) RandomCategory(ctx context.Context, id, m int) (jservice.Category, error) {
	s.mu.Lock()
	s.catCalls++
	call := s.catCalls
	s.order = append(s.order, id)
	s.mu.Unlock()

	if s.failOn != 0 && call == s.failOn {
		return jservice.Category{}, &jservice.FetchError{Op: "category", URL: "stub", StatusCode: 503}
	}

	cat := jservice.Category{ID: id, Title: fmt.Sprintf("cat %d", id)}
	for j := 0; j < m; j++ {
		cat.Clues = append(cat.Clues, jservice.Clue{
			Question: fmt.Sprintf("q%d-%d", id, j),
			Answer:   fmt.Sprintf("a%d-%d", id, j),
		})
	}
	return cat, nil
}

func TestSetupSixByFive(t *testing.T) {
	src := &stubSource{}

	b, err := Setup(context.Background(), src, DefaultDimensions)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	if len(b.Categories) != 6 {
		t.Fatalf("got %d categories", len(b.Categories))
	}
	for x, cat := range b.Categories {
		if len(cat.Clues) != 5 {
			t.Fatalf("category %d has %d clues", x, len(cat.Clues))
		}
		for y, clue := range cat.Clues {
			if clue.Showing != ShowingNone {
				t.Errorf("clue %d-%d starts at %s", x, y, clue.Showing)
			}
		}
	}

	want := []int{100, 101, 102, 103, 104, 105}
	for i, id := range src.order {
		if id != want[i] {
			t.Fatalf("fetch order %v, want %v", src.order, want)
		}
	}
}

func TestSetupFailureDiscardsPartialBoard(t *testing.T) {
	src := &stubSource{failOn: 4}

	b, err := Setup(context.Background(), src, DefaultDimensions)
	if b != nil {
		t.Fatalf("expected no board, got %d categories", len(b.Categories))
	}
	if !errors.Is(err, jservice.ErrFetch) {
		t.Fatalf("expected ErrFetch, got %v", err)
	}
	if src.catCalls != 4 {
		t.Fatalf("kept fetching after failure: %d calls", src.catCalls)
	}
}

func TestSessionRestartReplacesBoard(t *testing.T) {
	s := NewSession(&stubSource{}, DefaultDimensions)

	if s.Phase() != PhaseEmpty {
		t.Fatalf("phase = %s", s.Phase())
	}

	if _, _, err := s.Restart(context.Background()); err != nil {
		t.Fatal(err)
	}
	if s.Phase() != PhaseReady {
		t.Fatalf("phase = %s", s.Phase())
	}

	cell := Cell{Category: 2, Clue: 3}
	for range 2 {
		if _, _, err := s.Reveal(cell); err != nil {
			t.Fatal(err)
		}
	}
	first := s.Board()

	if _, _, err := s.Restart(context.Background()); err != nil {
		t.Fatal(err)
	}
	second := s.Board()

	for x := range second.Categories {
		if second.Categories[x].Title == first.Categories[x].Title {
			t.Errorf("category %d carried over: %q", x, first.Categories[x].Title)
		}
		for y, clue := range second.Categories[x].Clues {
			if clue.Showing != ShowingNone {
				t.Errorf("clue %d-%d carried %s", x, y, clue.Showing)
			}
		}
	}
	if s.Generation() != 2 {
		t.Fatalf("generation = %d", s.Generation())
	}
}

func TestSessionRevealScenario(t *testing.T) {
	s := NewSession(&stubSource{}, DefaultDimensions)
	if _, _, err := s.Restart(context.Background()); err != nil {
		t.Fatal(err)
	}

	cell := Cell{Category: 2, Clue: 3}
	want := []struct {
		text    string
		class   string
		changed bool
	}{
		{"q102-3", ClassQuestion, true},
		{"a102-3", ClassAnswer, true},
		{"a102-3", ClassAnswer, false},
	}

	for i, w := range want {
		v, changed, err := s.Reveal(cell)
		if err != nil {
			t.Fatalf("click %d: %v", i+1, err)
		}
		if v.Text != w.text || v.Class != w.class || changed != w.changed || v.ID != "2-3" {
			t.Fatalf("click %d: got %+v changed=%v", i+1, v, changed)
		}
	}

	clue, err := s.Board().Clue(cell)
	if err != nil || clue.Showing != ShowingAnswer {
		t.Fatalf("clue = %+v, err = %v", clue, err)
	}
}

func TestSessionRevealWithoutBoard(t *testing.T) {
	s := NewSession(&stubSource{}, DefaultDimensions)

	if _, _, err := s.Reveal(Cell{}); !errors.Is(err, ErrNoBoard) {
		t.Fatalf("err = %v", err)
	}
}

func TestSessionFailedRestartKeepsPreviousBoard(t *testing.T) {
	src := &stubSource{}
	s := NewSession(src, DefaultDimensions)

	if _, _, err := s.Restart(context.Background()); err != nil {
		t.Fatal(err)
	}
	before := s.Board()

	src.mu.Lock()
	src.failOn = src.catCalls + 2
	src.mu.Unlock()

	if _, _, err := s.Restart(context.Background()); !errors.Is(err, jservice.ErrFetch) {
		t.Fatalf("expected ErrFetch, got %v", err)
	}

	after := s.Board()
	if after.Categories[0].Title != before.Categories[0].Title {
		t.Fatal("failed restart replaced the board")
	}
	if s.Phase() != PhaseReady {
		t.Fatalf("phase = %s", s.Phase())
	}
}

func TestSessionRestartSupersedesInFlight(t *testing.T) {
	src := &stubSource{gate: make(chan struct{})}
	s := NewSession(src, DefaultDimensions)

	staleErr := make(chan error, 1)
	go func() {
		_, _, err := s.Restart(context.Background())
		staleErr <- err
	}()

	deadline := time.Now().Add(2 * time.Second)
	for {
		src.mu.Lock()
		calls := src.calls
		src.mu.Unlock()
		if calls == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("first restart never started")
		}
		time.Sleep(time.Millisecond)
	}
	if s.Phase() != PhaseLoading {
		t.Fatalf("phase = %s", s.Phase())
	}

	src.mu.Lock()
	src.gate = nil
	src.mu.Unlock()

	b, gen, err := s.Restart(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if gen != 2 {
		t.Fatalf("gen = %d", gen)
	}

	if err := <-staleErr; !errors.Is(err, ErrSuperseded) {
		t.Fatalf("stale restart err = %v", err)
	}

	if got := s.Board().Categories[0].Title; got != b.Categories[0].Title {
		t.Fatalf("board title %q, want %q", got, b.Categories[0].Title)
	}
}

func TestSessionCommitFollowsBeginOrder(t *testing.T) {
	s := NewSession(&stubSource{}, DefaultDimensions)

	staleCtx, stale := s.Begin(context.Background())
	freshCtx, fresh := s.Begin(context.Background())

	if staleCtx.Err() == nil {
		t.Fatal("older setup was not cancelled")
	}

	// The newer setup finishes first.
	b, err := s.Setup(freshCtx)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Commit(fresh, b, nil); err != nil {
		t.Fatal(err)
	}

	old, err := s.Setup(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Commit(stale, old, nil); !errors.Is(err, ErrSuperseded) {
		t.Fatalf("stale commit err = %v", err)
	}

	if got := s.Board().Categories[0].Title; got != b.Categories[0].Title {
		t.Fatalf("board title %q, want %q", got, b.Categories[0].Title)
	}
	if s.BoardGeneration() != fresh || s.Phase() != PhaseReady {
		t.Fatalf("board generation %d phase %s", s.BoardGeneration(), s.Phase())
	}
	if freshCtx.Err() == nil {
		t.Fatal("committed setup context left open")
	}
}

func TestSessionFailedCommitKeepsBoardGeneration(t *testing.T) {
	s := NewSession(&stubSource{}, DefaultDimensions)

	_, gen, err := s.Restart(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	_, next := s.Begin(context.Background())
	if _, err := s.Commit(next, nil, jservice.ErrFetch); !errors.Is(err, jservice.ErrFetch) {
		t.Fatalf("err = %v", err)
	}

	if s.BoardGeneration() != gen {
		t.Fatalf("board generation = %d, want %d", s.BoardGeneration(), gen)
	}
	if s.Generation() != next {
		t.Fatalf("generation = %d, want %d", s.Generation(), next)
	}
}
