package review

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/dykhalkin/ankichat/internal/domain"
	"github.com/dykhalkin/ankichat/internal/trainer"
)

type stubGenerator struct {
	sentence string
	err      error
	calls    int
}

func (g *stubGenerator) Sentence(_ context.Context, _, _ string) (string, error) {
	g.calls++
	return g.sentence, g.err
}

func newCard(id string, reviewCount int, due *time.Time) *domain.Card {
	return &domain.Card{
		ID:          id,
		Front:       "front " + id,
		Back:        "back " + id,
		Interval:    1.0,
		Easiness:    2.5,
		ReviewCount: reviewCount,
		DueDate:     due,
	}
}

func TestLoadQueueOrdering(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	overdue := now.Add(-2 * 24 * time.Hour)
	future := now.Add(3 * 24 * time.Hour)

	a := newCard("A", 0, nil)         // never reviewed
	b := newCard("B", 1, &overdue)    // due two days ago
	c := newCard("C", 1, &future)     // not due yet

	s := NewSession("deck", "user", trainer.ModeRecall, nil, 0)
	s.LoadQueue([]*domain.Card{c, b, a}, now)

	if s.Remaining() != 2 {
		t.Fatalf("Expected 2 cards in the queue, got %d", s.Remaining())
	}
	if s.queue[0].ID != "A" || s.queue[1].ID != "B" {
		t.Errorf("Expected queue [A, B], got [%s, %s]", s.queue[0].ID, s.queue[1].ID)
	}
}

func TestLoadQueueBacklogByDueTime(t *testing.T) {
	now := time.Now()
	old := now.Add(-72 * time.Hour)
	older := now.Add(-120 * time.Hour)
	recent := now.Add(-1 * time.Hour)

	x := newCard("X", 2, &old)
	y := newCard("Y", 4, &older)
	z := newCard("Z", 1, &recent)

	s := NewSession("deck", "user", trainer.ModeRecall, nil, 0)
	s.LoadQueue([]*domain.Card{x, z, y}, now)

	got := []string{s.queue[0].ID, s.queue[1].ID, s.queue[2].ID}
	want := []string{"Y", "X", "Z"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Expected backlog order %v, got %v", want, got)
		}
	}
}

func TestLoadQueueTruncates(t *testing.T) {
	now := time.Now()
	var cards []*domain.Card
	for i := 0; i < 30; i++ {
		cards = append(cards, newCard(strconv.Itoa(i), 0, nil))
	}

	s := NewSession("deck", "user", trainer.ModeRecall, nil, 0)
	s.LoadQueue(cards, now)
	if s.Remaining() != DefaultMaxCards {
		t.Errorf("Expected queue capped at %d, got %d", DefaultMaxCards, s.Remaining())
	}

	small := NewSession("deck", "user", trainer.ModeRecall, nil, 5)
	small.LoadQueue(cards, now)
	if small.Remaining() != 5 {
		t.Errorf("Expected queue capped at 5, got %d", small.Remaining())
	}
}

func TestAdvanceProgress(t *testing.T) {
	now := time.Now()
	s := NewSession("deck", "user", trainer.ModeRecall, nil, 0)
	s.LoadQueue([]*domain.Card{
		newCard("A", 0, nil),
		newCard("B", 0, nil),
		newCard("C", 0, nil),
	}, now)

	turn, err := s.Advance(context.Background())
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if turn.Progress.Current != 1 || turn.Progress.Total != 3 {
		t.Errorf("Expected progress 1/3, got %d/%d", turn.Progress.Current, turn.Progress.Total)
	}
	if s.State() != StatePresenting {
		t.Errorf("Expected StatePresenting, got %v", s.State())
	}

	s.Grade("5")
	turn, err = s.Advance(context.Background())
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if turn.Progress.Current != 2 || turn.Progress.Total != 3 {
		t.Errorf("Expected progress 2/3, got %d/%d", turn.Progress.Current, turn.Progress.Total)
	}
}

func TestAdvanceExhaustedQueue(t *testing.T) {
	s := NewSession("deck", "user", trainer.ModeRecall, nil, 0)
	s.LoadQueue([]*domain.Card{newCard("A", 0, nil)}, time.Now())

	if turn, err := s.Advance(context.Background()); err != nil || turn == nil {
		t.Fatalf("Expected a turn, got turn=%v err=%v", turn, err)
	}
	s.Grade("4")

	turn, err := s.Advance(context.Background())
	if err != nil {
		t.Fatalf("Advance on empty queue: %v", err)
	}
	if turn != nil {
		t.Errorf("Expected nil turn once the queue drains, got %+v", turn)
	}
}

func TestGradeUpdatesCardAndCounters(t *testing.T) {
	now := time.Now()
	card := newCard("A", 0, nil)
	s := NewSession("deck", "user", trainer.ModeRecall, nil, 0)
	s.LoadQueue([]*domain.Card{card}, now)

	if _, err := s.Advance(context.Background()); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	outcome := s.Grade("5")

	if outcome.Card != card {
		t.Error("Expected the graded card to be returned for persistence")
	}
	if card.ReviewCount != 1 {
		t.Errorf("Expected review count 1 after grading, got %d", card.ReviewCount)
	}
	if card.DueDate == nil {
		t.Error("Expected the card to be rescheduled")
	}
	if !outcome.Result.IsCorrect {
		t.Error("Expected a self-rated 5 to count as correct")
	}
	if len(s.History()) != 1 || s.History()[0].Score != 5 {
		t.Errorf("Expected history [(A, 5)], got %+v", s.History())
	}
	if s.State() != StateReady {
		t.Errorf("Expected StateReady after grading, got %v", s.State())
	}
}

func TestGradeWithoutCurrentPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Expected Grade without a presented card to panic")
		}
	}()
	s := NewSession("deck", "user", trainer.ModeRecall, nil, 0)
	s.LoadQueue(nil, time.Now())
	s.Grade("5")
}

func TestClozeRenderFailureKeepsCard(t *testing.T) {
	now := time.Now()
	gen := &stubGenerator{err: errors.New("api down")}
	s := NewSession("deck", "user", trainer.ModeCloze, gen, 0)
	s.LoadQueue([]*domain.Card{newCard("A", 0, nil), newCard("B", 0, nil)}, now)

	turn, err := s.Advance(context.Background())
	if turn != nil {
		t.Fatalf("Expected no turn on render failure, got %+v", turn)
	}
	if !errors.Is(err, trainer.ErrGeneratorUnavailable) {
		t.Fatalf("Expected ErrGeneratorUnavailable, got %v", err)
	}
	if s.Remaining() != 2 {
		t.Errorf("Expected the failed card back in the queue, remaining=%d", s.Remaining())
	}
	if s.queue[0].ID != "A" {
		t.Errorf("Expected the failed card at the queue head, got %s", s.queue[0].ID)
	}

	// Once the generator recovers, the same card is served again.
	gen.err = nil
	gen.sentence = "front A is a test term."
	turn, err = s.Advance(context.Background())
	if err != nil {
		t.Fatalf("Advance after recovery: %v", err)
	}
	if turn.Prompt.Front != "front A" {
		t.Errorf("Expected card A to be retried, got %q", turn.Prompt.Front)
	}
}

func TestSessionAccuracy(t *testing.T) {
	now := time.Now()
	var cards []*domain.Card
	for i := 0; i < 10; i++ {
		cards = append(cards, newCard(strconv.Itoa(i), 0, nil))
	}

	s := NewSession("deck", "user", trainer.ModeRecall, nil, 0)
	s.LoadQueue(cards, now)

	for i := 0; i < 10; i++ {
		if _, err := s.Advance(context.Background()); err != nil {
			t.Fatalf("Advance %d: %v", i, err)
		}
		answer := "5"
		if i >= 7 {
			answer = "1"
		}
		s.Grade(answer)
	}

	summary := s.End()
	if summary.CardsReviewed != 10 || summary.Correct != 7 || summary.Incorrect != 3 {
		t.Fatalf("Expected 10 reviewed, 7 correct, 3 incorrect; got %d/%d/%d",
			summary.CardsReviewed, summary.Correct, summary.Incorrect)
	}
	if summary.Accuracy != 0.7 {
		t.Errorf("Expected accuracy exactly 0.7, got %v", summary.Accuracy)
	}
}

func TestEndIdempotent(t *testing.T) {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	current := base
	s := NewSession("deck", "user", trainer.ModeRecall, nil, 0)
	s.clock = func() time.Time { return current }
	s.startedAt = base
	s.LoadQueue([]*domain.Card{newCard("A", 0, nil)}, base)

	if _, err := s.Advance(context.Background()); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	s.Grade("5")

	current = base.Add(90 * time.Second)
	first := s.End()

	// Time keeps moving, but the summary must not.
	current = base.Add(10 * time.Minute)
	second := s.End()

	if first != second {
		t.Error("Expected End to return the cached summary")
	}
	if second.DurationSeconds != 90 {
		t.Errorf("Expected duration frozen at 90s, got %v", second.DurationSeconds)
	}
	if second.CardsReviewed != 1 {
		t.Errorf("Expected statistics not to double-count, got %d reviewed", second.CardsReviewed)
	}
	if s.State() != StateEnded {
		t.Errorf("Expected StateEnded, got %v", s.State())
	}
}

func TestEndMidQueueLeavesCardsUntouched(t *testing.T) {
	now := time.Now()
	a := newCard("A", 0, nil)
	b := newCard("B", 0, nil)
	s := NewSession("deck", "user", trainer.ModeRecall, nil, 0)
	s.LoadQueue([]*domain.Card{a, b}, now)

	if _, err := s.Advance(context.Background()); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	s.Grade("5")

	summary := s.End()
	if summary.CardsReviewed != 1 {
		t.Errorf("Expected 1 card reviewed, got %d", summary.CardsReviewed)
	}
	if b.ReviewCount != 0 || b.DueDate != nil {
		t.Error("Expected the unreviewed card's scheduling metadata to be untouched")
	}
}
