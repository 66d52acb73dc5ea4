package srs

import (
	"math"
	"testing"
	"time"

	"github.com/dykhalkin/ankichat/internal/domain"
)

func freshCard() *domain.Card {
	return &domain.Card{
		ID:       "card-1",
		Front:    "Front",
		Back:     "Back",
		Interval: 1.0,
		Easiness: 2.5,
	}
}

func TestScheduleSuccessfulGrowth(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	card := freshCard()

	// First successful review: interval is the fixed 1-day step.
	Schedule(card, PerfectRecall, now)
	if card.Interval != 1.0 {
		t.Errorf("Expected interval 1.0 after first review, got %.2f", card.Interval)
	}
	firstEasiness := card.Easiness
	if firstEasiness <= 2.5 {
		t.Errorf("Expected easiness to increase after perfect recall, got %.2f", firstEasiness)
	}

	// Second successful review: fixed 6-day step.
	Schedule(card, PerfectRecall, now)
	if card.Interval != 6.0 {
		t.Errorf("Expected interval 6.0 after second review, got %.2f", card.Interval)
	}
	secondEasiness := card.Easiness
	if secondEasiness <= firstEasiness {
		t.Errorf("Expected easiness to keep increasing, got %.2f", secondEasiness)
	}

	// Third review multiplies by the easiness in effect before the update.
	Schedule(card, PerfectRecall, now)
	expected := 6.0 * secondEasiness
	if math.Abs(card.Interval-expected) > 1e-9 {
		t.Errorf("Expected interval %.4f after third review, got %.4f", expected, card.Interval)
	}
}

func TestSchedulePunitiveReset(t *testing.T) {
	now := time.Now()
	card := freshCard()
	card.Interval = 6.0
	card.ReviewCount = 2

	Schedule(card, CompleteBlackout, now)

	if math.Abs(card.Interval-1.2) > 1e-9 {
		t.Errorf("Expected interval max(0.2, 6.0*0.2)=1.2, got %.4f", card.Interval)
	}
	if card.Easiness >= 2.5 {
		t.Errorf("Expected easiness to decrease after blackout, got %.2f", card.Easiness)
	}
	if card.ReviewCount != 3 {
		t.Errorf("Expected review count 3, got %d", card.ReviewCount)
	}
}

func TestScheduleIntervalFloor(t *testing.T) {
	now := time.Now()
	card := freshCard()
	card.Interval = 0.5
	card.ReviewCount = 3

	Schedule(card, IncorrectFamiliar, now)

	if card.Interval != MinInterval {
		t.Errorf("Expected interval floored at %.1f, got %.4f", MinInterval, card.Interval)
	}
}

func TestScheduleEasinessDelta(t *testing.T) {
	// EF' = EF + (0.1 - (5-q)*(0.08 + (5-q)*0.02))
	tests := []struct {
		score    Score
		expected float64
	}{
		{PerfectRecall, 2.6},
		{CorrectHesitation, 2.5},
		{CorrectDifficult, 2.36},
		{IncorrectFamiliar, 2.18},
		{IncorrectRecognized, 1.96},
		{CompleteBlackout, 1.7},
	}

	now := time.Now()
	for _, tt := range tests {
		card := freshCard()
		Schedule(card, tt.score, now)
		if math.Abs(card.Easiness-tt.expected) > 1e-9 {
			t.Errorf("Score %d: expected easiness %.4f, got %.4f", tt.score, tt.expected, card.Easiness)
		}
	}
}

func TestScheduleBoundsInvariant(t *testing.T) {
	now := time.Now()
	card := freshCard()

	// Hammer the card with alternating extremes; the bounds must hold
	// after every single update.
	scores := []Score{0, 0, 0, 0, 0, 5, 5, 5, 5, 5, 0, 5, 0, 5, 0, 0, 0, 0, 0, 0}
	for i, s := range scores {
		Schedule(card, s, now)
		if card.Easiness < MinEasiness || card.Easiness > MaxEasiness {
			t.Fatalf("Step %d: easiness %.4f outside [%.1f, %.1f]", i, card.Easiness, MinEasiness, MaxEasiness)
		}
		if card.Interval < MinInterval {
			t.Fatalf("Step %d: interval %.4f below %.1f", i, card.Interval, MinInterval)
		}
	}
}

func TestScheduleSetsDueDate(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	card := freshCard()

	Schedule(card, PerfectRecall, now)

	if card.DueDate == nil {
		t.Fatal("Expected due date to be set")
	}
	expected := now.Add(24 * time.Hour)
	if !card.DueDate.Equal(expected) {
		t.Errorf("Expected due date %v, got %v", expected, *card.DueDate)
	}
}

func TestScheduleInvalidScorePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Expected panic for score outside 0-5")
		}
	}()
	Schedule(freshCard(), Score(6), time.Now())
}

func TestIsDue(t *testing.T) {
	now := time.Now()

	t.Run("never scheduled", func(t *testing.T) {
		card := freshCard()
		if !IsDue(card, now) {
			t.Error("Expected a card without a due date to be due")
		}
	})

	t.Run("past due date", func(t *testing.T) {
		card := freshCard()
		past := now.Add(-48 * time.Hour)
		card.DueDate = &past
		if !IsDue(card, now) {
			t.Error("Expected an overdue card to be due")
		}
	})

	t.Run("due exactly now", func(t *testing.T) {
		card := freshCard()
		card.DueDate = &now
		if !IsDue(card, now) {
			t.Error("Expected a card due exactly now to be due")
		}
	})

	t.Run("future due date", func(t *testing.T) {
		card := freshCard()
		future := now.Add(72 * time.Hour)
		card.DueDate = &future
		if IsDue(card, now) {
			t.Error("Expected a card due in the future not to be due")
		}
	})
}

func TestReset(t *testing.T) {
	now := time.Now()
	card := freshCard()
	card.Interval = 42.0
	card.Easiness = 3.8
	card.ReviewCount = 9

	Reset(card, now)

	if card.Interval != 1.0 || card.Easiness != 2.5 || card.ReviewCount != 0 {
		t.Errorf("Expected initial metadata after reset, got interval=%.1f easiness=%.1f count=%d",
			card.Interval, card.Easiness, card.ReviewCount)
	}
	if card.DueDate == nil || !card.DueDate.Equal(now.Add(24*time.Hour)) {
		t.Errorf("Expected due date one day from now, got %v", card.DueDate)
	}
}
