package srs

import (
	"fmt"
	"time"

	"github.com/dykhalkin/ankichat/internal/domain"
)

// Score is the user's recall quality for a single review, following the
// SuperMemo SM-2 scale:
// 0: Complete blackout
// 1: Incorrect, but recognized the answer when shown
// 2: Incorrect, but the answer felt familiar
// 3: Correct with significant difficulty
// 4: Correct with some hesitation
// 5: Perfect recall
type Score int

const (
	CompleteBlackout    Score = 0
	IncorrectRecognized Score = 1
	IncorrectFamiliar   Score = 2
	CorrectDifficult    Score = 3
	CorrectHesitation   Score = 4
	PerfectRecall       Score = 5
)

// Bounds for the easiness factor and interval so the schedule never
// collapses to zero or diverges unboundedly.
const (
	MinEasiness = 1.3
	MaxEasiness = 5.0

	// MinInterval floors the punitive reset applied on failed recall.
	MinInterval = 0.2

	// againModifier shrinks the interval after a failed recall.
	againModifier = 0.2
)

// Successful reports whether the score counts as a successful recall.
// Scores of 3 and above grow the interval; lower scores reset it.
func (s Score) Successful() bool {
	return s >= CorrectDifficult
}

// Valid reports whether the score is within the 0-5 scale.
func (s Score) Valid() bool {
	return s >= CompleteBlackout && s <= PerfectRecall
}

// Schedule updates the card's scheduling metadata after a review and
// returns the same card. A score outside the 0-5 scale is a caller bug
// and panics.
//
// The new interval is derived from the pre-update easiness and interval:
// failed recall shrinks the interval to a fifth (floored at MinInterval),
// the first two successful reviews use the fixed 1-day and 6-day steps,
// and later reviews multiply the previous interval by the previous
// easiness.
func Schedule(card *domain.Card, score Score, now time.Time) *domain.Card {
	if !score.Valid() {
		panic(fmt.Sprintf("srs: score %d outside 0-5 scale", score))
	}

	card.ReviewCount++

	// SM-2 easiness update: EF' = EF + (0.1 - (5-q)*(0.08 + (5-q)*0.02))
	q := float64(score)
	prevEasiness := card.Easiness
	prevInterval := card.Interval
	card.Easiness = clamp(prevEasiness+0.1-(5-q)*(0.08+(5-q)*0.02), MinEasiness, MaxEasiness)

	var interval float64
	switch {
	case !score.Successful():
		interval = prevInterval * againModifier
		if interval < MinInterval {
			interval = MinInterval
		}
	case card.ReviewCount == 1:
		interval = 1.0
	case card.ReviewCount == 2:
		interval = 6.0
	default:
		interval = prevInterval * prevEasiness
	}

	card.Interval = interval
	due := now.Add(days(interval))
	card.DueDate = &due

	return card
}

// IsDue reports whether the card is eligible for review at the given
// time. A card that has never been scheduled is always due.
func IsDue(card *domain.Card, now time.Time) bool {
	if card.DueDate == nil {
		return true
	}
	return !now.Before(*card.DueDate)
}

// Reset returns the card's scheduling metadata to its initial state,
// due again one day from now.
func Reset(card *domain.Card, now time.Time) *domain.Card {
	card.Interval = 1.0
	card.Easiness = 2.5
	card.ReviewCount = 0
	due := now.Add(days(1.0))
	card.DueDate = &due
	return card
}

func days(d float64) time.Duration {
	return time.Duration(d * 24 * float64(time.Hour))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
