package review

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/dykhalkin/ankichat/internal/domain"
	"github.com/dykhalkin/ankichat/internal/srs"
	"github.com/dykhalkin/ankichat/internal/trainer"
)

// DefaultMaxCards caps how many cards one session reviews.
const DefaultMaxCards = 20

// State tracks where a session is in its lifecycle.
type State int

const (
	// StateEmpty means no queue has been loaded yet.
	StateEmpty State = iota
	// StateReady means the queue is loaded and no card is presented.
	StateReady
	// StatePresenting means a card is bound to a trainer and awaits
	// grading.
	StatePresenting
	// StateEnded is terminal; the summary has been emitted.
	StateEnded
)

// Turn is one presented card plus the session's progress.
type Turn struct {
	Prompt   *trainer.Prompt
	Progress Progress
}

// Progress describes how far through the session the user is. Total is
// recomputed per turn: cards already reviewed, the current card, and
// whatever remains queued.
type Progress struct {
	Current   int
	Total     int
	Correct   int
	Incorrect int
}

// Outcome is the graded result of one answer. Card is the reviewed card
// with updated scheduling metadata; the caller must persist it.
type Outcome struct {
	Result    *trainer.Result
	Card      *domain.Card
	Remaining int
	Progress  Progress
}

// ReviewedCard pairs a graded card with the score it received.
type ReviewedCard struct {
	Card  *domain.Card
	Score srs.Score
}

// Summary is the terminal report of a session.
type Summary struct {
	DeckID          string
	UserID          string
	Mode            trainer.Mode
	StartedAt       time.Time
	DurationSeconds float64
	CardsReviewed   int
	Correct         int
	Incorrect       int
	Accuracy        float64
}

// Session walks one user through a bounded queue of due cards. Its
// operations are strictly sequential: Advance, then Grade, then the
// next Advance. It is not safe for concurrent use; the registry hands
// each session to exactly one user.
type Session struct {
	deckID   string
	userID   string
	mode     trainer.Mode
	maxCards int
	gen      trainer.SentenceGenerator
	clock    func() time.Time

	state          State
	queue          []*domain.Card
	current        *domain.Card
	currentTrainer trainer.Trainer

	reviewed  int
	correct   int
	incorrect int
	history   []ReviewedCard
	startedAt time.Time
	summary   *Summary
}

// NewSession creates a session for one user over one deck. A maxCards
// of zero or less falls back to DefaultMaxCards. gen may be nil for
// modes that never call the generator.
func NewSession(deckID, userID string, mode trainer.Mode, gen trainer.SentenceGenerator, maxCards int) *Session {
	if maxCards <= 0 {
		maxCards = DefaultMaxCards
	}
	s := &Session{
		deckID:   deckID,
		userID:   userID,
		mode:     mode,
		maxCards: maxCards,
		gen:      gen,
		clock:    time.Now,
	}
	s.startedAt = s.clock()
	return s
}

// LoadQueue filters the cards to those due at the given time and orders
// them: never-reviewed cards first, then previously reviewed cards by
// ascending due time (a missing due time counts as now). The queue is
// truncated to the session's card cap. New material is introduced
// before backlog, and the most overdue backlog comes first.
func (s *Session) LoadQueue(cards []*domain.Card, now time.Time) {
	var fresh, seen []*domain.Card
	for _, card := range cards {
		if !srs.IsDue(card, now) {
			continue
		}
		if card.ReviewCount == 0 {
			fresh = append(fresh, card)
		} else {
			seen = append(seen, card)
		}
	}

	sort.SliceStable(seen, func(i, j int) bool {
		return dueOr(seen[i], now).Before(dueOr(seen[j], now))
	})

	queue := append(fresh, seen...)
	if len(queue) > s.maxCards {
		queue = queue[:s.maxCards]
	}
	s.queue = queue
	s.state = StateReady
}

// Advance pops the next card, binds it to a trainer for the session's
// mode, and renders it. It returns nil when the queue is exhausted; the
// caller is expected to End the session then.
//
// A render failure (the cloze generator being unavailable) pushes the
// card back to the head of the queue and returns the error unchanged.
// There is no fallback to another mode: degrading silently would teach
// the wrong material.
func (s *Session) Advance(ctx context.Context) (*Turn, error) {
	if len(s.queue) == 0 {
		s.current = nil
		s.currentTrainer = nil
		if s.state != StateEnded {
			s.state = StateReady
		}
		return nil, nil
	}

	card := s.queue[0]
	s.queue = s.queue[1:]

	tr, err := trainer.New(s.mode, card, s.gen)
	if err != nil {
		s.queue = append([]*domain.Card{card}, s.queue...)
		return nil, err
	}

	prompt, err := tr.Render(ctx)
	if err != nil {
		s.queue = append([]*domain.Card{card}, s.queue...)
		return nil, fmt.Errorf("render card %s: %w", card.ID, err)
	}

	s.current = card
	s.currentTrainer = tr
	s.state = StatePresenting

	return &Turn{
		Prompt: prompt,
		Progress: Progress{
			Current:   s.reviewed + 1,
			Total:     s.reviewed + 1 + len(s.queue),
			Correct:   s.correct,
			Incorrect: s.incorrect,
		},
	}, nil
}

// Grade feeds the raw answer to the bound trainer, reschedules the
// current card with the resulting score, and updates the session
// counters. Calling Grade with no presented card is a caller bug and
// panics.
func (s *Session) Grade(answer string) *Outcome {
	if s.current == nil || s.currentTrainer == nil {
		panic("review: Grade called with no card presented")
	}

	result := s.currentTrainer.Grade(answer)
	srs.Schedule(s.current, result.Score, s.clock())

	s.reviewed++
	if result.IsCorrect {
		s.correct++
	} else {
		s.incorrect++
	}
	s.history = append(s.history, ReviewedCard{Card: s.current, Score: result.Score})

	card := s.current
	s.current = nil
	s.currentTrainer = nil
	s.state = StateReady

	return &Outcome{
		Result:    result,
		Card:      card,
		Remaining: len(s.queue),
		Progress: Progress{
			Current:   s.reviewed,
			Total:     s.reviewed + len(s.queue),
			Correct:   s.correct,
			Incorrect: s.incorrect,
		},
	}
}

// End finalizes the session and returns its summary. Cards still queued
// are discarded without touching their scheduling metadata. End is
// idempotent: repeated calls return the summary computed the first
// time.
func (s *Session) End() *Summary {
	if s.summary != nil {
		return s.summary
	}

	accuracy := 0.0
	if s.reviewed > 0 {
		accuracy = float64(s.correct) / float64(s.reviewed)
	}

	s.summary = &Summary{
		DeckID:          s.deckID,
		UserID:          s.userID,
		Mode:            s.mode,
		StartedAt:       s.startedAt,
		DurationSeconds: s.clock().Sub(s.startedAt).Seconds(),
		CardsReviewed:   s.reviewed,
		Correct:         s.correct,
		Incorrect:       s.incorrect,
		Accuracy:        accuracy,
	}
	s.state = StateEnded
	s.current = nil
	s.currentTrainer = nil
	s.queue = nil
	return s.summary
}

// State returns the session's lifecycle state.
func (s *Session) State() State { return s.state }

// Mode returns the trainer mode the session was started with.
func (s *Session) Mode() trainer.Mode { return s.mode }

// Remaining returns how many cards are still queued.
func (s *Session) Remaining() int { return len(s.queue) }

// History returns the cards graded so far, in review order.
func (s *Session) History() []ReviewedCard { return s.history }

func dueOr(card *domain.Card, fallback time.Time) time.Time {
	if card.DueDate == nil {
		return fallback
	}
	return *card.DueDate
}
