package review

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/dykhalkin/ankichat/internal/domain"
	"github.com/dykhalkin/ankichat/internal/trainer"
)

var (
	// ErrSessionActive is returned by Begin when the user already has a
	// live session. Callers must End it explicitly first.
	ErrSessionActive = errors.New("review: session already active for user")

	// ErrNoSession is returned when the user has no live session.
	ErrNoSession = errors.New("review: no active session for user")

	// ErrNothingDue is returned by Begin when none of the deck's cards
	// are due for review.
	ErrNothingDue = errors.New("review: no cards due for review")
)

// Registry maps each user to at most one live session. It is the only
// shared mutable structure in the engine; the lock guards the map
// alone, never a session's own operations, so one user's generation
// call cannot block another user's session.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session

	gen      trainer.SentenceGenerator
	maxCards int
	logger   *slog.Logger
}

// NewRegistry creates a registry. gen may be nil when cloze mode is not
// offered; maxCards of zero or less means DefaultMaxCards.
func NewRegistry(gen trainer.SentenceGenerator, maxCards int) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		gen:      gen,
		maxCards: maxCards,
		logger:   slog.Default(),
	}
}

// Begin starts a session for the user over the given cards. It fails
// with ErrSessionActive when one exists, with ErrGeneratorUnavailable
// when cloze mode is requested without a generator, and with
// ErrNothingDue when the due queue comes up empty.
func (r *Registry) Begin(userID, deckID string, mode trainer.Mode, cards []*domain.Card, now time.Time) (*Session, error) {
	if mode == trainer.ModeCloze && r.gen == nil {
		return nil, trainer.ErrGeneratorUnavailable
	}

	session := NewSession(deckID, userID, mode, r.gen, r.maxCards)
	session.LoadQueue(cards, now)
	if session.Remaining() == 0 {
		return nil, ErrNothingDue
	}

	r.mu.Lock()
	if _, exists := r.sessions[userID]; exists {
		r.mu.Unlock()
		return nil, ErrSessionActive
	}
	r.sessions[userID] = session
	r.mu.Unlock()

	r.logger.Info("review session started",
		"user_id", userID,
		"deck_id", deckID,
		"mode", string(mode),
		"cards_due", session.Remaining(),
	)
	return session, nil
}

// Get returns the user's live session.
func (r *Registry) Get(userID string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, exists := r.sessions[userID]
	if !exists {
		return nil, ErrNoSession
	}
	return session, nil
}

// End removes the user's session and returns its summary. Cards still
// queued are discarded unscheduled.
func (r *Registry) End(userID string) (*Summary, error) {
	r.mu.Lock()
	session, exists := r.sessions[userID]
	if exists {
		delete(r.sessions, userID)
	}
	r.mu.Unlock()

	if !exists {
		return nil, ErrNoSession
	}

	summary := session.End()
	r.logger.Info("review session ended",
		"user_id", userID,
		"deck_id", summary.DeckID,
		"cards_reviewed", summary.CardsReviewed,
		"accuracy", summary.Accuracy,
	)
	return summary, nil
}
