package domain

import (
	"time"

	"github.com/google/uuid"
)

// Card represents a single flashcard with its scheduling metadata.
type Card struct {
	ID          string
	Front       string
	Back        string
	Language    string
	CreatedAt   time.Time
	DueDate     *time.Time // nil means the card has never been scheduled
	Interval    float64    // days until the next review
	Easiness    float64    // multiplicative interval growth factor
	ReviewCount int
	DeckID      string
	Tags        []string
}

// NewCard creates a card with a fresh ID and initial scheduling metadata.
func NewCard(front, back string) *Card {
	return &Card{
		ID:        uuid.NewString(),
		Front:     front,
		Back:      back,
		Language:  "en",
		CreatedAt: time.Now(),
		Interval:  1.0,
		Easiness:  2.5,
	}
}

// Deck is a named collection of cards belonging to one user.
type Deck struct {
	ID          string
	Name        string
	Description string
	CreatedAt   time.Time
	UserID      string
	Cards       []*Card
}

// NewDeck creates an empty deck with a fresh ID.
func NewDeck(name, userID string) *Deck {
	return &Deck{
		ID:        uuid.NewString(),
		Name:      name,
		UserID:    userID,
		CreatedAt: time.Now(),
	}
}

// AddCard appends a card to the deck and claims ownership of it.
func (d *Deck) AddCard(card *Card) {
	card.DeckID = d.ID
	d.Cards = append(d.Cards, card)
}

// ReviewLog records a single graded review of a card.
type ReviewLog struct {
	CardID    string
	UserID    string
	Timestamp time.Time
	Score     int
}
