// Package csvio imports and exports decks as CSV, carrying the
// scheduling metadata alongside the card content so a round-trip does
// not lose review progress.
package csvio

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/dykhalkin/ankichat/internal/domain"
)

var header = []string{
	"front", "back", "language", "interval", "easiness",
	"review_count", "due_date", "tags",
}

const tagSeparator = ";"

// Export writes the deck's cards to w, one row per card.
func Export(w io.Writer, deck *domain.Deck) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, card := range deck.Cards {
		due := ""
		if card.DueDate != nil {
			due = card.DueDate.Format(time.RFC3339)
		}
		record := []string{
			card.Front,
			card.Back,
			card.Language,
			strconv.FormatFloat(card.Interval, 'f', -1, 64),
			strconv.FormatFloat(card.Easiness, 'f', -1, 64),
			strconv.Itoa(card.ReviewCount),
			due,
			strings.Join(card.Tags, tagSeparator),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write card %s: %w", card.ID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// Import reads cards from r into a new deck with the given name and
// owner. Rows missing scheduling columns get fresh-card defaults, so
// plain two-column front/back files import cleanly.
func Import(r io.Reader, deckName, userID string) (*domain.Deck, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // rows may omit trailing metadata columns

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("csv is empty")
	}

	start := 0
	if isHeader(records[0]) {
		start = 1
	}

	deck := domain.NewDeck(deckName, userID)
	for i, record := range records[start:] {
		card, err := parseRecord(record)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", start+i+1, err)
		}
		deck.AddCard(card)
	}
	return deck, nil
}

func isHeader(record []string) bool {
	return len(record) >= 2 &&
		strings.EqualFold(strings.TrimSpace(record[0]), "front") &&
		strings.EqualFold(strings.TrimSpace(record[1]), "back")
}

func parseRecord(record []string) (*domain.Card, error) {
	if len(record) < 2 {
		return nil, fmt.Errorf("expected at least front and back columns, got %d", len(record))
	}

	card := domain.NewCard(strings.TrimSpace(record[0]), strings.TrimSpace(record[1]))
	if card.Front == "" {
		return nil, fmt.Errorf("front must not be empty")
	}

	if len(record) > 2 && record[2] != "" {
		card.Language = strings.TrimSpace(record[2])
	}
	if len(record) > 3 && record[3] != "" {
		interval, err := strconv.ParseFloat(record[3], 64)
		if err != nil {
			return nil, fmt.Errorf("bad interval %q: %w", record[3], err)
		}
		card.Interval = interval
	}
	if len(record) > 4 && record[4] != "" {
		easiness, err := strconv.ParseFloat(record[4], 64)
		if err != nil {
			return nil, fmt.Errorf("bad easiness %q: %w", record[4], err)
		}
		card.Easiness = easiness
	}
	if len(record) > 5 && record[5] != "" {
		count, err := strconv.Atoi(record[5])
		if err != nil {
			return nil, fmt.Errorf("bad review count %q: %w", record[5], err)
		}
		card.ReviewCount = count
	}
	if len(record) > 6 && record[6] != "" {
		due, err := time.Parse(time.RFC3339, record[6])
		if err != nil {
			return nil, fmt.Errorf("bad due date %q: %w", record[6], err)
		}
		card.DueDate = &due
	}
	if len(record) > 7 && record[7] != "" {
		card.Tags = strings.Split(record[7], tagSeparator)
	}
	return card, nil
}
