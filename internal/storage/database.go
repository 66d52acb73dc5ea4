package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/dykhalkin/ankichat/internal/domain"
	_ "modernc.org/sqlite" // Registers the sqlite driver
)

// DB wraps the SQL database connection.
type DB struct {
	conn *sql.DB
}

// Open creates a new database connection and ensures the schema is up
// to date.
func Open(dsn string) (*DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &DB{conn: db}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// InsertDeck stores a new deck.
func (db *DB) InsertDeck(deck *domain.Deck) error {
	_, err := db.conn.Exec(`
		INSERT INTO decks (id, name, description, user_id, created_at)
		VALUES (?, ?, ?, ?, ?)
	`,
		deck.ID,
		deck.Name,
		deck.Description,
		deck.UserID,
		deck.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert deck %s: %w", deck.Name, err)
	}
	return nil
}

// FindDeckByName retrieves a user's deck by name, without its cards.
// Returns nil when the deck does not exist.
func (db *DB) FindDeckByName(userID, name string) (*domain.Deck, error) {
	var d domain.Deck
	row := db.conn.QueryRow(`
		SELECT id, name, description, user_id, created_at
		FROM decks WHERE user_id = ? AND name = ?
	`, userID, name)

	err := row.Scan(&d.ID, &d.Name, &d.Description, &d.UserID, &d.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Deck not found
		}
		return nil, fmt.Errorf("failed to find deck %s: %w", name, err)
	}
	return &d, nil
}

// GetDecksByUser retrieves all of a user's decks, without their cards.
func (db *DB) GetDecksByUser(userID string) ([]*domain.Deck, error) {
	rows, err := db.conn.Query(`
		SELECT id, name, description, user_id, created_at
		FROM decks WHERE user_id = ?
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get decks for user %s: %w", userID, err)
	}
	defer rows.Close()

	var decks []*domain.Deck
	for rows.Next() {
		var d domain.Deck
		if err := rows.Scan(&d.ID, &d.Name, &d.Description, &d.UserID, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan deck row: %w", err)
		}
		decks = append(decks, &d)
	}
	return decks, rows.Err()
}

// GetDeckCards retrieves all cards belonging to a deck.
func (db *DB) GetDeckCards(deckID string) ([]*domain.Card, error) {
	rows, err := db.conn.Query(`
		SELECT id, deck_id, front, back, language, created_at, due_date,
		       interval, easiness, review_count, tags
		FROM cards WHERE deck_id = ?
	`, deckID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cards for deck %s: %w", deckID, err)
	}
	defer rows.Close()

	var cards []*domain.Card
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		cards = append(cards, card)
	}
	return cards, rows.Err()
}

// InsertCard stores a new card.
func (db *DB) InsertCard(card *domain.Card) error {
	_, err := db.conn.Exec(`
		INSERT INTO cards (id, deck_id, front, back, language, created_at,
		                   due_date, interval, easiness, review_count, tags)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		card.ID,
		card.DeckID,
		card.Front,
		card.Back,
		card.Language,
		card.CreatedAt,
		nullTime(card.DueDate),
		card.Interval,
		card.Easiness,
		card.ReviewCount,
		strings.Join(card.Tags, ";"),
	)
	if err != nil {
		return fmt.Errorf("failed to insert card %s: %w", card.ID, err)
	}
	return nil
}

// UpdateCard updates a card's content and scheduling metadata.
func (db *DB) UpdateCard(card *domain.Card) error {
	_, err := db.conn.Exec(`
		UPDATE cards
		SET front = ?, back = ?, language = ?, due_date = ?,
		    interval = ?, easiness = ?, review_count = ?, tags = ?
		WHERE id = ?
	`,
		card.Front,
		card.Back,
		card.Language,
		nullTime(card.DueDate),
		card.Interval,
		card.Easiness,
		card.ReviewCount,
		strings.Join(card.Tags, ";"),
		card.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update card %s: %w", card.ID, err)
	}
	return nil
}

// FindCardByID retrieves a single card. Returns nil when it does not
// exist.
func (db *DB) FindCardByID(id string) (*domain.Card, error) {
	row := db.conn.QueryRow(`
		SELECT id, deck_id, front, back, language, created_at, due_date,
		       interval, easiness, review_count, tags
		FROM cards WHERE id = ?
	`, id)

	card, err := scanCard(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Card not found
		}
		return nil, fmt.Errorf("failed to find card %s: %w", id, err)
	}
	return card, nil
}

// FindCardByFront retrieves a card in a deck by its front content.
// Used by source sync to avoid re-importing cards. Returns nil when no
// such card exists.
func (db *DB) FindCardByFront(deckID, front string) (*domain.Card, error) {
	row := db.conn.QueryRow(`
		SELECT id, deck_id, front, back, language, created_at, due_date,
		       interval, easiness, review_count, tags
		FROM cards WHERE deck_id = ? AND front = ?
	`, deckID, front)

	card, err := scanCard(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find card %q in deck %s: %w", front, deckID, err)
	}
	return card, nil
}

// DeleteCard removes a card.
func (db *DB) DeleteCard(id string) error {
	_, err := db.conn.Exec(`DELETE FROM cards WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete card %s: %w", id, err)
	}
	return nil
}

// InsertReviewLog records a graded review.
func (db *DB) InsertReviewLog(log *domain.ReviewLog) error {
	_, err := db.conn.Exec(`
		INSERT INTO review_logs (card_id, user_id, timestamp, score)
		VALUES (?, ?, ?, ?)
	`,
		log.CardID,
		log.UserID,
		log.Timestamp,
		log.Score,
	)
	if err != nil {
		return fmt.Errorf("failed to insert review log for card %s: %w", log.CardID, err)
	}
	return nil
}

// GetReviewLogs retrieves a card's review history, oldest first.
func (db *DB) GetReviewLogs(cardID string) ([]*domain.ReviewLog, error) {
	rows, err := db.conn.Query(`
		SELECT card_id, user_id, timestamp, score
		FROM review_logs WHERE card_id = ? ORDER BY timestamp
	`, cardID)
	if err != nil {
		return nil, fmt.Errorf("failed to get review logs for card %s: %w", cardID, err)
	}
	defer rows.Close()

	var logs []*domain.ReviewLog
	for rows.Next() {
		var l domain.ReviewLog
		if err := rows.Scan(&l.CardID, &l.UserID, &l.Timestamp, &l.Score); err != nil {
			return nil, fmt.Errorf("failed to scan review log row: %w", err)
		}
		logs = append(logs, &l)
	}
	return logs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCard(row rowScanner) (*domain.Card, error) {
	var (
		card domain.Card
		due  sql.NullTime
		tags string
	)
	err := row.Scan(
		&card.ID,
		&card.DeckID,
		&card.Front,
		&card.Back,
		&card.Language,
		&card.CreatedAt,
		&due,
		&card.Interval,
		&card.Easiness,
		&card.ReviewCount,
		&tags,
	)
	if err != nil {
		return nil, err
	}
	if due.Valid {
		t := due.Time
		card.DueDate = &t
	}
	if tags != "" {
		card.Tags = strings.Split(tags, ";")
	}
	return &card, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
