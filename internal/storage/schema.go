package storage

const schema = `
-- Decks group cards per user.
CREATE TABLE IF NOT EXISTS decks (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    user_id TEXT NOT NULL,
    created_at DATETIME NOT NULL,

    UNIQUE(user_id, name)
);

-- Cards carry their content plus the scheduling metadata the SRS
-- engine updates after every graded review.
CREATE TABLE IF NOT EXISTS cards (
    id TEXT PRIMARY KEY,
    deck_id TEXT NOT NULL,
    front TEXT NOT NULL,
    back TEXT NOT NULL,
    language TEXT NOT NULL DEFAULT 'en',
    created_at DATETIME NOT NULL,
    due_date DATETIME,
    interval REAL NOT NULL DEFAULT 1.0,
    easiness REAL NOT NULL DEFAULT 2.5,
    review_count INTEGER NOT NULL DEFAULT 0,
    tags TEXT NOT NULL DEFAULT '',

    FOREIGN KEY(deck_id) REFERENCES decks(id)
);

-- One row per graded review, for history and statistics.
CREATE TABLE IF NOT EXISTS review_logs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    card_id TEXT NOT NULL,
    user_id TEXT NOT NULL,
    timestamp DATETIME NOT NULL,
    score INTEGER NOT NULL,

    FOREIGN KEY(card_id) REFERENCES cards(id)
);
`
