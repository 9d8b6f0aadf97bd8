package db

// UpdateSchema creates the application tables if they do not exist yet.
func (s *Storage) UpdateSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT UNIQUE NOT NULL,
		password_hash TEXT NOT NULL,
		full_name TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		deleted_at TIMESTAMP
	);
	-- Folders group decks
	CREATE TABLE IF NOT EXISTS folders (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		name TEXT NOT NULL,
		description TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		deleted_at TIMESTAMP,
		FOREIGN KEY (user_id) REFERENCES users(id)
	);
	-- Decks table
	CREATE TABLE IF NOT EXISTS decks (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		folder_id TEXT,
		title TEXT NOT NULL,
		description TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		deleted_at TIMESTAMP,
		FOREIGN KEY (user_id) REFERENCES users(id),
		FOREIGN KEY (folder_id) REFERENCES folders(id)
	);
	-- Flashcards table. options/tags hold JSON arrays; options and
	-- correct_index are set together for mcq/true_false cards only.
	CREATE TABLE IF NOT EXISTS flashcards (
		id TEXT PRIMARY KEY,
		deck_id TEXT NOT NULL,
		question TEXT NOT NULL,
		answer TEXT NOT NULL,
		difficulty TEXT NOT NULL DEFAULT 'medium',
		question_type TEXT NOT NULL DEFAULT 'free_response',
		options TEXT,
		correct_index INTEGER,
		tags TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		deleted_at TIMESTAMP,
		FOREIGN KEY (deck_id) REFERENCES decks(id)
	);
	-- Embedding cache. Keyed by content hash, rows are immutable once written.
	CREATE TABLE IF NOT EXISTS embeddings (
		text_hash TEXT PRIMARY KEY,
		text_content TEXT NOT NULL,
		embedding TEXT NOT NULL,
		model_name TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	-- Study sessions
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		deck_id TEXT NOT NULL,
		started_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		ended_at TIMESTAMP,
		total_cards INTEGER NOT NULL DEFAULT 0,
		correct_answers INTEGER NOT NULL DEFAULT 0,
		incorrect_answers INTEGER NOT NULL DEFAULT 0,
		FOREIGN KEY (user_id) REFERENCES users(id),
		FOREIGN KEY (deck_id) REFERENCES decks(id)
	);
	-- Podcast builds, processed by the background worker
	CREATE TABLE IF NOT EXISTS podcasts (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		deck_id TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		audio_url TEXT,
		segment_count INTEGER NOT NULL DEFAULT 0,
		error TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (user_id) REFERENCES users(id),
		FOREIGN KEY (deck_id) REFERENCES decks(id)
	);

	CREATE INDEX IF NOT EXISTS idx_decks_user_id ON decks(user_id);
	CREATE INDEX IF NOT EXISTS idx_decks_folder_id ON decks(folder_id);
	CREATE INDEX IF NOT EXISTS idx_flashcards_deck_id ON flashcards(deck_id);
	CREATE INDEX IF NOT EXISTS idx_sessions_user_id ON sessions(user_id);
	CREATE INDEX IF NOT EXISTS idx_podcasts_status ON podcasts(status);
	`

	_, err := s.db.Exec(schema)
	if err != nil {
		return err
	}

	return nil
}
