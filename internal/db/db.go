package db

import (
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

var ErrNotFound = errors.New("record not found")

type Storage struct {
	db *sql.DB
}

func ConnectDB(dbPath string) (*Storage, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	// SQLite serializes writes anyway; a single connection also keeps
	// in-memory databases coherent across the pool.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}

	storage := &Storage{db: db}
	if err := storage.UpdateSchema(); err != nil {
		return nil, fmt.Errorf("error updating schema: %w", err)
	}

	return storage, nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}
