package ledger

import (
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore persists both ledgers in a SQLite database. Each save
// upserts the full snapshot inside one transaction; update cycles
// additionally serialize on the store mutex so a load-modify-save never
// races another one.
type SQLiteStore struct {
	mu sync.Mutex
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path and ensures
// the schema exists.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	if err := initTables(db); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

func initTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS accounts (
			player_id TEXT PRIMARY KEY,
			chips INTEGER NOT NULL,
			wins INTEGER NOT NULL DEFAULT 0,
			losses INTEGER NOT NULL DEFAULT 0,
			last_daily TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating accounts table: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS stats (
			player_id TEXT PRIMARY KEY,
			wins INTEGER NOT NULL DEFAULT 0,
			losses INTEGER NOT NULL DEFAULT 0
		)
	`)
	if err != nil {
		return fmt.Errorf("creating stats table: %w", err)
	}

	return nil
}

func (s *SQLiteStore) LoadAccounts() (map[string]Account, error) {
	rows, err := s.db.Query("SELECT player_id, chips, wins, losses, last_daily FROM accounts")
	if err != nil {
		return nil, fmt.Errorf("loading accounts: %w", err)
	}
	defer rows.Close()

	accounts := make(map[string]Account)
	for rows.Next() {
		var (
			playerID  string
			acct      Account
			lastDaily sql.NullTime
		)
		if err := rows.Scan(&playerID, &acct.Chips, &acct.Wins, &acct.Losses, &lastDaily); err != nil {
			return nil, fmt.Errorf("scanning account: %w", err)
		}
		if lastDaily.Valid {
			t := lastDaily.Time
			acct.LastDaily = &t
		}
		accounts[playerID] = acct
	}

	return accounts, rows.Err()
}

func (s *SQLiteStore) SaveAccounts(accounts map[string]Account) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("saving accounts: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO accounts (player_id, chips, wins, losses, last_daily)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (player_id) DO UPDATE
		SET chips = excluded.chips, wins = excluded.wins,
		    losses = excluded.losses, last_daily = excluded.last_daily
	`)
	if err != nil {
		return fmt.Errorf("saving accounts: %w", err)
	}
	defer stmt.Close()

	for playerID, acct := range accounts {
		var lastDaily interface{}
		if acct.LastDaily != nil {
			lastDaily = *acct.LastDaily
		}
		if _, err := stmt.Exec(playerID, acct.Chips, acct.Wins, acct.Losses, lastDaily); err != nil {
			return fmt.Errorf("saving account %s: %w", playerID, err)
		}
	}

	return tx.Commit()
}

// UpdateAccounts runs fn on the current accounts snapshot and saves the
// result, holding the store mutex across the whole cycle.
func (s *SQLiteStore) UpdateAccounts(fn func(map[string]Account) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	accounts, err := s.LoadAccounts()
	if err != nil {
		return err
	}
	if err := fn(accounts); err != nil {
		return err
	}
	return s.SaveAccounts(accounts)
}

func (s *SQLiteStore) LoadStats() (map[string]Stats, error) {
	rows, err := s.db.Query("SELECT player_id, wins, losses FROM stats")
	if err != nil {
		return nil, fmt.Errorf("loading stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[string]Stats)
	for rows.Next() {
		var (
			playerID string
			st       Stats
		)
		if err := rows.Scan(&playerID, &st.Wins, &st.Losses); err != nil {
			return nil, fmt.Errorf("scanning stats: %w", err)
		}
		stats[playerID] = st
	}

	return stats, rows.Err()
}

func (s *SQLiteStore) SaveStats(stats map[string]Stats) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("saving stats: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO stats (player_id, wins, losses)
		VALUES (?, ?, ?)
		ON CONFLICT (player_id) DO UPDATE
		SET wins = excluded.wins, losses = excluded.losses
	`)
	if err != nil {
		return fmt.Errorf("saving stats: %w", err)
	}
	defer stmt.Close()

	for playerID, st := range stats {
		if _, err := stmt.Exec(playerID, st.Wins, st.Losses); err != nil {
			return fmt.Errorf("saving stats %s: %w", playerID, err)
		}
	}

	return tx.Commit()
}

// UpdateStats is the stats counterpart of UpdateAccounts.
func (s *SQLiteStore) UpdateStats(fn func(map[string]Stats) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats, err := s.LoadStats()
	if err != nil {
		return err
	}
	if err := fn(stats); err != nil {
		return err
	}
	return s.SaveStats(stats)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
