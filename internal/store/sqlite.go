// Package store persists panel settings and an order journal in SQLite.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	apierrors "openalgo-scalper/internal/errors"
	"openalgo-scalper/internal/models"
)

// SQLiteStore implements settings persistence and the order journal.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	-- Panel settings surviving restarts: selection, UI mode, extend level.
	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- Journal of every order the panel placed, for post-session review.
	CREATE TABLE IF NOT EXISTS order_journal (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		order_id TEXT NOT NULL,
		symbol TEXT NOT NULL,
		exchange TEXT NOT NULL,
		action TEXT NOT NULL,
		product TEXT NOT NULL,
		pricetype TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		price REAL NOT NULL,
		trigger_price REAL NOT NULL,
		placed_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_journal_symbol ON order_journal(symbol);
	`
	_, err := s.db.Exec(schema)
	return err
}

// SetSetting stores a JSON-encoded value under key.
func (s *SQLiteStore) SetSetting(key string, value interface{}) error {
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode setting %s: %w", key, err)
	}
	_, err = s.db.Exec(`
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		key, string(encoded))
	return err
}

// GetSetting decodes the value stored under key into out. Returns
// ErrSettingNotFound when the key is absent.
func (s *SQLiteStore) GetSetting(key string, out interface{}) error {
	var raw string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&raw)
	if err == sql.ErrNoRows {
		return apierrors.ErrSettingNotFound
	}
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(raw), out)
}

// DeleteSetting removes a key. Deleting an absent key is not an error.
func (s *SQLiteStore) DeleteSetting(key string) error {
	_, err := s.db.Exec(`DELETE FROM settings WHERE key = ?`, key)
	return err
}

// JournalOrder appends a placed order to the journal.
func (s *SQLiteStore) JournalOrder(orderID string, order models.Order) error {
	_, err := s.db.Exec(`
		INSERT INTO order_journal
			(order_id, symbol, exchange, action, product, pricetype, quantity, price, trigger_price)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		orderID, order.Symbol, string(order.Exchange), string(order.Action),
		string(order.Product), string(order.PriceType),
		order.Quantity, order.Price, order.TriggerPrice)
	return err
}

// JournalEntry is one recorded order placement.
type JournalEntry struct {
	OrderID  string
	Order    models.Order
	PlacedAt time.Time
}

// RecentOrders returns the newest journal entries, most recent first.
func (s *SQLiteStore) RecentOrders(limit int) ([]JournalEntry, error) {
	rows, err := s.db.Query(`
		SELECT order_id, symbol, exchange, action, product, pricetype,
		       quantity, price, trigger_price, placed_at
		FROM order_journal ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []JournalEntry
	for rows.Next() {
		var e JournalEntry
		var exchange, action, product, pricetype string
		if err := rows.Scan(&e.OrderID, &e.Order.Symbol, &exchange, &action,
			&product, &pricetype, &e.Order.Quantity, &e.Order.Price,
			&e.Order.TriggerPrice, &e.PlacedAt); err != nil {
			return nil, err
		}
		e.Order.OrderID = e.OrderID
		e.Order.Exchange = models.Exchange(exchange)
		e.Order.Action = models.Action(action)
		e.Order.Product = models.ProductType(product)
		e.Order.PriceType = models.OrderType(pricetype)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
