// Package store provides data persistence implementations.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	apperrors "gecko-watch/internal/errors"
	"gecko-watch/internal/models"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite-based store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=1")
	if err != nil {
		return nil, apperrors.NewStoreError("open", err)
	}

	// Configure connection pool for concurrent access
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteStore{db: db}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, apperrors.NewStoreError("init schema", err)
	}

	return store, nil
}

// initSchema creates all required tables and indexes.
func (s *SQLiteStore) initSchema() error {
	schema := `
	-- Coin catalog, populated once from the upstream provider
	CREATE TABLE IF NOT EXISTS coins (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		external_id TEXT NOT NULL UNIQUE,
		favourite INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- Quote currency catalog
	CREATE TABLE IF NOT EXISTS vs_currencies (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		favourite INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- User price alerts
	CREATE TABLE IF NOT EXISTS triggers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		coin_id INTEGER NOT NULL,
		currency_id INTEGER NOT NULL,
		initial_price REAL NOT NULL,
		target_price REAL NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (coin_id) REFERENCES coins(id),
		FOREIGN KEY (currency_id) REFERENCES vs_currencies(id)
	);

	CREATE INDEX IF NOT EXISTS idx_coins_favourite ON coins(favourite);
	CREATE INDEX IF NOT EXISTS idx_currencies_favourite ON vs_currencies(favourite);
	CREATE INDEX IF NOT EXISTS idx_triggers_coin ON triggers(coin_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ============================================================================
// Coin Methods
// ============================================================================

// UpsertCoin inserts a coin by external id if absent and returns the stored
// row. An existing row is returned untouched, favourite flag included.
func (s *SQLiteStore) UpsertCoin(ctx context.Context, externalID string) (models.Coin, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO coins (external_id) VALUES (?)
	`, externalID)
	if err != nil {
		return models.Coin{}, fmt.Errorf("failed to upsert coin: %w", err)
	}

	coin, ok, err := s.CoinByExternalID(ctx, externalID)
	if err != nil {
		return models.Coin{}, err
	}
	if !ok {
		return models.Coin{}, fmt.Errorf("coin not found after upsert: %s", externalID)
	}
	return coin, nil
}

// CoinByExternalID looks up a coin by the provider identifier.
func (s *SQLiteStore) CoinByExternalID(ctx context.Context, externalID string) (models.Coin, bool, error) {
	return s.scanCoin(s.db.QueryRowContext(ctx, `
		SELECT id, external_id, favourite FROM coins WHERE external_id = ?
	`, externalID))
}

// CoinByID looks up a coin by surrogate id.
func (s *SQLiteStore) CoinByID(ctx context.Context, id int64) (models.Coin, bool, error) {
	return s.scanCoin(s.db.QueryRowContext(ctx, `
		SELECT id, external_id, favourite FROM coins WHERE id = ?
	`, id))
}

func (s *SQLiteStore) scanCoin(row *sql.Row) (models.Coin, bool, error) {
	var c models.Coin
	var favourite int
	if err := row.Scan(&c.ID, &c.ExternalID, &favourite); err != nil {
		if err == sql.ErrNoRows {
			return models.Coin{}, false, nil
		}
		return models.Coin{}, false, fmt.Errorf("failed to scan coin: %w", err)
	}
	c.Favourite = favourite == 1
	return c, true, nil
}

// Coins retrieves all coins in insertion order.
func (s *SQLiteStore) Coins(ctx context.Context) ([]models.Coin, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, external_id, favourite FROM coins ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query coins: %w", err)
	}
	defer rows.Close()

	var coins []models.Coin
	for rows.Next() {
		var c models.Coin
		var favourite int
		if err := rows.Scan(&c.ID, &c.ExternalID, &favourite); err != nil {
			return nil, fmt.Errorf("failed to scan coin: %w", err)
		}
		c.Favourite = favourite == 1
		coins = append(coins, c)
	}

	return coins, rows.Err()
}

// SetCoinFavourite updates the favourite flag for a coin.
func (s *SQLiteStore) SetCoinFavourite(ctx context.Context, id int64, favourite bool) error {
	flag := 0
	if favourite {
		flag = 1
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE coins SET favourite = ? WHERE id = ?
	`, flag, id)
	if err != nil {
		return fmt.Errorf("failed to update coin favourite: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("coin not found: %d", id)
	}
	return nil
}

// InsertMissingCoins records every external id not yet present, inside one
// transaction so a failed hydration leaves no partial state behind.
func (s *SQLiteStore) InsertMissingCoins(ctx context.Context, externalIDs []string) error {
	if len(externalIDs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO coins (external_id) VALUES (?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, externalID := range externalIDs {
		if _, err := stmt.ExecContext(ctx, externalID); err != nil {
			return fmt.Errorf("failed to insert coin %q: %w", externalID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ============================================================================
// VsCurrency Methods
// ============================================================================

// UpsertVsCurrency inserts a currency by name if absent and returns the
// stored row.
func (s *SQLiteStore) UpsertVsCurrency(ctx context.Context, name string) (models.VsCurrency, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO vs_currencies (name) VALUES (?)
	`, name)
	if err != nil {
		return models.VsCurrency{}, fmt.Errorf("failed to upsert currency: %w", err)
	}

	currency, ok, err := s.VsCurrencyByName(ctx, name)
	if err != nil {
		return models.VsCurrency{}, err
	}
	if !ok {
		return models.VsCurrency{}, fmt.Errorf("currency not found after upsert: %s", name)
	}
	return currency, nil
}

// VsCurrencyByName looks up a currency by name.
func (s *SQLiteStore) VsCurrencyByName(ctx context.Context, name string) (models.VsCurrency, bool, error) {
	return s.scanVsCurrency(s.db.QueryRowContext(ctx, `
		SELECT id, name, favourite FROM vs_currencies WHERE name = ?
	`, name))
}

// VsCurrencyByID looks up a currency by surrogate id.
func (s *SQLiteStore) VsCurrencyByID(ctx context.Context, id int64) (models.VsCurrency, bool, error) {
	return s.scanVsCurrency(s.db.QueryRowContext(ctx, `
		SELECT id, name, favourite FROM vs_currencies WHERE id = ?
	`, id))
}

func (s *SQLiteStore) scanVsCurrency(row *sql.Row) (models.VsCurrency, bool, error) {
	var v models.VsCurrency
	var favourite int
	if err := row.Scan(&v.ID, &v.Name, &favourite); err != nil {
		if err == sql.ErrNoRows {
			return models.VsCurrency{}, false, nil
		}
		return models.VsCurrency{}, false, fmt.Errorf("failed to scan currency: %w", err)
	}
	v.Favourite = favourite == 1
	return v, true, nil
}

// VsCurrencies retrieves all currencies in insertion order.
func (s *SQLiteStore) VsCurrencies(ctx context.Context) ([]models.VsCurrency, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, favourite FROM vs_currencies ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query currencies: %w", err)
	}
	defer rows.Close()

	var currencies []models.VsCurrency
	for rows.Next() {
		var v models.VsCurrency
		var favourite int
		if err := rows.Scan(&v.ID, &v.Name, &favourite); err != nil {
			return nil, fmt.Errorf("failed to scan currency: %w", err)
		}
		v.Favourite = favourite == 1
		currencies = append(currencies, v)
	}

	return currencies, rows.Err()
}

// SetVsCurrencyFavourite updates the favourite flag for a currency.
func (s *SQLiteStore) SetVsCurrencyFavourite(ctx context.Context, id int64, favourite bool) error {
	flag := 0
	if favourite {
		flag = 1
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE vs_currencies SET favourite = ? WHERE id = ?
	`, flag, id)
	if err != nil {
		return fmt.Errorf("failed to update currency favourite: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("currency not found: %d", id)
	}
	return nil
}

// InsertMissingVsCurrencies records every name not yet present, inside one
// transaction.
func (s *SQLiteStore) InsertMissingVsCurrencies(ctx context.Context, names []string) error {
	if len(names) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO vs_currencies (name) VALUES (?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, name := range names {
		if _, err := stmt.ExecContext(ctx, name); err != nil {
			return fmt.Errorf("failed to insert currency %q: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ============================================================================
// Trigger Methods
// ============================================================================

// InsertTrigger records a new trigger and returns it with its assigned id.
func (s *SQLiteStore) InsertTrigger(ctx context.Context, coinID, currencyID int64, initialPrice, targetPrice float64) (models.Trigger, error) {
	now := time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO triggers (coin_id, currency_id, initial_price, target_price, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, coinID, currencyID, initialPrice, targetPrice, now)
	if err != nil {
		return models.Trigger{}, fmt.Errorf("failed to insert trigger: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return models.Trigger{}, fmt.Errorf("failed to read trigger id: %w", err)
	}

	return models.Trigger{
		ID:           id,
		CoinID:       coinID,
		CurrencyID:   currencyID,
		InitialPrice: initialPrice,
		TargetPrice:  targetPrice,
		CreatedAt:    now,
	}, nil
}

// Triggers retrieves all triggers in creation order.
func (s *SQLiteStore) Triggers(ctx context.Context) ([]models.Trigger, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, coin_id, currency_id, initial_price, target_price, created_at
		FROM triggers ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query triggers: %w", err)
	}
	defer rows.Close()

	var triggers []models.Trigger
	for rows.Next() {
		var t models.Trigger
		if err := rows.Scan(&t.ID, &t.CoinID, &t.CurrencyID, &t.InitialPrice, &t.TargetPrice, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan trigger: %w", err)
		}
		triggers = append(triggers, t)
	}

	return triggers, rows.Err()
}

// TriggerByID looks up a trigger by surrogate id.
func (s *SQLiteStore) TriggerByID(ctx context.Context, id int64) (models.Trigger, bool, error) {
	var t models.Trigger
	err := s.db.QueryRowContext(ctx, `
		SELECT id, coin_id, currency_id, initial_price, target_price, created_at
		FROM triggers WHERE id = ?
	`, id).Scan(&t.ID, &t.CoinID, &t.CurrencyID, &t.InitialPrice, &t.TargetPrice, &t.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.Trigger{}, false, nil
		}
		return models.Trigger{}, false, fmt.Errorf("failed to scan trigger: %w", err)
	}
	return t, true, nil
}

// DeleteTrigger removes a trigger. Deleting an id that is already gone is
// not an error; the monitor and the user may race on the same trigger.
func (s *SQLiteStore) DeleteTrigger(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM triggers WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete trigger: %w", err)
	}
	return nil
}
