package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	// Register sqlite3 driver
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"portfolioAnalyzer/internal/finance"
)

// ErrNotFound is returned when a portfolio id does not exist.
var ErrNotFound = errors.New("not found")

type DB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
	Close() error
}

type Store struct {
	db  DB
	now func() time.Time
}

// SearchEntry is one recorded search query.
type SearchEntry struct {
	Query     string    `json:"query"`
	Timestamp time.Time `json:"timestamp"`
}

// Portfolio is a saved, named asset selection.
type Portfolio struct {
	ID        string                  `json:"id"`
	UserID    string                  `json:"userId"`
	Name      string                  `json:"name"`
	CreatedAt time.Time               `json:"createdAt"`
	Assets    []finance.SelectedAsset `json:"assets"`
}

// OpenSQLite opens dsn with a single connection, which keeps ":memory:"
// databases coherent and serializes writers.
func OpenSQLite(dsn string) (*sql.DB, error) {
	if dsn != ":memory:" && !strings.HasPrefix(dsn, "file:") {
		if dir := filepath.Dir(dsn); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create db dir: %w", err)
			}
		}
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

var schema = []string{
	`PRAGMA foreign_keys = ON`,
	`CREATE TABLE IF NOT EXISTS search_history(
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL, query TEXT NOT NULL, ts INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_search_history_user ON search_history(user_id, ts)`,
	`CREATE TABLE IF NOT EXISTS portfolios(
		id TEXT PRIMARY KEY, user_id TEXT NOT NULL, name TEXT NOT NULL, created_at INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS portfolio_assets(
		portfolio_id TEXT NOT NULL REFERENCES portfolios(id),
		symbol TEXT NOT NULL, name TEXT NOT NULL, type TEXT NOT NULL, weight REAL NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS asset_data(
		symbol TEXT PRIMARY KEY, name TEXT NOT NULL, type TEXT NOT NULL,
		exchange TEXT NOT NULL DEFAULT '', last_updated INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS price_cache(
		key TEXT PRIMARY KEY, payload BLOB NOT NULL, fetched_at INTEGER NOT NULL
	)`,
}

func InitSchema(ctx context.Context, db DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

func NewStore(db DB) *Store { return &Store{db: db, now: time.Now} }

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) SaveSearchQuery(ctx context.Context, userID, query string) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO search_history(user_id,query,ts) VALUES(?,?,?)`,
		userID, query, s.now().Unix())
	return err
}

// SearchHistory returns the user's most recent queries, newest first.
func (s *Store) SearchHistory(ctx context.Context, userID string, limit int) ([]SearchEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT query, ts FROM search_history WHERE user_id=? ORDER BY ts DESC, id DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []SearchEntry{}
	for rows.Next() {
		var e SearchEntry
		var ts int64
		if err := rows.Scan(&e.Query, &ts); err != nil {
			return nil, err
		}
		e.Timestamp = time.Unix(ts, 0).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) PruneSearchHistory(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM search_history WHERE ts < ?`, olderThan.Unix())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// SavePortfolio stores the portfolio and its assets in one transaction.
// Weights are kept to two decimal places.
func (s *Store) SavePortfolio(ctx context.Context, userID, name string, assets []finance.SelectedAsset) (*Portfolio, error) {
	p := &Portfolio{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      name,
		CreatedAt: s.now().UTC().Truncate(time.Second),
		Assets:    make([]finance.SelectedAsset, 0, len(assets)),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `INSERT INTO portfolios(id,user_id,name,created_at) VALUES(?,?,?,?)`,
		p.ID, userID, name, p.CreatedAt.Unix()); err != nil {
		return nil, fmt.Errorf("insert portfolio: %w", err)
	}
	for _, a := range assets {
		a.Weight = decimal.NewFromFloat(a.Weight).Round(2).InexactFloat64()
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO portfolio_assets(portfolio_id,symbol,name,type,weight) VALUES(?,?,?,?,?)`,
			p.ID, a.Symbol, a.Name, string(a.Type), a.Weight); err != nil {
			return nil, fmt.Errorf("insert portfolio asset %s: %w", a.Symbol, err)
		}
		p.Assets = append(p.Assets, a)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return p, nil
}

// UserPortfolios lists a user's portfolios, newest first, with their assets.
func (s *Store) UserPortfolios(ctx context.Context, userID string) ([]Portfolio, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, name, created_at FROM portfolios WHERE user_id=? ORDER BY created_at DESC, rowid DESC`, userID)
	if err != nil {
		return nil, err
	}
	out := []Portfolio{}
	for rows.Next() {
		p, err := scanPortfolio(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		if out[i].Assets, err = s.portfolioAssets(ctx, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *Store) Portfolio(ctx context.Context, id string) (*Portfolio, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, user_id, name, created_at FROM portfolios WHERE id=?`, id)
	p, err := scanPortfolio(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if p.Assets, err = s.portfolioAssets(ctx, id); err != nil {
		return nil, err
	}
	return &p, nil
}

// DeletePortfolio removes the assets, then the portfolio row.
func (s *Store) DeletePortfolio(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM portfolio_assets WHERE portfolio_id=?`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM portfolios WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return tx.Commit()
}

type scanner interface{ Scan(dest ...any) error }

func scanPortfolio(sc scanner) (Portfolio, error) {
	var p Portfolio
	var created int64
	if err := sc.Scan(&p.ID, &p.UserID, &p.Name, &created); err != nil {
		return Portfolio{}, err
	}
	p.CreatedAt = time.Unix(created, 0).UTC()
	return p, nil
}

func (s *Store) portfolioAssets(ctx context.Context, id string) ([]finance.SelectedAsset, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT symbol, name, type, weight FROM portfolio_assets WHERE portfolio_id=? ORDER BY rowid`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []finance.SelectedAsset{}
	for rows.Next() {
		var a finance.SelectedAsset
		var typ string
		if err := rows.Scan(&a.Symbol, &a.Name, &typ, &a.Weight); err != nil {
			return nil, err
		}
		a.Type = finance.AssetType(typ)
		out = append(out, a)
	}
	return out, rows.Err()
}

// UpsertAssets refreshes the local asset catalog from search results.
func (s *Store) UpsertAssets(ctx context.Context, assets []finance.Asset) error {
	if len(assets) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	now := s.now().Unix()
	for _, a := range assets {
		if _, err := tx.ExecContext(ctx, `INSERT INTO asset_data(symbol,name,type,exchange,last_updated) VALUES(?,?,?,?,?)
			ON CONFLICT(symbol) DO UPDATE SET name=excluded.name, type=excluded.type,
			exchange=excluded.exchange, last_updated=excluded.last_updated`,
			a.Symbol, a.Name, string(a.Type), a.Exchange, now); err != nil {
			return fmt.Errorf("upsert asset %s: %w", a.Symbol, err)
		}
	}
	return tx.Commit()
}

// Asset looks up a catalog entry by symbol.
func (s *Store) Asset(ctx context.Context, symbol string) (*finance.Asset, error) {
	var a finance.Asset
	var typ string
	err := s.db.QueryRowContext(ctx, `SELECT symbol, name, type, exchange FROM asset_data WHERE symbol=?`, symbol).
		Scan(&a.Symbol, &a.Name, &typ, &a.Exchange)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	a.Type = finance.AssetType(typ)
	return &a, nil
}

func (s *Store) GetPriceCache(ctx context.Context, key string) ([]byte, time.Time, bool, error) {
	var payload []byte
	var fetched int64
	err := s.db.QueryRowContext(ctx, `SELECT payload, fetched_at FROM price_cache WHERE key=?`, key).Scan(&payload, &fetched)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, false, nil
	}
	if err != nil {
		return nil, time.Time{}, false, err
	}
	return payload, time.Unix(fetched, 0), true, nil
}

func (s *Store) PutPriceCache(ctx context.Context, key string, payload []byte, fetchedAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO price_cache(key,payload,fetched_at) VALUES(?,?,?)
		ON CONFLICT(key) DO UPDATE SET payload=excluded.payload, fetched_at=excluded.fetched_at`,
		key, payload, fetchedAt.Unix())
	return err
}

func (s *Store) PurgePriceCache(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM price_cache WHERE fetched_at < ?`, olderThan.Unix())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
