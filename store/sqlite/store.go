// Package sqlite provides the SQLite-backed gateway store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/filecoin-project/go-address"
	"github.com/ipfs/go-cid"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/sachinacharyaa/popChain/store"
	"github.com/sachinacharyaa/popChain/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS settings (
  key   TEXT PRIMARY KEY,
  value TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS claims (
  owner      TEXT NOT NULL,
  event_id   TEXT NOT NULL,
  mint_id    TEXT NOT NULL,
  proof_ref  TEXT NOT NULL,
  claimed_at INTEGER NOT NULL,
  PRIMARY KEY (owner, event_id)
);
`

// Store holds the settings and claims tables in a single SQLite file.
type Store struct {
	sqlDB *sql.DB
}

var (
	_ store.SettingsStore = (*SettingsStore)(nil)
	_ store.ClaimStore    = (*ClaimStore)(nil)
)

// Open opens the store at path, creating the schema when absent.
func Open(path string) (*Store, error) {
	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

func (s *Store) Close() error {
	return s.sqlDB.Close()
}

// Ping reports whether the underlying database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.sqlDB.PingContext(ctx)
}

// Settings returns the key/value view of the store.
func (s *Store) Settings() *SettingsStore {
	return &SettingsStore{sqlDB: s.sqlDB}
}

// Claims returns the claim-record view of the store.
func (s *Store) Claims() *ClaimStore {
	return &ClaimStore{sqlDB: s.sqlDB}
}

type SettingsStore struct {
	sqlDB *sql.DB
}

func (s *SettingsStore) Put(ctx context.Context, key, value string) error {
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}

func (s *SettingsStore) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.sqlDB.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", store.ErrNotFound
	}
	return value, err
}

func (s *SettingsStore) Delete(ctx context.Context, key string) error {
	_, err := s.sqlDB.ExecContext(ctx, `DELETE FROM settings WHERE key = ?`, key)
	return err
}

type ClaimStore struct {
	sqlDB *sql.DB
}

func (s *ClaimStore) Add(ctx context.Context, rec *types.ClaimRecord) error {
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO claims (owner, event_id, mint_id, proof_ref, claimed_at)
		 VALUES (?, ?, ?, ?, ?)`,
		rec.Owner.String(), rec.EventID, rec.MintID, rec.ProofRef.String(), rec.ClaimedAt.UTC().UnixMilli())
	if isConstraintErr(err) {
		return store.ErrAlreadyExists
	}
	return err
}

func (s *ClaimStore) Get(ctx context.Context, owner address.Address, eventID string) (*types.ClaimRecord, error) {
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT owner, event_id, mint_id, proof_ref, claimed_at FROM claims
		 WHERE owner = ? AND event_id = ?`, owner.String(), eventID)
	rec, err := scanClaim(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	return rec, err
}

func (s *ClaimStore) Has(ctx context.Context, owner address.Address, eventID string) (bool, error) {
	var one int
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT 1 FROM claims WHERE owner = ? AND event_id = ?`, owner.String(), eventID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

func (s *ClaimStore) ListByOwner(ctx context.Context, owner address.Address) ([]*types.ClaimRecord, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT owner, event_id, mint_id, proof_ref, claimed_at FROM claims
		 WHERE owner = ? ORDER BY claimed_at`, owner.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close() // nolint

	var recs []*types.ClaimRecord
	for rows.Next() {
		rec, err := scanClaim(rows.Scan)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

func scanClaim(scan func(dest ...interface{}) error) (*types.ClaimRecord, error) {
	var ownerStr, eventID, mintID, refStr string
	var claimedAt int64
	if err := scan(&ownerStr, &eventID, &mintID, &refStr, &claimedAt); err != nil {
		return nil, err
	}
	owner, err := address.NewFromString(ownerStr)
	if err != nil {
		return nil, fmt.Errorf("decode claim owner %s: %w", ownerStr, err)
	}
	ref, err := cid.Parse(refStr)
	if err != nil {
		return nil, fmt.Errorf("decode claim proof ref %s: %w", refStr, err)
	}
	return &types.ClaimRecord{
		Owner:     owner,
		EventID:   eventID,
		MintID:    mintID,
		ProofRef:  ref,
		ClaimedAt: time.UnixMilli(claimedAt).UTC(),
	}, nil
}

func isConstraintErr(err error) bool {
	var sqliteErr *msqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	switch sqliteErr.Code() {
	case sqlite3lib.SQLITE_CONSTRAINT, sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
		return true
	}
	return false
}
