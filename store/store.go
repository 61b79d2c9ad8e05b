// Package store declares the gateway's durable local storage contracts.
package store

import (
	"context"
	"errors"

	"github.com/filecoin-project/go-address"

	"github.com/sachinacharyaa/popChain/types"
)

var (
	// ErrNotFound indicates a requested record is missing.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyExists indicates a uniquely keyed record was inserted twice.
	ErrAlreadyExists = errors.New("record already exists")
)

// KeyLastProvider records the name of the provider used for the last
// successful connect, consulted for silent reconnection on startup.
const KeyLastProvider = "last_provider"

// SettingsStore is a small durable key/value table. A missing key is reported
// as ErrNotFound.
type SettingsStore interface {
	Put(ctx context.Context, key, value string) error
	Get(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}

// ClaimStore persists claim records, append-only, unique per (owner, event).
type ClaimStore interface {
	Add(ctx context.Context, rec *types.ClaimRecord) error
	Get(ctx context.Context, owner address.Address, eventID string) (*types.ClaimRecord, error)
	Has(ctx context.Context, owner address.Address, eventID string) (bool, error)
	ListByOwner(ctx context.Context, owner address.Address) ([]*types.ClaimRecord, error)
}
