package types

import (
	"time"

	"github.com/filecoin-project/go-address"
	"github.com/ipfs/go-cid"
)

// SessionStatus is the lifecycle state of a wallet session.
type SessionStatus string

const (
	StatusDisconnected SessionStatus = "Disconnected"
	StatusConnecting   SessionStatus = "Connecting"
	StatusConnected    SessionStatus = "Connected"
)

// WalletSession describes the active wallet connection.
// Account is defined if and only if Status is StatusConnected.
type WalletSession struct {
	Account      address.Address
	ProviderName string
	Status       SessionStatus
}

// ProviderDescriptor identifies a reachable wallet provider. URL and Token
// form the capability handle used to dial it.
type ProviderDescriptor struct {
	Name  string
	Icon  string
	URL   string
	Token string `json:"-"`
}

type NotifyMethod string

const (
	NotifyAccountChanged NotifyMethod = "AccountChanged"
	NotifyDisconnect     NotifyMethod = "Disconnect"
)

// ProviderNotify is a push notification from a wallet provider. Account is
// only meaningful for NotifyAccountChanged; an undef account there means the
// provider removed the account.
type ProviderNotify struct {
	Method  NotifyMethod
	Account address.Address
}

// EventRecord is one participation event. Capacity is informational only; it
// never gates claims.
type EventRecord struct {
	ID           string
	Name         string
	Description  string
	Date         string
	Location     string
	Organizer    string
	Category     string
	ImageURL     string
	Capacity     int64
	CurrentCount int64
}

// ClaimRecord asserts that Owner has proven participation in EventID. Records
// are keyed by (Owner, EventID), created at most once and never mutated.
type ClaimRecord struct {
	Owner     address.Address
	EventID   string
	MintID    string
	ProofRef  cid.Cid
	ClaimedAt time.Time
}
