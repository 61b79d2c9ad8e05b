// Package testhelper holds in-memory fakes shared by the package tests.
package testhelper

import (
	"context"
	"crypto/rand"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/filecoin-project/go-address"
	"github.com/filecoin-project/go-state-types/crypto"

	"github.com/sachinacharyaa/popChain/provider"
	"github.com/sachinacharyaa/popChain/types"
)

var _ provider.IProvider = (*MemProvider)(nil)

// MemProvider is an in-memory wallet provider. Its failure toggles drive the
// session and claim tests.
type MemProvider struct {
	desc    types.ProviderDescriptor
	account address.Address

	lk            sync.Mutex
	trusted       bool
	rejectConnect bool
	rejectSign    bool
	notifyCh      chan *types.ProviderNotify

	connectCalls int64
	// connectGate, when set, blocks Connect until released. Lets tests hold
	// several callers inside an authorization at once.
	connectGate chan struct{}
}

func NewMemProvider(name string) *MemProvider {
	return &MemProvider{
		desc:     types.ProviderDescriptor{Name: name, Icon: "mem://" + name},
		account:  RandAddress(),
		notifyCh: make(chan *types.ProviderNotify, 8),
	}
}

func RandAddress() address.Address {
	seed := make([]byte, 32)
	_, _ = rand.Read(seed)
	addr, err := address.NewSecp256k1Address(seed)
	if err != nil {
		panic(err)
	}
	return addr
}

func (m *MemProvider) Account() address.Address {
	m.lk.Lock()
	defer m.lk.Unlock()
	return m.account
}

func (m *MemProvider) SetTrusted(trusted bool) {
	m.lk.Lock()
	defer m.lk.Unlock()
	m.trusted = trusted
}

func (m *MemProvider) SetRejectConnect(reject bool) {
	m.lk.Lock()
	defer m.lk.Unlock()
	m.rejectConnect = reject
}

func (m *MemProvider) SetRejectSign(reject bool) {
	m.lk.Lock()
	defer m.lk.Unlock()
	m.rejectSign = reject
}

// GateConnect makes subsequent Connect calls block until the returned release
// func is invoked.
func (m *MemProvider) GateConnect() func() {
	gate := make(chan struct{})
	m.lk.Lock()
	m.connectGate = gate
	m.lk.Unlock()
	return func() { close(gate) }
}

func (m *MemProvider) ConnectCalls() int64 {
	return atomic.LoadInt64(&m.connectCalls)
}

func (m *MemProvider) Describe(_ context.Context) (*types.ProviderDescriptor, error) {
	m.lk.Lock()
	defer m.lk.Unlock()
	desc := m.desc
	return &desc, nil
}

func (m *MemProvider) Connect(ctx context.Context, policy provider.ConnectPolicy) (*provider.ConnectResult, error) {
	atomic.AddInt64(&m.connectCalls, 1)

	m.lk.Lock()
	gate := m.connectGate
	trusted := m.trusted
	reject := m.rejectConnect
	account := m.account
	m.lk.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if policy.OnlyIfTrusted && !trusted {
		return nil, fmt.Errorf("provider: user rejected the request")
	}
	if reject {
		return nil, fmt.Errorf("provider: user rejected the request")
	}
	return &provider.ConnectResult{Account: account}, nil
}

func (m *MemProvider) Disconnect(_ context.Context) error {
	return nil
}

func (m *MemProvider) Sign(_ context.Context, signer address.Address, toSign []byte, _ types.MsgMeta) (*crypto.Signature, error) {
	m.lk.Lock()
	reject := m.rejectSign
	account := m.account
	m.lk.Unlock()

	if reject {
		return nil, fmt.Errorf("provider: user rejected the signature request")
	}
	if signer != account {
		return nil, fmt.Errorf("unknown signer %s", signer)
	}
	// Not a valid secp signature, but a stable shape for assertions.
	data := make([]byte, 65)
	copy(data, toSign)
	return &crypto.Signature{Type: crypto.SigTypeSecp256k1, Data: data}, nil
}

func (m *MemProvider) SubscribeNotify(ctx context.Context) (<-chan *types.ProviderNotify, error) {
	m.lk.Lock()
	defer m.lk.Unlock()
	if m.notifyCh == nil {
		m.notifyCh = make(chan *types.ProviderNotify, 8)
	}
	return m.notifyCh, nil
}

// PushAccountChanged emulates the wallet switching accounts.
func (m *MemProvider) PushAccountChanged(account address.Address) {
	m.lk.Lock()
	ch := m.notifyCh
	if !account.Empty() {
		m.account = account
	}
	m.lk.Unlock()
	if ch != nil {
		ch <- &types.ProviderNotify{Method: types.NotifyAccountChanged, Account: account}
	}
}

// PushDisconnect emulates a provider-initiated teardown.
func (m *MemProvider) PushDisconnect() {
	m.lk.Lock()
	ch := m.notifyCh
	m.lk.Unlock()
	if ch != nil {
		ch <- &types.ProviderNotify{Method: types.NotifyDisconnect}
	}
}

// Dialer returns a session dial func that always yields this provider.
func (m *MemProvider) Dialer() func(ctx context.Context, desc types.ProviderDescriptor) (provider.IProvider, func(), error) {
	return func(_ context.Context, _ types.ProviderDescriptor) (provider.IProvider, func(), error) {
		return m, func() {}, nil
	}
}
