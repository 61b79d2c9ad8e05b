// Package session manages the wallet session lifecycle: provider discovery,
// connect and disconnect, silent restore, signing delegation and
// provider-pushed notifications.
package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/filecoin-project/go-address"
	"github.com/filecoin-project/go-state-types/crypto"
	logging "github.com/ipfs/go-log/v2"
	"github.com/pkg/errors"
	"go.opencensus.io/stats"
	"go.opencensus.io/tag"

	"github.com/sachinacharyaa/popChain/metrics"
	"github.com/sachinacharyaa/popChain/notify"
	"github.com/sachinacharyaa/popChain/provider"
	"github.com/sachinacharyaa/popChain/store"
	"github.com/sachinacharyaa/popChain/types"
)

var log = logging.Logger("wallet_session")

// DialFunc opens a capability handle to a provider endpoint.
type DialFunc func(ctx context.Context, desc types.ProviderDescriptor) (provider.IProvider, func(), error)

// Manager owns the single wallet session. All state transitions go through
// its lock; a generation counter guards against results of abandoned
// operations landing on newer state.
type Manager struct {
	cfg      *types.RequestConfig
	registry *Registry
	dial     DialFunc
	settings store.SettingsStore
	sink     notify.Sink

	lk         sync.Mutex
	connecting bool
	generation uint64
	active     *activeProvider
	session    types.WalletSession
}

type activeProvider struct {
	desc   types.ProviderDescriptor
	api    provider.IProvider
	closer func()
	cancel context.CancelFunc
}

func NewManager(cfg *types.RequestConfig, registry *Registry, dial DialFunc, settings store.SettingsStore, sink notify.Sink) *Manager {
	return &Manager{
		cfg:      cfg,
		registry: registry,
		dial:     dial,
		settings: settings,
		sink:     sink,
		session:  types.WalletSession{Status: types.StatusDisconnected},
	}
}

// DiscoverProviders reports the currently reachable wallet providers.
func (m *Manager) DiscoverProviders(ctx context.Context) []types.ProviderDescriptor {
	return m.registry.Discover(ctx)
}

// Session returns a snapshot of the current session.
func (m *Manager) Session() types.WalletSession {
	m.lk.Lock()
	defer m.lk.Unlock()

	sess := m.session
	if m.connecting && sess.Status == types.StatusDisconnected {
		sess.Status = types.StatusConnecting
	}
	return sess
}

// Connect requests interactive authorization from the named provider. A
// second call while one is pending fails immediately with ErrConnectBusy so
// the user never sees duplicate authorization prompts.
func (m *Manager) Connect(ctx context.Context, name string) (*types.WalletSession, error) {
	sess, err := m.connect(ctx, name, provider.ConnectPolicy{})
	if err != nil {
		_ = stats.RecordWithTags(ctx, []tag.Mutator{
			tag.Upsert(metrics.ProviderNameKey, name),
			tag.Upsert(metrics.FailureKindKey, string(types.ConnectKind(err))),
		}, metrics.SessionConnectFail.M(1))
		m.sink.Publish(notify.Outcome{Kind: notify.OutcomeConnectFailed, Detail: err.Error(), Reason: types.ConnectKind(err)})
		return nil, err
	}

	_ = stats.RecordWithTags(ctx, []tag.Mutator{tag.Upsert(metrics.ProviderNameKey, sess.ProviderName)},
		metrics.SessionConnect.M(1))
	m.sink.Publish(notify.Outcome{Kind: notify.OutcomeConnectSucceeded, Detail: sess.ProviderName})
	return sess, nil
}

// TryRestore attempts a silent reconnect to the provider used last time. It
// never surfaces an error: any failure clears the stored provider name and
// leaves the session disconnected.
func (m *Manager) TryRestore(ctx context.Context) *types.WalletSession {
	name, err := m.settings.Get(ctx, store.KeyLastProvider)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Warnf("read last provider: %s", err)
		}
		return nil
	}

	sess, err := m.connect(ctx, name, provider.ConnectPolicy{OnlyIfTrusted: true})
	if err != nil {
		log.Infof("silent reconnect to %s failed: %s", name, err)
		if derr := m.settings.Delete(ctx, store.KeyLastProvider); derr != nil {
			log.Warnf("clear last provider: %s", derr)
		}
		return nil
	}

	_ = stats.RecordWithTags(ctx, []tag.Mutator{tag.Upsert(metrics.ProviderNameKey, sess.ProviderName)},
		metrics.SessionRestore.M(1))
	m.sink.Publish(notify.Outcome{Kind: notify.OutcomeConnectSucceeded, Detail: sess.ProviderName + " (restored)"})
	return sess
}

func (m *Manager) connect(ctx context.Context, name string, policy provider.ConnectPolicy) (*types.WalletSession, error) {
	desc, ok := m.registry.Lookup(name)
	if !ok {
		return nil, errors.Wrapf(types.ErrConnectionFailed, "provider %s not discovered", name)
	}

	m.lk.Lock()
	if m.connecting {
		m.lk.Unlock()
		return nil, types.ErrConnectBusy
	}
	m.connecting = true
	gen := m.generation
	m.lk.Unlock()

	fail := func(err error) (*types.WalletSession, error) {
		m.lk.Lock()
		m.connecting = false
		m.lk.Unlock()
		return nil, err
	}

	cctx, cancel := context.WithTimeout(ctx, m.cfg.ConnectTimeout)
	defer cancel()

	api, closer, err := m.dial(cctx, desc)
	if err != nil {
		return fail(errors.Wrapf(types.ErrConnectionFailed, "dial provider %s: %v", name, err))
	}

	res, err := api.Connect(cctx, policy)
	if err != nil {
		closer()
		if isRejection(err) {
			return fail(errors.Wrapf(types.ErrConnectionRejected, "%v", err))
		}
		return fail(errors.Wrapf(types.ErrConnectionFailed, "authorize with %s: %v", name, err))
	}
	if res.Account.Empty() {
		closer()
		return fail(errors.Wrapf(types.ErrConnectionFailed, "provider %s granted no account", name))
	}

	m.lk.Lock()
	if m.generation != gen {
		// the session moved on while we waited on the authorization prompt
		m.connecting = false
		m.lk.Unlock()
		closer()
		return nil, errors.Wrap(types.ErrConnectionFailed, "session state changed during connect")
	}
	replaced := m.detachLocked()
	m.generation++
	gen = m.generation
	subCtx, subCancel := context.WithCancel(context.Background())
	m.active = &activeProvider{desc: desc, api: api, closer: closer, cancel: subCancel}
	m.session = types.WalletSession{
		Account:      res.Account,
		ProviderName: desc.Name,
		Status:       types.StatusConnected,
	}
	sess := m.session
	m.connecting = false
	m.lk.Unlock()

	if replaced != nil {
		replaced.closer()
	}

	go m.watchProvider(subCtx, gen, api)

	if err := m.settings.Put(ctx, store.KeyLastProvider, desc.Name); err != nil {
		log.Warnf("persist last provider: %s", err)
	}
	log.Infow("wallet connected", "provider", desc.Name, "account", sess.Account)
	return &sess, nil
}

// Disconnect ends the session. The provider-side disconnect is best effort;
// local state and the durable last-provider record are cleared regardless.
func (m *Manager) Disconnect(ctx context.Context) {
	m.lk.Lock()
	m.generation++
	act := m.detachLocked()
	m.lk.Unlock()

	if act != nil {
		if err := act.api.Disconnect(ctx); err != nil {
			log.Warnf("provider %s disconnect: %s", act.desc.Name, err)
		}
		act.closer()
		_ = stats.RecordWithTags(ctx, []tag.Mutator{tag.Upsert(metrics.ProviderNameKey, act.desc.Name)},
			metrics.SessionDisconnect.M(1))
		m.sink.Publish(notify.Outcome{Kind: notify.OutcomeDisconnected})
	}

	if err := m.settings.Delete(ctx, store.KeyLastProvider); err != nil {
		log.Warnf("clear last provider: %s", err)
	}
}

// Sign delegates to the active provider.
func (m *Manager) Sign(ctx context.Context, toSign []byte, meta types.MsgMeta) (*crypto.Signature, error) {
	m.lk.Lock()
	act := m.active
	sess := m.session
	m.lk.Unlock()

	if act == nil || sess.Status != types.StatusConnected {
		return nil, types.ErrSigningUnsupported
	}

	start := time.Now()
	sig, err := act.api.Sign(ctx, sess.Account, toSign, meta)
	_ = stats.RecordWithTags(ctx, []tag.Mutator{tag.Upsert(metrics.ProviderNameKey, sess.ProviderName)},
		metrics.WalletSignMs.M(metrics.SinceInMilliseconds(start)))
	if err != nil {
		if isRejection(err) {
			return nil, errors.Wrapf(types.ErrSigningRejected, "%v", err)
		}
		if isUnsupported(err) {
			return nil, errors.Wrapf(types.ErrSigningUnsupported, "%v", err)
		}
		return nil, err
	}
	return sig, nil
}

// detachLocked clears session state and returns the detached provider for
// the caller to close outside the lock.
func (m *Manager) detachLocked() *activeProvider {
	act := m.active
	if act != nil {
		act.cancel()
		m.active = nil
	}
	m.session = types.WalletSession{Status: types.StatusDisconnected}
	return act
}

func (m *Manager) watchProvider(ctx context.Context, gen uint64, api provider.IProvider) {
	ch, err := api.SubscribeNotify(ctx)
	if err != nil {
		log.Warnf("subscribe provider notifications: %s", err)
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-ch:
			if !ok {
				m.clearFromProvider(gen, "provider notification stream closed")
				return
			}
			switch n.Method {
			case types.NotifyAccountChanged:
				if n.Account.Empty() {
					m.clearFromProvider(gen, "account removed by provider")
					return
				}
				m.setAccount(gen, n.Account)
			case types.NotifyDisconnect:
				m.clearFromProvider(gen, "provider disconnected")
				return
			default:
				log.Warnf("unexpected provider notify %s", n.Method)
			}
		}
	}
}

func (m *Manager) setAccount(gen uint64, account address.Address) {
	m.lk.Lock()
	defer m.lk.Unlock()

	if m.generation != gen || m.session.Status != types.StatusConnected {
		return
	}
	log.Infof("provider switched account %s -> %s", m.session.Account, account)
	m.session.Account = account
}

func (m *Manager) clearFromProvider(gen uint64, cause string) {
	m.lk.Lock()
	if m.generation != gen || m.active == nil {
		m.lk.Unlock()
		return
	}
	m.generation++
	act := m.detachLocked()
	m.lk.Unlock()

	if act != nil {
		act.closer()
		_ = stats.RecordWithTags(context.Background(), []tag.Mutator{tag.Upsert(metrics.ProviderNameKey, act.desc.Name)},
			metrics.SessionDisconnect.M(1))
	}
	if err := m.settings.Delete(context.Background(), store.KeyLastProvider); err != nil {
		log.Warnf("clear last provider: %s", err)
	}
	log.Infof("session ended: %s", cause)
	m.sink.Publish(notify.Outcome{Kind: notify.OutcomeDisconnected, Detail: cause})
}

func isRejection(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "reject") || strings.Contains(msg, "declined") || strings.Contains(msg, "denied")
}

func isUnsupported(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unsupported") || strings.Contains(msg, "not supported") || strings.Contains(msg, "method not found")
}
