package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/filecoin-project/go-address"
	"github.com/stretchr/testify/require"

	"github.com/sachinacharyaa/popChain/notify"
	"github.com/sachinacharyaa/popChain/store"
	"github.com/sachinacharyaa/popChain/testhelper"
	"github.com/sachinacharyaa/popChain/types"
)

func setupManager(t *testing.T, prov *testhelper.MemProvider) (*Manager, *testhelper.MemSettings) {
	cfg := types.DefaultConfig()
	cfg.ConnectTimeout = time.Second * 5

	registry := NewRegistry([]types.ProviderDescriptor{
		{Name: "phantom", URL: "mem://phantom"},
	}, cfg.ProbeTimeout, prov.Dialer())
	found := registry.Discover(context.Background())
	require.NotEmpty(t, found)

	settings := testhelper.NewMemSettings()
	return NewManager(cfg, registry, prov.Dialer(), settings, notify.LogSink{}), settings
}

func TestConnect(t *testing.T) {
	ctx := context.Background()

	t.Run("correct", func(t *testing.T) {
		prov := testhelper.NewMemProvider("phantom")
		mgr, settings := setupManager(t, prov)

		sess, err := mgr.Connect(ctx, "phantom")
		require.NoError(t, err)
		require.Equal(t, types.StatusConnected, sess.Status)
		require.Equal(t, prov.Account(), sess.Account)
		require.Equal(t, "phantom", sess.ProviderName)

		name, err := settings.Get(ctx, store.KeyLastProvider)
		require.NoError(t, err)
		require.Equal(t, "phantom", name)
	})

	t.Run("unknown provider", func(t *testing.T) {
		prov := testhelper.NewMemProvider("phantom")
		mgr, _ := setupManager(t, prov)

		_, err := mgr.Connect(ctx, "solflare")
		require.ErrorIs(t, err, types.ErrConnectionFailed)
		require.Equal(t, types.StatusDisconnected, mgr.Session().Status)
	})

	t.Run("user rejects authorization", func(t *testing.T) {
		prov := testhelper.NewMemProvider("phantom")
		prov.SetRejectConnect(true)
		mgr, settings := setupManager(t, prov)

		_, err := mgr.Connect(ctx, "phantom")
		require.ErrorIs(t, err, types.ErrConnectionRejected)
		require.Equal(t, types.StatusDisconnected, mgr.Session().Status)

		_, err = settings.Get(ctx, store.KeyLastProvider)
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("concurrent connect opens one prompt", func(t *testing.T) {
		prov := testhelper.NewMemProvider("phantom")
		mgr, _ := setupManager(t, prov)

		release := prov.GateConnect()

		var wg sync.WaitGroup
		errCh := make(chan error, 1)
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := mgr.Connect(ctx, "phantom")
			errCh <- err
		}()

		// wait until the first caller is inside the authorization prompt
		require.Eventually(t, func() bool {
			return mgr.Session().Status == types.StatusConnecting
		}, time.Second, time.Millisecond*5)

		_, err := mgr.Connect(ctx, "phantom")
		require.ErrorIs(t, err, types.ErrConnectBusy)

		release()
		wg.Wait()
		require.NoError(t, <-errCh)
		require.Equal(t, types.StatusConnected, mgr.Session().Status)
		require.EqualValues(t, 1, prov.ConnectCalls())
	})

	t.Run("reconnect replaces session", func(t *testing.T) {
		prov := testhelper.NewMemProvider("phantom")
		mgr, _ := setupManager(t, prov)

		first, err := mgr.Connect(ctx, "phantom")
		require.NoError(t, err)

		second, err := mgr.Connect(ctx, "phantom")
		require.NoError(t, err)
		require.Equal(t, first.Account, second.Account)
		require.Equal(t, types.StatusConnected, mgr.Session().Status)
	})
}

func TestTryRestore(t *testing.T) {
	ctx := context.Background()

	t.Run("restores trusted provider", func(t *testing.T) {
		prov := testhelper.NewMemProvider("phantom")
		prov.SetTrusted(true)
		mgr, settings := setupManager(t, prov)
		require.NoError(t, settings.Put(ctx, store.KeyLastProvider, "phantom"))

		sess := mgr.TryRestore(ctx)
		require.NotNil(t, sess)
		require.Equal(t, types.StatusConnected, sess.Status)
		require.Equal(t, prov.Account(), sess.Account)
	})

	t.Run("nothing stored", func(t *testing.T) {
		prov := testhelper.NewMemProvider("phantom")
		mgr, _ := setupManager(t, prov)

		require.Nil(t, mgr.TryRestore(ctx))
		require.Equal(t, types.StatusDisconnected, mgr.Session().Status)
	})

	t.Run("untrusted provider clears the stored name", func(t *testing.T) {
		prov := testhelper.NewMemProvider("phantom")
		mgr, settings := setupManager(t, prov)
		require.NoError(t, settings.Put(ctx, store.KeyLastProvider, "phantom"))

		require.Nil(t, mgr.TryRestore(ctx))
		require.Equal(t, types.StatusDisconnected, mgr.Session().Status)

		_, err := settings.Get(ctx, store.KeyLastProvider)
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestDisconnect(t *testing.T) {
	ctx := context.Background()

	t.Run("user disconnect", func(t *testing.T) {
		prov := testhelper.NewMemProvider("phantom")
		mgr, settings := setupManager(t, prov)

		_, err := mgr.Connect(ctx, "phantom")
		require.NoError(t, err)

		mgr.Disconnect(ctx)
		require.Equal(t, types.StatusDisconnected, mgr.Session().Status)
		_, err = settings.Get(ctx, store.KeyLastProvider)
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("disconnect while disconnected is a no-op", func(t *testing.T) {
		prov := testhelper.NewMemProvider("phantom")
		mgr, _ := setupManager(t, prov)

		mgr.Disconnect(ctx)
		require.Equal(t, types.StatusDisconnected, mgr.Session().Status)
	})

	t.Run("provider pushed disconnect", func(t *testing.T) {
		prov := testhelper.NewMemProvider("phantom")
		mgr, settings := setupManager(t, prov)

		_, err := mgr.Connect(ctx, "phantom")
		require.NoError(t, err)

		prov.PushDisconnect()
		require.Eventually(t, func() bool {
			return mgr.Session().Status == types.StatusDisconnected
		}, time.Second, time.Millisecond*5)

		_, err = settings.Get(ctx, store.KeyLastProvider)
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("account removed by provider", func(t *testing.T) {
		prov := testhelper.NewMemProvider("phantom")
		mgr, _ := setupManager(t, prov)

		_, err := mgr.Connect(ctx, "phantom")
		require.NoError(t, err)

		prov.PushAccountChanged(address.Undef)
		require.Eventually(t, func() bool {
			return mgr.Session().Status == types.StatusDisconnected
		}, time.Second, time.Millisecond*5)
	})
}

func TestAccountChanged(t *testing.T) {
	ctx := context.Background()

	prov := testhelper.NewMemProvider("phantom")
	mgr, _ := setupManager(t, prov)

	_, err := mgr.Connect(ctx, "phantom")
	require.NoError(t, err)

	next := testhelper.RandAddress()
	prov.PushAccountChanged(next)
	require.Eventually(t, func() bool {
		sess := mgr.Session()
		return sess.Status == types.StatusConnected && sess.Account == next
	}, time.Second, time.Millisecond*5)
}

func TestSign(t *testing.T) {
	ctx := context.Background()

	t.Run("no session", func(t *testing.T) {
		prov := testhelper.NewMemProvider("phantom")
		mgr, _ := setupManager(t, prov)

		_, err := mgr.Sign(ctx, []byte{1, 2, 3}, types.MsgMeta{Type: types.MTProofOfControl})
		require.ErrorIs(t, err, types.ErrSigningUnsupported)
	})

	t.Run("user rejects signature", func(t *testing.T) {
		prov := testhelper.NewMemProvider("phantom")
		mgr, _ := setupManager(t, prov)

		_, err := mgr.Connect(ctx, "phantom")
		require.NoError(t, err)

		prov.SetRejectSign(true)
		_, err = mgr.Sign(ctx, []byte{1, 2, 3}, types.MsgMeta{Type: types.MTProofOfControl})
		require.ErrorIs(t, err, types.ErrSigningRejected)
	})

	t.Run("correct", func(t *testing.T) {
		prov := testhelper.NewMemProvider("phantom")
		mgr, _ := setupManager(t, prov)

		_, err := mgr.Connect(ctx, "phantom")
		require.NoError(t, err)

		sig, err := mgr.Sign(ctx, []byte{1, 2, 3}, types.MsgMeta{Type: types.MTProofOfControl})
		require.NoError(t, err)
		require.NotNil(t, sig)
	})
}
