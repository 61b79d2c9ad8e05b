package session

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sachinacharyaa/popChain/provider"
	"github.com/sachinacharyaa/popChain/testhelper"
	"github.com/sachinacharyaa/popChain/types"
)

func TestDiscover(t *testing.T) {
	ctx := context.Background()

	t.Run("keeps candidate order", func(t *testing.T) {
		phantom := testhelper.NewMemProvider("phantom")
		solflare := testhelper.NewMemProvider("solflare")
		dial := func(ctx context.Context, desc types.ProviderDescriptor) (provider.IProvider, func(), error) {
			switch desc.Name {
			case "phantom":
				return phantom, func() {}, nil
			case "solflare":
				return solflare, func() {}, nil
			}
			return nil, nil, fmt.Errorf("connection refused")
		}

		registry := NewRegistry([]types.ProviderDescriptor{
			{Name: "phantom", URL: "mem://phantom"},
			{Name: "ghost", URL: "mem://ghost"},
			{Name: "solflare", URL: "mem://solflare"},
		}, time.Second, dial)

		found := registry.Discover(ctx)
		require.Len(t, found, 2)
		require.Equal(t, "phantom", found[0].Name)
		require.Equal(t, "solflare", found[1].Name)

		_, ok := registry.Lookup("phantom")
		require.True(t, ok)
		_, ok = registry.Lookup("ghost")
		require.False(t, ok)
	})

	t.Run("remote identity wins over configured name", func(t *testing.T) {
		prov := testhelper.NewMemProvider("Phantom Wallet")
		registry := NewRegistry([]types.ProviderDescriptor{
			{Name: "phantom", URL: "mem://phantom"},
		}, time.Second, prov.Dialer())

		found := registry.Discover(ctx)
		require.Len(t, found, 1)
		require.Equal(t, "Phantom Wallet", found[0].Name)
		require.Equal(t, "mem://phantom", found[0].URL)
	})

	t.Run("later sweep picks up a provider that came online", func(t *testing.T) {
		prov := testhelper.NewMemProvider("phantom")
		var online bool
		dial := func(ctx context.Context, desc types.ProviderDescriptor) (provider.IProvider, func(), error) {
			if !online {
				return nil, nil, fmt.Errorf("connection refused")
			}
			return prov, func() {}, nil
		}

		registry := NewRegistry([]types.ProviderDescriptor{
			{Name: "phantom", URL: "mem://phantom"},
		}, time.Second, dial)

		require.Empty(t, registry.Discover(ctx))

		online = true
		require.Len(t, registry.Discover(ctx), 1)
	})
}

func TestSweepHonorsCancel(t *testing.T) {
	prov := testhelper.NewMemProvider("phantom")
	registry := NewRegistry([]types.ProviderDescriptor{
		{Name: "phantom", URL: "mem://phantom"},
	}, time.Second, prov.Dialer())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		registry.Sweep(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweep did not stop on cancel")
	}
}
