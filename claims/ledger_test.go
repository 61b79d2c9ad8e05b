package claims

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/filecoin-project/go-address"
	"github.com/filecoin-project/go-state-types/abi"
	"github.com/filecoin-project/go-state-types/crypto"
	"github.com/stretchr/testify/require"

	"github.com/sachinacharyaa/popChain/events"
	"github.com/sachinacharyaa/popChain/store"
	"github.com/sachinacharyaa/popChain/store/sqlite"
	"github.com/sachinacharyaa/popChain/testhelper"
	"github.com/sachinacharyaa/popChain/types"
)

type stubSigner struct {
	lk     sync.Mutex
	err    error
	gate   chan struct{}
	signed [][]byte
}

func (s *stubSigner) Sign(ctx context.Context, toSign []byte, _ types.MsgMeta) (*crypto.Signature, error) {
	s.lk.Lock()
	gate := s.gate
	s.lk.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	s.lk.Lock()
	defer s.lk.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	s.signed = append(s.signed, toSign)
	data := make([]byte, 65)
	copy(data, toSign)
	return &crypto.Signature{Type: crypto.SigTypeSecp256k1, Data: data}, nil
}

func setupLedger(t *testing.T) (*Ledger, *testhelper.MemLedger, *events.Registry) {
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "claims.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	registry, err := events.NewRegistry([]types.EventRecord{
		{ID: "1", Name: "Solana Hackathon 2026", Capacity: 1000, CurrentCount: 847},
		{ID: "4", Name: "SuperTeam Nepal Bootcamp", Capacity: 20, CurrentCount: 19},
	})
	require.NoError(t, err)

	node := testhelper.NewMemLedger()
	return NewLedger(types.DefaultConfig(), db.Claims(), registry, node), node, registry
}

func fundedOwner(node *testhelper.MemLedger) address.Address {
	owner := testhelper.RandAddress()
	node.SetBalance(owner, abi.NewTokenAmount(2_000_000_000_000_000))
	return owner
}

func TestClaim(t *testing.T) {
	ctx := context.Background()

	t.Run("correct", func(t *testing.T) {
		ledger, node, registry := setupLedger(t)
		owner := fundedOwner(node)

		rec, err := ledger.Claim(ctx, owner, "1", &stubSigner{})
		require.NoError(t, err)
		require.Equal(t, owner, rec.Owner)
		require.Equal(t, "1", rec.EventID)
		require.True(t, strings.HasPrefix(rec.MintID, "PoP"))
		require.True(t, rec.ProofRef.Defined())

		// the proof moves no value and pays the owner itself
		submitted := node.Submitted()
		require.Len(t, submitted, 1)
		require.Equal(t, owner, submitted[0].Message.From)
		require.Equal(t, owner, submitted[0].Message.To)
		require.True(t, submitted[0].Message.Value.IsZero())

		claimed, err := ledger.HasClaimed(ctx, owner, "1")
		require.NoError(t, err)
		require.True(t, claimed)

		ev, _ := registry.Get("1")
		require.EqualValues(t, 848, ev.CurrentCount)
	})

	t.Run("duplicate claim", func(t *testing.T) {
		ledger, node, _ := setupLedger(t)
		owner := fundedOwner(node)

		_, err := ledger.Claim(ctx, owner, "1", &stubSigner{})
		require.NoError(t, err)

		_, err = ledger.Claim(ctx, owner, "1", &stubSigner{})
		require.ErrorIs(t, err, types.ErrAlreadyClaimed)
		require.Len(t, node.Submitted(), 1)
	})

	t.Run("same event different owners", func(t *testing.T) {
		ledger, node, _ := setupLedger(t)

		_, err := ledger.Claim(ctx, fundedOwner(node), "1", &stubSigner{})
		require.NoError(t, err)
		_, err = ledger.Claim(ctx, fundedOwner(node), "1", &stubSigner{})
		require.NoError(t, err)
	})

	t.Run("unknown event", func(t *testing.T) {
		ledger, node, _ := setupLedger(t)

		_, err := ledger.Claim(ctx, fundedOwner(node), "99", &stubSigner{})
		require.ErrorIs(t, err, types.ErrSubmissionFailed)
	})

	t.Run("insufficient funds", func(t *testing.T) {
		ledger, node, _ := setupLedger(t)
		owner := testhelper.RandAddress()
		node.SetBalance(owner, abi.NewTokenAmount(1))

		_, err := ledger.Claim(ctx, owner, "1", &stubSigner{})
		var ife *types.InsufficientFundsError
		require.ErrorAs(t, err, &ife)
		require.Equal(t, types.KindInsufficientFunds, types.ClaimKind(err))
		require.Empty(t, node.Submitted())
	})

	t.Run("signature rejected", func(t *testing.T) {
		ledger, node, registry := setupLedger(t)
		owner := fundedOwner(node)

		_, err := ledger.Claim(ctx, owner, "1", &stubSigner{err: types.ErrSigningRejected})
		require.ErrorIs(t, err, types.ErrSigningRejected)
		require.Empty(t, node.Submitted())

		// nothing was recorded, the claim can be retried
		claimed, err := ledger.HasClaimed(ctx, owner, "1")
		require.NoError(t, err)
		require.False(t, claimed)

		ev, _ := registry.Get("1")
		require.EqualValues(t, 847, ev.CurrentCount)
	})

	t.Run("signer failure wraps as submission failure", func(t *testing.T) {
		ledger, node, _ := setupLedger(t)

		_, err := ledger.Claim(ctx, fundedOwner(node), "1", &stubSigner{err: fmt.Errorf("wallet crashed")})
		require.ErrorIs(t, err, types.ErrSubmissionFailed)
	})

	t.Run("submit failure", func(t *testing.T) {
		ledger, node, _ := setupLedger(t)
		node.SetFailSubmit(true)

		_, err := ledger.Claim(ctx, fundedOwner(node), "1", &stubSigner{})
		require.ErrorIs(t, err, types.ErrSubmissionFailed)
	})

	t.Run("confirmation failure", func(t *testing.T) {
		ledger, node, _ := setupLedger(t)
		node.SetFailConfirm(true)
		owner := fundedOwner(node)

		_, err := ledger.Claim(ctx, owner, "1", &stubSigner{})
		require.ErrorIs(t, err, types.ErrSubmissionFailed)

		claimed, err := ledger.HasClaimed(ctx, owner, "1")
		require.NoError(t, err)
		require.False(t, claimed)
	})

	t.Run("capacity clamps the count, never the claim", func(t *testing.T) {
		ledger, node, registry := setupLedger(t)

		_, err := ledger.Claim(ctx, fundedOwner(node), "4", &stubSigner{})
		require.NoError(t, err)
		ev, _ := registry.Get("4")
		require.EqualValues(t, 20, ev.CurrentCount)

		// at capacity now, claims still go through
		_, err = ledger.Claim(ctx, fundedOwner(node), "4", &stubSigner{})
		require.NoError(t, err)
		ev, _ = registry.Get("4")
		require.EqualValues(t, 20, ev.CurrentCount)
	})

	t.Run("concurrent claim for one key", func(t *testing.T) {
		ledger, node, _ := setupLedger(t)
		owner := fundedOwner(node)

		signer := &stubSigner{gate: make(chan struct{})}
		errCh := make(chan error, 1)
		go func() {
			_, err := ledger.Claim(ctx, owner, "1", signer)
			errCh <- err
		}()

		key := claimKey{owner: owner.String(), event: "1"}
		require.Eventually(t, func() bool {
			if ledger.markInFlight(key) {
				ledger.releaseInFlight(key)
				return false
			}
			return true
		}, time.Second, time.Millisecond*5)

		_, err := ledger.Claim(ctx, owner, "1", &stubSigner{})
		require.ErrorIs(t, err, types.ErrClaimInFlight)
		require.Equal(t, types.KindAlreadyClaimed, types.ClaimKind(err))

		close(signer.gate)
		require.NoError(t, <-errCh)
		require.Len(t, node.Submitted(), 1)
	})
}

func TestClaimQueries(t *testing.T) {
	ctx := context.Background()

	t.Run("claims by owner", func(t *testing.T) {
		ledger, node, _ := setupLedger(t)
		owner := fundedOwner(node)

		first, err := ledger.Claim(ctx, owner, "1", &stubSigner{})
		require.NoError(t, err)
		second, err := ledger.Claim(ctx, owner, "4", &stubSigner{})
		require.NoError(t, err)

		recs, err := ledger.ClaimsByOwner(ctx, owner)
		require.NoError(t, err)
		require.Len(t, recs, 2)
		require.Equal(t, first.MintID, recs[0].MintID)
		require.Equal(t, second.MintID, recs[1].MintID)

		recs, err = ledger.ClaimsByOwner(ctx, address.Undef)
		require.NoError(t, err)
		require.Empty(t, recs)
	})

	t.Run("claim ref", func(t *testing.T) {
		ledger, node, _ := setupLedger(t)
		owner := fundedOwner(node)

		rec, err := ledger.Claim(ctx, owner, "1", &stubSigner{})
		require.NoError(t, err)

		ref, err := ledger.ClaimRef(ctx, owner, "1")
		require.NoError(t, err)
		require.Equal(t, rec.ProofRef, ref)

		_, err = ledger.ClaimRef(ctx, owner, "4")
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestEstimateClaimCost(t *testing.T) {
	ctx := context.Background()

	t.Run("node estimate", func(t *testing.T) {
		ledger, node, _ := setupLedger(t)
		node.SetFee(abi.NewTokenAmount(7), nil)
		require.Equal(t, abi.NewTokenAmount(7), ledger.EstimateClaimCost(ctx))
	})

	t.Run("fallback on estimator failure", func(t *testing.T) {
		ledger, node, _ := setupLedger(t)
		node.SetFee(abi.NewTokenAmount(7), fmt.Errorf("node busy"))
		require.Equal(t, fallbackFee, ledger.EstimateClaimCost(ctx))
	})
}
