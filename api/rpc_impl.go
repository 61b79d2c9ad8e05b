package api

import (
	"context"
	"fmt"
	"time"

	"github.com/filecoin-project/go-address"
	"github.com/filecoin-project/go-state-types/abi"
	"github.com/ipfs/go-cid"

	"github.com/sachinacharyaa/popChain/claims"
	"github.com/sachinacharyaa/popChain/events"
	"github.com/sachinacharyaa/popChain/notify"
	"github.com/sachinacharyaa/popChain/session"
	"github.com/sachinacharyaa/popChain/types"
	"github.com/sachinacharyaa/popChain/version"
)

var _ IPopAPI = (*PopAPIImpl)(nil)

// PopAPIImpl glues the session manager and the claim ledger together behind
// the public API and reports claim outcomes to the notify sink.
type PopAPIImpl struct {
	mgr    *session.Manager
	ledger *claims.Ledger
	events *events.Registry
	sink   notify.Sink
}

func NewPopAPIImpl(mgr *session.Manager, ledger *claims.Ledger, registry *events.Registry, sink notify.Sink) *PopAPIImpl {
	return &PopAPIImpl{
		mgr:    mgr,
		ledger: ledger,
		events: registry,
		sink:   sink,
	}
}

func (p *PopAPIImpl) Version(_ context.Context) (version.Version, error) {
	return version.Version{Version: version.UserVersion}, nil
}

func (p *PopAPIImpl) DiscoverProviders(ctx context.Context) ([]types.ProviderDescriptor, error) {
	return p.mgr.DiscoverProviders(ctx), nil
}

func (p *PopAPIImpl) WalletSession(_ context.Context) (types.WalletSession, error) {
	return p.mgr.Session(), nil
}

func (p *PopAPIImpl) RequestConnect(ctx context.Context, providerName string) (types.WalletSession, error) {
	sess, err := p.mgr.Connect(ctx, providerName)
	if err != nil {
		return types.WalletSession{}, err
	}
	return *sess, nil
}

func (p *PopAPIImpl) RequestDisconnect(ctx context.Context) error {
	p.mgr.Disconnect(ctx)
	return nil
}

func (p *PopAPIImpl) TryRestore(ctx context.Context) (types.WalletSession, error) {
	if sess := p.mgr.TryRestore(ctx); sess != nil {
		return *sess, nil
	}
	return p.mgr.Session(), nil
}

func (p *PopAPIImpl) ListEvents(_ context.Context) ([]types.EventRecord, error) {
	return p.events.List(), nil
}

func (p *PopAPIImpl) HasClaimed(ctx context.Context, eventID string) (bool, error) {
	return p.ledger.HasClaimed(ctx, p.mgr.Session().Account, eventID)
}

func (p *PopAPIImpl) ClaimRef(ctx context.Context, eventID string) (cid.Cid, error) {
	return p.ledger.ClaimRef(ctx, p.mgr.Session().Account, eventID)
}

func (p *PopAPIImpl) ClaimsByOwner(ctx context.Context, owner address.Address) ([]*types.ClaimRecord, error) {
	return p.ledger.ClaimsByOwner(ctx, owner)
}

// RequestClaim claims eventID for the connected account, signing the proof
// message through the active wallet session.
func (p *PopAPIImpl) RequestClaim(ctx context.Context, eventID string) (*types.ClaimRecord, error) {
	ses := p.mgr.Session()
	if ses.Status != types.StatusConnected {
		return nil, fmt.Errorf("no wallet connected: %w", types.ErrSigningUnsupported)
	}

	rec, err := p.ledger.Claim(ctx, ses.Account, eventID, p.mgr)
	if err != nil {
		p.sink.Publish(notify.Outcome{
			Kind:   notify.OutcomeClaimFailed,
			Detail: eventID,
			Reason: types.ClaimKind(err),
			At:     time.Now().UTC(),
		})
		return nil, err
	}

	p.sink.Publish(notify.Outcome{
		Kind:   notify.OutcomeClaimSucceeded,
		Detail: eventID,
		Ref:    rec.ProofRef.String(),
		At:     rec.ClaimedAt,
	})
	return rec, nil
}

func (p *PopAPIImpl) EstimateClaimCost(ctx context.Context) (abi.TokenAmount, error) {
	return p.ledger.EstimateClaimCost(ctx), nil
}
