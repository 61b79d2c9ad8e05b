// Package claims implements the participation claim ledger: it decides
// whether an account already holds a claim for an event, runs the
// proof-of-control flow and records the result.
package claims

import (
	"context"
	"sync"
	"time"

	"github.com/filecoin-project/go-address"
	"github.com/filecoin-project/go-state-types/abi"
	"github.com/filecoin-project/go-state-types/crypto"
	"github.com/ipfs/go-cid"
	logging "github.com/ipfs/go-log/v2"
	"github.com/pkg/errors"
	"go.opencensus.io/stats"
	"go.opencensus.io/tag"

	"github.com/sachinacharyaa/popChain/chain"
	"github.com/sachinacharyaa/popChain/events"
	"github.com/sachinacharyaa/popChain/metrics"
	"github.com/sachinacharyaa/popChain/store"
	"github.com/sachinacharyaa/popChain/types"
)

var log = logging.Logger("claim_ledger")

// fallbackFee is the typical proof transfer fee, used when the node cannot
// estimate one.
var fallbackFee = abi.NewTokenAmount(5_000_000_000_000)

// Signer produces a signature for the connected account.
type Signer interface {
	Sign(ctx context.Context, toSign []byte, meta types.MsgMeta) (*crypto.Signature, error)
}

// Ledger owns the claim-record store and the event attendee counters.
type Ledger struct {
	cfg    *types.RequestConfig
	store  store.ClaimStore
	events *events.Registry
	chain  chain.ILedger

	flightLk sync.Mutex
	inFlight map[claimKey]struct{}
}

type claimKey struct {
	owner string
	event string
}

func NewLedger(cfg *types.RequestConfig, claimStore store.ClaimStore, registry *events.Registry, ledger chain.ILedger) *Ledger {
	return &Ledger{
		cfg:      cfg,
		store:    claimStore,
		events:   registry,
		chain:    ledger,
		inFlight: make(map[claimKey]struct{}),
	}
}

// HasClaimed reports whether owner already holds a claim for the event. An
// undef owner has claimed nothing.
func (l *Ledger) HasClaimed(ctx context.Context, owner address.Address, eventID string) (bool, error) {
	if owner.Empty() {
		return false, nil
	}
	return l.store.Has(ctx, owner, eventID)
}

// ClaimRef returns the proof reference of an existing claim, or
// store.ErrNotFound.
func (l *Ledger) ClaimRef(ctx context.Context, owner address.Address, eventID string) (cid.Cid, error) {
	if owner.Empty() {
		return cid.Undef, store.ErrNotFound
	}
	rec, err := l.store.Get(ctx, owner, eventID)
	if err != nil {
		return cid.Undef, err
	}
	return rec.ProofRef, nil
}

// ClaimsByOwner lists the owner's claims in claim order.
func (l *Ledger) ClaimsByOwner(ctx context.Context, owner address.Address) ([]*types.ClaimRecord, error) {
	if owner.Empty() {
		return nil, nil
	}
	return l.store.ListByOwner(ctx, owner)
}

// EstimateClaimCost asks the node for the proof transfer fee, falling back to
// a static estimate when the node cannot answer.
func (l *Ledger) EstimateClaimCost(ctx context.Context) abi.TokenAmount {
	fee, err := l.chain.EstimateFee(ctx)
	if err != nil {
		log.Debugf("estimate fee: %s", err)
		return fallbackFee
	}
	return fee
}

// Claim runs the full claim flow for (owner, eventID): duplicate check,
// balance check, proof-of-control signature, submission, confirmation and
// record persistence. Exactly one ClaimRecord exists per key afterwards no
// matter how often it is called.
func (l *Ledger) Claim(ctx context.Context, owner address.Address, eventID string, signer Signer) (*types.ClaimRecord, error) {
	if owner.Empty() {
		return nil, types.ErrSigningUnsupported
	}
	if _, ok := l.events.Get(eventID); !ok {
		return nil, errors.Wrapf(types.ErrSubmissionFailed, "unknown event %s", eventID)
	}

	claimed, err := l.store.Has(ctx, owner, eventID)
	if err != nil {
		return nil, errors.Wrapf(types.ErrSubmissionFailed, "read claim store: %v", err)
	}
	if claimed {
		return nil, types.ErrAlreadyClaimed
	}

	// The store check alone loses the race between two back-to-back claims
	// for the same key, so the key is marked in flight for the duration.
	key := claimKey{owner: owner.String(), event: eventID}
	if !l.markInFlight(key) {
		return nil, types.ErrClaimInFlight
	}
	defer l.releaseInFlight(key)

	start := time.Now()
	rec, err := l.claim(ctx, owner, eventID, signer)
	_ = stats.RecordWithTags(ctx, []tag.Mutator{tag.Upsert(metrics.EventKey, eventID)},
		metrics.ClaimMs.M(metrics.SinceInMilliseconds(start)))
	if err != nil {
		_ = stats.RecordWithTags(ctx, []tag.Mutator{
			tag.Upsert(metrics.EventKey, eventID),
			tag.Upsert(metrics.FailureKindKey, string(types.ClaimKind(err))),
		}, metrics.ClaimFail.M(1))
		return nil, err
	}

	_ = stats.RecordWithTags(ctx, []tag.Mutator{
		tag.Upsert(metrics.EventKey, eventID),
		tag.Upsert(metrics.AccountKey, owner.String()),
	}, metrics.ClaimSucceed.M(1))
	return rec, nil
}

func (l *Ledger) claim(ctx context.Context, owner address.Address, eventID string, signer Signer) (*types.ClaimRecord, error) {
	balance, err := l.chain.WalletBalance(ctx, owner)
	if err != nil {
		return nil, errors.Wrapf(types.ErrSubmissionFailed, "query balance: %v", err)
	}
	if balance.LessThan(l.cfg.DustThreshold) {
		return nil, &types.InsufficientFundsError{Balance: balance, Required: l.cfg.DustThreshold}
	}

	nonce, err := l.chain.MessageNonce(ctx, owner)
	if err != nil {
		return nil, errors.Wrapf(types.ErrSubmissionFailed, "query nonce: %v", err)
	}

	msg := types.NewProofMessage(owner, nonce)
	toSign, err := msg.SigningBytes()
	if err != nil {
		return nil, errors.Wrapf(types.ErrSubmissionFailed, "encode proof message: %v", err)
	}

	sig, err := signer.Sign(ctx, toSign, types.MsgMeta{Type: types.MTProofOfControl})
	if err != nil {
		if errors.Is(err, types.ErrSigningRejected) || errors.Is(err, types.ErrSigningUnsupported) {
			return nil, err
		}
		return nil, errors.Wrapf(types.ErrSubmissionFailed, "sign proof message: %v", err)
	}

	smsg := &types.SignedProofMessage{Message: *msg, Signature: *sig}
	ref, err := l.chain.SubmitMessage(ctx, smsg)
	if err != nil {
		return nil, errors.Wrapf(types.ErrSubmissionFailed, "submit: %v", err)
	}

	wctx, cancel := context.WithTimeout(ctx, l.cfg.ConfirmTimeout)
	defer cancel()
	if err := l.chain.WaitMessage(wctx, ref); err != nil {
		return nil, errors.Wrapf(types.ErrSubmissionFailed, "await confirmation of %s: %v", ref, err)
	}

	now := time.Now().UTC()
	rec := &types.ClaimRecord{
		Owner:     owner,
		EventID:   eventID,
		MintID:    types.NewMintID(eventID, owner, now),
		ProofRef:  ref,
		ClaimedAt: now,
	}
	if err := l.store.Add(ctx, rec); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, types.ErrAlreadyClaimed
		}
		return nil, errors.Wrapf(types.ErrSubmissionFailed, "persist claim: %v", err)
	}

	count, err := l.events.Register(eventID)
	if err != nil {
		log.Warnf("count attendee for %s: %s", eventID, err)
	} else {
		log.Infow("claim recorded", "event", eventID, "owner", owner, "mint", rec.MintID, "attendees", count)
	}
	return rec, nil
}

func (l *Ledger) markInFlight(key claimKey) bool {
	l.flightLk.Lock()
	defer l.flightLk.Unlock()

	if _, ok := l.inFlight[key]; ok {
		return false
	}
	l.inFlight[key] = struct{}{}
	return true
}

func (l *Ledger) releaseInFlight(key claimKey) {
	l.flightLk.Lock()
	defer l.flightLk.Unlock()
	delete(l.inFlight, key)
}
