package testhelper

import (
	"context"
	"fmt"
	"sync"

	"github.com/filecoin-project/go-address"
	"github.com/filecoin-project/go-state-types/abi"
	"github.com/filecoin-project/go-state-types/big"
	"github.com/ipfs/go-cid"
	mh "github.com/multiformats/go-multihash"

	"github.com/sachinacharyaa/popChain/chain"
	"github.com/sachinacharyaa/popChain/types"
)

var _ chain.ILedger = (*MemLedger)(nil)

// MemLedger is an in-memory chain node for claim tests.
type MemLedger struct {
	lk       sync.Mutex
	balances map[address.Address]abi.TokenAmount
	nonces   map[address.Address]uint64
	fee      abi.TokenAmount
	feeErr   error

	failSubmit  bool
	failConfirm bool
	submitted   []*types.SignedProofMessage
}

func NewMemLedger() *MemLedger {
	return &MemLedger{
		balances: make(map[address.Address]abi.TokenAmount),
		nonces:   make(map[address.Address]uint64),
		fee:      abi.NewTokenAmount(5_000_000_000_000),
	}
}

func (m *MemLedger) SetBalance(addr address.Address, amt abi.TokenAmount) {
	m.lk.Lock()
	defer m.lk.Unlock()
	m.balances[addr] = amt
}

func (m *MemLedger) SetFee(fee abi.TokenAmount, err error) {
	m.lk.Lock()
	defer m.lk.Unlock()
	m.fee, m.feeErr = fee, err
}

func (m *MemLedger) SetFailSubmit(fail bool) {
	m.lk.Lock()
	defer m.lk.Unlock()
	m.failSubmit = fail
}

func (m *MemLedger) SetFailConfirm(fail bool) {
	m.lk.Lock()
	defer m.lk.Unlock()
	m.failConfirm = fail
}

func (m *MemLedger) Submitted() []*types.SignedProofMessage {
	m.lk.Lock()
	defer m.lk.Unlock()
	return append([]*types.SignedProofMessage{}, m.submitted...)
}

func (m *MemLedger) WalletBalance(_ context.Context, addr address.Address) (abi.TokenAmount, error) {
	m.lk.Lock()
	defer m.lk.Unlock()
	if amt, ok := m.balances[addr]; ok {
		return amt, nil
	}
	return big.Zero(), nil
}

func (m *MemLedger) MessageNonce(_ context.Context, addr address.Address) (uint64, error) {
	m.lk.Lock()
	defer m.lk.Unlock()
	return m.nonces[addr], nil
}

func (m *MemLedger) EstimateFee(_ context.Context) (abi.TokenAmount, error) {
	m.lk.Lock()
	defer m.lk.Unlock()
	if m.feeErr != nil {
		return big.Zero(), m.feeErr
	}
	return m.fee, nil
}

func (m *MemLedger) SubmitMessage(_ context.Context, smsg *types.SignedProofMessage) (cid.Cid, error) {
	m.lk.Lock()
	defer m.lk.Unlock()
	if m.failSubmit {
		return cid.Undef, fmt.Errorf("mpool: message rejected")
	}
	m.submitted = append(m.submitted, smsg)
	m.nonces[smsg.Message.From] = smsg.Message.Nonce + 1

	data, err := smsg.Message.SigningBytes()
	if err != nil {
		return cid.Undef, err
	}
	hash, err := mh.Sum(data, mh.SHA2_256, -1)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.Raw, hash), nil
}

func (m *MemLedger) WaitMessage(ctx context.Context, _ cid.Cid) error {
	m.lk.Lock()
	fail := m.failConfirm
	m.lk.Unlock()
	if fail {
		return fmt.Errorf("message was not confirmed")
	}
	return ctx.Err()
}
