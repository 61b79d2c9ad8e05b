package types

import (
	"time"

	"github.com/filecoin-project/go-state-types/abi"
)

// RequestConfig bounds the gateway's externally awaited operations.
type RequestConfig struct {
	// ProbeTimeout bounds a single provider discovery probe.
	ProbeTimeout time.Duration
	// ConnectTimeout bounds an interactive provider authorization.
	ConnectTimeout time.Duration
	// ConfirmTimeout bounds waiting for proof submission confirmation.
	ConfirmTimeout time.Duration
	// DustThreshold is the minimum balance an account must hold to cover
	// network fees before a claim is attempted.
	DustThreshold abi.TokenAmount
}

func DefaultConfig() *RequestConfig {
	return &RequestConfig{
		ProbeTimeout:   time.Second * 2,
		ConnectTimeout: time.Minute * 2,
		ConfirmTimeout: time.Minute,
		// 0.001 POP in atto units, enough for a proof transfer fee.
		DustThreshold: abi.NewTokenAmount(1_000_000_000_000_000),
	}
}
