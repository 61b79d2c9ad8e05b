// Package notify carries semantic outcomes from the core to whatever surface
// presents them.
package notify

import (
	"time"

	logging "github.com/ipfs/go-log/v2"

	"github.com/sachinacharyaa/popChain/types"
)

var log = logging.Logger("notify")

type OutcomeKind string

const (
	OutcomeConnectSucceeded OutcomeKind = "ConnectSucceeded"
	OutcomeConnectFailed    OutcomeKind = "ConnectFailed"
	OutcomeDisconnected     OutcomeKind = "Disconnected"
	OutcomeClaimSucceeded   OutcomeKind = "ClaimSucceeded"
	OutcomeClaimFailed      OutcomeKind = "ClaimFailed"
)

// Outcome is one presentable result. Reason is set for failures, Ref for
// successful claims.
type Outcome struct {
	Kind   OutcomeKind
	Detail string
	Reason types.ErrorKind `json:",omitempty"`
	Ref    string          `json:",omitempty"`
	At     time.Time
}

type Sink interface {
	Publish(o Outcome)
}

// LogSink writes outcomes to the gateway log only.
type LogSink struct{}

func (LogSink) Publish(o Outcome) {
	log.Infow("outcome", "kind", o.Kind, "detail", o.Detail, "reason", o.Reason, "ref", o.Ref)
}

type fanout []Sink

// Fanout publishes every outcome to each of the given sinks in order.
func Fanout(sinks ...Sink) Sink {
	return fanout(sinks)
}

func (f fanout) Publish(o Outcome) {
	for _, s := range f {
		s.Publish(o)
	}
}
