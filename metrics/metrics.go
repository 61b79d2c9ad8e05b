package metrics

import (
	"time"

	rpcMetrics "github.com/filecoin-project/go-jsonrpc/metrics"
	"github.com/ipfs-force-community/metrics"
	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"
)

// Global Tags
var (
	ProviderNameKey, _ = tag.NewKey("provider")
	AccountKey, _      = tag.NewKey("account")
	EventKey, _        = tag.NewKey("event")
	FailureKindKey, _  = tag.NewKey("kind")
)

// Distribution
var defaultMillisecondsDistribution = view.Distribution(0.01, 0.05, 0.1, 0.3, 0.6, 0.8, 1, 2, 3, 4, 5, 6, 8, 10, 13, 16, 20, 25, 30, 40, 50, 65, 80, 100, 130, 160, 200, 250, 300, 400, 500, 650, 800, 1000, 2000, 3000, 4000, 5000, 7500, 10000, 20000, 50000, 100000)

var (
	// session
	ProviderDiscovered = metrics.NewInt64("session/providers", "Providers found by the last discovery sweep", stats.UnitDimensionless)
	SessionConnect     = stats.Int64("session/connect", "Wallet connect succeeded", stats.UnitDimensionless)
	SessionConnectFail = stats.Int64("session/connect_fail", "Wallet connect failed", stats.UnitDimensionless)
	SessionRestore     = stats.Int64("session/restore", "Silent session restore succeeded", stats.UnitDimensionless)
	SessionDisconnect  = stats.Int64("session/disconnect", "Wallet session ended", stats.UnitDimensionless)
	SessionState       = metrics.NewInt64("session/state", "Session state. 0: disconnected, 1: connected", stats.UnitDimensionless)

	// claims
	ClaimSucceed = stats.Int64("claim/succeed", "Claim recorded", stats.UnitDimensionless)
	ClaimFail    = stats.Int64("claim/fail", "Claim failed", stats.UnitDimensionless)

	// method call
	WalletSignMs = stats.Float64("wallet_sign", "Call provider Sign spent time", stats.UnitMilliseconds)
	ClaimMs      = stats.Float64("claim", "Full claim flow spent time", stats.UnitMilliseconds)

	ApiState = metrics.NewInt64("api/state", "api service state. 0: down, 1: up", "")
)

var (
	sessionConnectView = &view.View{
		Measure:     SessionConnect,
		Aggregation: view.Count(),
		TagKeys:     []tag.Key{ProviderNameKey},
	}
	sessionConnectFailView = &view.View{
		Measure:     SessionConnectFail,
		Aggregation: view.Count(),
		TagKeys:     []tag.Key{ProviderNameKey, FailureKindKey},
	}
	sessionRestoreView = &view.View{
		Measure:     SessionRestore,
		Aggregation: view.Count(),
		TagKeys:     []tag.Key{ProviderNameKey},
	}
	sessionDisconnectView = &view.View{
		Measure:     SessionDisconnect,
		Aggregation: view.Count(),
		TagKeys:     []tag.Key{ProviderNameKey},
	}

	claimSucceedView = &view.View{
		Measure:     ClaimSucceed,
		Aggregation: view.Count(),
		TagKeys:     []tag.Key{EventKey, AccountKey},
	}
	claimFailView = &view.View{
		Measure:     ClaimFail,
		Aggregation: view.Count(),
		TagKeys:     []tag.Key{EventKey, FailureKindKey},
	}

	walletSignView = &view.View{
		Measure:     WalletSignMs,
		Aggregation: defaultMillisecondsDistribution,
		TagKeys:     []tag.Key{ProviderNameKey},
	}
	claimMsView = &view.View{
		Measure:     ClaimMs,
		Aggregation: defaultMillisecondsDistribution,
		TagKeys:     []tag.Key{EventKey},
	}
)

var views = append([]*view.View{
	sessionConnectView,
	sessionConnectFailView,
	sessionRestoreView,
	sessionDisconnectView,
	claimSucceedView,
	claimFailView,
	walletSignView,
	claimMsView,
}, rpcMetrics.DefaultViews...)

// SinceInMilliseconds returns the duration of time since the provide time as a float64.
func SinceInMilliseconds(startTime time.Time) float64 {
	return float64(time.Since(startTime).Nanoseconds()) / 1e6
}
