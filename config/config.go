package config

import (
	"os"
	"time"

	"github.com/ipfs-force-community/metrics"
	"github.com/pelletier/go-toml"

	"github.com/filecoin-project/go-state-types/abi"
	"github.com/sachinacharyaa/popChain/types"
)

const (
	// Configuration file name
	ConfigFile = "config.toml"
)

type Config struct {
	API       *APIConfig
	Ledger    *LedgerConfig
	Claim     *ClaimConfig
	Providers []*ProviderConfig
	Events    []*EventConfig
	Metrics   *metrics.MetricsConfig
	Trace     *metrics.TraceConfig
}

type APIConfig struct {
	ListenAddress string
}

// LedgerConfig points at the chain node used for balances, submission and
// confirmation.
type LedgerConfig struct {
	URL   string
	Token string
}

// ProviderConfig names a wallet provider endpoint to probe during discovery.
type ProviderConfig struct {
	Name  string
	Icon  string
	URL   string
	Token string
}

type ClaimConfig struct {
	// DustThresholdAtto is the minimum balance, in atto units, an account
	// must hold before a claim is attempted.
	DustThresholdAtto  int64
	ProbeTimeoutMillis int64
	ConnectWaitSeconds int64
	ConfirmWaitSeconds int64
}

type EventConfig struct {
	ID           string
	Name         string
	Description  string
	Date         string
	Location     string
	Organizer    string
	Category     string
	ImageURL     string
	Capacity     int64
	CurrentCount int64
}

func DefaultConfig() *Config {
	def := types.DefaultConfig()
	cfg := &Config{
		API:    &APIConfig{ListenAddress: "/ip4/127.0.0.1/tcp/45132"},
		Ledger: &LedgerConfig{URL: "http://127.0.0.1:3453/rpc/v1"},
		Claim: &ClaimConfig{
			DustThresholdAtto:  def.DustThreshold.Int64(),
			ProbeTimeoutMillis: def.ProbeTimeout.Milliseconds(),
			ConnectWaitSeconds: int64(def.ConnectTimeout.Seconds()),
			ConfirmWaitSeconds: int64(def.ConfirmTimeout.Seconds()),
		},
		Providers: []*ProviderConfig{
			{Name: "phantom", URL: "http://127.0.0.1:5678/rpc/v1"},
		},
		Events:  DefaultEvents(),
		Metrics: metrics.DefaultMetricsConfig(),
		Trace:   metrics.DefaultTraceConfig(),
	}
	namespace := "pop_gateway"
	cfg.Metrics.Exporter.Prometheus.Namespace = namespace
	cfg.Metrics.Exporter.Graphite.Namespace = namespace
	cfg.Metrics.Exporter.Prometheus.EndPoint = "/ip4/0.0.0.0/tcp/4569"
	cfg.Metrics.Exporter.Graphite.Port = 4569
	cfg.Trace.ServerName = "pop-gateway"
	cfg.Trace.JaegerEndpoint = ""

	return cfg
}

// DefaultEvents is the seed catalog served when the config lists no events.
func DefaultEvents() []*EventConfig {
	return []*EventConfig{
		{
			ID:          "1",
			Name:        "Solana Hackathon 2026",
			Description: "Join the biggest Solana hackathon of the year! Build innovative dApps and compete for prizes.",
			Date:        "Feb 15-17, 2026",
			Location:    "San Francisco, CA",
			Organizer:   "Solana Foundation",
			Category:    "hackathon",
			ImageURL:    "https://images.unsplash.com/photo-1540575467063-178a50c2df87?w=800&auto=format&fit=crop",
			Capacity:    1000, CurrentCount: 847,
		},
		{
			ID:          "2",
			Name:        "Web3 Developer Workshop",
			Description: "Learn to build decentralized applications from scratch with hands-on coding sessions.",
			Date:        "Feb 20, 2026",
			Location:    "Online",
			Organizer:   "DevDAO",
			Category:    "workshop",
			ImageURL:    "https://images.unsplash.com/photo-1517245386807-bb43f82c33c4?w=800&auto=format&fit=crop",
			Capacity:    500, CurrentCount: 234,
		},
		{
			ID:          "3",
			Name:        "Blockchain Builders Meetup",
			Description: "Monthly gathering of blockchain enthusiasts and developers. Network and share ideas!",
			Date:        "Feb 25, 2026",
			Location:    "New York, NY",
			Organizer:   "NYC Blockchain",
			Category:    "meetup",
			ImageURL:    "https://images.unsplash.com/photo-1515187029135-18ee286d815b?w=800&auto=format&fit=crop",
			Capacity:    150, CurrentCount: 89,
		},
		{
			ID:          "4",
			Name:        "SuperTeam Nepal Bootcamp",
			Description: "Web3 In-physical Bootcamp where you can learn from others while building own web3 projects",
			Date:        "Mar 5-7, 2026",
			Location:    "PKR, NPL",
			Organizer:   "SuperteamNPL",
			Category:    "bootcamp",
			ImageURL:    "./superteamnpl.png",
			Capacity:    20, CurrentCount: 15,
		},
		{
			ID:          "5",
			Name:        "NFT Art Workshop",
			Description: "Create your first NFT artwork. From concept to minting, learn the complete process.",
			Date:        "Mar 12, 2026",
			Location:    "Los Angeles, CA",
			Organizer:   "Digital Art Collective",
			Category:    "workshop",
			ImageURL:    "https://images.unsplash.com/photo-1561070791-2526d30994b5?w=800&auto=format&fit=crop",
			Capacity:    100, CurrentCount: 67,
		},
		{
			ID:          "6",
			Name:        "Solana Validators Meetup",
			Description: "Connect with fellow validators and learn about the latest network improvements.",
			Date:        "Mar 18, 2026",
			Location:    "Austin, TX",
			Organizer:   "Solana Validators DAO",
			Category:    "meetup",
			ImageURL:    "https://images.unsplash.com/photo-1551818255-e6e10975bc17?w=800&auto=format&fit=crop",
			Capacity:    75, CurrentCount: 45,
		},
	}
}

// RequestConfig converts the on-disk claim settings into runtime values,
// filling in defaults for unset fields.
func (c *ClaimConfig) RequestConfig() *types.RequestConfig {
	cfg := types.DefaultConfig()
	if c == nil {
		return cfg
	}
	if c.DustThresholdAtto > 0 {
		cfg.DustThreshold = abi.NewTokenAmount(c.DustThresholdAtto)
	}
	if c.ProbeTimeoutMillis > 0 {
		cfg.ProbeTimeout = time.Duration(c.ProbeTimeoutMillis) * time.Millisecond
	}
	if c.ConnectWaitSeconds > 0 {
		cfg.ConnectTimeout = time.Duration(c.ConnectWaitSeconds) * time.Second
	}
	if c.ConfirmWaitSeconds > 0 {
		cfg.ConfirmTimeout = time.Duration(c.ConfirmWaitSeconds) * time.Second
	}
	return cfg
}

// EventRecords converts the configured catalog, falling back to the default
// seed when empty.
func (c *Config) EventRecords() []types.EventRecord {
	src := c.Events
	if len(src) == 0 {
		src = DefaultEvents()
	}
	records := make([]types.EventRecord, 0, len(src))
	for _, ev := range src {
		records = append(records, types.EventRecord{
			ID:           ev.ID,
			Name:         ev.Name,
			Description:  ev.Description,
			Date:         ev.Date,
			Location:     ev.Location,
			Organizer:    ev.Organizer,
			Category:     ev.Category,
			ImageURL:     ev.ImageURL,
			Capacity:     ev.Capacity,
			CurrentCount: ev.CurrentCount,
		})
	}
	return records
}

// Descriptors converts the configured provider endpoints into discovery
// candidates.
func (c *Config) Descriptors() []types.ProviderDescriptor {
	descs := make([]types.ProviderDescriptor, 0, len(c.Providers))
	for _, p := range c.Providers {
		descs = append(descs, types.ProviderDescriptor{
			Name:  p.Name,
			Icon:  p.Icon,
			URL:   p.URL,
			Token: p.Token,
		})
	}
	return descs
}

func ReadConfig(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	err = toml.Unmarshal(data, cfg)

	return cfg, err
}

func WriteConfig(filePath string, cfg *Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(filePath, data, 0644)
}
