package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/etherlabsio/healthcheck/v2"
	"github.com/filecoin-project/go-jsonrpc"
	"github.com/gorilla/mux"
	"github.com/ipfs-force-community/metrics"
	logging "github.com/ipfs/go-log/v2"
	homedir "github.com/mitchellh/go-homedir"
	multiaddr "github.com/multiformats/go-multiaddr"
	manet "github.com/multiformats/go-multiaddr/net"
	"github.com/urfave/cli/v2"
	"go.opencensus.io/plugin/ochttp"

	"github.com/sachinacharyaa/popChain/api"
	"github.com/sachinacharyaa/popChain/chain"
	"github.com/sachinacharyaa/popChain/claims"
	"github.com/sachinacharyaa/popChain/cmds"
	"github.com/sachinacharyaa/popChain/config"
	"github.com/sachinacharyaa/popChain/events"
	popmetrics "github.com/sachinacharyaa/popChain/metrics"
	"github.com/sachinacharyaa/popChain/notify"
	"github.com/sachinacharyaa/popChain/provider"
	"github.com/sachinacharyaa/popChain/session"
	"github.com/sachinacharyaa/popChain/store/sqlite"
	"github.com/sachinacharyaa/popChain/types"
	"github.com/sachinacharyaa/popChain/version"
)

var log = logging.Logger("main")

const dbFile = "popchain.db"

func main() {
	_ = logging.SetLogLevel("*", "INFO")

	app := &cli.App{
		Name:  "pop-gateway",
		Usage: "pop-gateway mediates wallet sessions and proof-of-participation claims",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "repo",
				Usage: "path of the config and claim database directory",
				Value: "~/.pop-gateway",
			},
			&cli.StringFlag{
				Name:  "listen",
				Usage: "host address and port the api will listen on",
				Value: "/ip4/127.0.0.1/tcp/45132",
			},
		},
		Commands: []*cli.Command{
			runCmd, cmds.ProviderCmds, cmds.WalletCmds, cmds.EventCmds, cmds.ClaimCmds,
		},
	}
	app.Version = version.UserVersion
	if err := app.Run(os.Args); err != nil {
		log.Warn(err)
		os.Exit(1)
	}
}

var runCmd = &cli.Command{
	Name:  "run",
	Usage: "start pop-gateway daemon",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "jaeger-proxy", EnvVars: []string{"POP_GATEWAY_JAEGER_PROXY"}},
		&cli.Float64Flag{Name: "trace-sampler", EnvVars: []string{"POP_GATEWAY_TRACE_SAMPLER"}, Value: 1.0},
		&cli.StringFlag{Name: "trace-node-name", Value: "pop-gateway"},
	},
	Action: func(cctx *cli.Context) error {
		repo, err := homedir.Expand(cctx.String("repo"))
		if err != nil {
			return err
		}

		cfg, err := ensureConfig(repo)
		if err != nil {
			return err
		}
		if cctx.IsSet("listen") || cfg.API.ListenAddress == "" {
			cfg.API.ListenAddress = cctx.String("listen")
		}
		if proxy := cctx.String("jaeger-proxy"); len(proxy) > 0 {
			cfg.Trace.JaegerTracingEnabled = true
			cfg.Trace.JaegerEndpoint = proxy
			cfg.Trace.ProbabilitySampler = cctx.Float64("trace-sampler")
			cfg.Trace.ServerName = cctx.String("trace-node-name")
		}

		return RunMain(cctx.Context, repo, cfg)
	},
}

func ensureConfig(repo string) (*config.Config, error) {
	if err := os.MkdirAll(repo, 0755); err != nil {
		return nil, err
	}

	cfgPath := filepath.Join(repo, config.ConfigFile)
	cfg, err := config.ReadConfig(cfgPath)
	if err == nil {
		return cfg, nil
	}
	if !os.IsNotExist(err) {
		return nil, err
	}

	cfg = config.DefaultConfig()
	if err := config.WriteConfig(cfgPath, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func RunMain(ctx context.Context, repo string, cfg *config.Config) error {
	requestCfg := cfg.Claim.RequestConfig()

	log.Infof("pop-gateway current version %s, listen %s", version.UserVersion, cfg.API.ListenAddress)

	db, err := sqlite.Open(filepath.Join(repo, dbFile))
	if err != nil {
		return fmt.Errorf("open claim database: %w", err)
	}
	defer db.Close() //nolint:errcheck

	catalog, err := events.NewRegistry(cfg.EventRecords())
	if err != nil {
		return fmt.Errorf("load event catalog: %w", err)
	}

	logInstance := logging.Logger("notify_hub")
	hub := notify.NewHub(&logInstance.SugaredLogger)
	sink := notify.Fanout(hub, &notify.LogSink{})

	ledgerAPI, ledgerCloser, err := chain.NewLedgerClient(ctx, cfg.Ledger.URL, cfg.Ledger.Token)
	if err != nil {
		return fmt.Errorf("dial ledger node %s: %w", cfg.Ledger.URL, err)
	}
	defer ledgerCloser()

	dial := func(ctx context.Context, desc types.ProviderDescriptor) (provider.IProvider, func(), error) {
		api, closer, err := provider.Dial(ctx, desc)
		if err != nil {
			return nil, nil, err
		}
		return api, func() { closer() }, nil
	}

	registry := session.NewRegistry(cfg.Descriptors(), requestCfg.ProbeTimeout, dial)
	mgr := session.NewManager(requestCfg, registry, dial, db.Settings(), sink)
	ledger := claims.NewLedger(requestCfg, db.Claims(), catalog, ledgerAPI)
	popAPIImpl := api.NewPopAPIImpl(mgr, ledger, catalog, sink)

	go func() {
		registry.Sweep(ctx)
		if sess := mgr.TryRestore(ctx); sess != nil {
			log.Infof("restored session %s via %s", sess.Account, sess.ProviderName)
		}
	}()

	log.Info("Setting up control endpoint at " + cfg.API.ListenAddress)

	router := mux.NewRouter()
	rpcServer := jsonrpc.NewServer()
	rpcServer.Register("Pop", popAPIImpl)
	router.Handle("/rpc/v1", rpcServer)
	router.Handle("/notify", hub)
	router.Handle("/healthz", healthcheck.Handler(
		healthcheck.WithTimeout(5*time.Second),
		healthcheck.WithChecker("claimdb", healthcheck.CheckerFunc(db.Ping)),
	))
	router.PathPrefix("/").Handler(http.DefaultServeMux)

	if err := popmetrics.SetupMetrics(ctx, cfg.Metrics, mgr.Session); err != nil {
		return err
	}

	handler := (http.Handler)(router)
	if reporter, err := metrics.RegisterJaeger(cfg.Trace.ServerName, cfg.Trace); err != nil {
		log.Fatalf("register %s JaegerRepoter to %s failed:%s", cfg.Trace.ServerName, cfg.Trace.JaegerEndpoint, err)
	} else if reporter != nil {
		log.Infof("register jaeger-tracing exporter to %s, with node-name:%s", cfg.Trace.JaegerEndpoint, cfg.Trace.ServerName)
		defer metrics.UnregisterJaeger(reporter)
		handler = &ochttp.Handler{Handler: handler}
	}
	srv := &http.Server{Handler: handler}

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigCh:
			log.Warnw("received shutdown", "signal", sig)
		case <-ctx.Done():
			log.Warn("received shutdown")
		}

		log.Info("Shutting down...")
		mgr.Disconnect(context.TODO())
		if err := srv.Shutdown(context.TODO()); err != nil {
			log.Errorf("shutting down RPC server failed: %s", err)
		}
	}()

	addr, err := multiaddr.NewMultiaddr(cfg.API.ListenAddress)
	if err != nil {
		return err
	}

	nl, err := manet.Listen(addr)
	if err != nil {
		return err
	}

	log.Infof("start to rpc listen %s", nl.Addr())
	if err = srv.Serve(manet.NetListener(nl)); err != nil && err != http.ErrServerClosed {
		return err
	}

	log.Info("Graceful shutdown successful")
	return nil
}
