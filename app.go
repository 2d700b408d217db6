package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"runtime/debug"
	"slices"
	"strconv"

	"github.com/algorand/go-algorand-sdk/v2/client/v2/algod"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/joltkin/boxoffice/internal/lib/algo"
	"github.com/joltkin/boxoffice/internal/lib/misc"
	"github.com/joltkin/boxoffice/internal/lib/pass"
	"github.com/joltkin/boxoffice/internal/lib/router"
)

var logLevel = new(slog.LevelVar) // Info by default

func initApp() *BoxOffice {
	log.SetFlags(0)
	var logger *slog.Logger
	if term.IsTerminal(int(os.Stdout.Fd())) {
		// Are we running on something where output is a tty - so we're being run as CLI vs as a daemon
		logger = slog.New(misc.NewMinimalHandler(os.Stdout,
			misc.MinimalHandlerOptions{SlogOpts: slog.HandlerOptions{Level: logLevel, AddSource: true}}))
	} else {
		// not on console - output as json, but change json key names to be more compatible w/ what google logging
		// expects
		opts := &slog.HandlerOptions{
			AddSource: true,
			Level:     logLevel,
			ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
				if a.Key == slog.MessageKey {
					a.Key = "message"
				} else if a.Key == slog.LevelKey && len(groups) == 0 {
					a.Key = "severity"
				}
				return a
			},
		}
		logger = slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	slog.SetDefault(logger)
	if os.Getenv("DEBUG") == "1" {
		logLevel.Set(slog.LevelDebug)
	}

	misc.LoadEnvSettings(logger)

	// We initialize our wrapper instance first, so we can call its methods in the 'Before' lambda func
	// in initialization of cli App instance.
	// signer will be set in the initClients method.
	appConfig := &BoxOffice{logger: logger}

	appConfig.cliCmd = &cli.Command{
		Name:    "boxoffice",
		Usage:   "Deployment and settlement tool for ticket sale routing and superfan pass contracts",
		Version: getVersionInfo(),
		Before: func(ctx context.Context, cmd *cli.Command) error {
			// This is further bootstrap of the 'app' but within context of 'cli' helper as it will
			// have access to flags and options (network to use for eg) already set.
			return appConfig.initClients(ctx, cmd)
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "envfile",
				Usage:   "env file to load",
				Sources: cli.EnvVars("BOXOFFICE_ENVFILE"),
				Aliases: []string{"e"},
			},
			&cli.StringFlag{
				Name:    "network",
				Usage:   "Algorand network to use",
				Value:   "mainnet",
				Aliases: []string{"n"},
				Sources: cli.EnvVars("ALGO_NETWORK"),
			},
			&cli.UintFlag{
				Name:        "router",
				Usage:       "The application id of a deployed royalty router contract.",
				Sources:     cli.EnvVars("ROUTER_APPID"),
				Destination: &appConfig.routerAppID,
				OnlyOnce:    true,
			},
			&cli.UintFlag{
				Name:        "pass",
				Usage:       "The application id of a deployed superfan pass contract.",
				Sources:     cli.EnvVars("PASS_APPID"),
				Destination: &appConfig.passAppID,
				OnlyOnce:    true,
			},
		},
		Commands: []*cli.Command{
			GetDaemonCmdOpts(),
			GetRouterCmdOpts(),
			GetPassCmdOpts(),
			GetAssetCmdOpts(),
		},
	}
	return appConfig
}

type BoxOffice struct {
	cliCmd       *cli.Command
	logger       *slog.Logger
	signer       algo.MultipleWalletSigner
	algoClient   *algod.Client
	routerClient *router.Client
	passClient   *pass.Client

	// just here for flag bootstrapping destination
	routerAppID uint64
	passAppID   uint64
}

// initClients initializes the algod client (to correct network - which it
// also validates), the local key store, and the router/pass app clients.
// App ids may legitimately be unset here; commands that need a deployed
// instance check with requireRouter/requirePass.
func (ac *BoxOffice) initClients(ctx context.Context, cmd *cli.Command) error {
	network := cmd.String("network")

	if envfile := cmd.String("envfile"); envfile != "" {
		err := loadNamedEnvFile(ctx, envfile)
		if err != nil {
			return err
		}
	}
	// quick validity check on possible network names...
	switch network {
	case "sandbox", "betanet", "testnet", "mainnet", "voitestnet":
	default:
		return fmt.Errorf("unknown network:%s", network)
	}

	// Now load .env.{network} overrides -ie: .env.sandbox containing generated mnemonics
	// by bootstrap testing script
	misc.LoadEnvForNetwork(ac.logger, network)

	cfg := algo.GetNetworkConfig(network)
	algoClient, err := algo.GetAlgoClient(ac.logger, cfg)
	if err != nil {
		return err
	}
	if ac.routerAppID == 0 {
		ac.routerAppID = cfg.RouterAppID
	}
	if ac.passAppID == 0 {
		ac.passAppID = cfg.PassAppID
	}
	// allow secondary override of the IDs via the network specific .env file we just loaded which we couldn't
	// have known until we'd processed the 'network' override - but only if not already set via CLI, etc.
	if ac.routerAppID == 0 {
		setIntFromEnv(&ac.routerAppID, "ROUTER_APPID")
	}
	if ac.passAppID == 0 {
		setIntFromEnv(&ac.passAppID, "PASS_APPID")
	}

	// This will load and initialize mnemonics from the environment - and handles all 'local' signing for the app
	ac.signer = algo.NewLocalKeyStore(ac.logger)

	ac.algoClient = algoClient
	ac.routerClient = router.NewClient(ac.routerAppID, ac.logger, algoClient, ac.signer)
	ac.passClient = pass.NewClient(ac.passAppID, ac.logger, algoClient, ac.signer)
	return nil
}

// requireRouter ensures a router app id is configured and its on-chain state
// is loaded, for commands operating on an existing deployment.
func (ac *BoxOffice) requireRouter(ctx context.Context) error {
	if ac.routerAppID == 0 {
		return fmt.Errorf("the id of the router contract must be set using either --router or the ROUTER_APPID env var")
	}
	return ac.routerClient.LoadState(ctx)
}

func (ac *BoxOffice) requirePass(ctx context.Context) error {
	if ac.passAppID == 0 {
		return fmt.Errorf("the id of the pass contract must be set using either --pass or the PASS_APPID env var")
	}
	return ac.passClient.LoadState(ctx)
}

func setIntFromEnv(val *uint64, envName string) error {
	if strVal := os.Getenv(envName); strVal != "" {
		intVal, err := strconv.ParseUint(strVal, 10, 64)
		if err != nil {
			return err
		}
		*val = intVal
	}
	return nil
}

func loadNamedEnvFile(ctx context.Context, envFile string) error {
	misc.Infof(App.logger, "loading env file:%s", envFile)
	return godotenv.Load(envFile)
}

// Version is replaced at build time during docker builds w/ 'release' version
// If not defined, we just return the git rev.
var Version string

func getVersionInfo() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "The version information could not be determined"
	}
	var vcsRev = "(unknown)"
	if fnd := slices.IndexFunc(info.Settings, func(v debug.BuildSetting) bool { return v.Key == "vcs.revision" }); fnd != -1 {
		vcsRev = info.Settings[fnd].Value[0:7]
	}
	if Version != "" {
		return fmt.Sprintf("%s [%s]", Version, vcsRev)
	}
	return vcsRev
}
