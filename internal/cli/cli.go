// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jeranaias/beauty-advisor/internal/client"
	"github.com/jeranaias/beauty-advisor/internal/config"
	"github.com/jeranaias/beauty-advisor/internal/logging"
	"github.com/jeranaias/beauty-advisor/internal/session"
	"github.com/jeranaias/beauty-advisor/internal/storage"
	"github.com/jeranaias/beauty-advisor/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// App holds what the commands share: configuration, logger and, once opened,
// the store, controller and event dispatcher.
type App struct {
	// Flags
	configPath string
	endpoint   string
	logLevel   string
	noColor    bool
	ephemeral  bool

	// logOut receives log output. Default: stderr
	logOut io.Writer

	// completer replaces the network client when set.
	completer session.Completer

	cfg        *config.Config
	log        zerolog.Logger
	client     *client.Client
	store      *storage.ConversationStore
	dispatcher *session.Dispatcher
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&App{})
}

func newRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "advisor",
		Short: "Beauty Advisor - chat with a personal beauty consultant",
		Long: `advisor is a terminal client for the Beauty Advisor.

Chat about skincare, makeup and hair care, keep your conversations,
favorite the useful ones and pick them up later.

Examples:
  advisor                          # start chatting
  advisor chat --resume            # continue the most recent conversation
  advisor history --search serum   # find past conversations
  advisor proxy serve              # run the proxy that holds the API key`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", Version, GitCommit, BuildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			styles.Configure(app.noColor)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd, app, false)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&app.configPath, "config", "", "config file (default: ~/.advisor/config.toml)")
	flags.StringVar(&app.endpoint, "endpoint", "", "advisor proxy URL (overrides config)")
	flags.StringVar(&app.logLevel, "log-level", "", "log level: trace, debug, info, warn, error")
	flags.BoolVar(&app.noColor, "no-color", false, "disable colored output")
	flags.BoolVar(&app.ephemeral, "ephemeral", false, "keep conversations in memory only")

	root.AddCommand(
		newChatCmd(app),
		newHistoryCmd(app),
		newShowCmd(app),
		newFavoriteCmd(app),
		newDeleteCmd(app),
		newExportCmd(app),
		newConfigCmd(app),
		newProxyCmd(),
	)
	return root
}

// Execute runs the command tree and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", styles.Error.Render("Error:"), err)
		return 1
	}
	return 0
}

// =============================================================================
// APP LIFECYCLE
// =============================================================================

func (a *App) loadConfig() (*config.Config, error) {
	if a.cfg != nil {
		return a.cfg, nil
	}
	var (
		cfg *config.Config
		err error
	)
	if a.configPath != "" {
		cfg, err = config.LoadFromPath(a.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if a.endpoint != "" {
		cfg.Proxy.Endpoint = a.endpoint
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if a.ephemeral {
		cfg.Storage.Backend = storage.BackendMemory
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	a.cfg = cfg
	return cfg, nil
}

func (a *App) configFile() (string, error) {
	if a.configPath != "" {
		return a.configPath, nil
	}
	return config.ConfigPath()
}

// open loads the configuration and opens the conversation store.
func (a *App) open() error {
	if a.dispatcher != nil {
		return nil
	}
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}

	out := a.logOut
	if out == nil {
		out = os.Stderr
	}
	a.log = logging.New(logging.Options{Level: cfg.Log.Level, Writer: out, Pretty: true, Service: "advisor"})

	dataDir, err := cfg.DataDir()
	if err != nil {
		return err
	}
	backend, err := storage.OpenBackend(cfg.Storage.Backend, dataDir)
	if err != nil {
		return fmt.Errorf("open %s storage: %w", cfg.Storage.Backend, err)
	}
	a.store = storage.NewConversationStore(backend, cfg.Storage.Key, a.log)

	a.client = client.New(client.Config{
		Endpoint: cfg.Proxy.Endpoint,
		Mode:     client.Mode(cfg.Proxy.Mode),
		Timeout:  cfg.Timeout(),
	}, a.log)
	if !a.client.IsConfigured() && a.completer == nil {
		path, _ := a.configFile()
		a.log.Warn().Str("config", path).Msg("advisor endpoint is not configured; set proxy.endpoint or ADVISOR_ENDPOINT")
	}

	var completer session.Completer = a.client
	if a.completer != nil {
		completer = a.completer
	}
	ctrl := session.NewController(a.store, completer, session.WithLogger(a.log))
	a.dispatcher = session.NewDispatcher(ctrl, cfg.UI.Suggestions)
	return nil
}

// endpointConfigured reports whether sends can reach an endpoint.
func (a *App) endpointConfigured() bool {
	return a.completer != nil || (a.client != nil && a.client.IsConfigured())
}

func (a *App) close() {
	if a.store == nil {
		return
	}
	if err := a.store.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
		a.log.Warn().Err(err).Msg("failed to close conversation store")
	}
}
