package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rustyeddy/goldtracker/challenge"
	"github.com/rustyeddy/goldtracker/config"
	"github.com/rustyeddy/goldtracker/journal"
	"github.com/rustyeddy/goldtracker/risk"
)

const closeTimeout = 30 * time.Second

// app is one command's view of the challenge: the resolved config, the
// opened store and a session rebuilt from the stored history.
type app struct {
	cfg     *config.Config
	log     zerolog.Logger
	store   journal.Store
	session *challenge.Session

	// warning is the consistency error left by a trusted reload.
	warning error
}

// loadConfig reads rc.ConfigPath when it exists (defaults otherwise), then
// overlays the environment and the persistent flags, then validates.
func loadConfig(rc *RootConfig) (*config.Config, error) {
	cfg := config.Default()
	if rc.ConfigPath != "" {
		_, err := os.Stat(rc.ConfigPath)
		switch {
		case err == nil:
			if cfg, err = config.Read(rc.ConfigPath); err != nil {
				return nil, err
			}
		case !errors.Is(err, fs.ErrNotExist):
			return nil, fmt.Errorf("stat config: %w", err)
		}
	}

	var envFiles []string
	if rc.EnvFile != "" {
		envFiles = append(envFiles, rc.EnvFile)
	}
	if err := cfg.ApplyEnv(envFiles...); err != nil {
		return nil, err
	}
	rc.override(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (rc *RootConfig) override(cfg *config.Config) {
	if rc.StoreType != "" {
		cfg.Store.Type = rc.StoreType
	}
	if rc.DBPath != "" {
		cfg.Store.DBPath = rc.DBPath
	}
	if rc.DatabaseURL != "" {
		cfg.Store.DatabaseURL = rc.DatabaseURL
	}
	if rc.SessionID != "" {
		cfg.Store.SessionID = rc.SessionID
	}
	if rc.LogLevel != "" {
		cfg.Log.Level = rc.LogLevel
	}
}

// newLogger writes human-readable logs to w and sets the global level.
func newLogger(w io.Writer, level string) (zerolog.Logger, error) {
	lvl := zerolog.InfoLevel
	if level != "" {
		l, err := zerolog.ParseLevel(strings.ToLower(level))
		if err != nil {
			return zerolog.Nop(), fmt.Errorf("log level: %w", err)
		}
		lvl = l
	}
	zerolog.SetGlobalLevel(lvl)

	out := zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger(), nil
}

func openStore(ctx context.Context, cfg *config.Config) (journal.Store, error) {
	switch cfg.Store.Type {
	case "memory":
		return journal.NewMemory(), nil
	case "sqlite":
		s, err := journal.NewSQLite(cfg.Store.DBPath)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "postgres":
		p, err := journal.NewPostgres(ctx, cfg.Store.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return p, nil
	}
	return nil, fmt.Errorf("unknown store type %q", cfg.Store.Type)
}

// openApp resolves the configuration and rebuilds the session from the
// store.
func openApp(cmd *cobra.Command, rc *RootConfig) (*app, error) {
	cfg, err := loadConfig(rc)
	if err != nil {
		return nil, err
	}
	return startApp(cmd, cfg, true)
}

// startApp opens the store and starts a session on cfg. With load set the
// stored history is replayed; a trusted but inconsistent history is kept as
// a warning.
func startApp(cmd *cobra.Command, cfg *config.Config, load bool) (*app, error) {
	log, err := newLogger(cmd.ErrOrStderr(), cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	sel, err := cfg.Selections()
	if err != nil {
		return nil, fmt.Errorf("selection: %w", err)
	}
	opts, err := cfg.SessionOptions()
	if err != nil {
		return nil, fmt.Errorf("policy: %w", err)
	}

	ctx := cmd.Context()
	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Store.Type, err)
	}
	if cfg.Store.Type == "memory" {
		log.Warn().Msg("memory store: history is not kept between commands")
	}

	s := challenge.New(cfg.Store.SessionID, store, append(opts, challenge.WithLogger(log))...)
	a := &app{cfg: cfg, log: log, store: store, session: s}

	if err := s.Select(sel); err != nil {
		a.abort()
		return nil, err
	}
	if err := s.Start(cfg.ChallengeTerms()); err != nil {
		a.abort()
		return nil, err
	}
	if !load {
		return a, nil
	}
	if err := s.Load(ctx); err != nil {
		if s.ConsistencyError() == nil {
			a.abort()
			return nil, fmt.Errorf("load history: %w", err)
		}
		a.warning = err
	}
	return a, nil
}

// close waits for pending store writes and reports the last store failure.
func (a *app) close() error {
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()

	err := a.session.Close(ctx)
	if err == nil {
		err = a.session.SyncError()
	}
	if cerr := a.store.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("store sync: %w", err)
	}
	return nil
}

func (a *app) abort() {
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	_ = a.session.Close(ctx)
	_ = a.store.Close()
}

func (a *app) printWarnings(w io.Writer) {
	if a.warning != nil {
		fmt.Fprintf(w, "⚠ stored history is inconsistent: %v\n", a.warning)
	}
	if a.session.Busted() {
		fmt.Fprintln(w, "⚠ challenge busted: balance is zero")
	}
}

// selectionFlags are the per-command overrides of the selection section.
type selectionFlags struct {
	rr         float64
	profitMode string
	lotMode    string
	lot        float64
}

func (f *selectionFlags) register(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&f.rr, "rr", 0, "reward ratio: 1.5 or 2")
	cmd.Flags().StringVar(&f.profitMode, "profit-mode", "", "profit goal: rr|pips")
	cmd.Flags().StringVar(&f.lotMode, "lot-mode", "", "lot size: auto|manual")
	cmd.Flags().Float64Var(&f.lot, "lot", 0, "manual lot size (implies --lot-mode manual)")
}

// apply copies the flags that were set onto sel.
func (f *selectionFlags) apply(cmd *cobra.Command, sel *config.SelectionConfig) {
	flags := cmd.Flags()
	if flags.Changed("rr") {
		sel.RewardRatio = f.rr
	}
	if flags.Changed("profit-mode") {
		sel.ProfitMode = f.profitMode
	}
	if flags.Changed("lot-mode") {
		sel.LotMode = f.lotMode
	}
	if flags.Changed("lot") {
		sel.ManualLot = f.lot
		if !flags.Changed("lot-mode") {
			sel.LotMode = string(risk.LotModeManual)
		}
	}
}
