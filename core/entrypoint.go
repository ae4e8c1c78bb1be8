package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path"
	"syscall"

	"github.com/encodeous/tint"
	"github.com/goccy/go-yaml"
	slogmulti "github.com/samber/slog-multi"

	"github.com/gmcintire/aprstx-nerves/state"
)

// LoadConfig reads a YAML config file over the defaults.
func LoadConfig(configPath string) (*state.Config, error) {
	cfg := state.DefaultConfig()
	file, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(file, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", configPath, err)
	}
	if err := state.ConfigValidator(cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", configPath, err)
	}
	return cfg, nil
}

// Bootstrap loads the configuration and runs the gateway until a shutdown
// signal arrives.
func Bootstrap(configPath string, verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	cfg, err := LoadConfig(configPath)
	if err != nil {
		panic(err)
	}
	if err := Start(cfg, configPath, level); err != nil {
		panic(err)
	}
}

func buildLogger(cfg *state.Config, level slog.Level) (*slog.Logger, error) {
	handlers := []slog.Handler{
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:        level,
			TimeFormat:   "15:04:05",
			CustomPrefix: cfg.Station.Call(),
		}),
	}
	if cfg.LogPath != "" {
		if err := os.MkdirAll(path.Dir(cfg.LogPath), 0700); err != nil {
			return nil, err
		}
		f, err := os.OpenFile(cfg.LogPath, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0600)
		if err != nil {
			return nil, err
		}
		handlers = append(handlers, slog.NewTextHandler(f, &slog.HandlerOptions{Level: level}))
	}
	return slog.New(slogmulti.Fanout(handlers...)), nil
}

func Start(cfg *state.Config, configPath string, logLevel slog.Level) error {
	ctx, cancel := context.WithCancelCause(context.Background())
	dispatch := make(chan func(s *state.State) error, state.DispatchDepth)

	logger, err := buildLogger(cfg, logLevel)
	if err != nil {
		cancel(err)
		return err
	}

	s := state.State{
		Modules: make(map[string]state.Module),
		Env: &state.Env{
			Context:         ctx,
			Cancel:          cancel,
			DispatchChannel: dispatch,
			Log:             logger,
		},
	}
	s.SwapConfig(cfg)

	s.Log.Info("init modules")
	if err := initModules(&s); err != nil {
		return err
	}
	s.Log.Info("aprstx is up", "station", cfg.Station.Call())

	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	go func() {
		for sig := range c {
			if sig == syscall.SIGHUP {
				reloadConfig(s.Env, configPath)
				continue
			}
			s.Cancel(errors.New("received shutdown signal"))
			return
		}
	}()

	return MainLoop(&s, dispatch)
}

// reloadConfig re-reads the file and swaps the snapshot. Hot-path modules
// pick the new values up at their next read; window sizes stay as booted.
func reloadConfig(e *state.Env, configPath string) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		e.Log.Error("config reload failed", "err", err)
		return
	}
	e.SwapConfig(cfg)
	e.Log.Info("config reloaded")
}
