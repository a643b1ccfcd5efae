package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/agmortgage/agbank/internal/activity"
	"github.com/agmortgage/agbank/internal/api"
	"github.com/agmortgage/agbank/internal/config"
	"github.com/agmortgage/agbank/internal/logging"
	"github.com/agmortgage/agbank/internal/metrics"
	"github.com/agmortgage/agbank/internal/session"
	"github.com/agmortgage/agbank/internal/storage"
	"github.com/agmortgage/agbank/internal/store"
)

var errNotLoggedIn = errors.New("not logged in; run 'agbank login' first")

// app is the object graph one command invocation runs against.
type app struct {
	cfg      *config.Config
	log      *logrus.Logger
	metrics  *metrics.Collector
	client   *api.Client
	sessions *session.Store
	data     *store.Store
	activity *activity.Recorder

	out    io.Writer
	errOut io.Writer
}

func loadConfig(opts *options) (*config.Config, error) {
	cfg, err := config.Resolve(configPath(opts), opts.home, opts.envFile)
	if err != nil {
		return nil, err
	}
	if opts.apiURL != "" {
		cfg.API.BaseURL = opts.apiURL
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	return cfg, nil
}

func newApp(cmd *cobra.Command, opts *options) (*app, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	log, err := logging.New(cfg.Log.Level, cfg.Log.Format, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:     cfg,
		log:     log,
		metrics: metrics.NewCollector(),
		out:     cmd.OutOrStdout(),
		errOut:  cmd.ErrOrStderr(),
	}
	if cfg.Activity.Enabled {
		a.activity = &activity.Recorder{Path: cfg.Activity.Path}
	}

	var tokens api.TokenFunc = func() string { return a.sessions.Token() }
	a.client = api.New(api.Config{
		BaseURL:           cfg.API.BaseURL,
		Timeout:           cfg.API.Timeout,
		RequestsPerSecond: cfg.API.RequestsPerSecond,
		Burst:             cfg.API.Burst,
		Tokens:            tokens,
		Metrics:           a.metrics,
		Logger:            log,
	})
	a.sessions = session.New(storage.NewFileStore(cfg.Session.Dir), a.client, log)
	a.data = store.New(a.client, a.sessions, log, a.metrics)
	a.sessions.Init()
	return a, nil
}

func (a *app) close() {
	a.data.Dispose()
	if path := a.cfg.Metrics.TextfilePath; path != "" {
		if err := a.metrics.WriteTextfile(path); err != nil {
			a.log.WithError(err).Warn("writing metrics")
		}
	}
}

// run builds the app, runs fn and tears the app down.
func run(opts *options, fn func(ctx context.Context, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, opts)
		if err != nil {
			return err
		}
		defer a.close()
		return fn(cmd.Context(), a, args)
	}
}

// requireSession fails unless a session was restored.
func (a *app) requireSession() error {
	if !a.sessions.IsAuthenticated() {
		return errNotLoggedIn
	}
	return nil
}

func (a *app) requireAdmin() error {
	if err := a.requireSession(); err != nil {
		return err
	}
	if !a.sessions.IsAdmin() {
		return errors.New("this command requires an administrator")
	}
	return nil
}

// load performs the initial load, warning about collections that could not
// be fetched.
func (a *app) load(ctx context.Context) {
	if err := a.data.EnsureLoaded(ctx); err != nil {
		a.warn("some data could not be loaded: %v", err)
	}
}

// settle turns the outcome of a store mutation into a command result. A
// mutation the backend accepted is a success even if the follow-up refresh
// failed.
func (a *app) settle(err error) error {
	var rerr *store.ReconcileError
	if errors.As(err, &rerr) {
		a.warn("%v", rerr)
		return nil
	}
	return err
}

func (a *app) record(action, details, entityID string) {
	actor := ""
	if u := a.sessions.Current(); u != nil {
		actor = u.Email
	}
	if err := a.activity.Record(actor, action, details, entityID); err != nil {
		a.log.WithError(err).Warn("recording activity")
	}
}

func (a *app) warn(format string, args ...any) {
	fmt.Fprintf(a.errOut, "warning: "+format+"\n", args...)
}
