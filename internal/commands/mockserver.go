package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/agmortgage/agbank/internal/logging"
	"github.com/agmortgage/agbank/internal/mockbank"
)

const shutdownTimeout = 5 * time.Second

func newMockServerCommand(opts *options) *cobra.Command {
	var (
		addr          string
		adminEmail    string
		adminPassword string
		secret        string
		tokenTTL      time.Duration
	)
	cmd := &cobra.Command{
		Use:   "mockserver",
		Short: "Serve an in-memory banking backend for local use",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:5000", "listen address")
	cmd.Flags().StringVar(&adminEmail, "admin-email", "admin@agbank.local", "seeded administrator email")
	cmd.Flags().StringVar(&adminPassword, "admin-password", "Admin123!", "seeded administrator password")
	cmd.Flags().StringVar(&secret, "secret", "", "token signing secret, random when empty")
	cmd.Flags().DurationVar(&tokenTTL, "token-ttl", 24*time.Hour, "issued token lifetime")

	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(opts)
		if err != nil {
			return err
		}
		level := cfg.Log.Level
		if opts.logLevel == "" {
			level = "info"
		}
		log, err := logging.New(level, cfg.Log.Format, cmd.ErrOrStderr())
		if err != nil {
			return err
		}

		bank, err := mockbank.New(mockbank.Config{
			Secret:        []byte(secret),
			TokenTTL:      tokenTTL,
			AdminEmail:    adminEmail,
			AdminPassword: adminPassword,
			Logger:        log,
		})
		if err != nil {
			return err
		}

		srv := &http.Server{
			Addr:              addr,
			Handler:           bank.Router(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		errc := make(chan error, 1)
		go func() { errc <- srv.ListenAndServe() }()
		fmt.Fprintf(cmd.OutOrStdout(), "Mock bank listening on http://%s/api\n", addr)

		select {
		case err := <-errc:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("serving: %w", err)
		case <-cmd.Context().Done():
		}

		log.Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(ctx)
	}
	return cmd
}
