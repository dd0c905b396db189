package main

import (
	"crypto/tls"
	"fmt"
	"log/slog"

	"github.com/Veraticus/fraudwatch/internal/certs"
	"github.com/Veraticus/fraudwatch/internal/config"
	"github.com/Veraticus/fraudwatch/internal/session"
	"github.com/Veraticus/fraudwatch/internal/web"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the JSON web API",
		Long: `Serve the fraud prediction API over HTTP.

Clients register and log in to get a session cookie, then post transactions
to /api/predict. Predictions made while logged in are kept in the user's
history, which /api/history and /api/history/export return.`,
		RunE: runServe,
	}

	cmd.Flags().String("addr", "", "listen address (overrides server.addr)")
	cmd.Flags().Bool("tls", false, "serve HTTPS with a self-signed localhost certificate")
	_ = viper.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))
	_ = viper.BindPFlag("server.tls", cmd.Flags().Lookup("tls"))

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	app, err := loadApp()
	if err != nil {
		return err
	}

	predictor, err := loadPredictor(app)
	if err != nil {
		return err
	}

	store, accounts, err := initAccounts(ctx, app)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	key := []byte(app.SessionKey)
	if len(key) == 0 {
		slog.Warn("server.session_key not set; sessions will not survive a restart")
		key = session.GenerateKey()
	}
	sessions, err := session.NewManager(key, session.Options{
		TTL:    app.SessionTTL,
		Secure: app.SecureCookies,
	})
	if err != nil {
		return err
	}

	var tlsConfig *tls.Config
	if viper.GetBool("server.tls") {
		certDir := config.ExpandPath(config.DefaultConfigDir + "/certs")
		if tlsConfig, err = certs.TLSConfig(certs.NewFileManager(certDir)); err != nil {
			return fmt.Errorf("failed to prepare TLS certificate: %w", err)
		}
	}

	handler := web.NewHandler(accounts, predictor, store, sessions)
	slog.Info("serving fraudwatch API",
		"addr", app.ServerAddr,
		"tls", tlsConfig != nil,
		"database", app.DatabasePath)

	if err := web.Serve(ctx, app.ServerAddr, web.Routes(handler), tlsConfig); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	slog.Info("server stopped")
	return nil
}
