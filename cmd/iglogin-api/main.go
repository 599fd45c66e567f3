package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/auth-demos/iglogin/internal/auth"
	"github.com/auth-demos/iglogin/internal/config"
	"github.com/auth-demos/iglogin/internal/database"
	"github.com/auth-demos/iglogin/internal/instagram"
	"github.com/auth-demos/iglogin/internal/logging"
	"github.com/auth-demos/iglogin/internal/login"
	"github.com/auth-demos/iglogin/internal/server"
	"github.com/auth-demos/iglogin/internal/users"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	cfgFile string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "iglogin-api",
		Short: "Instagram login backend service",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}

	setupFlags(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupFlags(cmd *cobra.Command) {
	config.ApplyDefaults(viper.GetViper())
	defaults := config.NewViper()
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to configuration file")
	cmd.PersistentFlags().String("http-address", defaults.GetString("http.address"), "HTTP listen address")
	cmd.PersistentFlags().String("database-path", defaults.GetString("database.path"), "SQLite database path")
	cmd.PersistentFlags().String("log-level", defaults.GetString("log.level"), "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("instagram-client-id", defaults.GetString("instagram.client_id"), "Instagram app client ID")
	cmd.PersistentFlags().String("instagram-redirect-uri", defaults.GetString("instagram.redirect_uri"), "OAuth callback URL registered with Instagram")
	cmd.PersistentFlags().String("instagram-auth-url", defaults.GetString("instagram.auth_url"), "Instagram authorization endpoint")
	cmd.PersistentFlags().String("instagram-token-url", defaults.GetString("instagram.token_url"), "Instagram token endpoint")
	cmd.PersistentFlags().String("instagram-graph-url", defaults.GetString("instagram.graph_url"), "Instagram Graph API base URL")
	cmd.PersistentFlags().Int("instagram-timeout-seconds", defaults.GetInt("instagram.timeout_seconds"), "Outbound request timeout in seconds")
	cmd.PersistentFlags().Int("state-ttl-minutes", defaults.GetInt("state.ttl_minutes"), "Login state token TTL in minutes")
	cmd.PersistentFlags().String("instagram-client-secret", "", "Instagram app client secret (overrides env)")
	cmd.PersistentFlags().String("state-signing-secret", "", "Login state signing secret (overrides env)")

	bindFlag(cmd, "http.address", "http-address")
	bindFlag(cmd, "database.path", "database-path")
	bindFlag(cmd, "log.level", "log-level")
	bindFlag(cmd, "instagram.client_id", "instagram-client-id")
	bindFlag(cmd, "instagram.redirect_uri", "instagram-redirect-uri")
	bindFlag(cmd, "instagram.auth_url", "instagram-auth-url")
	bindFlag(cmd, "instagram.token_url", "instagram-token-url")
	bindFlag(cmd, "instagram.graph_url", "instagram-graph-url")
	bindFlag(cmd, "instagram.timeout_seconds", "instagram-timeout-seconds")
	bindFlag(cmd, "state.ttl_minutes", "state-ttl-minutes")
	bindFlag(cmd, "instagram.client_secret", "instagram-client-secret")
	bindFlag(cmd, "state.signing_secret", "state-signing-secret")
}

func bindFlag(cmd *cobra.Command, key, flag string) {
	if err := viper.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}

	if err := viper.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if cfgFile != "" && errors.As(err, &configNotFound) {
			return err
		}
	}

	return nil
}

func runServer(ctx context.Context) error {
	appConfig, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(appConfig.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	db, err := database.OpenSQLite(appConfig.DatabasePath, logger)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	userStore, err := users.NewStore(users.StoreConfig{
		Database: db,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	apiClient, err := instagram.NewClient(instagram.ClientConfig{
		ClientID:         appConfig.InstagramClientID,
		ClientSecret:     appConfig.InstagramSecret,
		RedirectURI:      appConfig.RedirectURI,
		AuthorizationURL: appConfig.AuthorizationURL,
		TokenURL:         appConfig.TokenURL,
		GraphURL:         appConfig.GraphURL,
		Timeout:          appConfig.OutboundTimeout,
		Logger:           logger,
	})
	if err != nil {
		return err
	}

	stateIssuer, err := auth.NewStateIssuer(auth.StateIssuerConfig{
		SigningSecret: []byte(appConfig.StateSigningSecret),
		TTL:           appConfig.StateTTL,
	})
	if err != nil {
		return err
	}

	pipeline, err := login.NewPipeline(login.PipelineConfig{
		Exchanger: apiClient,
		Fetcher:   apiClient,
		Store:     userStore,
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	handler, err := server.NewHTTPHandler(server.Dependencies{
		Provider: apiClient,
		States:   stateIssuer,
		Pipeline: pipeline,
		Users:    userStore,
		StateTTL: appConfig.StateTTL,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:    appConfig.HTTPAddress,
		Handler: handler,
	}

	signalCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("address", appConfig.HTTPAddress))
		err := httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-signalCtx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
