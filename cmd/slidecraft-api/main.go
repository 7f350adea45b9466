package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MarcoPoloResearchLab/slidecraft/internal/analyzer"
	"github.com/MarcoPoloResearchLab/slidecraft/internal/auth"
	"github.com/MarcoPoloResearchLab/slidecraft/internal/config"
	"github.com/MarcoPoloResearchLab/slidecraft/internal/contributions"
	"github.com/MarcoPoloResearchLab/slidecraft/internal/database"
	"github.com/MarcoPoloResearchLab/slidecraft/internal/edits"
	"github.com/MarcoPoloResearchLab/slidecraft/internal/llm"
	"github.com/MarcoPoloResearchLab/slidecraft/internal/logging"
	"github.com/MarcoPoloResearchLab/slidecraft/internal/narration"
	"github.com/MarcoPoloResearchLab/slidecraft/internal/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	cfgFile string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "slidecraft-api",
		Short: "Slide timing, speaker notes, and contribution scoring service",
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
	cmd.PersistentFlags().String("llm-base-url", defaults.GetString("llm.base_url"), "Text generation server base URL")
	cmd.PersistentFlags().Int("llm-timeout-seconds", defaults.GetInt("llm.timeout_seconds"), "Text generation request timeout in seconds")
	cmd.PersistentFlags().Int("llm-requests-per-minute", defaults.GetInt("llm.requests_per_minute"), "Generation requests allowed per minute (0 disables the limit)")
	cmd.PersistentFlags().String("analyzer-base-url", defaults.GetString("analyzer.base_url"), "Beat analyzer base URL")
	cmd.PersistentFlags().Int("analyzer-timeout-seconds", defaults.GetInt("analyzer.timeout_seconds"), "Beat analyzer request timeout in seconds")
	cmd.PersistentFlags().String("confirm-signing-secret", "", "Confirmation token signing secret (overrides env)")
	cmd.PersistentFlags().Int("confirm-ttl-seconds", defaults.GetInt("confirm.ttl_seconds"), "Confirmation token TTL in seconds")
	cmd.PersistentFlags().String("collation-locale", defaults.GetString("collation.locale"), "Locale used to order contributor names")
	cmd.PersistentFlags().StringSlice("allowed-origins", defaults.GetStringSlice("cors.allowed_origins"), "CORS allowed origins")

	bindFlag(cmd, "http.address", "http-address")
	bindFlag(cmd, "database.path", "database-path")
	bindFlag(cmd, "log.level", "log-level")
	bindFlag(cmd, "llm.base_url", "llm-base-url")
	bindFlag(cmd, "llm.timeout_seconds", "llm-timeout-seconds")
	bindFlag(cmd, "llm.requests_per_minute", "llm-requests-per-minute")
	bindFlag(cmd, "analyzer.base_url", "analyzer-base-url")
	bindFlag(cmd, "analyzer.timeout_seconds", "analyzer-timeout-seconds")
	bindFlag(cmd, "confirm.signing_secret", "confirm-signing-secret")
	bindFlag(cmd, "confirm.ttl_seconds", "confirm-ttl-seconds")
	bindFlag(cmd, "collation.locale", "collation-locale")
	bindFlag(cmd, "cors.allowed_origins", "allowed-origins")
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

	editService, err := edits.NewService(edits.ServiceConfig{
		Database:   db,
		Clock:      time.Now,
		IDProvider: edits.NewUUIDProvider(),
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	confirmations, err := auth.NewConfirmationIssuer(auth.ConfirmationIssuerConfig{
		SigningSecret: []byte(appConfig.ConfirmSigningSecret),
		TokenTTL:      appConfig.ConfirmTTL,
	})
	if err != nil {
		return err
	}

	scorer, err := contributions.NewScorer(appConfig.CollationLocale)
	if err != nil {
		return err
	}

	generator, err := llm.NewClient(llm.ClientConfig{
		BaseURL: appConfig.LLMBaseURL,
		Timeout: appConfig.LLMTimeout,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	narrator, err := narration.NewService(narration.ServiceConfig{
		Generator: generator,
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	detector, err := analyzer.NewClient(analyzer.ClientConfig{
		BaseURL: appConfig.AnalyzerBaseURL,
		Timeout: appConfig.AnalyzerTimeout,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	handler, err := server.NewHTTPHandler(server.Dependencies{
		Edits:                editService,
		Confirmations:        confirmations,
		Scorer:               scorer,
		Narration:            narrator,
		Analyzer:             detector,
		Realtime:             server.NewRealtimeDispatcher(),
		Logger:               logger,
		AllowedOrigins:       appConfig.AllowedOrigins,
		LLMRequestsPerMinute: appConfig.LLMRequestsPerMinute,
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
