package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MarcoPoloResearchLab/echo/internal/auth"
	"github.com/MarcoPoloResearchLab/echo/internal/config"
	"github.com/MarcoPoloResearchLab/echo/internal/database"
	"github.com/MarcoPoloResearchLab/echo/internal/logging"
	"github.com/MarcoPoloResearchLab/echo/internal/media"
	"github.com/MarcoPoloResearchLab/echo/internal/realtime"
	"github.com/MarcoPoloResearchLab/echo/internal/server"
	"github.com/MarcoPoloResearchLab/echo/internal/social"
	"github.com/MarcoPoloResearchLab/echo/internal/store"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	shutdownTimeout      = 10 * time.Second
	sessionSweepInterval = 15 * time.Minute
)

var (
	cfgFile string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "echo-api",
		Short: "Echo social network backend",
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
	flags := cmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "Path to configuration file")
	flags.String("http-address", defaults.GetString("http.address"), "HTTP listen address")
	flags.String("database-path", defaults.GetString("database.path"), "SQLite database path or DSN")
	flags.Bool("seed-demo", defaults.GetBool("database.seed_demo"), "Seed the demo account")
	flags.String("log-level", defaults.GetString("log.level"), "Log level (debug, info, warn, error)")
	flags.String("log-format", defaults.GetString("log.format"), "Log format (json, console)")
	flags.String("signing-secret", "", "Session token signing secret (overrides env)")
	flags.Int("session-ttl-minutes", defaults.GetInt("auth.session_ttl_minutes"), "Session lifetime in minutes")
	flags.String("cors-allowed-origins", defaults.GetString("cors.allowed_origins"), "Comma separated allowed origins")
	flags.String("trusted-proxies", "", "Comma separated proxy IPs or CIDRs allowed to set X-Forwarded-For")
	flags.Int("send-buffer", defaults.GetInt("realtime.send_buffer"), "Outbound realtime frames queued per connection")
	flags.String("s3-bucket", "", "Media bucket; empty disables uploads")
	flags.String("s3-endpoint", "", "S3-compatible endpoint URL")

	bindFlag(cmd, "http.address", "http-address")
	bindFlag(cmd, "database.path", "database-path")
	bindFlag(cmd, "database.seed_demo", "seed-demo")
	bindFlag(cmd, "log.level", "log-level")
	bindFlag(cmd, "log.format", "log-format")
	bindFlag(cmd, "auth.signing_secret", "signing-secret")
	bindFlag(cmd, "auth.session_ttl_minutes", "session-ttl-minutes")
	bindFlag(cmd, "cors.allowed_origins", "cors-allowed-origins")
	bindFlag(cmd, "http.trusted_proxies", "trusted-proxies")
	bindFlag(cmd, "realtime.send_buffer", "send-buffer")
	bindFlag(cmd, "media.s3_bucket", "s3-bucket")
	bindFlag(cmd, "media.s3_endpoint", "s3-endpoint")
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
		if cfgFile != "" {
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

	logger, err := logging.NewLogger(appConfig.LogLevel, appConfig.LogFormat)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	signalCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.OpenSQLite(appConfig.DatabasePath, logger, database.Options{SeedDemo: appConfig.SeedDemo})
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	entityStore, err := store.New(store.Config{Database: db})
	if err != nil {
		return err
	}

	registry := realtime.NewRegistry(logger)
	service, err := social.NewService(social.ServiceConfig{
		Store:  entityStore,
		Pusher: registry,
		Logger: logger,
	})
	if err != nil {
		return err
	}

	tokenIssuer, err := auth.NewTokenIssuer(auth.TokenIssuerConfig{
		SigningSecret: []byte(appConfig.SigningSecret),
		Issuer:        auth.DefaultTokenIssuer,
		Audience:      auth.DefaultTokenAudience,
		TokenTTL:      appConfig.SessionTTL,
	})
	if err != nil {
		return err
	}
	sessions, err := auth.NewSessionManager(auth.SessionManagerConfig{Tokens: tokenIssuer, Sessions: entityStore})
	if err != nil {
		return err
	}

	realtimeHandler, err := realtime.NewHandler(realtime.HandlerConfig{
		Session: realtime.SessionConfig{
			Registry:  registry,
			Validator: sessions,
			Sender:    service,
			Logger:    logger,
		},
		SendBuffer:  appConfig.SendBuffer,
		CheckOrigin: server.NewOriginChecker(appConfig.AllowedOrigins),
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	deps := server.Dependencies{
		Service:        service,
		Sessions:       sessions,
		Realtime:       realtimeHandler,
		Logger:         logger,
		AllowedOrigins: appConfig.AllowedOrigins,
		TrustedProxies: appConfig.TrustedProxies,
		AnonymousLimit: server.RateLimit{
			PerMinute: appConfig.AnonymousLimit.PerMinute,
			Burst:     appConfig.AnonymousLimit.Burst,
		},
		WebsocketLimit: server.RateLimit{
			PerMinute: appConfig.WebsocketLimit.PerMinute,
			Burst:     appConfig.WebsocketLimit.Burst,
		},
	}
	if appConfig.Media.Enabled() {
		presigner, err := media.NewPresigner(signalCtx, media.Config{
			Bucket:          appConfig.Media.Bucket,
			Endpoint:        appConfig.Media.Endpoint,
			Region:          appConfig.Media.Region,
			AccessKeyID:     appConfig.Media.AccessKeyID,
			SecretAccessKey: appConfig.Media.SecretAccessKey,
			PublicBaseURL:   appConfig.Media.PublicBaseURL,
			PresignTTL:      appConfig.Media.PresignTTL,
		})
		if err != nil {
			return err
		}
		deps.Media = presigner
	} else {
		logger.Info("media uploads disabled: no bucket configured")
	}

	handler, err := server.NewHTTPHandler(signalCtx, deps)
	if err != nil {
		return err
	}

	go sweepExpiredSessions(signalCtx, entityStore, logger)

	httpServer := &http.Server{
		Addr:    appConfig.HTTPAddress,
		Handler: handler,
	}

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
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info("server shutting down")
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func sweepExpiredSessions(ctx context.Context, entityStore *store.Store, logger *zap.Logger) {
	ticker := time.NewTicker(sessionSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := entityStore.DeleteExpiredSessions(ctx)
			if err != nil {
				logger.Warn("expired session sweep failed", zap.Error(err))
				continue
			}
			if removed > 0 {
				logger.Info("expired sessions removed", zap.Int64("count", removed))
			}
		}
	}
}
