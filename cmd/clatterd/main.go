package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/clatterlab/clatter/internal/auth"
	"github.com/clatterlab/clatter/internal/broadcast"
	"github.com/clatterlab/clatter/internal/cache"
	"github.com/clatterlab/clatter/internal/chat"
	"github.com/clatterlab/clatter/internal/common/config"
	"github.com/clatterlab/clatter/internal/dispatch"
	"github.com/clatterlab/clatter/internal/i18n"
	"github.com/clatterlab/clatter/internal/presence"
	"github.com/clatterlab/clatter/internal/server"
	"github.com/clatterlab/clatter/internal/storage"
	"github.com/clatterlab/clatter/pkg/logger"
	"github.com/clatterlab/clatter/pkg/metrics"
	"github.com/clatterlab/clatter/pkg/utils"
	"github.com/clatterlab/clatter/pkg/version"
)

var (
	configPath string
	pidFile    string

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of clatterd",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("clatterd version %s\n", version.Get())
		},
	}

	rootCmd = &cobra.Command{
		Use:   "clatterd",
		Short: "Clatter chat server",
		Long:  `clatterd serves the room chat protocol over WebSocket`,
		Run: func(cmd *cobra.Command, args []string) {
			run()
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "conf", "configs/clatter.yaml", "path to configuration file")
	rootCmd.PersistentFlags().StringVar(&pidFile, "pid", "", "path to PID file (optional)")
	rootCmd.AddCommand(versionCmd)
}

func run() {
	cfg, cfgPath, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration from %s: %v", cfgPath, err)
	}

	zapLogger, err := logger.NewLogger(&cfg.Logger)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		_ = zapLogger.Sync()
	}()
	zapLogger.Info("starting clatterd",
		zap.String("version", version.Get()),
		zap.String("config", cfgPath))

	if pidFile != "" {
		pm := utils.NewPIDManager(pidFile)
		if err := pm.WritePID(); err != nil {
			zapLogger.Fatal("failed to write PID file",
				zap.String("path", pidFile),
				zap.Error(err))
		}
		defer func() {
			_ = pm.RemovePID()
		}()
	}

	db, err := storage.NewDatabase(&cfg.Database)
	if err != nil {
		zapLogger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer func() {
		_ = db.Close()
	}()

	mirror, err := cache.NewMirror(zapLogger, &cfg.Cache)
	if err != nil {
		zapLogger.Fatal("failed to initialize presence mirror", zap.Error(err))
	}
	defer func() {
		_ = mirror.Close()
	}()

	translator, err := i18n.New(cfg.I18n.Lang)
	if err != nil {
		zapLogger.Fatal("failed to initialize translations", zap.Error(err))
	}
	if cfg.I18n.Path != "" {
		if err := translator.LoadTranslations(cfg.I18n.Path); err != nil {
			zapLogger.Fatal("failed to load extra translations",
				zap.String("path", cfg.I18n.Path),
				zap.Error(err))
		}
	}

	m := metrics.New(cfg.Metrics)
	registry := presence.NewRegistry(zapLogger)
	srv := server.NewServer(zapLogger, &cfg.Server, registry, mirror, translator, m)

	engine := broadcast.New(zapLogger, registry, srv, m, srv.CloseConn)
	dispatcher := dispatch.New(zapLogger, registry, translator, srv, m)
	svc := chat.NewService(zapLogger, registry, db,
		auth.NewBcryptHasher(0), auth.RandomTokenIssuer{},
		engine, mirror, translator, srv)
	svc.RegisterHandlers(dispatcher)
	srv.RegisterDispatcher(dispatcher)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		zapLogger.Fatal("server exited", zap.Error(err))
	}
	zapLogger.Info("shutdown complete")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Failed to execute command: %v", err)
	}
}
