package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/koustreak/sqldesk/internal/assistant"
	"github.com/koustreak/sqldesk/internal/builder"
	"github.com/koustreak/sqldesk/internal/config"
	"github.com/koustreak/sqldesk/internal/database/mysql"
	"github.com/koustreak/sqldesk/internal/filestore"
	"github.com/koustreak/sqldesk/internal/filestore/memory"
	"github.com/koustreak/sqldesk/internal/filestore/minio"
	"github.com/koustreak/sqldesk/internal/history"
	"github.com/koustreak/sqldesk/internal/logger"
	"github.com/koustreak/sqldesk/internal/schemacache"
	"github.com/koustreak/sqldesk/internal/server"
)

type serveFlags struct {
	config    string
	addr      string
	logLevel  string
	logFormat string
}

func serveCmd() *cobra.Command {
	var f serveFlags
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, f)
		},
	}

	cmd.Flags().StringVarP(&f.config, "config", "c", "", "path to a YAML config file")
	cmd.Flags().StringVar(&f.addr, "addr", "", "listen address, overrides the config")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "", "debug, info, warn or error")
	cmd.Flags().StringVar(&f.logFormat, "log-format", "", "json or console")
	return cmd
}

func serve(ctx context.Context, f serveFlags) error {
	cfg, err := config.Load(f.config)
	if err != nil {
		return err
	}
	if f.addr != "" {
		cfg.Server.Addr = f.addr
	}
	if f.logLevel != "" {
		cfg.Log.Level = f.logLevel
	}
	if f.logFormat != "" {
		cfg.Log.Format = f.logFormat
	}

	log := logger.New(&cfg.Log)
	logger.SetGlobal(log)

	files, err := openFileStore(ctx, &cfg.FileStore)
	if err != nil {
		return err
	}
	defer files.Close()

	pools := mysql.NewPools(&cfg.Database, log)
	defer pools.Close()

	ai := assistant.New(cfg.Assistant, log)
	if !ai.Enabled() {
		log.Warn("GEMINI_API_KEY is not set, the assistant endpoint will answer with an error")
	}

	srv := server.New(server.Options{
		Connector:      pools,
		Schemas:        schemacache.New(cfg.Cache),
		History:        history.New(cfg.History.Capacity),
		Files:          files,
		Assistant:      ai,
		Workspaces:     builder.NewWorkspaces(cfg.Builder),
		Log:            log,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
	})
	return srv.Run(ctx, cfg.Server)
}

func openFileStore(ctx context.Context, cfg *filestore.Config) (filestore.Store, error) {
	if cfg.Provider == filestore.ProviderMinIO {
		d, err := minio.New(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return d, nil
	}
	return memory.New(), nil
}
