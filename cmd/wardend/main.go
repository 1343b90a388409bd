package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"warden/internal/config"
	"warden/internal/daemon"
	"warden/internal/depot"
	"warden/internal/history"
	"warden/internal/ipc"
	"warden/internal/launcher"
	"warden/internal/logging"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("prepare directories: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	current, err := currentIdent(cfg)
	if err != nil {
		logger.Error("resolve running build", logging.Error(err))
		return
	}

	store, err := history.Open(cfg)
	if err != nil {
		logger.Error("open update history", logging.Error(err))
		return
	}

	d, err := daemon.New(cfg, current, depot.New(cfg.DataDir, logger), store, logger)
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		return
	}
	defer d.Close()

	if cfg.Helper.Socket != "" {
		helper, err := launcher.Connect(cfg.Helper.Socket, cfg.Helper.ReplyDir, logger)
		if err != nil {
			// The helper channel is optional; updates fall back to self-exec
			// or stage-only policy without it.
			logger.Warn("helper connection failed", logging.Error(err))
		} else {
			d.SetHelper(helper)
		}
	}

	ipcServer, err := ipc.NewServer(ctx, cfg.SocketPath(), d, cancel, logger)
	if err != nil {
		logger.Error("start ipc server", logging.Error(err))
		return
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	if err := d.Start(ctx); err != nil {
		logger.Error("daemon start", logging.Error(err))
		return
	}

	<-ctx.Done()
	d.Stop()
	logger.Info("wardend shutting down")
}
