package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/chzyer/readline"
	"github.com/sushant-115/slabdb/config"
	pagemanager "github.com/sushant-115/slabdb/core/write_engine/page_manager"
	internaltelemetry "github.com/sushant-115/slabdb/internal/telemetry"
	"github.com/sushant-115/slabdb/pkg/logger"
	"github.com/sushant-115/slabdb/pkg/telemetry"
	"go.uber.org/zap"
)

func main() {
	log.SetFlags(0)

	configPath := flag.String("config", "", "path to the YAML config file")
	pageFile := flag.String("page", "", "page file name inside the data directory (overrides config)")
	flag.Parse()

	if err := run(*configPath, *pageFile, flag.Args()); err != nil {
		log.Fatalf("slabdb: %v", err)
	}
}

func run(configPath, pageFile string, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if pageFile != "" {
		cfg.PageFile = pageFile
	}

	zlog, err := logger.New(cfg.Logger)
	if err != nil {
		return err
	}
	defer zlog.Sync() //nolint:errcheck

	tel, shutdown, err := telemetry.New(cfg.Telemetry)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			zlog.Warn("Telemetry shutdown failed", zap.Error(err))
		}
	}()

	metrics, err := internaltelemetry.NewPageMetrics(tel.Meter)
	if err != nil {
		return fmt.Errorf("failed to register page metrics: %w", err)
	}

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}
	store := pagemanager.NewFileStore(cfg.DataDir)
	pm := pagemanager.NewPageManager(store, cfg.PageFile, zlog, metrics, tel.Tracer)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := pm.Open(ctx, true); err != nil {
		return err
	}
	defer func() {
		if err := pm.Close(context.Background()); err != nil {
			zlog.Error("Failed to close page", zap.Error(err))
		}
	}()

	sh := &shell{
		pm:     pm,
		store:  store,
		page:   cfg.PageFile,
		backup: cfg.Backup,
		logger: zlog.Named("cli"),
		out:    os.Stdout,
	}

	// A command on the command line runs once; otherwise start the REPL.
	if len(args) > 0 {
		if err := sh.exec(ctx, args); err != nil && !errors.Is(err, errExit) {
			return err
		}
		return nil
	}
	return repl(ctx, sh, filepath.Join(cfg.DataDir, ".slabdb_history"))
}

func repl(ctx context.Context, sh *shell, historyFile string) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "slabdb> ",
		HistoryFile:     historyFile,
		AutoComplete:    completer(),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("failed to start readline: %w", err)
	}
	defer rl.Close()

	sh.out = rl.Stdout()
	fmt.Fprintln(sh.out, "slabdb CLI. Type 'help' for commands, 'exit' or 'quit' to leave.")

	for ctx.Err() == nil {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if line == "" {
				return nil
			}
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		err = sh.exec(ctx, strings.Fields(line))
		if errors.Is(err, errExit) {
			return nil
		}
		if err != nil {
			fmt.Fprintf(sh.out, "Error: %v\n", err)
		}
	}
	return nil
}
