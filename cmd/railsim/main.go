package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/raftrail/railsim/internal/action"
	"github.com/raftrail/railsim/internal/config"
	coresys "github.com/raftrail/railsim/internal/core/system"
	"github.com/raftrail/railsim/internal/persist"
	"github.com/raftrail/railsim/internal/sim"
	"github.com/raftrail/railsim/internal/system"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner() {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m              railsim  v0.1.0              \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  │\033[0m         rail denizen motion core          \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
}

func printSection(title string) {
	lineLen := 46 - len(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := 42 - len(label) - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Main simulation logic ─────────────────────────────────────────

func run() error {
	// 1. Load config
	cfgPath := "config/railsim.toml"
	if p := os.Getenv("RAILSIM_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner()

	// 3. Rails, scripts and entities
	printSection("Loading")
	sm, err := sim.New(cfg, log)
	if err != nil {
		return err
	}
	defer sm.Close()
	printStat("Defined rails", sm.Rails.Count())
	printStat("Libraries", len(cfg.Data.Libraries))
	printStat("Entities", sm.State.EntityCount())
	printStat("Rail denizens", sm.State.Denizens.Len())
	printStat("Rail nodes", sm.State.Nodes.Len())
	printStat("Component stores", sm.State.ECS().Registry().Len())
	printOK(fmt.Sprintf("Lua scripts loaded from %q", cfg.Data.ScriptsDir))
	fmt.Println()

	runner := sm.Runner
	denizens := sm.Denizens

	// 4. Optional snapshot persistence
	var persistence *system.PersistenceSystem
	var repo *persist.DenizenRepo
	if cfg.Database.DSN != "" {
		printSection("Database")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		db, err := persist.NewDB(ctx, cfg.Database, log)
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer db.Close()
		printOK("PostgreSQL connected")
		version, err := persist.RunMigrations(ctx, db.Pool)
		if err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		printOK(fmt.Sprintf("Schema at version %d", version))

		repo = persist.NewDenizenRepo(db)
		snaps, err := repo.LoadSnapshots(ctx)
		if err != nil {
			return err
		}
		restored := 0
		for _, s := range snaps {
			if denizens.Restore(s) {
				restored++
			}
		}
		printStat("Restored denizens", restored)
		fmt.Println()

		persistence = system.NewPersistenceSystem(denizens, repo, log, cfg.Simulation.SnapshotInterval)
		runner.Register(persistence)
	}

	// 5. Tick loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Simulation.TickRate)
	defer ticker.Stop()

	printSection("Running")
	printReady(fmt.Sprintf("Tick loop started (tick: %s)", cfg.Simulation.TickRate))
	fmt.Println()

	for {
		select {
		case <-ticker.C:
			runner.Tick(cfg.Simulation.TickRate)

		case sig := <-shutdownCh:
			log.Info("shutdown signal received", zap.String("signal", sig.String()))
			if persistence != nil {
				persistence.SaveAll()
			}
			if cfg.Data.ExportPath != "" {
				if err := sm.Export(cfg.Data.ExportPath); err != nil {
					log.Error("entity export failed", zap.Error(err))
				} else {
					log.Info("entities exported", zap.String("file", cfg.Data.ExportPath))
				}
			}
			logStats(log, runner, denizens, sm.Dispatcher, repo)
			log.Info("simulation stopped")
			return nil
		}
	}
}

func logStats(log *zap.Logger, runner *coresys.Runner, denizens *system.RailDenizenSystem, dispatcher *action.Dispatcher, repo *persist.DenizenRepo) {
	log.Info("run summary",
		zap.Int64("ticks", runner.Ticks()),
		zap.Uint64("laps", denizens.Laps()),
		zap.Uint64("actions", dispatcher.Dispatched()),
	)
	if repo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		for _, s := range denizens.Snapshots() {
			n, err := repo.LapCount(ctx, s.Name)
			if err != nil {
				log.Warn("lap history unavailable", zap.Error(err))
				break
			}
			log.Info("recorded laps",
				zap.String("denizen", s.Name),
				zap.Int64("laps", n),
			)
		}
	}
	for _, s := range runner.Stats() {
		log.Debug("system",
			zap.String("name", s.Name),
			zap.Stringer("phase", s.Phase),
			zap.Duration("avg", s.Avg()),
			zap.Duration("max", s.Max),
		)
	}
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
