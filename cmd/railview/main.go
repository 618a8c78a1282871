// Command railview runs the simulation in the terminal and draws it from
// above.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"

	"github.com/raftrail/railsim/internal/config"
	"github.com/raftrail/railsim/internal/sim"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfgPath := "config/railsim.toml"
	if p := os.Getenv("RAILSIM_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// The terminal belongs to the view, so logs go to a file if anywhere.
	log := zap.NewNop()
	if p := os.Getenv("RAILVIEW_LOG"); p != "" {
		zapCfg := zap.NewProductionConfig()
		zapCfg.OutputPaths = []string{p}
		zapCfg.ErrorOutputPaths = []string{p}
		if log, err = zapCfg.Build(); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
	}
	defer log.Sync()

	sm, err := sim.New(cfg, log)
	if err != nil {
		return err
	}
	defer sm.Close()

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("screen: %w", err)
	}
	defer screen.Fini()

	v := NewView(screen, sm, cfg.View)
	loop(v, cfg.Simulation.TickRate)
	return nil
}

func loop(v *View, tickRate time.Duration) {
	tick := time.NewTicker(tickRate)
	defer tick.Stop()
	frame := time.NewTicker(v.cfg.FrameRate)
	defer frame.Stop()

	events := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := v.screen.PollEvent()
			if ev == nil {
				return
			}
			events <- ev
		}
	}()

	v.draw()
	for {
		select {
		case ev := <-events:
			if !v.handleInput(ev) {
				return
			}
		case <-tick.C:
			v.sim.Runner.Tick(tickRate)
		case <-frame.C:
			v.draw()
		}
	}
}
