package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/raftrail/railsim/internal/action"
	"github.com/raftrail/railsim/internal/core/ecs"
	"github.com/raftrail/railsim/internal/core/event"
)

// Engine wraps a single gopher-lua VM running script actions.
// Single-goroutine access only (tick loop).
type Engine struct {
	vm     *lua.LState
	bus    *event.Bus
	log    *zap.Logger
	chunks map[string]*lua.LFunction
}

// NewEngine creates a Lua engine and loads all scripts from the given
// directory. An empty directory name loads nothing.
func NewEngine(scriptsDir string, bus *event.Bus, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})

	// Set API version global
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, bus: bus, log: log, chunks: make(map[string]*lua.LFunction)}
	e.registerAPI()

	if scriptsDir == "" {
		return e, nil
	}
	// Shared helpers first, then action scripts
	for _, dir := range []string{filepath.Join(scriptsDir, "core"), scriptsDir, filepath.Join(scriptsDir, "actions")} {
		if err := e.loadDir(dir); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load scripts: %w", err)
		}
	}
	return e, nil
}

// Close releases the VM.
func (e *Engine) Close() {
	e.vm.Close()
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// DoString runs a chunk in the engine's global scope.
func (e *Engine) DoString(src string) error {
	return e.vm.DoString(src)
}

// RunAction calls the global Lua function named function, or runs source as
// an inline chunk, passing a context table {source, owner, lap}. Inline chunks
// receive the table as their first vararg and are compiled once.
func (e *Engine) RunAction(function, source string, ctx action.Context) error {
	var fn *lua.LFunction
	switch {
	case function != "":
		f, ok := e.vm.GetGlobal(function).(*lua.LFunction)
		if !ok {
			return fmt.Errorf("lua function %s not found", function)
		}
		fn = f
	default:
		f, ok := e.chunks[source]
		if !ok {
			var err error
			f, err = e.vm.LoadString(source)
			if err != nil {
				return fmt.Errorf("compile inline action: %w", err)
			}
			e.chunks[source] = f
		}
		fn = f
	}

	t := e.vm.NewTable()
	t.RawSetString("source", entityValue(ctx.Source))
	t.RawSetString("owner", entityValue(ctx.Owner))
	t.RawSetString("lap", lua.LNumber(ctx.Lap))

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    0,
		Protect: true,
	}, t); err != nil {
		return fmt.Errorf("run %s: %w", describe(function), err)
	}
	return nil
}

func describe(function string) string {
	if function == "" {
		return "inline action"
	}
	return function
}

// Entity ids cross into Lua as numbers; generations stay far below 2^21 so
// the value is exact.
func entityValue(id ecs.EntityID) lua.LValue {
	if id.IsZero() {
		return lua.LNil
	}
	return lua.LNumber(float64(id))
}

func checkEntity(L *lua.LState, n int) ecs.EntityID {
	return ecs.EntityID(uint64(L.CheckNumber(n)))
}

// registerAPI installs the Go functions visible to scripts.
func (e *Engine) registerAPI() {
	// change_rail_speed(entity, op, value)
	e.vm.SetGlobal("change_rail_speed", e.vm.NewFunction(func(L *lua.LState) int {
		id := checkEntity(L, 1)
		op, err := event.ParseOperation(L.CheckString(2))
		if err != nil {
			L.ArgError(2, err.Error())
			return 0
		}
		e.bus.Emit(event.ChangeRailSpeed{Entity: id, Op: op, Value: float64(L.CheckNumber(3))})
		return 0
	}))

	// log(message)
	e.vm.SetGlobal("log", e.vm.NewFunction(func(L *lua.LState) int {
		e.log.Info("lua", zap.String("message", L.CheckString(1)))
		return 0
	}))
}
