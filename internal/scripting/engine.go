package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dudliq/locomotion/internal/spatial"
	"github.com/dudliq/locomotion/internal/steering"
	"github.com/go-gl/mathgl/mgl32"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// steerPrefix is prepended to a behaviour name to find its Lua function:
// behaviour "flee" is implemented by a global steer_flee(ctx).
const steerPrefix = "steer_"

// Engine wraps a single gopher-lua VM running steering behaviours.
// Single-goroutine access only (frame loop).
type Engine struct {
	vm    *lua.LState
	log   *zap.Logger
	index *spatial.Index
	near  []spatial.Neighbour // reused by neighbours()
}

// NewEngine creates a Lua engine and loads all scripts from the given directory.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})

	vm.SetGlobal("API_VERSION", lua.LNumber(1))
	vm.SetGlobal("DIRECTIONS", lua.LNumber(steering.DirectionCount))

	e := &Engine{vm: vm, log: log}
	vm.SetGlobal("neighbours", vm.NewFunction(e.luaNeighbours))

	// Shared helpers first, then behaviours
	for _, sub := range []string{"core", "steering"} {
		p := filepath.Join(scriptsDir, sub)
		if err := e.loadDir(p); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load %s scripts: %w", sub, err)
		}
	}

	return e, nil
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

// SetIndex makes neighbours(x, y, radius) available to scripts.
func (e *Engine) SetIndex(ix *spatial.Index) {
	e.index = ix
}

// Has reports whether a behaviour with the given name is defined.
func (e *Engine) Has(name string) bool {
	_, ok := e.vm.GetGlobal(steerPrefix + name).(*lua.LFunction)
	return ok
}

// Behaviour returns the scripted behaviour with the given name.
func (e *Engine) Behaviour(name string) (steering.Behaviour, error) {
	if !e.Has(name) {
		return nil, fmt.Errorf("lua behaviour %q: function %s%s not defined", name, steerPrefix, name)
	}
	return scripted{engine: e, name: name}, nil
}

// scripted adapts a Lua steering function to steering.Behaviour.
type scripted struct {
	engine *Engine
	name   string
}

func (s scripted) Name() string { return s.name }

func (s scripted) Contribute(a *steering.Agent, m *steering.ContextMap) {
	s.engine.Steer(s.name, a, m)
}

// Steer calls the Lua function for behaviour name with the agent's context
// and applies the contributions it returns to m. Script errors are logged
// and contribute nothing.
//
// The function receives a table with entity, x, y, vx, vy, radius, frame,
// has_target, target_x, target_y, and the interest and danger the agent's
// earlier behaviours left in the map, keyed by slot 0..7. It returns an array of rows, each
// either {kind = "interest"|"danger", x = .., y = ..} for a vector or
// {kind = .., dir = 0..7, value = ..} for a single slot.
func (e *Engine) Steer(name string, a *steering.Agent, m *steering.ContextMap) {
	fn := e.vm.GetGlobal(steerPrefix + name)
	if fn == lua.LNil {
		e.log.Error("lua behaviour not found", zap.String("name", name))
		return
	}

	t := e.vm.NewTable()
	t.RawSetString("entity", lua.LNumber(a.Entity))
	t.RawSetString("x", lua.LNumber(a.Position[0]))
	t.RawSetString("y", lua.LNumber(a.Position[1]))
	t.RawSetString("vx", lua.LNumber(a.Velocity[0]))
	t.RawSetString("vy", lua.LNumber(a.Velocity[1]))
	t.RawSetString("radius", lua.LNumber(a.Radius))
	t.RawSetString("frame", lua.LNumber(a.Frame))
	t.RawSetString("has_target", lua.LBool(a.HasTarget))
	t.RawSetString("target_x", lua.LNumber(a.Target[0]))
	t.RawSetString("target_y", lua.LNumber(a.Target[1]))
	interest, danger := e.vm.NewTable(), e.vm.NewTable()
	for d := 0; d < steering.DirectionCount; d++ {
		interest.RawSetInt(d, lua.LNumber(m.Interest(d)))
		danger.RawSetInt(d, lua.LNumber(m.Danger(d)))
	}
	t.RawSetString("interest", interest)
	t.RawSetString("danger", danger)

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, t); err != nil {
		e.log.Error("lua behaviour error", zap.String("name", name), zap.Uint64("entity", uint64(a.Entity)), zap.Error(err))
		return
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)

	rt, ok := result.(*lua.LTable)
	if !ok {
		return
	}
	rt.ForEach(func(_, v lua.LValue) {
		row, ok := v.(*lua.LTable)
		if !ok {
			return
		}
		danger := lStr(row, "kind") == "danger"
		if dir, ok := row.RawGetString("dir").(lua.LNumber); ok {
			value := lFloat(row, "value")
			if danger {
				m.AddDanger(int(dir), value)
			} else {
				m.AddInterest(int(dir), value)
			}
			return
		}
		vec := mgl32.Vec2{lFloat(row, "x"), lFloat(row, "y")}
		if danger {
			m.AddVectorDanger(vec)
		} else {
			m.AddVectorInterest(vec)
		}
	})
}

// luaNeighbours implements neighbours(x, y, radius), returning an array of
// {id, x, y} rows from the spatial index in query order.
func (e *Engine) luaNeighbours(L *lua.LState) int {
	x := float32(L.CheckNumber(1))
	y := float32(L.CheckNumber(2))
	r := float32(L.CheckNumber(3))

	out := L.NewTable()
	if e.index != nil {
		e.near = e.index.WithinDistance(spatial.Lift(mgl32.Vec2{x, y}, 0), r, e.near[:0])
		for i, nb := range e.near {
			p := spatial.Flatten(nb.Position)
			row := L.NewTable()
			row.RawSetString("id", lua.LNumber(nb.ID))
			row.RawSetString("x", lua.LNumber(p[0]))
			row.RawSetString("y", lua.LNumber(p[1]))
			out.RawSetInt(i+1, row)
		}
	}
	L.Push(out)
	return 1
}

// --- Lua helpers ---

// lFloat reads a number field from a Lua table.
func lFloat(t *lua.LTable, key string) float32 {
	return float32(lua.LVAsNumber(t.RawGetString(key)))
}

// lStr reads a string field from a Lua table.
func lStr(t *lua.LTable, key string) string {
	return lua.LVAsString(t.RawGetString(key))
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}
