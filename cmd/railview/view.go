package main

import (
	"fmt"
	"math"
	"sort"

	"github.com/gdamore/tcell/v2"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/raftrail/railsim/internal/component"
	"github.com/raftrail/railsim/internal/config"
	"github.com/raftrail/railsim/internal/core/ecs"
	"github.com/raftrail/railsim/internal/core/event"
	"github.com/raftrail/railsim/internal/rail"
	"github.com/raftrail/railsim/internal/sim"
	"github.com/raftrail/railsim/internal/world"
)

const (
	speedUp   = 1.25
	speedDown = 0.8
	panStep   = 4
)

var (
	styleRail     = tcell.StyleDefault.Foreground(tcell.ColorDarkCyan)
	styleStart    = tcell.StyleDefault.Foreground(tcell.ColorYellow)
	styleDenizen  = tcell.StyleDefault.Foreground(tcell.ColorGreen)
	styleSelected = tcell.StyleDefault.Foreground(tcell.ColorWhite).Reverse(true)
	styleStatus   = tcell.StyleDefault.Foreground(tcell.ColorSilver)
)

// View draws the XZ plane of a running simulation: rail traces, the start
// of every rail and the denizens on them. Terminal cells are twice as tall
// as they are wide, so X is stretched by two.
type View struct {
	screen tcell.Screen
	sim    *sim.Sim
	cfg    config.ViewConfig

	grid     *world.Grid
	trace    []mgl64.Vec3
	selected int
	panX     int
	panY     int
	width    int
	height   int
}

func NewView(screen tcell.Screen, s *sim.Sim, cfg config.ViewConfig) *View {
	v := &View{
		screen: screen,
		sim:    s,
		cfg:    cfg,
		grid:   world.NewGrid(1 / cfg.Zoom),
	}
	v.width, v.height = screen.Size()
	return v
}

// project maps a world position to a terminal cell.
func (v *View) project(p mgl64.Vec3) (int, int) {
	x := int(math.Round(p[0]*v.cfg.Zoom*2)) + v.width/2 + v.panX
	y := int(math.Round(p[2]*v.cfg.Zoom)) + v.height/2 + v.panY
	return x, y
}

func (v *View) set(x, y int, r rune, style tcell.Style) {
	if x < 0 || y < 0 || x >= v.width || y >= v.height-1 {
		return
	}
	v.screen.SetContent(x, y, r, nil, style)
}

// denizens returns the rail denizens in creation order.
func (v *View) denizens() []ecs.EntityID {
	ids := v.sim.State.Denizens.IDs()
	sort.Slice(ids, func(i, j int) bool { return ids[i].Index() < ids[j].Index() })
	return ids
}

func (v *View) selectedID() (ecs.EntityID, bool) {
	ids := v.denizens()
	if len(ids) == 0 {
		return 0, false
	}
	return ids[v.selected%len(ids)], true
}

// rails returns every rail the denizens are bound to, plus the defined ones.
func (v *View) rails() []*rail.Rail {
	seen := make(map[string]bool)
	var out []*rail.Rail
	for _, name := range v.sim.Rails.Names() {
		if r, err := v.sim.Rails.GetRailFromComponents(name, v.sim.State); err == nil {
			seen[name] = true
			out = append(out, r)
		}
	}
	v.sim.State.Denizens.Each(func(_ ecs.EntityID, d *component.RailDenizen) {
		if d.RailName == "" || seen[d.RailName] {
			return
		}
		if r, err := v.sim.Rails.GetRailFromComponents(d.RailName, v.sim.State); err == nil {
			seen[d.RailName] = true
			out = append(out, r)
		}
	})
	return out
}

func (v *View) draw() {
	v.screen.Clear()

	for _, r := range v.rails() {
		v.trace = r.Positions(v.cfg.SampleStep, v.trace)
		for _, p := range v.trace {
			x, y := v.project(p)
			v.set(x, y, '·', styleRail)
		}
		x, y := v.project(r.PositionCalculatedSlowly(0))
		v.set(x, y, 'S', styleStart)
	}

	v.grid.Reset(v.sim.State)
	v.grid.Occupied(func(c world.Cell, n int) {
		center := mgl64.Vec3{(float64(c.X) + 0.5) / v.cfg.Zoom, 0, (float64(c.Z) + 0.5) / v.cfg.Zoom}
		x, y := v.project(center)
		glyph := '●'
		if n > 1 {
			glyph = '+'
			if n < 10 {
				glyph = rune('0' + n)
			}
		}
		v.set(x, y, glyph, styleDenizen)
	})

	status := "no rail denizens"
	if id, ok := v.selectedID(); ok {
		d, _ := v.sim.State.Denizens.Get(id)
		t, _ := v.sim.State.Transforms.Get(id)
		name := id.String()
		if m, ok := v.sim.State.Metas.Get(id); ok && m.Name != "" {
			name = m.Name
		}
		x, y := v.project(t.Position)
		v.set(x, y, '@', styleSelected)
		status = fmt.Sprintf("%s  rail=%s  lap=%.3f  rate=%.3f  enabled=%t", name, d.RailName, d.Lap, d.SplinePlaybackRate, d.Enabled)
	}
	status = fmt.Sprintf("%s  laps=%d  [tab] next  [+/-] speed  [r] reverse  [space] toggle  [q] quit", status, v.sim.Denizens.Laps())
	for i, r := range []rune(status) {
		if i >= v.width {
			break
		}
		v.screen.SetContent(i, v.height-1, r, nil, styleStatus)
	}

	v.screen.Show()
}

// changeSpeed asks for a rate change of the selected denizen. It applies on
// the next tick, the same way an on-new-lap action does.
func (v *View) changeSpeed(op event.Operation, value float64) {
	if id, ok := v.selectedID(); ok {
		v.sim.Bus.Emit(event.ChangeRailSpeed{Entity: id, Op: op, Value: value})
	}
}

// handleInput returns false when the viewer should exit.
func (v *View) handleInput(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return false
		case tcell.KeyTab:
			v.selected++
		case tcell.KeyLeft:
			v.panX += panStep
		case tcell.KeyRight:
			v.panX -= panStep
		case tcell.KeyUp:
			v.panY += panStep / 2
		case tcell.KeyDown:
			v.panY -= panStep / 2
		case tcell.KeyRune:
			switch ev.Rune() {
			case 'q':
				return false
			case '+', '=':
				v.changeSpeed(event.OpMultiply, speedUp)
			case '-':
				v.changeSpeed(event.OpMultiply, speedDown)
			case 'r':
				v.changeSpeed(event.OpMultiply, -1)
			case ' ':
				if id, ok := v.selectedID(); ok {
					d, _ := v.sim.State.Denizens.Get(id)
					v.sim.Denizens.SetEnabled(id, !d.Enabled)
				}
			}
		}
	case *tcell.EventResize:
		v.width, v.height = v.screen.Size()
		v.screen.Sync()
	}
	return true
}
