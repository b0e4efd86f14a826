// Package level loads wall/door layout from a Lua script, so the arena's
// geometry (the four static outer walls, the thin middle wall, and any
// falling-wall spawn point) is a data file rather than a recompile.
package level

import (
	"github.com/rotisserie/eris"
	lua "github.com/yuin/gopher-lua"
)

// WallSpec describes one static body to spawn at level setup: either a
// plain wall or a falling-door pair member.
type WallSpec struct {
	X, Y         float32
	HalfW, HalfH float32
	Layer        string
	IsDoor       bool
	RequiresBall bool
}

// Layout is everything level.Load extracts from a script: the static
// arena walls plus any falling-wall spawn points.
type Layout struct {
	Walls       []WallSpec
	FallingWall *FallingWallSpec
}

// FallingWallSpec is the spawn point and fall speed for the falling
// background-wall/door pair.
type FallingWallSpec struct {
	X, Y         float32
	HalfW, HalfH float32
	FallSpeed    float32
	RequiresBall bool
}

// Load runs the Lua script at path and reads back the global `layout`
// table it is expected to build. The script populates `layout` by
// assigning a Lua table of tables; Load never calls back into Go
// functions from the script, since level geometry is pure data.
func Load(path string) (*Layout, error) {
	vm := lua.NewState(lua.Options{SkipOpenLibs: false})
	defer vm.Close()

	if err := vm.DoFile(path); err != nil {
		return nil, eris.Wrapf(err, "level: load %s", path)
	}

	lv := vm.GetGlobal("layout")
	tbl, ok := lv.(*lua.LTable)
	if !ok {
		return nil, eris.Errorf("level: %s did not set a `layout` table", path)
	}

	layout := &Layout{}

	if wallsVal := tbl.RawGetString("walls"); wallsVal.Type() == lua.LTTable {
		wallsVal.(*lua.LTable).ForEach(func(_, v lua.LValue) {
			wt, ok := v.(*lua.LTable)
			if !ok {
				return
			}
			layout.Walls = append(layout.Walls, wallFromTable(wt))
		})
	}

	if fwVal := tbl.RawGetString("falling_wall"); fwVal.Type() == lua.LTTable {
		fwt := fwVal.(*lua.LTable)
		layout.FallingWall = &FallingWallSpec{
			X:            floatField(fwt, "x"),
			Y:            floatField(fwt, "y"),
			HalfW:        floatField(fwt, "half_w"),
			HalfH:        floatField(fwt, "half_h"),
			FallSpeed:    floatField(fwt, "fall_speed"),
			RequiresBall: boolField(fwt, "requires_ball"),
		}
	}

	return layout, nil
}

func wallFromTable(t *lua.LTable) WallSpec {
	return WallSpec{
		X:            floatField(t, "x"),
		Y:            floatField(t, "y"),
		HalfW:        floatField(t, "half_w"),
		HalfH:        floatField(t, "half_h"),
		Layer:        stringField(t, "layer"),
		IsDoor:       boolField(t, "is_door"),
		RequiresBall: boolField(t, "requires_ball"),
	}
}

func floatField(t *lua.LTable, key string) float32 {
	v := t.RawGetString(key)
	if n, ok := v.(lua.LNumber); ok {
		return float32(n)
	}
	return 0
}

func boolField(t *lua.LTable, key string) bool {
	v := t.RawGetString(key)
	b, ok := v.(lua.LBool)
	return ok && bool(b)
}

func stringField(t *lua.LTable, key string) string {
	v := t.RawGetString(key)
	if s, ok := v.(lua.LString); ok {
		return string(s)
	}
	return ""
}

// DefaultLayout returns the standard arena: four static outer walls plus
// a thin middle wall layered to collide with the ball but not players,
// for callers that don't ship a level script. Coordinates are meters
// around a centered arena.
func DefaultLayout() *Layout {
	return &Layout{
		Walls: []WallSpec{
			{X: 0, Y: 6, HalfW: 10, HalfH: 0.5, Layer: "wall"},  // top
			{X: 0, Y: -6, HalfW: 10, HalfH: 0.5, Layer: "wall"}, // bottom
			{X: -10, Y: 0, HalfW: 0.5, HalfH: 6, Layer: "wall"}, // left
			{X: 10, Y: 0, HalfW: 0.5, HalfH: 6, Layer: "wall"},  // right
			{X: 0, Y: 0, HalfW: 0.1, HalfH: 6, Layer: "middle_wall"},
		},
	}
}
