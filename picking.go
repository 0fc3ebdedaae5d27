package photodrift

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// wrapExtent folds v into [-extent, extent), the CPU mirror of the shader's
// wrapAxis. Both sides must agree or picking drifts from what is drawn.
func wrapExtent(v, extent float32) float32 {
	span := extent * 2
	return v - span*math32.Floor((v+extent)/span)
}

// PickCard hit-tests a cursor position against the card field, replaying the
// vertex transform on the CPU for the current interaction state. Returns the
// instance id of the frontmost card under the cursor, or -1.
func PickCard(state *FieldState, inter *Interaction, t *Time, cursorX, cursorY float64) int {
	_, _, instances, _ := state.renderSnapshot()
	if instances == nil || instances.Count == 0 {
		return -1
	}
	vp := inter.Viewport
	if vp.PixelWidth == 0 || vp.PixelHeight == 0 {
		return -1
	}
	bounds := state.Bounds()

	cursor := mgl32.Vec2{
		2*float32(cursorX)/float32(vp.PixelWidth) - 1,
		1 - 2*float32(cursorY)/float32(vp.PixelHeight),
	}

	best := -1
	var bestDepth float32
	for i := 0; i < instances.Count; i++ {
		pos := mgl32.Vec3{
			instances.Positions[i*3+0],
			instances.Positions[i*3+1],
			instances.Positions[i*3+2],
		}
		speed := instances.Speeds[i]

		wx := wrapExtent(pos.X()+inter.Drag.CurrentX, bounds.MaxX)
		wy := wrapExtent(pos.Y()+inter.Drag.CurrentY+inter.Scroll.Current*speed, bounds.MaxY)
		wy += math32.Sin(t.Elapsed*speed+pos.X()) * 0.2

		depth := 12 - pos.Z()
		if depth <= 0 {
			continue
		}
		scale := 8 / depth

		center := mgl32.Vec2{wx * scale / bounds.MaxX, wy * scale / bounds.MaxY}
		half := mgl32.Vec2{0.5 * scale / bounds.MaxX, 0.375 * scale / bounds.MaxY}

		d := cursor.Sub(center)
		if math32.Abs(d.X()) > half.X() || math32.Abs(d.Y()) > half.Y() {
			continue
		}
		if best < 0 || depth < bestDepth {
			best = i
			bestDepth = depth
		}
	}
	return best
}

// FieldPickingModule routes clicks on the rendering surface to the field's
// photo click callback. Requires FieldModule, InteractionModule and
// TimeModule.
type FieldPickingModule struct{}

func (mod FieldPickingModule) Install(app *App) {
	if GetResource[FieldState](app) == nil || GetResource[Interaction](app) == nil {
		panic("FieldPickingModule requires FieldModule and InteractionModule")
	}
	app.UseSystem(System(fieldPickSystem).InStage(Update))
}

func fieldPickSystem(state *FieldState, inter *Interaction, t *Time) {
	x, y, ok := inter.TakeClick()
	if !ok {
		return
	}
	if id := PickCard(state, inter, t, x, y); id >= 0 {
		state.HandleClick(id)
	}
}
