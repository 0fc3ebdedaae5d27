package photodrift

import (
	"sync"

	"github.com/go-gl/glfw/v3.3/glfw"
)

const (
	// Per-tick blend weights. Deliberately not delta-time weighted: the feel
	// is tuned against the display refresh, matching the reference motion.
	dragDamping   = 0.1
	scrollDamping = 0.12
	momentumDecay = 0.835

	// wheelLinePixels converts line-mode wheel deltas to pixels.
	wheelLinePixels = 16

	// Pointer travel below this many pixels between press and release
	// counts as a click rather than a drag.
	clickSlopPixels = 4.0

	inputQueueCap = 256
)

type inputEventKind int

const (
	eventPointerDown inputEventKind = iota
	eventPointerMove
	eventPointerUp
	eventWheel
)

// WheelDeltaMode identifies the unit of a wheel event's delta.
type WheelDeltaMode int

const (
	WheelDeltaPixels WheelDeltaMode = iota
	WheelDeltaLines
	WheelDeltaPages
)

type inputEvent struct {
	kind  inputEventKind
	x, y  float64
	delta float64
	mode  WheelDeltaMode
}

// DragState is the two-axis drag accumulator. Targets move on pointer input;
// currents chase them through the per-tick damping step.
type DragState struct {
	CurrentX float32
	CurrentY float32
	TargetX  float32
	TargetY  float32
	IsActive bool

	startX, startY float64
	lastX, lastY   float64
}

// ScrollState is the wheel accumulator plus its decaying momentum scalar.
type ScrollState struct {
	Current  float32
	Target   float32
	Momentum float32
}

// Viewport maps between pixel space and world space for input conversion.
type Viewport struct {
	WorldWidth  float32
	WorldHeight float32
	PixelWidth  int
	PixelHeight int
}

// Interaction is the continuous input state for one rendering surface.
// Event callbacks only enqueue; Step drains the queue and runs the damping
// pass, so all state mutation happens at one point in the frame.
type Interaction struct {
	mu      sync.Mutex
	queue   []inputEvent
	dropped int

	Drag        DragState
	Scroll      ScrollState
	Viewport    Viewport
	Sensitivity float32

	clickX, clickY float64
	hasClick       bool
}

type InteractionModule struct {
	Viewport    Viewport
	Sensitivity float32
}

func (mod InteractionModule) Install(app *App) {
	sensitivity := mod.Sensitivity
	if sensitivity == 0 {
		sensitivity = 1
	}
	app.AddResources(&Interaction{
		Viewport:    mod.Viewport,
		Sensitivity: sensitivity,
	})
	app.UseSystem(System(interactionSystem).InStage(PreUpdate))
}

func interactionSystem(inter *Interaction) {
	inter.Step()
}

func (s *Interaction) enqueue(ev inputEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) >= inputQueueCap {
		s.dropped++
		return
	}
	s.queue = append(s.queue, ev)
}

func (s *Interaction) PointerDown(x, y float64) {
	s.enqueue(inputEvent{kind: eventPointerDown, x: x, y: y})
}

func (s *Interaction) PointerMove(x, y float64) {
	s.enqueue(inputEvent{kind: eventPointerMove, x: x, y: y})
}

func (s *Interaction) PointerUp(x, y float64) {
	s.enqueue(inputEvent{kind: eventPointerUp, x: x, y: y})
}

func (s *Interaction) Wheel(delta float64, mode WheelDeltaMode) {
	s.enqueue(inputEvent{kind: eventWheel, delta: delta, mode: mode})
}

// Step drains pending input into the target accumulators, then advances the
// current values one damping tick. Called once per frame from the schedule.
func (s *Interaction) Step() {
	s.mu.Lock()
	pending := s.queue
	s.queue = nil
	s.mu.Unlock()

	for _, ev := range pending {
		s.apply(ev)
	}

	s.Drag.CurrentX = dampTowards(s.Drag.CurrentX, s.Drag.TargetX, dragDamping)
	s.Drag.CurrentY = dampTowards(s.Drag.CurrentY, s.Drag.TargetY, dragDamping)
	s.Scroll.Current = dampTowards(s.Scroll.Current, s.Scroll.Target, scrollDamping)
	s.Scroll.Momentum *= momentumDecay
}

func (s *Interaction) apply(ev inputEvent) {
	switch ev.kind {
	case eventPointerDown:
		s.Drag.IsActive = true
		s.Drag.startX, s.Drag.startY = ev.x, ev.y
		s.Drag.lastX, s.Drag.lastY = ev.x, ev.y

	case eventPointerMove:
		if !s.Drag.IsActive {
			return
		}
		dx := ev.x - s.Drag.lastX
		dy := ev.y - s.Drag.lastY
		s.Drag.lastX, s.Drag.lastY = ev.x, ev.y

		// Dragging right moves the field left, so X inverts.
		s.Drag.TargetX -= float32(dx) * s.worldPerPixelX()
		s.Drag.TargetY += float32(dy) * s.worldPerPixelY()

	case eventPointerUp:
		if s.Drag.IsActive {
			dx := ev.x - s.Drag.startX
			dy := ev.y - s.Drag.startY
			if dx*dx+dy*dy <= clickSlopPixels*clickSlopPixels {
				s.clickX, s.clickY = ev.x, ev.y
				s.hasClick = true
			}
		}
		s.Drag.IsActive = false

	case eventWheel:
		pixels := normalizeWheelDelta(ev.delta, ev.mode, s.Viewport.PixelHeight)
		s.Scroll.Target += float32(pixels) * s.worldPerPixelY()
		s.Scroll.Momentum += float32(pixels)
	}
}

// TakeClick returns the pixel position of a completed click, if the last
// Step saw a press and release without drag travel. Consuming it clears it.
func (s *Interaction) TakeClick() (x, y float64, ok bool) {
	if !s.hasClick {
		return 0, 0, false
	}
	s.hasClick = false
	return s.clickX, s.clickY, true
}

func (s *Interaction) worldPerPixelX() float32 {
	if s.Viewport.PixelWidth == 0 {
		return 0
	}
	return s.Viewport.WorldWidth / float32(s.Viewport.PixelWidth) * s.Sensitivity
}

func (s *Interaction) worldPerPixelY() float32 {
	if s.Viewport.PixelHeight == 0 {
		return 0
	}
	return s.Viewport.WorldHeight / float32(s.Viewport.PixelHeight) * s.Sensitivity
}

// normalizeWheelDelta converts a platform wheel delta to pixels.
func normalizeWheelDelta(delta float64, mode WheelDeltaMode, pixelHeight int) float64 {
	switch mode {
	case WheelDeltaLines:
		return delta * wheelLinePixels
	case WheelDeltaPages:
		return delta * float64(pixelHeight)
	default:
		return delta
	}
}

func dampTowards(current, target, factor float32) float32 {
	return current + (target-current)*factor
}

// BindDrag attaches the pointer and wheel listeners to a window. Callbacks
// only enqueue events; nothing here touches drag or scroll state directly.
func (s *Interaction) BindDrag(win *glfw.Window) {
	win.SetMouseButtonCallback(func(w *glfw.Window, button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
		if button != glfw.MouseButtonLeft {
			return
		}
		x, y := w.GetCursorPos()
		switch action {
		case glfw.Press:
			s.PointerDown(x, y)
		case glfw.Release:
			s.PointerUp(x, y)
		}
	})
	win.SetCursorPosCallback(func(w *glfw.Window, x, y float64) {
		s.PointerMove(x, y)
	})
	// GLFW reports wheel offsets in detent steps, i.e. lines.
	win.SetScrollCallback(func(w *glfw.Window, xoff, yoff float64) {
		s.Wheel(yoff, WheelDeltaLines)
	})
}
