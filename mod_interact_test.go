package photodrift

import (
	"math"
	"testing"
)

func testInteraction() *Interaction {
	return &Interaction{
		Viewport: Viewport{
			WorldWidth:  20,
			WorldHeight: 10,
			PixelWidth:  1000,
			PixelHeight: 500,
		},
		Sensitivity: 1,
	}
}

func TestDragDamping_Convergence(t *testing.T) {
	s := testInteraction()
	s.Drag.TargetX = 1

	for i := 0; i < 50; i++ {
		s.Step()
	}

	// Each tick shaves off a factor of (1 - 0.1); after 50 ticks the
	// remaining error is 0.9^50 ~= 0.00515.
	remaining := math.Abs(float64(s.Drag.TargetX - s.Drag.CurrentX))
	expected := math.Pow(1-dragDamping, 50)
	if math.Abs(remaining-expected) > 1e-3 {
		t.Errorf("expected remaining error ~%v, got %v", expected, remaining)
	}
}

func TestMomentumDecay(t *testing.T) {
	s := testInteraction()
	s.Scroll.Momentum = 10

	for i := 0; i < 20; i++ {
		s.Step()
	}

	expected := 10 * math.Pow(momentumDecay, 20)
	if math.Abs(float64(s.Scroll.Momentum)-expected) > 1e-3 {
		t.Errorf("expected momentum ~%v, got %v", expected, s.Scroll.Momentum)
	}
	if s.Scroll.Momentum == 0 {
		t.Error("momentum must decay asymptotically, never clamp to zero")
	}
}

func TestPointerDrag_Accumulation(t *testing.T) {
	s := testInteraction()

	s.PointerDown(100, 100)
	s.PointerMove(110, 100)
	s.Step()

	if !s.Drag.IsActive {
		t.Error("drag should be active after pointer down")
	}
	// 10 px right at 20 world / 1000 px, X inverted.
	if math.Abs(float64(s.Drag.TargetX)+0.2) > 1e-6 {
		t.Errorf("expected targetX -0.2, got %v", s.Drag.TargetX)
	}
	if s.Drag.TargetY != 0 {
		t.Errorf("expected targetY 0, got %v", s.Drag.TargetY)
	}

	s.PointerMove(110, 110)
	s.Step()
	// 10 px down at 10 world / 500 px, Y not inverted.
	if math.Abs(float64(s.Drag.TargetY)-0.2) > 1e-6 {
		t.Errorf("expected targetY 0.2, got %v", s.Drag.TargetY)
	}

	s.PointerUp(110, 110)
	s.Step()
	if s.Drag.IsActive {
		t.Error("drag should be inactive after pointer up")
	}
}

func TestPointerMove_IgnoredWhenInactive(t *testing.T) {
	s := testInteraction()
	s.PointerMove(50, 50)
	s.PointerMove(500, 500)
	s.Step()

	if s.Drag.TargetX != 0 || s.Drag.TargetY != 0 {
		t.Errorf("moves without a pointer down must not accumulate: %v, %v",
			s.Drag.TargetX, s.Drag.TargetY)
	}
}

func TestNormalizeWheelDelta(t *testing.T) {
	if got := normalizeWheelDelta(2, WheelDeltaPixels, 500); got != 2 {
		t.Errorf("pixels: expected 2, got %v", got)
	}
	if got := normalizeWheelDelta(2, WheelDeltaLines, 500); got != 2*wheelLinePixels {
		t.Errorf("lines: expected %d, got %v", 2*wheelLinePixels, got)
	}
	if got := normalizeWheelDelta(2, WheelDeltaPages, 500); got != 1000 {
		t.Errorf("pages: expected 1000, got %v", got)
	}
}

func TestWheel_TargetAndMomentum(t *testing.T) {
	s := testInteraction()
	s.Wheel(3, WheelDeltaLines)
	s.Step()

	// 3 lines -> 48 px -> 48 * (10 world / 500 px) = 0.96 world units.
	if math.Abs(float64(s.Scroll.Target)-0.96) > 1e-5 {
		t.Errorf("expected scroll target 0.96, got %v", s.Scroll.Target)
	}
	// Momentum takes the raw normalized delta, then decays once this tick.
	expected := 48 * momentumDecay
	if math.Abs(float64(s.Scroll.Momentum)-expected) > 1e-4 {
		t.Errorf("expected momentum %v, got %v", expected, s.Scroll.Momentum)
	}
}

func TestScrollDamping(t *testing.T) {
	s := testInteraction()
	s.Scroll.Target = 1
	s.Step()

	if math.Abs(float64(s.Scroll.Current)-scrollDamping) > 1e-6 {
		t.Errorf("expected current %v after one tick, got %v", scrollDamping, s.Scroll.Current)
	}
}

func TestInputQueue_BoundedDrop(t *testing.T) {
	s := testInteraction()
	for i := 0; i < inputQueueCap+40; i++ {
		s.PointerMove(float64(i), 0)
	}

	s.mu.Lock()
	queued, dropped := len(s.queue), s.dropped
	s.mu.Unlock()

	if queued != inputQueueCap {
		t.Errorf("expected queue capped at %d, got %d", inputQueueCap, queued)
	}
	if dropped != 40 {
		t.Errorf("expected 40 dropped events, got %d", dropped)
	}
}
