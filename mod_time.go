package photodrift

import (
	"time"
)

// timeScale converts wall-clock seconds into shader time units.
const timeScale = 0.5

// Time tracks frame timing plus the accumulated shader clock.
type Time struct {
	Time    time.Time
	Dt      time.Duration
	Elapsed float32
}

type TimeModule struct {
}

func (mod TimeModule) Install(app *App) {
	app.AddResources(&Time{
		Time: time.Now(),
		Dt:   0,
	})
	app.UseSystem(System(timeSystem).InStage(Prelude))
}

func timeSystem(timeResource *Time) {
	now := time.Now()

	timeResource.Dt = now.Sub(timeResource.Time)
	timeResource.Time = now
	timeResource.Advance(float32(timeResource.Dt.Seconds()))
}

// Advance pushes the shader clock forward by dt seconds. Split out from the
// system so tests can drive time without a wall clock.
func (t *Time) Advance(dt float32) {
	t.Elapsed += dt * timeScale
}
