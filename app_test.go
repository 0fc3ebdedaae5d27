package photodrift

import (
	"testing"
)

type stageRecorder struct {
	order []string
}

func TestApp_ResourceInjection(t *testing.T) {
	type counter struct{ n int }

	app := NewApp()
	app.AddResources(&counter{})
	app.UseSystem(System(func(c *counter) { c.n++ }).InStage(Update))

	app.RunFrame()
	app.RunFrame()

	if got := GetResource[counter](app).n; got != 2 {
		t.Errorf("expected system to run once per frame, counter = %d", got)
	}
}

func TestApp_StageOrdering(t *testing.T) {
	app := NewApp()
	app.AddResources(&stageRecorder{})

	record := func(name string) systemScheduleBuilder {
		return System(func(r *stageRecorder) { r.order = append(r.order, name) })
	}
	// Registered out of order on purpose; the schedule decides.
	app.UseSystem(record("render").InStage(Render))
	app.UseSystem(record("prelude").InStage(Prelude))
	app.UseSystem(record("update").InStage(Update))
	app.UseSystem(record("preUpdate").InStage(PreUpdate))

	app.RunFrame()

	want := []string{"prelude", "preUpdate", "update", "render"}
	rec := GetResource[stageRecorder](app)
	if len(rec.order) != len(want) {
		t.Fatalf("expected %d system runs, got %v", len(want), rec.order)
	}
	for i := range want {
		if rec.order[i] != want[i] {
			t.Errorf("stage order [%d]: expected %s, got %s", i, want[i], rec.order[i])
		}
	}
}

func TestApp_DuplicateResourcePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic on duplicate resource type")
		}
	}()
	app := NewApp()
	app.AddResources(&Time{}, &Time{})
}

func TestApp_NonPointerResourcePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic on non-pointer resource")
		}
	}()
	NewApp().AddResources(Time{})
}

func TestApp_MissingDependencyPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic when a system dependency is not registered")
		}
	}()
	app := NewApp()
	app.UseSystem(System(func(*Interaction) {}).InStage(Update))
	app.RunFrame()
}

func TestApp_GetResourceAbsent(t *testing.T) {
	if got := GetResource[Time](NewApp()); got != nil {
		t.Errorf("expected nil for unregistered resource, got %v", got)
	}
}

type testModule struct{ installed *bool }

func (m testModule) Install(app *App) { *m.installed = true }

func TestApp_UseModules(t *testing.T) {
	installed := false
	NewApp().UseModules(testModule{&installed})
	if !installed {
		t.Error("expected module Install to be called")
	}
}

func TestApp_LoggerFallback(t *testing.T) {
	app := NewApp()
	log := app.Logger()
	if log == nil {
		t.Fatal("Logger must never be nil")
	}
	log.Infof("no-op logger accepts calls")

	app.UseModules(LoggingModule{Prefix: "test"})
	if _, ok := app.Logger().(*DefaultLogger); !ok {
		t.Errorf("expected installed DefaultLogger, got %T", app.Logger())
	}
}

func TestTime_AdvanceScalesElapsed(t *testing.T) {
	tm := &Time{}
	tm.Advance(2)
	if tm.Elapsed != 1.0 {
		t.Errorf("expected elapsed 1.0 after advancing 2s at half speed, got %v", tm.Elapsed)
	}
}
