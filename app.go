package photodrift

import (
	"fmt"
	"reflect"
	"runtime"
)

type systemFn any

// Module is an installable unit of functionality: it registers resources and
// systems on the App.
type Module interface {
	Install(app *App)
}

// App owns the per-frame schedule. Resources are singletons keyed by type and
// injected into systems by reflection; systems run in stage order, once per frame.
type App struct {
	stages    []Stage
	systems   map[string][]systemFn
	resources map[reflect.Type]any
	quit      bool
}

func NewApp() *App {
	app := &App{
		systems:   make(map[string][]systemFn),
		resources: make(map[reflect.Type]any),
	}
	for _, stage := range defaultStages {
		app.stages = append(app.stages, stage)
		app.systems[stage.Name] = make([]systemFn, 0)
	}
	return app
}

func (app *App) UseModules(modules ...Module) *App {
	for _, module := range modules {
		module.Install(app)
	}
	return app
}

func (app *App) AddResources(resources ...any) *App {
	for _, resource := range resources {
		resourceType := reflect.TypeOf(resource)
		if resourceType.Kind() != reflect.Ptr {
			panic(fmt.Sprintf("resource %s must be a pointer", resourceType))
		}
		if _, ok := app.resources[resourceType.Elem()]; ok {
			panic(fmt.Sprintf("%s is already in resources", resourceType))
		}
		app.resources[resourceType.Elem()] = resource
	}
	return app
}

func (app *App) UseSystem(sched systemScheduleBuilder) *App {
	systems, ok := app.systems[sched.inStage.Name]
	if !ok {
		panic(fmt.Sprintf("Stage %v doesn't exist", sched.inStage.Name))
	}
	app.systems[sched.inStage.Name] = append(systems, sched.system)
	return app
}

// Quit stops the Run loop after the current frame finishes.
func (app *App) Quit() {
	app.quit = true
}

// RunFrame executes every stage once, in order.
func (app *App) RunFrame() {
	for _, stage := range app.stages {
		for _, system := range app.systems[stage.Name] {
			app.callSystem(system)
		}
	}
}

func (app *App) Run() {
	for !app.quit {
		app.RunFrame()
	}
}

func (app *App) callSystem(system systemFn) {
	systemType := reflect.TypeOf(system)
	systemValue := reflect.ValueOf(system)

	args := make([]reflect.Value, systemType.NumIn())
	for i := 0; i < systemType.NumIn(); i++ {
		argType := systemType.In(i)
		underlyingType := argType.Elem()

		if resource, ok := app.resources[underlyingType]; ok {
			resourceVal := reflect.ValueOf(resource)
			args[i] = reflect.NewAt(underlyingType, resourceVal.UnsafePointer())
		} else {
			msg := fmt.Sprintf("Unable to resolve System dependency.\nSystem: %s\nSystem type: %s\nDependency: %s",
				runtime.FuncForPC(systemValue.Pointer()).Name(),
				fmt.Sprint(systemType),
				fmt.Sprint(argType),
			)
			panic(msg)
		}
	}
	systemValue.Call(args)
}

// GetResource returns the registered resource of type T, or nil if absent.
func GetResource[T any](app *App) *T {
	if r, ok := app.resources[reflect.TypeOf((*T)(nil)).Elem()]; ok {
		return r.(*T)
	}
	return nil
}

// Logger returns the first Logger resource if present, otherwise a no-op logger.
// Safe to call at any time; never returns nil.
func (app *App) Logger() Logger {
	if app == nil {
		return NewNopLogger()
	}
	for _, r := range app.resources {
		if l, ok := r.(Logger); ok {
			return l
		}
	}
	return NewNopLogger()
}
