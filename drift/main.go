package main

import (
	"flag"
	"strings"

	"github.com/photodrift/photodrift"
)

func main() {
	debug := flag.Bool("debug", false, "Enable debug logging")
	photos := flag.String("photos", "", "Comma-separated photo URLs or file paths (empty uses the demo set)")
	flag.Parse()

	var urls []string
	if *photos != "" {
		urls = strings.Split(*photos, ",")
	}

	app := photodrift.NewApp()
	app.UseModules(
		photodrift.LoggingModule{Prefix: "drift", Debug: *debug},
		photodrift.TimeModule{},
		photodrift.PlatformModule{WindowWidth: 1280, WindowHeight: 720, WindowTitle: "Photo Drift"},
		photodrift.InteractionModule{
			Viewport: photodrift.Viewport{
				WorldWidth:  50,
				WorldHeight: 30,
				PixelWidth:  1280,
				PixelHeight: 720,
			},
		},
		photodrift.FieldModule{
			PhotoURLs: urls,
			OnPhotoClick: func(instanceID, photoIndex int) {
				app.Logger().Infof("clicked card %d (photo %d)", instanceID, photoIndex)
			},
		},
		photodrift.FieldPickingModule{},
		photodrift.FieldRendererModule{},
	)

	inter := photodrift.GetResource[photodrift.Interaction](app)
	window := photodrift.GetResource[photodrift.WindowState](app)
	inter.BindDrag(window.Window())

	app.Run()
}
