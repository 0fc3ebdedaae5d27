package photodrift

import (
	"image"
	"runtime"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
)

type WindowState struct {
	windowGlfw   *glfw.Window
	WindowWidth  int
	WindowHeight int
	windowTitle  string
}

// Window exposes the underlying glfw handle for input binding.
func (s *WindowState) Window() *glfw.Window {
	return s.windowGlfw
}

type GpuState struct {
	surface       *wgpu.Surface
	adapter       *wgpu.Adapter
	device        *wgpu.Device
	queue         *wgpu.Queue
	surfaceConfig *wgpu.SurfaceConfiguration
}

// PlatformModule bootstraps the glfw window and the wgpu device/surface pair.
// Install it before any module that renders.
type PlatformModule struct {
	WindowWidth  int
	WindowHeight int
	WindowTitle  string
}

func (mod PlatformModule) Install(app *App) {
	width := mod.WindowWidth
	if width <= 0 {
		width = 1280
	}
	height := mod.WindowHeight
	if height <= 0 {
		height = 720
	}
	title := mod.WindowTitle
	if title == "" {
		title = "Photo Drift"
	}

	windowState := createWindowState(width, height, title)
	gpuState := createGpuState(windowState)
	app.AddResources(windowState, gpuState)

	app.UseSystem(System(pollEventsSystem).InStage(Prelude))
	app.UseSystem(System(func(s *WindowState) {
		if s.windowGlfw.ShouldClose() {
			app.Quit()
		}
	}).InStage(Finale))
}

func pollEventsSystem(s *WindowState) {
	glfw.PollEvents()
	s.WindowWidth, s.WindowHeight = s.windowGlfw.GetSize()
}

func createWindowState(windowWidth int, windowHeight int, windowTitle string) *WindowState {
	runtime.LockOSThread()
	if err := glfw.Init(); err != nil {
		panic(err)
	}

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI) // Important: tell GLFW we don't want OpenGL
	glfw.WindowHint(glfw.Resizable, glfw.True)

	win, err := glfw.CreateWindow(windowWidth, windowHeight, windowTitle, nil, nil)
	if err != nil {
		panic(err)
	}

	return &WindowState{
		windowGlfw:   win,
		WindowWidth:  windowWidth,
		WindowHeight: windowHeight,
		windowTitle:  windowTitle,
	}
}

func createGpuState(s *WindowState) *GpuState {
	instance := wgpu.CreateInstance(nil)
	defer instance.Release()
	// wraps GLFW window into a wgpu surface.
	surface := instance.CreateSurface(wgpuglfw.GetSurfaceDescriptor(s.windowGlfw))
	// finds a suitable GPU (discrete GPU preferred)
	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: surface,
		PowerPreference:   wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		panic(err)
	}
	// allocates the device and command queue
	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label:            "Main Device",
		RequiredFeatures: nil,
		RequiredLimits:   nil,
	})
	if err != nil {
		panic(err)
	}
	queue := device.GetQueue()

	caps := surface.GetCapabilities(adapter)
	// defines how the swapchain behaves (size, format, vsync)
	surfaceConfig := wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      caps.Formats[0],
		Width:       uint32(s.WindowWidth),
		Height:      uint32(s.WindowHeight),
		PresentMode: wgpu.PresentModeFifo, // vsync
		AlphaMode:   caps.AlphaModes[0],
	}

	surface.Configure(adapter, device, &surfaceConfig)

	return &GpuState{
		surface:       surface,
		adapter:       adapter,
		device:        device,
		queue:         queue,
		surfaceConfig: &surfaceConfig,
	}
}

// createTextureFromImage uploads an RGBA bitmap as a sampled 2D texture and
// returns both the texture and its view; the caller owns the release order.
func createTextureFromImage(img *image.RGBA, label string, gpuState *GpuState) (*wgpu.Texture, *wgpu.TextureView) {
	bounds := img.Bounds()
	textureExtent := wgpu.Extent3D{
		Width:              uint32(bounds.Dx()),
		Height:             uint32(bounds.Dy()),
		DepthOrArrayLayers: 1,
	}
	texture, err := gpuState.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         label,
		Size:          textureExtent,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatRGBA8Unorm,
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
	})
	if err != nil {
		panic(err)
	}

	textureView, err := texture.CreateView(nil)
	if err != nil {
		panic(err)
	}

	err = gpuState.queue.WriteTexture(
		texture.AsImageCopy(),
		img.Pix,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  uint32(img.Stride),
			RowsPerImage: uint32(bounds.Dy()),
		},
		&textureExtent,
	)
	if err != nil {
		panic(err)
	}
	return texture, textureView
}
