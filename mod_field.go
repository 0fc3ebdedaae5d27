package photodrift

import (
	"image"
	"sync"

	"github.com/google/uuid"
)

const defaultMeshCount = 400

var defaultBounds = FieldBounds{MaxX: 25, MaxY: 15}

// fieldBuild is the CPU-side output of one atlas rebuild, tagged with the
// reload generation that requested it.
type fieldBuild struct {
	id         uuid.UUID
	generation uint64
	atlas      *image.RGBA
	blurred    *image.RGBA
	infos      []ImageInfo
}

// FieldState owns the card field: the committed atlas data, the instance
// buffers, and the reload pipeline. Loading and atlas packing run on worker
// goroutines; a finished build parks in pending and is committed on the next
// frame by the schedule, so the committed fields are only ever touched on the
// render thread.
type FieldState struct {
	mu         sync.Mutex
	generation uint64
	pending    *fieldBuild

	buildID   uuid.UUID
	infos     []ImageInfo
	instances *InstanceBuffers
	atlas     *image.RGBA
	blurred   *image.RGBA
	version   uint64

	bounds    FieldBounds
	meshCount int
	demoSet   []string
	onClick   func(instanceID, photoIndex int)
	log       Logger
}

// FieldModule installs the photo-card field. Requires LoggingModule for
// diagnostics (optional) and, for on-screen rendering, PlatformModule plus
// FieldRendererModule.
type FieldModule struct {
	MeshCount    int
	Bounds       FieldBounds
	PhotoURLs    []string
	OnPhotoClick func(instanceID, photoIndex int)
}

func (mod FieldModule) Install(app *App) {
	meshCount := mod.MeshCount
	if meshCount <= 0 {
		meshCount = defaultMeshCount
	}
	bounds := mod.Bounds
	if bounds.MaxX == 0 && bounds.MaxY == 0 {
		bounds = defaultBounds
	}

	state := &FieldState{
		bounds:    bounds,
		meshCount: meshCount,
		demoSet:   demoPhotoURLs,
		onClick:   mod.OnPhotoClick,
		log:       app.Logger(),
	}
	app.AddResources(state)
	app.UseSystem(System(fieldCommitSystem).InStage(Update))

	state.ReloadPhotos(mod.PhotoURLs)
}

func fieldCommitSystem(state *FieldState) {
	state.commitPending()
}

// ReloadPhotos rebuilds the atlas and instance data from a new locator list,
// asynchronously. An empty list falls back to the demo set; if that is empty
// too, the current atlas stays bound and nothing happens. Rebuilds may
// overlap: each call bumps the generation and only the latest generation's
// result is ever committed, so a slow stale build can never overwrite a
// newer one.
func (s *FieldState) ReloadPhotos(urls []string) {
	if len(urls) == 0 {
		urls = s.demoSet
	}
	if len(urls) == 0 {
		s.log.Warnf("reload skipped: no photo locators and no demo set")
		return
	}

	s.mu.Lock()
	s.generation++
	generation := s.generation
	s.mu.Unlock()

	go s.runBuild(generation, urls)
}

func (s *FieldState) runBuild(generation uint64, urls []string) {
	bitmaps := LoadBitmaps(urls, s.log)
	if len(bitmaps) < len(urls) {
		s.log.Infof("loaded %d of %d photos", len(bitmaps), len(urls))
	}

	atlas, infos, err := BuildAtlas(bitmaps)
	if err != nil {
		// Nothing decoded; keep showing the last good atlas.
		s.log.Warnf("atlas build aborted: %v", err)
		return
	}

	blurred := BuildBlurAtlas(atlas)
	if blurred == nil {
		s.log.Warnf("blur atlas unavailable, rendering without placeholder")
	}

	s.offer(&fieldBuild{
		id:         uuid.New(),
		generation: generation,
		atlas:      atlas,
		blurred:    blurred,
		infos:      infos,
	})
}

// offer parks a finished build for commit, unless a newer reload has been
// requested since it started.
func (s *FieldState) offer(build *fieldBuild) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if build.generation != s.generation {
		s.log.Debugf("discarding stale atlas build (generation %d, latest %d)",
			build.generation, s.generation)
		return
	}
	s.pending = build
}

// commitPending swaps in the parked build, if any. Runs once per frame on
// the render thread; the whole image-info table and every instance buffer
// are replaced atomically.
func (s *FieldState) commitPending() bool {
	s.mu.Lock()
	build := s.pending
	s.pending = nil
	if build != nil && build.generation != s.generation {
		build = nil
	}
	s.mu.Unlock()

	if build == nil {
		return false
	}

	instances, err := GenerateInstances(build.infos, s.bounds, s.meshCount)
	if err != nil {
		s.log.Warnf("instance generation skipped: %v", err)
		return false
	}

	s.mu.Lock()
	s.buildID = build.id
	s.infos = build.infos
	s.instances = instances
	s.atlas = build.atlas
	s.blurred = build.blurred
	s.version++
	s.mu.Unlock()

	s.log.Infof("photo field rebuilt: build %s, %d photos across %d cards",
		build.id, len(build.infos), s.meshCount)
	return true
}

// renderSnapshot hands the committed atlas data to the GPU sync step.
func (s *FieldState) renderSnapshot() (atlas, blurred *image.RGBA, instances *InstanceBuffers, version uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.atlas, s.blurred, s.instances, s.version
}

// BuildID identifies the committed atlas build, for texture labels and logs.
func (s *FieldState) BuildID() uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buildID
}

// PhotoCount reports how many distinct photos are packed in the atlas.
func (s *FieldState) PhotoCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.infos)
}

// PhotoIndexForInstance maps a GPU instance id back to its photo, or -1 when
// the id is out of range or nothing is committed yet. The mapping is always
// instanceID mod PhotoCount, the same round-robin used at generation time.
func (s *FieldState) PhotoIndexForInstance(instanceID int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if instanceID < 0 || instanceID >= s.meshCount || len(s.infos) == 0 {
		return -1
	}
	return instanceID % len(s.infos)
}

// HandleClick resolves a hit-tested instance id and invokes the click
// callback with the mapped photo index.
func (s *FieldState) HandleClick(instanceID int) {
	photoIndex := s.PhotoIndexForInstance(instanceID)
	if photoIndex < 0 {
		return
	}
	if s.onClick != nil {
		s.onClick(instanceID, photoIndex)
	}
}

// Bounds returns the world-space half-extents of the field.
func (s *FieldState) Bounds() FieldBounds {
	return s.bounds
}
