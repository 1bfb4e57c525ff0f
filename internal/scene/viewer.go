package scene

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"urban3d/internal/building"
	"urban3d/internal/geom"
	"urban3d/internal/logging"
	"urban3d/internal/raster"
)

// ErrSurfaceUnavailable is returned by Init when the host cannot provide a
// drawable surface.
var ErrSurfaceUnavailable = errors.New("scene: render surface unavailable")

// Viewport reports the drawable size in pixels.
type Viewport interface {
	Size() (w, h int)
}

// ViewportFunc adapts a function to Viewport.
type ViewportFunc func() (int, int)

func (f ViewportFunc) Size() (int, int) { return f() }

// Recorder receives viewer metrics. *observability.Collector satisfies it.
type Recorder interface {
	Rebuilt(meshes, skipped int)
	Picked(hit bool)
	Highlighted(n int)
	FrameRendered(d time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) Rebuilt(int, int)            {}
func (nopRecorder) Picked(bool)                 {}
func (nopRecorder) Highlighted(int)             {}
func (nopRecorder) FrameRendered(time.Duration) {}

// Options configures colours, lighting and instrumentation.
type Options struct {
	Logger     logging.Logger
	Metrics    Recorder
	Background raster.Color
	Ground     raster.Color
	Default    raster.Color
	Highlight  raster.Color
	GroundSize float64
	Light      raster.Light
}

// DefaultOptions returns the stock palette: light background, grey ground,
// blue buildings and red highlights.
func DefaultOptions() Options {
	return Options{
		Background: raster.Hex(0xf5f7fb),
		Ground:     raster.Hex(0x9aa0a6),
		Default:    raster.Hex(0x6aaefc),
		Highlight:  raster.Hex(0xff6b6b),
		GroundSize: 4000,
		Light: raster.Light{
			Ambient:     0.8,
			Directional: 0.6,
			Dir:         mgl64.Vec3{120, -80, 200},
		},
	}
}

// Skip records a building rejected during a rebuild.
type Skip struct {
	ID  int64
	Err error
}

// RebuildStats summarises one LoadData call.
type RebuildStats struct {
	Built   int
	Skipped []Skip
}

// Viewer owns the scene: camera, controls, framebuffer, meshes, pick index
// and highlight state. It is driven from a single goroutine and is not safe
// for concurrent use.
type Viewer struct {
	opts Options
	log  logging.Logger

	vp       Viewport
	cam      *Camera
	controls *Controls
	fb       *raster.Framebuffer

	meshes    []*Mesh
	byID      map[int64]*Mesh
	index     *pickIndex
	highlight map[int64]struct{}
	// ground is the side of the ground plane, grown to cover the content
	ground float64

	listeners  []pickListener
	nextListen int

	running  bool
	disposed bool
}

type pickListener struct {
	id int
	fn func(*building.Building)
}

// NewViewer returns an uninitialised viewer. Zero-valued colours in opts
// fall back to DefaultOptions.
func NewViewer(opts Options) *Viewer {
	def := DefaultOptions()
	if opts.Background == (raster.Color{}) {
		opts.Background = def.Background
	}
	if opts.Ground == (raster.Color{}) {
		opts.Ground = def.Ground
	}
	if opts.Default == (raster.Color{}) {
		opts.Default = def.Default
	}
	if opts.Highlight == (raster.Color{}) {
		opts.Highlight = def.Highlight
	}
	if opts.GroundSize <= 0 {
		opts.GroundSize = def.GroundSize
	}
	if opts.Light == (raster.Light{}) {
		opts.Light = def.Light
	}
	if opts.Logger == nil {
		opts.Logger = logging.Noop()
	}
	if opts.Metrics == nil {
		opts.Metrics = nopRecorder{}
	}
	return &Viewer{
		opts:      opts,
		log:       opts.Logger.With(logging.String("component", "scene")),
		byID:      map[int64]*Mesh{},
		highlight: map[int64]struct{}{},
	}
}

// Init binds the viewer to vp, creates camera, controls and framebuffer and
// starts the render loop.
func (v *Viewer) Init(vp Viewport) error {
	if v.disposed {
		return fmt.Errorf("%w: viewer disposed", ErrSurfaceUnavailable)
	}
	if vp == nil {
		return fmt.Errorf("%w: no viewport", ErrSurfaceUnavailable)
	}
	w, h := vp.Size()
	if w <= 0 || h <= 0 {
		return fmt.Errorf("%w: viewport size %dx%d", ErrSurfaceUnavailable, w, h)
	}
	v.vp = vp
	v.cam = NewCamera()
	v.cam.Aspect = float64(w) / float64(h)
	v.controls = NewControls(v.cam)
	v.fb = raster.NewFramebuffer(w, h)
	v.running = true
	if len(v.meshes) > 0 {
		v.Fit()
	}
	v.log.Debug(context.Background(), "viewer initialised", logging.Int("width", w), logging.Int("height", h))
	return nil
}

// Resize re-reads the viewport size. A zero size is ignored and the previous
// surface kept.
func (v *Viewer) Resize() {
	if !v.running {
		return
	}
	w, h := v.vp.Size()
	if w <= 0 || h <= 0 {
		return
	}
	if w == v.fb.W && h == v.fb.H {
		return
	}
	v.cam.Aspect = float64(w) / float64(h)
	v.fb.Resize(w, h)
}

// LoadData replaces the mesh set with meshes built from bs. Buildings that
// cannot be extruded are skipped and reported in the stats. The camera is
// fitted to the new content and the current highlight set reapplied.
func (v *Viewer) LoadData(bs []building.Building) RebuildStats {
	var stats RebuildStats
	if v.disposed {
		return stats
	}
	ctx := context.Background()
	// the viewer keeps its own copy; meshes point into it
	bs = append([]building.Building(nil), bs...)

	meshes := make([]*Mesh, 0, len(bs))
	byID := make(map[int64]*Mesh, len(bs))
	// with no valid building every BuildMesh call fails validation, so the
	// zero projector is never used
	p, _ := geom.ProjectorFor(bs)
	for i := range bs {
		b := &bs[i]
		if _, dup := byID[b.ID]; dup {
			stats.Skipped = append(stats.Skipped, Skip{ID: b.ID, Err: fmt.Errorf("%w: id=%d", ErrDuplicateID, b.ID)})
			continue
		}
		m, err := BuildMesh(b, p)
		if err != nil {
			stats.Skipped = append(stats.Skipped, Skip{ID: b.ID, Err: err})
			continue
		}
		m.Color = v.opts.Default
		meshes = append(meshes, m)
		byID[b.ID] = m
	}
	for _, s := range stats.Skipped {
		v.log.Warn(ctx, "building skipped", logging.Int64("id", s.ID), logging.Err(s.Err))
	}

	v.clearMeshes()
	v.meshes, v.byID = meshes, byID
	stats.Built = len(meshes)
	v.fit()
	v.index = newPickIndex(v.meshes)
	v.applyHighlight()

	v.opts.Metrics.Rebuilt(stats.Built, len(stats.Skipped))
	v.log.Info(ctx, "scene rebuilt", logging.Int("meshes", stats.Built), logging.Int("skipped", len(stats.Skipped)))
	return stats
}

func (v *Viewer) clearMeshes() {
	if v.index != nil {
		v.index.clear()
		v.index = nil
	}
	for _, m := range v.meshes {
		m.dispose()
	}
	v.meshes = nil
	v.byID = map[int64]*Mesh{}
	v.ground = 0
	if v.controls != nil {
		v.controls.MaxDistance = DefaultMaxDistance
	}
}

// FitDistance returns the horizontal offset d and elevation e of the fitted
// camera for content whose larger horizontal side is maxHoriz meters.
func FitDistance(maxHoriz float64) (d, e float64) {
	return math.Max(200, maxHoriz*1.2), math.Max(150, maxHoriz*0.6)
}

// Bounds returns the world AABB of every mesh.
func (v *Viewer) Bounds() AABB {
	box := emptyAABB()
	for _, m := range v.meshes {
		box = box.Union(m.WorldBounds())
	}
	return box
}

// fit centres the meshes horizontally on the origin and places the camera
// at (d, e, d) looking at it. No-op for an empty scene.
func (v *Viewer) fit() {
	if len(v.meshes) == 0 {
		return
	}
	box := v.Bounds()
	c := box.Center()
	off := mgl64.Vec3{c.X(), 0, c.Z()}
	for _, m := range v.meshes {
		m.Position = m.Position.Sub(off)
	}
	size := box.Size()
	horiz := math.Max(size.X(), size.Z())
	d, e := FitDistance(horiz)
	v.ground = math.Max(v.opts.GroundSize, 2*horiz)
	if v.cam != nil {
		v.cam.Position = mgl64.Vec3{d, e, d}
		v.controls.Reset(mgl64.Vec3{})
		// keep the fitted view reachable: room to zoom out to twice the fit
		radius := math.Sqrt(2*d*d + e*e)
		v.controls.MaxDistance = math.Max(DefaultMaxDistance, 2*radius)
	}
}

// GroundSize is the side of the ground plane currently drawn.
func (v *Viewer) GroundSize() float64 { return math.Max(v.opts.GroundSize, v.ground) }

// Fit re-frames the current content, as after a rebuild.
func (v *Viewer) Fit() {
	if v.disposed {
		return
	}
	v.fit()
	v.index = newPickIndex(v.meshes)
}

// Dispose stops the loop and releases meshes, framebuffer, controls and
// listeners. It is idempotent.
func (v *Viewer) Dispose() {
	if v.disposed {
		return
	}
	v.running = false
	v.disposed = true
	v.clearMeshes()
	if v.controls != nil {
		v.controls.Dispose()
	}
	v.controls = nil
	v.fb = nil
	v.vp = nil
	v.listeners = nil
	v.highlight = map[int64]struct{}{}
}

func (v *Viewer) Camera() *Camera                  { return v.cam }
func (v *Viewer) Controls() *Controls              { return v.controls }
func (v *Viewer) Framebuffer() *raster.Framebuffer { return v.fb }
func (v *Viewer) Running() bool                    { return v.running }

// Meshes returns the current mesh set in input order.
func (v *Viewer) Meshes() []*Mesh { return v.meshes }

// Mesh looks up the mesh of building id.
func (v *Viewer) Mesh(id int64) (*Mesh, bool) {
	m, ok := v.byID[id]
	return m, ok
}
