package app

import (
	"context"
	"fmt"
	"time"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/greenmap/internal/api"
	"github.com/Faultbox/greenmap/internal/assets"
	"github.com/Faultbox/greenmap/internal/avatar"
	"github.com/Faultbox/greenmap/internal/config"
	"github.com/Faultbox/greenmap/internal/engine/camera"
	"github.com/Faultbox/greenmap/internal/engine/debug"
	"github.com/Faultbox/greenmap/internal/engine/input"
	"github.com/Faultbox/greenmap/internal/engine/renderer"
	"github.com/Faultbox/greenmap/internal/engine/texture"
	"github.com/Faultbox/greenmap/internal/engine/ui2d"
	"github.com/Faultbox/greenmap/internal/engine/window"
	"github.com/Faultbox/greenmap/internal/geo"
	"github.com/Faultbox/greenmap/internal/geolocation"
	"github.com/Faultbox/greenmap/internal/logger"
	"github.com/Faultbox/greenmap/internal/mapview"
	"github.com/Faultbox/greenmap/internal/markers"
)

// Title is the window title.
const Title = "GreenMap"

// App is the map client.
type App struct {
	cfg     *config.Config
	log     *zap.Logger
	running bool
	err     error

	ctx    context.Context
	cancel context.CancelFunc

	window   *window.Window
	renderer *renderer.MapRenderer
	input    *input.Input
	ui       *ui2d.Context
	states   *Manager

	mapView     *mapview.Map
	camera      *camera.MapCamera
	assets      *assets.Manager
	images      *texture.Library
	markers     *markers.Manager
	avatarLayer *avatar.Layer
	controls    *Controls
	hud         *HUD
	mapState    *MapState
	screenshots *debug.Screenshots

	// loaded is written by the avatar task and read after the loading
	// barrier.
	loaded *avatar.Avatar

	showGrid       bool
	capturePending bool
}

// New creates the window, the GL renderer and every map service.
func New(cfg *config.Config) (*App, error) {
	a := &App{
		cfg:      cfg,
		log:      logger.Named("app"),
		showGrid: cfg.Graphics.ShowGrid,
	}
	a.log.Info("initializing",
		zap.Int("width", cfg.Graphics.Width),
		zap.Int("height", cfg.Graphics.Height),
		zap.String("api", cfg.API.BaseURL),
	)
	a.ctx, a.cancel = context.WithCancel(context.Background())

	// Create window (this also creates the OpenGL context)
	var err error
	a.window, err = window.New(window.ConfigFrom(Title, cfg.Graphics))
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}
	width, height := a.window.Size()
	drawW, drawH := a.window.DrawableSize()

	a.assets = assets.NewManager(assets.WithLogger(logger.Named("assets")))
	for _, root := range cfg.Assets.Roots {
		if err := a.assets.AddRoot(root); err != nil {
			a.log.Warn("skipping asset root", zap.String("root", root), zap.Error(err))
		}
	}
	a.images = texture.NewLibrary(a.assets, texture.LibraryOptions{
		ThumbnailSize: cfg.Markers.ImageSize,
		Concurrency:   cfg.Markers.ImageConcurrency,
		Logger:        logger.Named("images"),
	})

	// Create renderer (AFTER window, since the OpenGL context must exist)
	a.renderer, err = renderer.New(renderer.Options{
		Width:      width,
		Height:     height,
		ShowGrid:   cfg.Graphics.ShowGrid,
		GridRadius: cfg.Graphics.GridRadius,
		Images:     a.images,
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}
	a.renderer.Resize(width, height, drawW, drawH)

	a.input = input.New()
	a.ui = ui2d.NewContext(a.renderer.Overlay(), width, height)

	a.mapView = mapview.New(mapview.Options{
		Camera: mapview.Camera{
			Center:  geo.LngLat{Lng: cfg.Map.CenterLng, Lat: cfg.Map.CenterLat},
			Zoom:    cfg.Map.Zoom,
			Pitch:   cfg.Map.Pitch,
			Bearing: cfg.Map.Bearing,
		},
		Width:   float64(width),
		Height:  float64(height),
		MinZoom: cfg.Map.MinZoom,
		MaxZoom: cfg.Map.MaxZoom,
	})
	// The ground grid needs no style download.
	a.mapView.SetStyleLoaded()
	a.camera = camera.NewMapCamera(a.mapView)

	if err := a.initServices(); err != nil {
		a.Close()
		return nil, err
	}

	a.states = NewManager()
	a.states.Change(NewLoadingState(a.ctx, a.loadTasks(), a.ui, logger.Named("loading"), a.onLoaded))

	a.log.Info("initialized")
	return a, nil
}

func (a *App) initServices() error {
	cfg := a.cfg

	client := api.New(cfg.API.BaseURL,
		api.WithToken(cfg.API.Token),
		api.WithMarkersPath(cfg.API.MarkersPath),
		api.WithTimeout(cfg.API.Timeout),
		api.WithLogger(logger.Named("api")),
	)

	geoOpts := geolocation.OptionsFromConfig(cfg.Geolocation)
	geoOpts.Logger = logger.Named("geolocation")

	a.controls = &Controls{
		Camera:       a.camera,
		Locator:      geolocation.New(geoOpts),
		RefreshDelay: cfg.Markers.StaggerStep,
		Log:          logger.Named("controls"),
	}

	markerOpts := markers.OptionsFromConfig(cfg.Markers)
	markerOpts.OnMarkerClick = a.controls.Select
	a.markers = markers.New(a.mapView, client, markerOpts)
	a.controls.Markers = a.markers

	sm := avatar.NewStateMachine(avatar.Options{Config: avatar.ConfigFrom(cfg.Avatar)})
	a.avatarLayer = avatar.NewLayer(sm, avatar.LayerOptions{
		Position:    a.mapView.Camera().Center,
		ScaleMeters: cfg.Avatar.ScaleMeters,
		RotationDeg: cfg.Avatar.RotationDeg,
	})
	if err := a.mapView.AddCustomLayer(a.avatarLayer); err != nil {
		return fmt.Errorf("adding avatar layer: %w", err)
	}
	a.controls.Avatar = sm
	a.controls.Layer = a.avatarLayer

	a.hud = NewHUD(a.ui, a.controls)
	a.hud.ShowFPS = cfg.Graphics.ShowFPS
	a.mapState = NewMapState(MapStateConfig{
		Map:      a.mapView,
		Camera:   a.camera,
		Controls: a.controls,
		HUD:      a.hud,
		UI:       a.ui,
		Hooks: Hooks{
			ToggleGrid: a.toggleGrid,
			Screenshot: func() { a.capturePending = true },
			Quit:       func() { a.running = false },
		},
		Logger: logger.Named("map"),
	})

	a.screenshots = debug.NewScreenshots(cfg.Graphics.ScreenshotDir, "greenmap", nil)
	return nil
}

// loadTasks are the startup steps run behind the loading screen.
func (a *App) loadTasks() []Task {
	return []Task{
		{
			Name: "Loading markers",
			Run: func(ctx context.Context) error {
				return a.markers.AddMarkers(ctx, a.cfg.Markers.StaggerStep)
			},
		},
		{
			Name:     "Loading avatar",
			Optional: true,
			Run: func(ctx context.Context) error {
				av, err := avatar.Load(ctx, a.assets, avatar.LoadOptions{
					ModelURL:      a.cfg.Avatar.ModelURL,
					AnimationsDir: a.cfg.Avatar.AnimationsDir,
					Names:         a.cfg.Avatar.AnimationNames,
				}, logger.Named("avatar"))
				if err != nil {
					return err
				}
				a.loaded = av
				return nil
			},
		},
		{
			Name:     "Locating",
			Optional: true,
			Run: func(ctx context.Context) error {
				pos, err := a.controls.Locator.Current(ctx)
				if err != nil {
					return err
				}
				return a.avatarLayer.SetPosition(pos)
			},
		},
	}
}

// onLoaded runs on the frame loop once every startup task has finished.
func (a *App) onLoaded(err error) {
	if err != nil {
		a.log.Error("startup failed", zap.Error(err))
		a.err = err
		a.running = false
		return
	}
	if a.loaded != nil {
		if err := a.avatarLayer.Attach(a.loaded); err != nil {
			a.log.Warn("avatar not attached", zap.Error(err))
		}
	}
	a.states.Change(a.mapState)
}

// Run starts the frame loop.
func (a *App) Run() error {
	a.running = true

	// Timing
	lastTime := time.Now()
	frameCount := 0
	fpsTimer := lastTime

	a.log.Info("starting frame loop")

	for a.running {
		now := time.Now()
		dt := now.Sub(lastTime)
		lastTime = now

		// 1. Process input
		if a.input.Update() {
			a.running = false
			break
		}
		a.feedUI()
		for _, ev := range a.input.Events() {
			if ev.Type == input.EventWindowResize {
				a.resize()
				continue
			}
			if err := a.states.HandleInput(ev); err != nil {
				return fmt.Errorf("input error: %w", err)
			}
		}

		// 2. Update map, layers and state
		a.mapView.Update(dt)
		if err := a.states.Update(dt); err != nil {
			return fmt.Errorf("update error: %w", err)
		}

		// 3. Render
		a.ui.Begin()
		a.renderer.Render(a.mapView, a.states.Render)
		a.ui.End()
		if a.capturePending {
			a.captureFrame()
		}

		// 4. Present
		a.window.SwapBuffers()

		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			a.mapState.SetFPS(float64(frameCount))
			if a.cfg.Graphics.ShowFPS {
				a.window.SetTitle(fmt.Sprintf("%s - %d FPS", Title, frameCount))
			}
			a.log.Debug("fps", zap.Int("count", frameCount), zap.Duration("dt", dt))
			frameCount = 0
			fpsTimer = time.Now()
		}
	}

	return a.err
}

// feedUI copies the pointer state into the HUD input.
func (a *App) feedUI() {
	in := a.ui.Input()
	x, y := a.input.Mouse()
	in.MouseX, in.MouseY = float32(x), float32(y)
	for _, ev := range a.input.Events() {
		if ev.Button != sdl.BUTTON_LEFT {
			continue
		}
		switch ev.Type {
		case input.EventMouseDown:
			in.MouseLeftDown = true
		case input.EventMouseUp:
			in.MouseLeftDown = false
		}
	}
}

func (a *App) resize() {
	width, height := a.window.Size()
	drawW, drawH := a.window.DrawableSize()
	a.renderer.Resize(width, height, drawW, drawH)
	a.ui.Resize(width, height)
	a.mapView.Resize(float64(width), float64(height))
}

func (a *App) toggleGrid() {
	a.showGrid = !a.showGrid
	a.renderer.SetShowGrid(a.showGrid)
}

// captureFrame reads back the frame before it is presented.
func (a *App) captureFrame() {
	a.capturePending = false
	w, h := a.window.DrawableSize()
	pixels := make([]byte, w*h*4)
	gl.ReadPixels(0, 0, int32(w), int32(h), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))

	path, err := a.screenshots.CaptureFromPixels(pixels, w, h)
	if err != nil {
		a.log.Error("screenshot failed", zap.Error(err))
		return
	}
	a.hud.SetStatus("Saved " + path)
}

// Close releases everything in reverse order of creation.
func (a *App) Close() {
	a.log.Info("closing")

	if a.cancel != nil {
		a.cancel()
	}
	if a.states != nil {
		if err := a.states.Exit(); err != nil {
			a.log.Warn("leaving state", zap.Error(err))
		}
	}
	if a.markers != nil {
		a.markers.Close()
	}
	if a.images != nil {
		a.images.Close()
	}
	if a.assets != nil {
		a.assets.Close()
	}
	if a.mapView != nil && a.avatarLayer != nil {
		a.mapView.RemoveCustomLayer(a.avatarLayer.ID())
	}
	if a.renderer != nil {
		a.renderer.Close()
	}
	if a.window != nil {
		a.window.Close()
	}
}
