// Package config handles client configuration loading and management.
package config

import "time"

// Config holds all client settings.
type Config struct {
	Graphics    GraphicsConfig    `yaml:"graphics"`
	API         APIConfig         `yaml:"api"`
	Map         MapConfig         `yaml:"map"`
	Markers     MarkersConfig     `yaml:"markers"`
	Avatar      AvatarConfig      `yaml:"avatar"`
	Geolocation GeolocationConfig `yaml:"geolocation"`
	Assets      AssetsConfig      `yaml:"assets"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// GraphicsConfig holds display and rendering settings.
type GraphicsConfig struct {
	Width      int  `yaml:"width"`
	Height     int  `yaml:"height"`
	Fullscreen bool `yaml:"fullscreen"`
	VSync      bool `yaml:"vsync"`
	ShowFPS    bool `yaml:"show_fps"`
	ShowGrid   bool `yaml:"show_grid"`
	GridRadius int  `yaml:"grid_radius"`
	// ScreenshotDir is where P writes frame captures.
	ScreenshotDir string `yaml:"screenshot_dir"`
}

// APIConfig holds backend connection settings.
type APIConfig struct {
	BaseURL     string        `yaml:"base_url"`
	MarkersPath string        `yaml:"markers_path"`
	Token       string        `yaml:"token"`
	Timeout     time.Duration `yaml:"timeout"`
}

// MapConfig holds the initial camera and zoom limits.
type MapConfig struct {
	CenterLng float64 `yaml:"center_lng"`
	CenterLat float64 `yaml:"center_lat"`
	Zoom      float64 `yaml:"zoom"`
	Pitch     float64 `yaml:"pitch"`
	Bearing   float64 `yaml:"bearing"`
	MinZoom   float64 `yaml:"min_zoom"`
	MaxZoom   float64 `yaml:"max_zoom"`
}

// MarkersConfig holds marker rendering and clustering settings.
type MarkersConfig struct {
	Clustering           bool          `yaml:"clustering"`
	ClusterRadius        float64       `yaml:"cluster_radius"`
	ClusterMaxZoom       int           `yaml:"cluster_max_zoom"`
	ClusterZoomThreshold float64       `yaml:"cluster_zoom_threshold"`
	ClusterZoomOffset    float64       `yaml:"cluster_zoom_offset"`
	ClusterEaseDuration  time.Duration `yaml:"cluster_ease_duration"`
	ReadyRetryDelay      time.Duration `yaml:"ready_retry_delay"`
	ReadyMaxRetries      int           `yaml:"ready_max_retries"`
	StaggerStep          time.Duration `yaml:"stagger_step"`
	ImageSize            int           `yaml:"image_size"`
	ImageConcurrency     int           `yaml:"image_concurrency"`
}

// AvatarConfig holds avatar asset locations and animation timing.
type AvatarConfig struct {
	ModelURL                 string        `yaml:"model_url"`
	AnimationsDir            string        `yaml:"animations_dir"`
	AnimationNames           []string      `yaml:"animation_names"`
	BaseIdle                 string        `yaml:"base_idle"`
	Walking                  string        `yaml:"walking"`
	InitialVariationDuration time.Duration `yaml:"initial_variation_duration"`
	BaseIdleDuration         time.Duration `yaml:"base_idle_duration"`
	VariationMinDuration     time.Duration `yaml:"variation_min_duration"`
	VariationMaxDuration     time.Duration `yaml:"variation_max_duration"`
	CrossfadeDuration        time.Duration `yaml:"crossfade_duration"`
	ScaleMeters              float64       `yaml:"scale_meters"`
	RotationDeg              float64       `yaml:"rotation_deg"`
}

// GeolocationConfig holds the fallback user position and cache lifetime.
type GeolocationConfig struct {
	Lng      float64       `yaml:"lng"`
	Lat      float64       `yaml:"lat"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

// AssetsConfig lists local directories searched for relative asset paths,
// later roots first.
type AssetsConfig struct {
	Roots []string `yaml:"roots"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Graphics: GraphicsConfig{
			Width:         1280,
			Height:        720,
			VSync:         true,
			ShowGrid:      true,
			GridRadius:    6,
			ScreenshotDir: "screenshots",
		},
		API: APIConfig{
			BaseURL:     "http://127.0.0.1:8080/api",
			MarkersPath: "/markers",
			Timeout:     15 * time.Second,
		},
		Map: MapConfig{
			CenterLng: -0.1276,
			CenterLat: 51.5072,
			Zoom:      15,
			Pitch:     60,
			MinZoom:   2,
			MaxZoom:   20,
		},
		Markers: MarkersConfig{
			Clustering:           true,
			ClusterRadius:        50,
			ClusterMaxZoom:       14,
			ClusterZoomThreshold: 14,
			ClusterZoomOffset:    1,
			ClusterEaseDuration:  500 * time.Millisecond,
			ReadyRetryDelay:      time.Second,
			ReadyMaxRetries:      30,
			StaggerStep:          50 * time.Millisecond,
			ImageSize:            64,
			ImageConcurrency:     4,
		},
		Avatar: AvatarConfig{
			ModelURL:      "assets/avatar.glb",
			AnimationsDir: "assets/animations",
			AnimationNames: []string{
				"idle", "walk",
				"idle_variation_1", "idle_variation_2", "idle_variation_3", "idle_variation_4",
			},
			BaseIdle:                 "idle",
			Walking:                  "walk",
			InitialVariationDuration: 3 * time.Second,
			BaseIdleDuration:         8 * time.Second,
			VariationMinDuration:     3 * time.Second,
			VariationMaxDuration:     6 * time.Second,
			CrossfadeDuration:        500 * time.Millisecond,
			ScaleMeters:              1.8,
		},
		Geolocation: GeolocationConfig{
			Lng:      -0.1276,
			Lat:      51.5072,
			CacheTTL: 5 * time.Minute,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
