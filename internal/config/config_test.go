package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Graphics.Width != 1280 || cfg.Graphics.Height != 720 {
		t.Errorf("expected 1280x720, got %dx%d", cfg.Graphics.Width, cfg.Graphics.Height)
	}
	if cfg.API.MarkersPath != "/markers" {
		t.Errorf("expected markers path /markers, got %s", cfg.API.MarkersPath)
	}
	if cfg.API.Timeout != 15*time.Second {
		t.Errorf("expected timeout 15s, got %v", cfg.API.Timeout)
	}

	if !cfg.Markers.Clustering {
		t.Error("expected clustering to be enabled by default")
	}
	if cfg.Markers.ClusterRadius != 50 {
		t.Errorf("expected cluster radius 50, got %v", cfg.Markers.ClusterRadius)
	}
	if cfg.Markers.ReadyRetryDelay != time.Second {
		t.Errorf("expected ready retry delay 1s, got %v", cfg.Markers.ReadyRetryDelay)
	}
	if cfg.Markers.ReadyMaxRetries <= 0 {
		t.Errorf("expected a bounded positive retry count, got %d", cfg.Markers.ReadyMaxRetries)
	}

	if cfg.Avatar.BaseIdle != "idle" || cfg.Avatar.Walking != "walk" {
		t.Errorf("unexpected avatar clip names: %q / %q", cfg.Avatar.BaseIdle, cfg.Avatar.Walking)
	}
	if cfg.Avatar.VariationMinDuration > cfg.Avatar.VariationMaxDuration {
		t.Error("variation min duration should not exceed max")
	}

	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "greenmap.yaml")

	yamlContent := `
graphics:
  width: 1920
  height: 1080
  fullscreen: true

api:
  base_url: "https://api.example.org"
  token: "abc"
  timeout: 5s

map:
  center_lng: 13.405
  center_lat: 52.52
  zoom: 12

markers:
  clustering: false
  cluster_radius: 80
  ready_retry_delay: 250ms
  ready_max_retries: 4

avatar:
  model_url: "https://models.example.org/me.glb"
  animation_names: ["idle", "walk", "wave"]
  base_idle_duration: 10s

logging:
  level: "debug"
  log_file: "greenmap.log"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Graphics.Width != 1920 || !cfg.Graphics.Fullscreen {
		t.Errorf("graphics not loaded: %+v", cfg.Graphics)
	}
	if cfg.API.BaseURL != "https://api.example.org" || cfg.API.Token != "abc" {
		t.Errorf("api not loaded: %+v", cfg.API)
	}
	if cfg.API.Timeout != 5*time.Second {
		t.Errorf("expected timeout 5s, got %v", cfg.API.Timeout)
	}
	if cfg.API.MarkersPath != "/markers" {
		t.Errorf("unset fields should keep defaults, got markers path %q", cfg.API.MarkersPath)
	}
	if cfg.Map.CenterLat != 52.52 || cfg.Map.Zoom != 12 {
		t.Errorf("map not loaded: %+v", cfg.Map)
	}
	if cfg.Markers.Clustering {
		t.Error("expected clustering to be disabled")
	}
	if cfg.Markers.ReadyRetryDelay != 250*time.Millisecond || cfg.Markers.ReadyMaxRetries != 4 {
		t.Errorf("retry settings not loaded: %+v", cfg.Markers)
	}
	if len(cfg.Avatar.AnimationNames) != 3 || cfg.Avatar.AnimationNames[2] != "wave" {
		t.Errorf("animation names not loaded: %v", cfg.Avatar.AnimationNames)
	}
	if cfg.Avatar.BaseIdleDuration != 10*time.Second {
		t.Errorf("expected base idle 10s, got %v", cfg.Avatar.BaseIdleDuration)
	}
	if cfg.Logging.LogFile != "greenmap.log" {
		t.Errorf("expected log file 'greenmap.log', got %s", cfg.Logging.LogFile)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "invalid.yaml")
	invalidYAML := `
graphics:
  width: not a number
  invalid syntax here
`
	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	if err := loadFromFile(Default(), configPath); err == nil {
		t.Error("expected error loading invalid YAML, got nil")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	if err := loadFromFile(Default(), "/nonexistent/path/config.yaml"); err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()
	if dir == "" {
		t.Fatal("ConfigDir returned empty string")
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestSaveToRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.Markers.ClusterRadius = 64
	cfg.Avatar.CrossfadeDuration = 750 * time.Millisecond
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("reloading saved config: %v", err)
	}
	if loaded.Markers.ClusterRadius != 64 {
		t.Errorf("expected cluster radius 64, got %v", loaded.Markers.ClusterRadius)
	}
	if loaded.Avatar.CrossfadeDuration != 750*time.Millisecond {
		t.Errorf("expected crossfade 750ms, got %v", loaded.Avatar.CrossfadeDuration)
	}
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name     string
		setup    func()
		verify   func(*testing.T, *Config)
		teardown func()
	}{
		{
			name:  "debug flag",
			setup: func() { *flagDebug = true },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
				if !cfg.Graphics.ShowFPS {
					t.Error("expected show_fps with debug flag")
				}
			},
			teardown: func() { *flagDebug = false },
		},
		{
			name:  "api flag",
			setup: func() { *flagAPI = "https://staging.example.org" },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.API.BaseURL != "https://staging.example.org" {
					t.Errorf("expected staging base url, got %s", cfg.API.BaseURL)
				}
			},
			teardown: func() { *flagAPI = "" },
		},
		{
			name:  "no-cluster flag",
			setup: func() { *flagNoCluster = true },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Markers.Clustering {
					t.Error("expected clustering disabled with no-cluster flag")
				}
			},
			teardown: func() { *flagNoCluster = false },
		},
		{
			name: "width and height flags",
			setup: func() {
				*flagWidth = 2560
				*flagHeight = 1440
			},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Graphics.Width != 2560 || cfg.Graphics.Height != 1440 {
					t.Errorf("expected 2560x1440, got %dx%d", cfg.Graphics.Width, cfg.Graphics.Height)
				}
			},
			teardown: func() {
				*flagWidth = 0
				*flagHeight = 0
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			defer tt.teardown()

			cfg := Default()
			applyFlags(cfg)
			tt.verify(t, cfg)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "greenmap.yaml")
	yamlContent := `
graphics:
  width: 1600
  height: 900
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	*flagConfig = configPath
	*flagWidth = 1920
	defer func() {
		*flagConfig = ""
		*flagWidth = 0
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Graphics.Width != 1920 {
		t.Errorf("expected width 1920 from flag, got %d", cfg.Graphics.Width)
	}
	if cfg.Graphics.Height != 900 {
		t.Errorf("expected height 900 from file, got %d", cfg.Graphics.Height)
	}
}
