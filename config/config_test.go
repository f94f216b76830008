package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "pipeline:\n  max_clips: 2\n"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Pipeline.MaxClips != 2 {
		t.Errorf("max_clips = %d, want 2", cfg.Pipeline.MaxClips)
	}
	if cfg.Pipeline.FinalVideoName != "summary_video.mp4" {
		t.Errorf("final_video_name default = %q", cfg.Pipeline.FinalVideoName)
	}
	if cfg.Storyboard.Model == "" {
		t.Error("storyboard model default missing")
	}
	if cfg.Render.Width != 1280 || cfg.Render.Height != 720 || cfg.Render.FPS != 24 {
		t.Errorf("render defaults = %dx%d@%d", cfg.Render.Width, cfg.Render.Height, cfg.Render.FPS)
	}
	if cfg.Closing.PollIntervalSec != 15 || cfg.Closing.TimeoutSec != 300 {
		t.Errorf("closing poll defaults = %d/%d", cfg.Closing.PollIntervalSec, cfg.Closing.TimeoutSec)
	}
}

func TestLoadFullConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
storyboard:
  model: claude-3-5-sonnet-20241022
  max_tokens: 4096
  use_base64: true
pipeline:
  max_clips: 6
  final_video_name: out.mp4
  append_closing: true
render:
  quality: -ql
  max_concurrent: 4
closing:
  poll_interval_sec: 5
  timeout_sec: 60
`))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if !cfg.Storyboard.UseBase64 {
		t.Error("use_base64 not loaded")
	}
	if cfg.Storyboard.MaxTokens != 4096 {
		t.Errorf("max_tokens = %d", cfg.Storyboard.MaxTokens)
	}
	if cfg.Pipeline.MaxClips != 6 {
		t.Errorf("max_clips = %d", cfg.Pipeline.MaxClips)
	}
	if cfg.Render.Quality != "-ql" {
		t.Errorf("quality = %q", cfg.Render.Quality)
	}
	if cfg.Closing.PollIntervalSec != 5 || cfg.Closing.TimeoutSec != 60 {
		t.Errorf("closing poll = %d/%d", cfg.Closing.PollIntervalSec, cfg.Closing.TimeoutSec)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
