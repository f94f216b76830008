package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Storyboard StoryboardConfig `yaml:"storyboard"`
	Pipeline   PipelineConfig   `yaml:"pipeline"`
	Render     RenderConfig     `yaml:"render"`
	Narration  NarrationConfig  `yaml:"narration"`
	Compose    ComposeConfig    `yaml:"compose"`
	Closing    ClosingConfig    `yaml:"closing"`
	Paths      PathsConfig      `yaml:"paths"`
}

type StoryboardConfig struct {
	Model     string `yaml:"model"`
	MaxTokens int    `yaml:"max_tokens"`
	UseBase64 bool   `yaml:"use_base64"`
}

type PipelineConfig struct {
	MaxClips       int    `yaml:"max_clips"`
	FinalVideoName string `yaml:"final_video_name"`
	AppendClosing  bool   `yaml:"append_closing"`
}

type RenderConfig struct {
	Quality       string `yaml:"quality"` // manim quality flag: -ql | -qm | -qh
	Width         int    `yaml:"width"`
	Height        int    `yaml:"height"`
	FPS           int    `yaml:"fps"`
	MaxConcurrent int    `yaml:"max_concurrent"`
}

type NarrationConfig struct {
	Voice        string  `yaml:"voice"`
	LanguageCode string  `yaml:"language_code"`
	SampleRateHz int     `yaml:"sample_rate_hz"`
	SpeakingRate float64 `yaml:"speaking_rate"`
}

type ComposeConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
	FPS    int `yaml:"fps"`
}

type ClosingConfig struct {
	VeoModel        string `yaml:"veo_model"`
	PollIntervalSec int    `yaml:"poll_interval_sec"`
	TimeoutSec      int    `yaml:"timeout_sec"`
}

type PathsConfig struct {
	Output string `yaml:"output"`
	Logs   string `yaml:"logs"`
}

// Load reads config.yaml and returns a Config struct
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// applyDefaults fills zero values so a sparse config.yaml still works
func (c *Config) applyDefaults() {
	if c.Storyboard.Model == "" {
		c.Storyboard.Model = "claude-3-5-sonnet-20241022"
	}
	if c.Storyboard.MaxTokens == 0 {
		c.Storyboard.MaxTokens = 8192
	}
	if c.Pipeline.MaxClips == 0 {
		c.Pipeline.MaxClips = 4
	}
	if c.Pipeline.FinalVideoName == "" {
		c.Pipeline.FinalVideoName = "summary_video.mp4"
	}
	if c.Render.Quality == "" {
		c.Render.Quality = "-qm"
	}
	if c.Render.Width == 0 {
		c.Render.Width = 1280
	}
	if c.Render.Height == 0 {
		c.Render.Height = 720
	}
	if c.Render.FPS == 0 {
		c.Render.FPS = 24
	}
	if c.Render.MaxConcurrent == 0 {
		c.Render.MaxConcurrent = 2
	}
	if c.Narration.Voice == "" {
		c.Narration.Voice = "en-US-Neural2-D"
	}
	if c.Narration.LanguageCode == "" {
		c.Narration.LanguageCode = "en-US"
	}
	if c.Narration.SampleRateHz == 0 {
		c.Narration.SampleRateHz = 24000
	}
	if c.Narration.SpeakingRate == 0 {
		c.Narration.SpeakingRate = 1.0
	}
	if c.Compose.Width == 0 {
		c.Compose.Width = 1280
	}
	if c.Compose.Height == 0 {
		c.Compose.Height = 720
	}
	if c.Compose.FPS == 0 {
		c.Compose.FPS = 24
	}
	if c.Closing.VeoModel == "" {
		c.Closing.VeoModel = "veo-2.0-generate-001"
	}
	if c.Closing.PollIntervalSec == 0 {
		c.Closing.PollIntervalSec = 15
	}
	if c.Closing.TimeoutSec == 0 {
		c.Closing.TimeoutSec = 300
	}
	if c.Paths.Output == "" {
		c.Paths.Output = "output"
	}
	if c.Paths.Logs == "" {
		c.Paths.Logs = "logs"
	}
}
