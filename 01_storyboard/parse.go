package storyboard

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"paper-video-pipeline/types"
)

// Parse extracts a VideoConfig from the raw model response. It tries a
// strict JSON parse first, then falls back to the first top-level {...}
// span in case the model wrapped the object in extra text.
func Parse(text string) (*types.VideoConfig, error) {
	text = strings.TrimSpace(text)

	var cfg types.VideoConfig
	if err := json.Unmarshal([]byte(text), &cfg); err != nil {
		span, ok := extractJSONObject(text)
		if !ok {
			return nil, fmt.Errorf("could not parse video configuration")
		}
		if err := json.Unmarshal([]byte(span), &cfg); err != nil {
			return nil, fmt.Errorf("could not parse video configuration")
		}
	}

	cfg.Clips = validateClips(cfg.Clips)
	if len(cfg.Clips) == 0 {
		return nil, fmt.Errorf("no clips generated from PDF")
	}
	return &cfg, nil
}

// extractJSONObject returns the span between the first '{' and the last '}'
func extractJSONObject(text string) (string, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return "", false
	}
	return text[start : end+1], true
}

// validateClips drops clips with an unsupported type or empty animation code
func validateClips(clips []types.ClipSpec) []types.ClipSpec {
	valid := clips[:0:0]
	for i, clip := range clips {
		if clip.Type != "manim" {
			log.Printf("[storyboard] Warning: clip %d has unsupported type %q — skipping", i, clip.Type)
			continue
		}
		if strings.TrimSpace(clip.Code) == "" {
			log.Printf("[storyboard] Warning: clip %d has empty animation code — skipping", i)
			continue
		}
		valid = append(valid, clip)
	}
	return valid
}
