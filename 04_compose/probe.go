package compose

import (
	"encoding/json"
	"fmt"
	"strconv"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// MediaInfo is what the assembler needs to know about an input file
type MediaInfo struct {
	Duration float64
	HasAudio bool
}

type probeFormat struct {
	Streams []struct {
		CodecType string `json:"codec_type"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// probeFile inspects a media file with ffprobe
func probeFile(path string) (MediaInfo, error) {
	raw, err := ffmpeg.Probe(path)
	if err != nil {
		return MediaInfo{}, fmt.Errorf("ffprobe %s: %w", path, err)
	}
	return parseProbe(raw)
}

func parseProbe(raw string) (MediaInfo, error) {
	var pf probeFormat
	if err := json.Unmarshal([]byte(raw), &pf); err != nil {
		return MediaInfo{}, fmt.Errorf("parse ffprobe output: %w", err)
	}

	dur, err := strconv.ParseFloat(pf.Format.Duration, 64)
	if err != nil {
		return MediaInfo{}, fmt.Errorf("parse duration %q: %w", pf.Format.Duration, err)
	}

	info := MediaInfo{Duration: dur}
	for _, s := range pf.Streams {
		if s.CodecType == "audio" {
			info.HasAudio = true
		}
	}
	return info, nil
}
