package compose

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"paper-video-pipeline/config"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// guardMargin is the extra hold added when freezing the last frame, so
// narration never ends exactly on the final frame.
const guardMargin = 0.1

// Composer merges narration audio onto clips and assembles the final video
type Composer struct {
	cfg *config.Config

	// probe, encode and join are swappable for tests
	probe  func(path string) (MediaInfo, error)
	encode func(path string, info MediaInfo, outFile string) error
	join   func(paths []string, outPath, workDir string) error
}

// New creates a new Composer
func New(cfg *config.Config) *Composer {
	c := &Composer{cfg: cfg, probe: probeFile}
	c.encode = c.normalize
	c.join = c.concat
	return c
}

// Merge attaches audio to a video. If the audio runs longer than the
// video, the video is first extended by holding its last frame for the
// difference plus a small guard margin, so narration is never cut off.
// The video is never shortened; trailing silence is implicit.
func (c *Composer) Merge(ctx context.Context, videoPath, audioPath, outPath string) (string, error) {
	videoInfo, err := c.probe(videoPath)
	if err != nil {
		return "", err
	}
	audioInfo, err := c.probe(audioPath)
	if err != nil {
		return "", err
	}

	video := ffmpeg.Input(videoPath).Video()
	if extra := ExtendBy(videoInfo.Duration, audioInfo.Duration); extra > 0 {
		log.Printf("[compose] Audio %.2fs > video %.2fs — freezing last frame for %.2fs",
			audioInfo.Duration, videoInfo.Duration, extra)
		video = video.Filter("tpad", ffmpeg.Args{}, ffmpeg.KwArgs{
			"stop_mode":     "clone",
			"stop_duration": fmt.Sprintf("%.3f", extra),
		})
	}
	audio := ffmpeg.Input(audioPath).Audio()

	err = ffmpeg.Output([]*ffmpeg.Stream{video, audio}, outPath, ffmpeg.KwArgs{
		"c:v":     "libx264",
		"preset":  "fast",
		"crf":     "23",
		"pix_fmt": "yuv420p",
		"c:a":     "aac",
		"b:a":     "192k",
	}).OverWriteOutput().Run()
	if err != nil {
		return "", fmt.Errorf("ffmpeg merge: %w", err)
	}
	return outPath, nil
}

// ExtendBy returns how long the last frame must be held so the video
// covers the audio, or 0 when no extension is needed.
func ExtendBy(videoDur, audioDur float64) float64 {
	if audioDur <= videoDur {
		return 0
	}
	return audioDur - videoDur + guardMargin
}

// Assemble normalizes every clip to one resolution and frame rate, then
// concatenates them in list order into outPath. Unreadable clips are
// skipped with a warning; the operation fails only when nothing remains.
func (c *Composer) Assemble(ctx context.Context, clipPaths []string, outPath string) (string, error) {
	log.Printf("[compose] Assembling %d clip(s)...", len(clipPaths))

	workDir := filepath.Dir(outPath)
	var normalized []string

	for i, path := range clipPaths {
		info, err := c.probe(path)
		if err != nil {
			log.Printf("[compose] Warning: clip %d unreadable (%v) — skipping", i, err)
			continue
		}

		normFile := filepath.Join(workDir, fmt.Sprintf("normalized_%03d.mp4", i))
		if err := c.encode(path, info, normFile); err != nil {
			log.Printf("[compose] Warning: clip %d normalize failed (%v) — skipping", i, err)
			continue
		}
		normalized = append(normalized, normFile)
	}

	if len(normalized) == 0 {
		return "", fmt.Errorf("no valid video clips found")
	}

	if err := c.join(normalized, outPath, workDir); err != nil {
		return "", err
	}

	log.Printf("[compose] ✅ Final video: %s", outPath)
	return outPath, nil
}

// normalize re-encodes one clip to the target resolution and frame rate.
// Resolution is stretched to the exact target, no letterboxing. Silent
// clips get a stereo null audio track so every segment carries the same
// stream layout into the concat.
func (c *Composer) normalize(path string, info MediaInfo, outFile string) error {
	input := ffmpeg.Input(path)
	video := input.Video().
		Filter("scale", ffmpeg.Args{fmt.Sprintf("%d:%d", c.cfg.Compose.Width, c.cfg.Compose.Height)}).
		Filter("setsar", ffmpeg.Args{"1"}).
		Filter("fps", ffmpeg.Args{fmt.Sprintf("%d", c.cfg.Compose.FPS)})

	var audio *ffmpeg.Stream
	if info.HasAudio {
		audio = input.Audio()
	} else {
		audio = ffmpeg.Input("anullsrc=channel_layout=stereo:sample_rate=48000", ffmpeg.KwArgs{
			"f": "lavfi",
			"t": fmt.Sprintf("%.3f", info.Duration),
		}).Audio()
	}

	err := ffmpeg.Output([]*ffmpeg.Stream{video, audio}, outFile, ffmpeg.KwArgs{
		"c:v":      "libx264",
		"preset":   "fast",
		"crf":      "23",
		"pix_fmt":  "yuv420p",
		"c:a":      "aac",
		"b:a":      "192k",
		"ar":       "48000",
		"shortest": "",
	}).OverWriteOutput().Run()
	if err != nil {
		return fmt.Errorf("ffmpeg normalize: %w", err)
	}
	return nil
}

// concat joins the normalized clips with the concat demuxer. All segments
// share one encode profile, so streams are copied without re-encoding.
func (c *Composer) concat(paths []string, outPath, workDir string) error {
	listFile := filepath.Join(workDir, "concat_list.txt")
	if err := os.WriteFile(listFile, []byte(ConcatList(paths)), 0644); err != nil {
		return err
	}

	err := ffmpeg.Input(listFile, ffmpeg.KwArgs{"f": "concat", "safe": "0"}).
		Output(outPath, ffmpeg.KwArgs{"c": "copy", "movflags": "+faststart"}).
		OverWriteOutput().
		Run()
	if err != nil {
		return fmt.Errorf("ffmpeg concat: %w", err)
	}
	return nil
}

// ConcatList renders the concat demuxer list file contents
func ConcatList(paths []string) string {
	var lines []string
	for _, p := range paths {
		lines = append(lines, fmt.Sprintf("file '%s'", p))
	}
	return strings.Join(lines, "\n")
}
