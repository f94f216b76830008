package render

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"

	"paper-video-pipeline/config"
	"paper-video-pipeline/types"

	"golang.org/x/sync/errgroup"
)

// Manim scenes come in with bare class definitions — prepend the imports
// the generated code assumes.
const sceneHeader = "from manim import *\nimport numpy as np\n\n"

var sceneClassRe = regexp.MustCompile(`class\s+([A-Za-z_]\w*)\s*\(`)

// Result is the outcome of rendering one clip. A failed render carries
// Err and no VideoFile; the clip is excluded from later stages.
type Result struct {
	Index     int
	VideoFile string
	Err       error
}

// Runner renders manim scenes via the manim CLI
type Runner struct {
	cfg *config.Config

	// execRender is swappable for tests
	execRender func(ctx context.Context, sourceFile, sceneName, mediaDir string) error
}

// New creates a new render Runner
func New(cfg *config.Config) *Runner {
	r := &Runner{cfg: cfg}
	r.execRender = r.runManim
	return r
}

// All renders every clip into its own isolated directory under outputDir.
// Clips render concurrently (bounded by render.max_concurrent) and results
// come back in storyboard order. Render failures are per-clip: the result
// carries the error, the run continues.
func (r *Runner) All(ctx context.Context, clips []types.ClipSpec, outputDir string) []Result {
	results := make([]Result, len(clips))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Render.MaxConcurrent)

	for i, clip := range clips {
		i, clip := i, clip
		g.Go(func() error {
			clipDir := filepath.Join(outputDir, fmt.Sprintf("clip_%03d", i))
			videoFile, err := r.Clip(gctx, clip, clipDir)
			results[i] = Result{Index: i, VideoFile: videoFile, Err: err}
			if err != nil {
				log.Printf("[render] ✗ Clip %d failed: %v", i+1, err)
			} else {
				log.Printf("[render] ✅ Clip %d rendered: %s", i+1, videoFile)
			}
			return nil // per-clip failures never abort the group
		})
	}

	_ = g.Wait()
	return results
}

// Clip writes the clip's scene source into clipDir and renders it there.
// Each clip gets its own media tree, so concurrent renders cannot pick up
// one another's output.
func (r *Runner) Clip(ctx context.Context, clip types.ClipSpec, clipDir string) (string, error) {
	if err := os.MkdirAll(clipDir, 0755); err != nil {
		return "", fmt.Errorf("create clip dir: %w", err)
	}

	sceneName, err := findSceneName(clip.Code)
	if err != nil {
		return "", err
	}

	sourceFile := filepath.Join(clipDir, "scene.py")
	source := clip.Code
	if !strings.Contains(source, "from manim import") {
		source = sceneHeader + source
	}
	if err := os.WriteFile(sourceFile, []byte(source), 0644); err != nil {
		return "", fmt.Errorf("write scene source: %w", err)
	}

	return r.RenderScene(ctx, sourceFile, sceneName, clipDir)
}

// RenderScene runs the manim CLI for one scene and resolves the produced
// video file inside mediaDir
func (r *Runner) RenderScene(ctx context.Context, sourceFile, sceneName, mediaDir string) (string, error) {
	if err := r.execRender(ctx, sourceFile, sceneName, mediaDir); err != nil {
		return "", err
	}
	return resolveOutput(mediaDir)
}

func (r *Runner) runManim(ctx context.Context, sourceFile, sceneName, mediaDir string) error {
	cmd := exec.CommandContext(ctx,
		"manim",
		sourceFile,
		sceneName,
		"--media_dir", mediaDir,
		"-v", "WARNING",
		r.cfg.Render.Quality,
		"--resolution", fmt.Sprintf("%d,%d", r.cfg.Render.Width, r.cfg.Render.Height),
		"--frame_rate", fmt.Sprintf("%d", r.cfg.Render.FPS),
	)

	var stderr bytes.Buffer
	cmd.Stdout = os.Stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("manim %s: %w: %s", sceneName, err, tail(stderr.String(), 400))
	}
	return nil
}

// findSceneName extracts the scene class to render from the generated code
func findSceneName(code string) (string, error) {
	m := sceneClassRe.FindStringSubmatch(code)
	if m == nil {
		return "", fmt.Errorf("no scene class found in animation code")
	}
	return m[1], nil
}

// resolveOutput finds the rendered video inside the clip's own media tree.
// Manim writes partial movie files while rendering; the final clip is the
// newest .mp4 outside any "partial" directory.
func resolveOutput(mediaDir string) (string, error) {
	var newest string
	var newestMod int64

	err := filepath.WalkDir(mediaDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".mp4" {
			return nil
		}
		if strings.Contains(path, "partial") {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if mod := info.ModTime().UnixNano(); newest == "" || mod > newestMod {
			newest = path
			newestMod = mod
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("scan render output: %w", err)
	}
	if newest == "" {
		return "", fmt.Errorf("manim produced no video file in %s", mediaDir)
	}
	return newest, nil
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
