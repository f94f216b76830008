package closing

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"paper-video-pipeline/config"

	"github.com/google/uuid"
)

// Professional "thank you" prompt variants — which one runs is immaterial
var thankYouPrompts = []string{
	"Clean elegant 'Thank You' text animation appearing on white background, professional sans-serif typography, gentle fade-in effect, 2 seconds duration, minimalist design",
	"Modern 'Thank You' text in deep blue color with subtle glow materializing on pristine white backdrop, corporate style, smooth animation, 2 seconds",
	"Professional 'Thank You' typography with golden accent color, appearing with soft scale animation on clean background, premium feel, 2 seconds duration",
}

// fallbackScene is a ~2 second branded title clip: write-in, hold, fade out
const fallbackScene = `from manim import *
import numpy as np

class ThankYouScene(Scene):
    def construct(self):
        thank_you = Text("Thank You", font_size=72, color=BLUE)
        thank_you.move_to(ORIGIN)

        underline = Line(
            start=thank_you.get_corner(DL) + DOWN*0.3,
            end=thank_you.get_corner(DR) + DOWN*0.3,
            color=GOLD
        )

        self.play(
            Write(thank_you, run_time=0.8),
            Create(underline, run_time=0.8)
        )
        self.wait(0.4)

        self.play(
            FadeOut(thank_you, run_time=0.5),
            FadeOut(underline, run_time=0.5)
        )
`

// SceneRenderer renders a manim scene source file — satisfied by the main
// clip renderer, so the fallback clip goes through the same engine.
type SceneRenderer interface {
	RenderScene(ctx context.Context, sourceFile, sceneName, mediaDir string) (string, error)
}

// Generator produces the closing "thank you" clip: Veo first when a key
// is configured, otherwise (or on any Veo failure) a manim fallback.
type Generator struct {
	cfg      *config.Config
	renderer SceneRenderer
	veo      *VeoClient
}

// New creates a closing-clip Generator. With no GOOGLE_API_KEY in the
// environment the Veo path is skipped entirely.
func New(cfg *config.Config, renderer SceneRenderer) *Generator {
	g := &Generator{cfg: cfg, renderer: renderer}

	if apiKey := os.Getenv("GOOGLE_API_KEY"); apiKey != "" {
		g.veo = NewVeoClient(
			apiKey,
			cfg.Closing.VeoModel,
			time.Duration(cfg.Closing.PollIntervalSec)*time.Second,
			time.Duration(cfg.Closing.TimeoutSec)*time.Second,
		)
	}
	return g
}

// Generate produces the closing clip inside outDir and returns its path.
// The Veo→fallback transition is one-way: any primary failure goes to the
// fallback, the primary is never retried.
func (g *Generator) Generate(ctx context.Context, outDir string) (string, error) {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return "", err
	}

	if g.veo != nil {
		log.Println("[closing] 🌟 Generating closing clip with Veo...")
		outPath := filepath.Join(outDir, "thank_you_clip.mp4")
		prompt := thankYouPrompts[rand.Intn(len(thankYouPrompts))]

		err := g.veo.GenerateClip(ctx, prompt, outPath)
		if err == nil {
			log.Printf("[closing] ✅ Veo clip: %s", outPath)
			return outPath, nil
		}
		log.Printf("[closing] ⚠️  Veo failed: %v — using manim fallback", err)
	} else {
		log.Println("[closing] 🔑 No generative-video key found — using manim fallback")
	}

	return g.renderFallback(ctx, outDir)
}

// renderFallback renders the static title scene through the same engine
// as the main clips. The temporary scene source is removed on every exit
// path, whatever the renderer's exit status.
func (g *Generator) renderFallback(ctx context.Context, outDir string) (string, error) {
	sourceFile := filepath.Join(os.TempDir(), fmt.Sprintf("thank_you_%s.py", uuid.NewString()[:8]))
	if err := os.WriteFile(sourceFile, []byte(fallbackScene), 0644); err != nil {
		return "", fmt.Errorf("write fallback scene: %w", err)
	}
	defer os.Remove(sourceFile)

	clipPath, err := g.renderer.RenderScene(ctx, sourceFile, "ThankYouScene", outDir)
	if err != nil {
		return "", fmt.Errorf("fallback render: %w", err)
	}

	log.Printf("[closing] ✅ Fallback clip: %s", clipPath)
	return clipPath, nil
}
