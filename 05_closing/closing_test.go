package closing

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"paper-video-pipeline/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Closing: config.ClosingConfig{
			VeoModel:        "veo-2.0-generate-001",
			PollIntervalSec: 1,
			TimeoutSec:      5,
		},
	}
}

type fakeRenderer struct {
	sourceFile string
	sceneName  string
	err        error
}

func (f *fakeRenderer) RenderScene(ctx context.Context, sourceFile, sceneName, mediaDir string) (string, error) {
	f.sourceFile = sourceFile
	f.sceneName = sceneName
	if f.err != nil {
		return "", f.err
	}
	out := filepath.Join(mediaDir, "ThankYouScene.mp4")
	if err := os.WriteFile(out, []byte("mp4"), 0644); err != nil {
		return "", err
	}
	return out, nil
}

func TestFallbackWithoutCredentials(t *testing.T) {
	t.Setenv("GOOGLE_API_KEY", "")

	renderer := &fakeRenderer{}
	g := New(testConfig(), renderer)
	if g.veo != nil {
		t.Fatal("veo client should not be configured without an API key")
	}

	clip, err := g.Generate(context.Background(), t.TempDir())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if clip == "" {
		t.Fatal("expected a fallback clip path")
	}

	if renderer.sceneName != "ThankYouScene" {
		t.Errorf("scene = %q, want ThankYouScene", renderer.sceneName)
	}

	// the temporary scene source must be gone after the render
	if _, err := os.Stat(renderer.sourceFile); !os.IsNotExist(err) {
		t.Errorf("temp scene file %s still exists", renderer.sourceFile)
	}

	if !strings.HasSuffix(renderer.sourceFile, ".py") {
		t.Errorf("scene source %q is not a .py file", renderer.sourceFile)
	}
}

func TestFallbackCleansUpOnRenderFailure(t *testing.T) {
	t.Setenv("GOOGLE_API_KEY", "")

	renderer := &fakeRenderer{err: fmt.Errorf("manim exited 1")}
	g := New(testConfig(), renderer)

	if _, err := g.Generate(context.Background(), t.TempDir()); err == nil {
		t.Fatal("expected error when fallback render fails")
	}

	if renderer.sourceFile == "" {
		t.Fatal("renderer was never invoked")
	}
	if _, err := os.Stat(renderer.sourceFile); !os.IsNotExist(err) {
		t.Errorf("temp scene file %s must be deleted even when the renderer fails", renderer.sourceFile)
	}
}

func TestFallbackSceneSourceContent(t *testing.T) {
	t.Setenv("GOOGLE_API_KEY", "")

	var captured string
	renderer := &fakeRenderer{}
	g := New(testConfig(), renderer)

	// capture the source before the renderer returns and the file is removed
	g.renderer = renderFunc(func(ctx context.Context, sourceFile, sceneName, mediaDir string) (string, error) {
		data, err := os.ReadFile(sourceFile)
		if err != nil {
			return "", err
		}
		captured = string(data)
		return renderer.RenderScene(ctx, sourceFile, sceneName, mediaDir)
	})

	if _, err := g.Generate(context.Background(), t.TempDir()); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	for _, want := range []string{"Thank You", "class ThankYouScene(Scene)", "FadeOut"} {
		if !strings.Contains(captured, want) {
			t.Errorf("fallback scene missing %q", want)
		}
	}
}

type renderFunc func(ctx context.Context, sourceFile, sceneName, mediaDir string) (string, error)

func (f renderFunc) RenderScene(ctx context.Context, sourceFile, sceneName, mediaDir string) (string, error) {
	return f(ctx, sourceFile, sceneName, mediaDir)
}

func TestGenerateFallsBackWhenVeoFails(t *testing.T) {
	t.Setenv("GOOGLE_API_KEY", "test-key")

	renderer := &fakeRenderer{}
	g := New(testConfig(), renderer)
	if g.veo == nil {
		t.Fatal("veo client should be configured with an API key")
	}
	// point the client at nothing; the request fails fast and the
	// generator must drop to the manim fallback
	g.veo.baseURL = "http://127.0.0.1:1"
	g.veo.pollInterval = 0

	clip, err := g.Generate(context.Background(), t.TempDir())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if renderer.sceneName != "ThankYouScene" {
		t.Error("expected the manim fallback to run after a Veo failure")
	}
	if clip == "" {
		t.Fatal("expected a clip path from the fallback")
	}
}
