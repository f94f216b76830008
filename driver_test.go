package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"paper-video-pipeline/02_render"
	"paper-video-pipeline/config"
	"paper-video-pipeline/types"
)

type fakeStoryboard struct {
	cfg *types.VideoConfig
	err error
}

func (f *fakeStoryboard) Generate(ctx context.Context, pdfRef string) (*types.VideoConfig, error) {
	return f.cfg, f.err
}

type fakeRenderer struct {
	gotClips []types.ClipSpec
	fail     map[int]bool
}

func (f *fakeRenderer) All(ctx context.Context, clips []types.ClipSpec, outputDir string) []render.Result {
	f.gotClips = clips
	results := make([]render.Result, len(clips))
	for i := range clips {
		if f.fail[i] {
			results[i] = render.Result{Index: i, Err: fmt.Errorf("render failed")}
			continue
		}
		results[i] = render.Result{Index: i, VideoFile: filepath.Join(outputDir, fmt.Sprintf("clip_%03d", i), "scene.mp4")}
	}
	return results
}

type fakeNarrator struct {
	calls []string
	err   error
}

func (f *fakeNarrator) Synthesize(ctx context.Context, text, outFile string) (string, error) {
	f.calls = append(f.calls, text)
	if f.err != nil {
		return "", f.err
	}
	return outFile, nil
}

type fakeComposer struct {
	mergeErr  error
	assembled []string
	asmErr    error
}

func (f *fakeComposer) Merge(ctx context.Context, videoPath, audioPath, outPath string) (string, error) {
	if f.mergeErr != nil {
		return "", f.mergeErr
	}
	return outPath, nil
}

func (f *fakeComposer) Assemble(ctx context.Context, clipPaths []string, outPath string) (string, error) {
	f.assembled = clipPaths
	if f.asmErr != nil {
		return "", f.asmErr
	}
	return outPath, nil
}

type fakeCloser struct {
	clip string
	err  error
}

func (f *fakeCloser) Generate(ctx context.Context, outDir string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.clip, nil
}

func testPipelineConfig() *config.Config {
	return &config.Config{
		Pipeline: config.PipelineConfig{
			MaxClips:       4,
			FinalVideoName: "summary_video.mp4",
			AppendClosing:  true,
		},
	}
}

func manimClips(n int) []types.ClipSpec {
	clips := make([]types.ClipSpec, n)
	for i := range clips {
		clips[i] = types.ClipSpec{
			Type:      "manim",
			Code:      fmt.Sprintf("class Scene%d(Scene): pass", i),
			VoiceOver: fmt.Sprintf("narration %d", i),
		}
	}
	return clips
}

func newTestPipeline(cfg *types.VideoConfig) (*Pipeline, *fakeRenderer, *fakeNarrator, *fakeComposer, *fakeCloser) {
	renderer := &fakeRenderer{fail: map[int]bool{}}
	narrator := &fakeNarrator{}
	composer := &fakeComposer{}
	closer := &fakeCloser{clip: "closing/thank_you_clip.mp4"}
	p := &Pipeline{
		cfg:        testPipelineConfig(),
		storyboard: &fakeStoryboard{cfg: cfg},
		renderer:   renderer,
		narrator:   narrator,
		composer:   composer,
		closing:    closer,
	}
	return p, renderer, narrator, composer, closer
}

func TestRunTruncatesClipList(t *testing.T) {
	p, renderer, _, _, _ := newTestPipeline(&types.VideoConfig{Clips: manimClips(6)})

	state := &types.PipelineState{}
	if _, err := p.Run(context.Background(), "https://x/p.pdf", t.TempDir(), state); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(renderer.gotClips) != 4 {
		t.Errorf("rendered %d clips, want min(6, 4) = 4", len(renderer.gotClips))
	}
	if state.Summary.TotalClips != 4 {
		t.Errorf("summary total = %d, want 4", state.Summary.TotalClips)
	}
}

func TestRunPreservesClipOrder(t *testing.T) {
	p, _, _, composer, _ := newTestPipeline(&types.VideoConfig{Clips: manimClips(3)})

	state := &types.PipelineState{}
	if _, err := p.Run(context.Background(), "https://x/p.pdf", t.TempDir(), state); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// three clips in order, closing clip appended last
	if len(composer.assembled) != 4 {
		t.Fatalf("assembled %d paths, want 4", len(composer.assembled))
	}
	for i := 0; i < 3; i++ {
		if !strings.Contains(composer.assembled[i], fmt.Sprintf("final_%d", i)) {
			t.Errorf("assembled[%d] = %q out of order", i, composer.assembled[i])
		}
	}
	if composer.assembled[3] != "closing/thank_you_clip.mp4" {
		t.Errorf("closing clip not last: %v", composer.assembled)
	}
}

func TestRunNarrationFailureDegradesToSilent(t *testing.T) {
	p, _, narrator, composer, _ := newTestPipeline(&types.VideoConfig{Clips: manimClips(2)})
	narrator.err = fmt.Errorf("tts unavailable")

	state := &types.PipelineState{}
	if _, err := p.Run(context.Background(), "https://x/p.pdf", t.TempDir(), state); err != nil {
		t.Fatalf("run must not abort on narration failure: %v", err)
	}

	for _, r := range state.Clips {
		if r.Outcome != types.OutcomeSilent {
			t.Errorf("clip %d outcome = %s, want silent", r.Index, r.Outcome)
		}
		if !strings.HasSuffix(r.FinalFile, "scene.mp4") {
			t.Errorf("clip %d should contribute its raw render, got %q", r.Index, r.FinalFile)
		}
	}
	if len(composer.assembled) != 3 { // 2 silent clips + closing
		t.Errorf("assembled %d paths, want 3", len(composer.assembled))
	}
}

func TestRunEmptyVoiceOverSkipsNarration(t *testing.T) {
	clips := manimClips(2)
	clips[1].VoiceOver = ""
	p, _, narrator, _, _ := newTestPipeline(&types.VideoConfig{Clips: clips})

	state := &types.PipelineState{}
	if _, err := p.Run(context.Background(), "https://x/p.pdf", t.TempDir(), state); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(narrator.calls) != 1 || narrator.calls[0] != "narration 0" {
		t.Errorf("narrator calls = %v, want only clip 0", narrator.calls)
	}
	if state.Clips[0].Outcome != types.OutcomeVoiced {
		t.Errorf("clip 0 = %s, want voiced", state.Clips[0].Outcome)
	}
	if state.Clips[1].Outcome != types.OutcomeSilent {
		t.Errorf("clip 1 = %s, want silent", state.Clips[1].Outcome)
	}
}

func TestRunMergeFailureFallsBackToSilentVideo(t *testing.T) {
	p, _, _, composer, _ := newTestPipeline(&types.VideoConfig{Clips: manimClips(1)})
	composer.mergeErr = fmt.Errorf("ffmpeg blew up")

	state := &types.PipelineState{}
	if _, err := p.Run(context.Background(), "https://x/p.pdf", t.TempDir(), state); err != nil {
		t.Fatalf("run must not abort on merge failure: %v", err)
	}
	if state.Clips[0].Outcome != types.OutcomeSilent {
		t.Errorf("outcome = %s, want silent", state.Clips[0].Outcome)
	}
}

func TestRunRenderFailureExcludesClip(t *testing.T) {
	p, renderer, _, composer, _ := newTestPipeline(&types.VideoConfig{Clips: manimClips(3)})
	renderer.fail[1] = true

	state := &types.PipelineState{}
	if _, err := p.Run(context.Background(), "https://x/p.pdf", t.TempDir(), state); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if state.Clips[1].Outcome != types.OutcomeFailed {
		t.Errorf("clip 1 = %s, want failed", state.Clips[1].Outcome)
	}
	if len(composer.assembled) != 3 { // clips 0, 2 + closing
		t.Errorf("assembled %d paths, want 3", len(composer.assembled))
	}

	s := state.Summary
	if s.TotalClips != 3 || s.SuccessfulClips != 2 || s.FailedClips != 1 {
		t.Errorf("summary = %+v", s)
	}
	if s.SuccessRate < 0.66 || s.SuccessRate > 0.67 {
		t.Errorf("success rate = %f", s.SuccessRate)
	}
}

func TestRunFailsWhenNothingRenders(t *testing.T) {
	p, renderer, _, composer, _ := newTestPipeline(&types.VideoConfig{Clips: manimClips(2)})
	renderer.fail[0] = true
	renderer.fail[1] = true

	state := &types.PipelineState{}
	_, err := p.Run(context.Background(), "https://x/p.pdf", t.TempDir(), state)
	if err == nil {
		t.Fatal("expected run failure when zero clips render")
	}
	if composer.assembled != nil {
		t.Error("assembly must not run with zero clips")
	}
}

func TestRunClosingFailureIsNonFatal(t *testing.T) {
	p, _, _, composer, closer := newTestPipeline(&types.VideoConfig{Clips: manimClips(1)})
	closer.err = fmt.Errorf("veo and fallback both failed")

	state := &types.PipelineState{}
	if _, err := p.Run(context.Background(), "https://x/p.pdf", t.TempDir(), state); err != nil {
		t.Fatalf("closing failure must not fail the run: %v", err)
	}
	if len(composer.assembled) != 1 {
		t.Errorf("assembled %d paths, want 1 (no closing clip)", len(composer.assembled))
	}
	if state.ClosingClip != "" {
		t.Errorf("state closing clip = %q, want empty", state.ClosingClip)
	}
}

func TestRunStoryboardFailureIsFatal(t *testing.T) {
	p, _, _, _, _ := newTestPipeline(nil)
	p.storyboard = &fakeStoryboard{err: fmt.Errorf("could not parse video configuration")}

	state := &types.PipelineState{}
	if _, err := p.Run(context.Background(), "https://x/p.pdf", t.TempDir(), state); err == nil {
		t.Fatal("expected fatal error from storyboard failure")
	}
}

func TestResolvePDFRefFromArgs(t *testing.T) {
	ref, err := resolvePDFRef([]string{" ./paper.pdf "})
	if err != nil {
		t.Fatalf("resolvePDFRef failed: %v", err)
	}
	if ref != "./paper.pdf" {
		t.Errorf("ref = %q", ref)
	}
}
