package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"

	"paper-video-pipeline/02_render"
	"paper-video-pipeline/03_narration"
	"paper-video-pipeline/config"
	"paper-video-pipeline/types"
)

type storyboarder interface {
	Generate(ctx context.Context, pdfRef string) (*types.VideoConfig, error)
}

type clipRenderer interface {
	All(ctx context.Context, clips []types.ClipSpec, outputDir string) []render.Result
}

type narrator interface {
	Synthesize(ctx context.Context, text, outFile string) (string, error)
}

type composer interface {
	Merge(ctx context.Context, videoPath, audioPath, outPath string) (string, error)
	Assemble(ctx context.Context, clipPaths []string, outPath string) (string, error)
}

type closingGenerator interface {
	Generate(ctx context.Context, outDir string) (string, error)
}

// Pipeline wires the stages together: storyboard → render → narrate →
// compose → assemble. Per-clip failures degrade; the run as a whole fails
// only when the storyboard is unusable or nothing survives to assembly.
type Pipeline struct {
	cfg        *config.Config
	storyboard storyboarder
	renderer   clipRenderer
	narrator   narrator
	composer   composer
	closing    closingGenerator
}

// Run executes the full pipeline for one PDF and fills in state as it goes
func (p *Pipeline) Run(ctx context.Context, pdfRef, runDir string, state *types.PipelineState) (string, error) {
	// ─────────────────────────────────────────────
	// STAGE 1: Storyboard
	// ─────────────────────────────────────────────
	log.Println("\n━━━ STAGE 1: Storyboard ━━━")
	videoConfig, err := p.storyboard.Generate(ctx, pdfRef)
	if err != nil {
		return "", fmt.Errorf("storyboard: %w", err)
	}

	clips := videoConfig.Clips
	if len(clips) > p.cfg.Pipeline.MaxClips {
		log.Printf("[pipeline] Truncating %d clips to %d to bound runtime", len(clips), p.cfg.Pipeline.MaxClips)
		clips = clips[:p.cfg.Pipeline.MaxClips]
	}
	state.Config = &types.VideoConfig{Clips: clips}

	// ─────────────────────────────────────────────
	// STAGE 2: Render clips
	// ─────────────────────────────────────────────
	log.Println("\n━━━ STAGE 2: Rendering clips ━━━")
	log.Printf("🎬 Generating %d video clips...", len(clips))
	clipDir := filepath.Join(runDir, "clips")
	rendered := p.renderer.All(ctx, clips, clipDir)

	// ─────────────────────────────────────────────
	// STAGE 3: Narration + compositing, clip by clip
	// ─────────────────────────────────────────────
	log.Println("\n━━━ STAGE 3: Narration ━━━")
	results := make([]types.ClipResult, len(clips))
	var finalPaths []string

	for i, clip := range clips {
		results[i] = p.processClip(ctx, i, clip, rendered[i], runDir)
		if results[i].Outcome != types.OutcomeFailed {
			finalPaths = append(finalPaths, results[i].FinalFile)
		}
	}
	state.Clips = results

	if len(finalPaths) == 0 {
		return "", fmt.Errorf("no clips were successfully generated")
	}

	// ─────────────────────────────────────────────
	// STAGE 4: Closing clip
	// ─────────────────────────────────────────────
	if p.cfg.Pipeline.AppendClosing {
		log.Println("\n━━━ STAGE 4: Closing clip ━━━")
		closingClip, err := p.closing.Generate(ctx, filepath.Join(runDir, "closing"))
		if err != nil {
			log.Printf("[pipeline] ⚠️  Closing clip failed: %v — continuing without it", err)
		} else {
			finalPaths = append(finalPaths, closingClip)
			state.ClosingClip = closingClip
		}
	}

	// ─────────────────────────────────────────────
	// STAGE 5: Assembly
	// ─────────────────────────────────────────────
	log.Println("\n━━━ STAGE 5: Assembly ━━━")
	finalVideo, err := p.composer.Assemble(ctx, finalPaths, filepath.Join(runDir, p.cfg.Pipeline.FinalVideoName))
	if err != nil {
		return "", fmt.Errorf("assemble: %w", err)
	}

	state.VideoFile = finalVideo
	state.Summary = summarize(results)
	return finalVideo, nil
}

// processClip takes one rendered clip through narration and compositing.
// Narration and compositing failures degrade the clip to silent; only a
// render failure excludes it.
func (p *Pipeline) processClip(ctx context.Context, i int, clip types.ClipSpec, r render.Result, runDir string) types.ClipResult {
	if r.Err != nil {
		log.Printf("✗ Clip %d failed to generate", i+1)
		return types.ClipResult{Index: i, Outcome: types.OutcomeFailed, Error: r.Err.Error()}
	}

	result := types.ClipResult{Index: i, VideoFile: r.VideoFile}

	if clip.VoiceOver == "" {
		log.Printf("✓ Clip %d (silent)", i+1)
		result.Outcome = types.OutcomeSilent
		result.FinalFile = r.VideoFile
		return result
	}

	audioFile, err := p.narrator.Synthesize(ctx, clip.VoiceOver, filepath.Join(runDir, fmt.Sprintf("audio_%d.wav", i)))
	if err != nil {
		if errors.Is(err, narration.ErrNoCredentials) {
			log.Printf("✓ Clip %d (silent - no TTS credentials)", i+1)
		} else {
			log.Printf("✓ Clip %d (silent - voice failed: %v)", i+1, err)
		}
		result.Outcome = types.OutcomeSilent
		result.FinalFile = r.VideoFile
		return result
	}
	result.AudioFile = audioFile

	merged, err := p.composer.Merge(ctx, r.VideoFile, audioFile, filepath.Join(runDir, fmt.Sprintf("final_%d.mp4", i)))
	if err != nil {
		log.Printf("✓ Clip %d (silent - compositing failed: %v)", i+1, err)
		result.Outcome = types.OutcomeSilent
		result.FinalFile = r.VideoFile
		return result
	}

	log.Printf("✓ Clip %d with voice-over", i+1)
	result.Outcome = types.OutcomeVoiced
	result.FinalFile = merged
	return result
}

func summarize(results []types.ClipResult) *types.RunSummary {
	s := &types.RunSummary{TotalClips: len(results)}
	for _, r := range results {
		if r.Outcome == types.OutcomeFailed {
			s.FailedClips++
		} else {
			s.SuccessfulClips++
		}
	}
	if s.TotalClips > 0 {
		s.SuccessRate = float64(s.SuccessfulClips) / float64(s.TotalClips)
	}
	return s
}
