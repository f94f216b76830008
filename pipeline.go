package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"paper-video-pipeline/01_storyboard"
	"paper-video-pipeline/02_render"
	"paper-video-pipeline/03_narration"
	"paper-video-pipeline/04_compose"
	"paper-video-pipeline/05_closing"
	"paper-video-pipeline/config"
	"paper-video-pipeline/types"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env (local dev only)
	_ = godotenv.Load()

	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	for _, dir := range []string{cfg.Paths.Output, cfg.Paths.Logs} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("Failed to create dir %s: %v", dir, err)
		}
	}

	pdfRef, err := resolvePDFRef(os.Args[1:])
	if err != nil {
		fmt.Printf("❌ %v\n", err)
		os.Exit(1)
	}

	// Create run ID and output dir for this run — concurrent runs never
	// share an output tree
	runID := uuid.NewString()[:8]
	runDir := filepath.Join(cfg.Paths.Output, runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		log.Fatalf("Failed to create run dir: %v", err)
	}

	log.Printf("🚀 Generating summary video from: %s — Run ID: %s", pdfRef, runID)
	log.Printf("📁 Output dir: %s", runDir)

	ctx := context.Background()
	state := &types.PipelineState{
		RunID:     runID,
		PDFRef:    pdfRef,
		StartedAt: time.Now().UTC().Format(time.RFC3339),
	}

	// Save state on exit
	defer func() {
		state.CompletedAt = time.Now().UTC().Format(time.RFC3339)
		saveState(state, runDir)
		if state.Error != "" {
			log.Printf("❌ Pipeline failed: %s", state.Error)
			os.Exit(1)
		}
	}()

	narrator, err := narration.New(ctx, cfg)
	if err != nil {
		state.Error = fmt.Sprintf("narration init: %v", err)
		return
	}

	renderer := render.New(cfg)
	pipeline := &Pipeline{
		cfg:        cfg,
		storyboard: storyboard.New(cfg),
		renderer:   renderer,
		narrator:   narrator,
		composer:   compose.New(cfg),
		closing:    closing.New(cfg, renderer),
	}

	finalVideo, err := pipeline.Run(ctx, pdfRef, runDir, state)
	if err != nil {
		state.Error = err.Error()
		return
	}

	abs, _ := filepath.Abs(finalVideo)
	log.Printf("✅ Summary video created: %s", finalVideo)
	log.Printf("🎉 Done! Full path: %s", abs)
	if s := state.Summary; s != nil {
		log.Printf("📊 Clips: %d total, %d successful, %d failed (%.0f%% success)",
			s.TotalClips, s.SuccessfulClips, s.FailedClips, s.SuccessRate*100)
	}
}

// resolvePDFRef takes the PDF reference from the command line when given
// (URL or local path), otherwise prompts interactively for a URL
func resolvePDFRef(args []string) (string, error) {
	if len(args) > 0 {
		return strings.TrimSpace(args[0]), nil
	}

	fmt.Println("🎬 PDF to Video Summary Generator")
	fmt.Println(strings.Repeat("=", 40))
	fmt.Print("Enter PDF URL: ")

	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}

	pdfURL := strings.TrimSpace(line)
	if pdfURL == "" {
		return "", fmt.Errorf("no URL provided")
	}
	if !strings.HasPrefix(pdfURL, "http://") && !strings.HasPrefix(pdfURL, "https://") {
		return "", fmt.Errorf("please provide a valid URL")
	}
	return pdfURL, nil
}

func saveState(state *types.PipelineState, dir string) {
	saveJSON(filepath.Join(dir, "pipeline_state.json"), state)
}

func saveJSON(path string, v interface{}) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Printf("Warning: could not marshal JSON for %s: %v", path, err)
		return
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		log.Printf("Warning: could not save %s: %v", path, err)
	}
}
