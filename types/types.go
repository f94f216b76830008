package types

// ClipSpec is one storyboard clip produced by the language model
type ClipSpec struct {
	Type      string `json:"type"` // only "manim" is supported
	Code      string `json:"code"`
	VoiceOver string `json:"voice_over"`
}

// VideoConfig is the full storyboard for one video
type VideoConfig struct {
	Clips []ClipSpec `json:"clips"`
}

// ClipOutcome tells what happened to a clip on its way into the final video
type ClipOutcome string

const (
	OutcomeVoiced ClipOutcome = "voiced" // rendered and narrated
	OutcomeSilent ClipOutcome = "silent" // rendered, narration missing or failed
	OutcomeFailed ClipOutcome = "failed" // render failed, excluded from assembly
)

// ClipResult tracks one clip through render, narration and compositing
type ClipResult struct {
	Index     int         `json:"index"`
	Outcome   ClipOutcome `json:"outcome"`
	VideoFile string      `json:"video_file,omitempty"`
	AudioFile string      `json:"audio_file,omitempty"`
	FinalFile string      `json:"final_file,omitempty"`
	Error     string      `json:"error,omitempty"`
}

// RunSummary is the terminal report for one pipeline run
type RunSummary struct {
	TotalClips      int     `json:"total_clips"`
	SuccessfulClips int     `json:"successful_clips"`
	FailedClips     int     `json:"failed_clips"`
	SuccessRate     float64 `json:"success_rate"`
}

// PipelineState tracks the full state of one pipeline run
type PipelineState struct {
	RunID       string       `json:"run_id"`
	PDFRef      string       `json:"pdf_ref"`
	StartedAt   string       `json:"started_at"`
	CompletedAt string       `json:"completed_at"`
	Config      *VideoConfig `json:"config"`
	Clips       []ClipResult `json:"clips"`
	ClosingClip string       `json:"closing_clip,omitempty"`
	VideoFile   string       `json:"video_file"`
	Summary     *RunSummary  `json:"summary"`
	Error       string       `json:"error,omitempty"`
}
