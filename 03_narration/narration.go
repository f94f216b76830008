package narration

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"os"

	"paper-video-pipeline/config"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	texttospeech "google.golang.org/api/texttospeech/v1"
)

// ErrNoCredentials means no TTS credentials are configured. Callers treat
// this as a degraded outcome (silent clip), not a failure.
var ErrNoCredentials = errors.New("no text-to-speech credentials configured")

// Synthesizer converts narration text to speech via Google Cloud TTS
type Synthesizer struct {
	cfg *config.Config
	svc *texttospeech.Service
}

// New creates a Synthesizer. Credentials come from the environment:
// GOOGLE_TTS_CREDENTIALS_FILE (service account JSON) or GOOGLE_API_KEY.
// With neither set the Synthesizer is created but every Synthesize call
// returns ErrNoCredentials.
func New(ctx context.Context, cfg *config.Config) (*Synthesizer, error) {
	s := &Synthesizer{cfg: cfg}

	if credFile := os.Getenv("GOOGLE_TTS_CREDENTIALS_FILE"); credFile != "" {
		data, err := os.ReadFile(credFile)
		if err != nil {
			return nil, fmt.Errorf("read TTS credentials: %w", err)
		}
		jwtCfg, err := google.JWTConfigFromJSON(data, texttospeech.CloudPlatformScope)
		if err != nil {
			return nil, fmt.Errorf("parse TTS credentials: %w", err)
		}
		svc, err := texttospeech.NewService(ctx, option.WithHTTPClient(jwtCfg.Client(ctx)))
		if err != nil {
			return nil, fmt.Errorf("create TTS service: %w", err)
		}
		s.svc = svc
		return s, nil
	}

	if apiKey := os.Getenv("GOOGLE_API_KEY"); apiKey != "" {
		svc, err := texttospeech.NewService(ctx, option.WithAPIKey(apiKey))
		if err != nil {
			return nil, fmt.Errorf("create TTS service: %w", err)
		}
		s.svc = svc
		return s, nil
	}

	log.Println("[narration] No TTS credentials found — clips will be silent")
	return s, nil
}

// Synthesize converts text to a LINEAR16 WAV file at outFile and returns its path
func (s *Synthesizer) Synthesize(ctx context.Context, text, outFile string) (string, error) {
	if s.svc == nil {
		return "", ErrNoCredentials
	}

	req := &texttospeech.SynthesizeSpeechRequest{
		Input: &texttospeech.SynthesisInput{Text: text},
		Voice: &texttospeech.VoiceSelectionParams{
			LanguageCode: s.cfg.Narration.LanguageCode,
			Name:         s.cfg.Narration.Voice,
		},
		AudioConfig: &texttospeech.AudioConfig{
			AudioEncoding:   "LINEAR16",
			SampleRateHertz: int64(s.cfg.Narration.SampleRateHz),
			SpeakingRate:    s.cfg.Narration.SpeakingRate,
		},
	}

	resp, err := s.svc.Text.Synthesize(req).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("tts synthesize: %w", err)
	}

	audio, err := base64.StdEncoding.DecodeString(resp.AudioContent)
	if err != nil {
		return "", fmt.Errorf("decode audio content: %w", err)
	}
	if len(audio) == 0 {
		return "", fmt.Errorf("tts returned empty audio")
	}

	if err := os.WriteFile(outFile, audio, 0644); err != nil {
		return "", fmt.Errorf("write audio file: %w", err)
	}
	return outFile, nil
}
