package storyboard

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"paper-video-pipeline/config"
	"paper-video-pipeline/types"
)

const prompt = `Imagine you are 3 Blue 1 Brown himself, an incredible teacher and instructor.
From this research paper, generate a JSON object for an educational video that is a list of clips.
Each clip should be of type "manim" with Python code to generate educational animations using Manim.

CRITICAL REQUIREMENTS:
- Only use basic Manim objects: Circle, Square, Rectangle, Line, Arrow, Dot, Text
- DO NOT use SVGMobject, DecimalNumber, or any LaTeX-dependent objects
- DO NOT reference external files like .svg, .png, .jpg
- Keep animations simple and clean
- Use only built-in Manim colors like RED, BLUE, GREEN, YELLOW, WHITE
- Each clip should be 10-15 seconds long
- Focus on key concepts from the paper using simple geometric visualizations

Example of GOOD code:
` + "```python" + `
class ExampleScene(Scene):
    def construct(self):
        title = Text("Research Title", font_size=48)
        circle = Circle(radius=2, color=BLUE)
        self.play(Write(title))
        self.play(Create(circle))
        self.wait(2)
` + "```" + `

Example of BAD code (DO NOT USE):
` + "```python" + `
# DON'T USE: SVGMobject('robot.svg')
# DON'T USE: DecimalNumber(0)
# DON'T USE: MathTex("\\frac{1}{2}")
` + "```" + `

Simply return the JSON object of this schema (no other text, no code blocks):
{
    "clips": [
        {
            "type": "manim",
            "code": "string",
            "voice_over": "string"
        }
    ]
}
`

const (
	apiURL     = "https://api.anthropic.com/v1/messages"
	apiVersion = "2023-06-01"
)

// Generator turns a research paper PDF into a storyboard via the Anthropic API
type Generator struct {
	cfg        *config.Config
	httpClient *http.Client
	endpoint   string
}

// New creates a new storyboard Generator
func New(cfg *config.Config) *Generator {
	return &Generator{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 120 * time.Second},
		endpoint:   apiURL,
	}
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string         `json:"role"`
	Content []contentBlock `json:"content"`
}

type contentBlock struct {
	Type   string          `json:"type"`
	Text   string          `json:"text,omitempty"`
	Source *documentSource `json:"source,omitempty"`
}

type documentSource struct {
	Type      string `json:"type"` // "url" | "base64"
	URL       string `json:"url,omitempty"`
	MediaType string `json:"media_type,omitempty"`
	Data      string `json:"data,omitempty"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Generate asks the model for a storyboard and returns the parsed, validated config.
// pdfRef is either an http(s) URL or a local file path (local paths force base64 mode).
func (g *Generator) Generate(ctx context.Context, pdfRef string) (*types.VideoConfig, error) {
	log.Printf("[storyboard] Generating video config from PDF: %s", pdfRef)

	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY not set")
	}

	doc, err := g.buildDocumentBlock(ctx, pdfRef)
	if err != nil {
		return nil, fmt.Errorf("prepare document: %w", err)
	}

	reqBody := anthropicRequest{
		Model:     g.cfg.Storyboard.Model,
		MaxTokens: g.cfg.Storyboard.MaxTokens,
		Messages: []anthropicMessage{
			{
				Role: "user",
				Content: []contentBlock{
					doc,
					{Type: "text", Text: prompt},
				},
			},
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", g.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-api-key", apiKey)
	req.Header.Set("anthropic-version", apiVersion)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("anthropic request: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var apiResp anthropicResponse
	if err := json.Unmarshal(respBytes, &apiResp); err != nil {
		return nil, fmt.Errorf("parse anthropic response: %w", err)
	}

	if apiResp.Error != nil {
		return nil, fmt.Errorf("anthropic error: %s", apiResp.Error.Message)
	}

	if len(apiResp.Content) == 0 {
		return nil, fmt.Errorf("anthropic returned no content")
	}

	cfg, err := Parse(apiResp.Content[0].Text)
	if err != nil {
		return nil, err
	}

	log.Printf("[storyboard] ✅ Config ready: %d clips", len(cfg.Clips))
	return cfg, nil
}

// buildDocumentBlock creates the PDF content block, either by URL or by
// embedding the bytes base64-encoded (required for local files)
func (g *Generator) buildDocumentBlock(ctx context.Context, pdfRef string) (contentBlock, error) {
	isRemote := strings.HasPrefix(pdfRef, "http://") || strings.HasPrefix(pdfRef, "https://")

	if isRemote && !g.cfg.Storyboard.UseBase64 {
		return contentBlock{
			Type:   "document",
			Source: &documentSource{Type: "url", URL: pdfRef},
		}, nil
	}

	var data []byte
	var err error
	if isRemote {
		data, err = fetchPDF(ctx, g.httpClient, pdfRef)
	} else {
		data, err = os.ReadFile(pdfRef)
	}
	if err != nil {
		return contentBlock{}, err
	}

	return contentBlock{
		Type: "document",
		Source: &documentSource{
			Type:      "base64",
			MediaType: "application/pdf",
			Data:      base64.StdEncoding.EncodeToString(data),
		},
	}, nil
}

func fetchPDF(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch PDF: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d fetching PDF", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
