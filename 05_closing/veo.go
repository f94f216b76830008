package closing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"
)

const veoBaseURL = "https://generativelanguage.googleapis.com"

// VeoClient talks to the generative-video API: start a long-running
// operation, poll it at a fixed interval until done or timed out, then
// download the result.
type VeoClient struct {
	httpClient   *http.Client
	baseURL      string
	apiKey       string
	model        string
	pollInterval time.Duration
	timeout      time.Duration
}

// NewVeoClient creates a Veo client
func NewVeoClient(apiKey, model string, pollInterval, timeout time.Duration) *VeoClient {
	return &VeoClient{
		httpClient:   &http.Client{Timeout: 60 * time.Second},
		baseURL:      veoBaseURL,
		apiKey:       apiKey,
		model:        model,
		pollInterval: pollInterval,
		timeout:      timeout,
	}
}

type veoStartRequest struct {
	Instances  []veoInstance `json:"instances"`
	Parameters veoParameters `json:"parameters"`
}

type veoInstance struct {
	Prompt string `json:"prompt"`
}

type veoParameters struct {
	AspectRatio      string `json:"aspectRatio"`
	PersonGeneration string `json:"personGeneration"`
}

type veoOperation struct {
	Name  string `json:"name"`
	Done  bool   `json:"done"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
	Response struct {
		GenerateVideoResponse struct {
			GeneratedSamples []struct {
				Video struct {
					URI string `json:"uri"`
				} `json:"video"`
			} `json:"generatedSamples"`
		} `json:"generateVideoResponse"`
	} `json:"response"`
}

// GenerateClip runs the full generate→poll→download cycle and writes the
// video to outPath
func (v *VeoClient) GenerateClip(ctx context.Context, prompt, outPath string) error {
	op, err := v.start(ctx, prompt)
	if err != nil {
		return err
	}
	log.Printf("[closing] Veo operation started: %s", op.Name)

	op, err = v.waitForCompletion(ctx, op.Name)
	if err != nil {
		return err
	}

	samples := op.Response.GenerateVideoResponse.GeneratedSamples
	if len(samples) == 0 {
		return fmt.Errorf("veo returned no videos")
	}

	return v.download(ctx, samples[0].Video.URI, outPath)
}

func (v *VeoClient) start(ctx context.Context, prompt string) (*veoOperation, error) {
	reqBody := veoStartRequest{
		Instances: []veoInstance{{Prompt: prompt}},
		Parameters: veoParameters{
			AspectRatio:      "16:9",
			PersonGeneration: "dont_allow",
		},
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:predictLongRunning?key=%s", v.baseURL, v.model, v.apiKey)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	op, err := v.doOperation(req)
	if err != nil {
		return nil, fmt.Errorf("veo start: %w", err)
	}
	if op.Name == "" {
		return nil, fmt.Errorf("veo start: no operation name in response")
	}
	return op, nil
}

// waitForCompletion polls the operation until it reports done, errors, or
// the overall timeout elapses
func (v *VeoClient) waitForCompletion(ctx context.Context, opName string) (*veoOperation, error) {
	deadline := time.Now().Add(v.timeout)

	for {
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("veo generation timed out after %s", v.timeout)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(v.pollInterval):
		}

		url := fmt.Sprintf("%s/v1beta/%s?key=%s", v.baseURL, opName, v.apiKey)
		req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
		if err != nil {
			return nil, err
		}

		op, err := v.doOperation(req)
		if err != nil {
			return nil, fmt.Errorf("veo poll: %w", err)
		}
		if op.Error != nil {
			return nil, fmt.Errorf("veo operation failed: %s", op.Error.Message)
		}
		if op.Done {
			return op, nil
		}
		log.Println("[closing] Veo still generating...")
	}
}

func (v *VeoClient) doOperation(req *http.Request) (*veoOperation, error) {
	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, truncate(string(respBytes), 200))
	}

	var op veoOperation
	if err := json.Unmarshal(respBytes, &op); err != nil {
		return nil, fmt.Errorf("parse operation: %w", err)
	}
	return &op, nil
}

func (v *VeoClient) download(ctx context.Context, uri, outPath string) error {
	req, err := http.NewRequestWithContext(ctx, "GET", uri, nil)
	if err != nil {
		return err
	}
	req.Header.Set("x-goog-api-key", v.apiKey)

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("veo download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("veo download: HTTP %d", resp.StatusCode)
	}

	out, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer out.Close()

	n, err := io.Copy(out, resp.Body)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("veo download: empty file")
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
