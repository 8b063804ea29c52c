package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cherianmatt/healthAI/internal/logging"
)

const (
	assemblyAIBaseURL = "https://api.assemblyai.com/v2"

	// transcribeTimeout bounds the whole upload-and-poll cycle for one
	// recording segment.
	transcribeTimeout = 5 * time.Minute
)

// AssemblyAIClient transcribes recorded audio through the AssemblyAI REST
// API: upload the raw bytes, create a transcript job, poll until it
// settles.
type AssemblyAIClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	pollEvery  time.Duration
	log        *slog.Logger
}

// NewAssemblyAIClient builds a transcription client for the given API key.
func NewAssemblyAIClient(apiKey string) *AssemblyAIClient {
	return &AssemblyAIClient{
		apiKey:  apiKey,
		baseURL: assemblyAIBaseURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		pollEvery: 2 * time.Second,
		log:       logging.New("agent.assemblyai"),
	}
}

type uploadResponse struct {
	UploadURL string `json:"upload_url"`
}

type transcriptRequest struct {
	AudioURL string `json:"audio_url"`
}

type transcriptResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Text   string `json:"text"`
	Error  string `json:"error"`
}

// Transcribe implements interview.Transcriber.
func (c *AssemblyAIClient) Transcribe(ctx context.Context, audio []byte) (string, error) {
	if len(audio) == 0 {
		return "", errors.New("empty audio payload")
	}

	ctx, cancel := context.WithTimeout(ctx, transcribeTimeout)
	defer cancel()

	uploadURL, err := c.upload(ctx, audio)
	if err != nil {
		return "", fmt.Errorf("upload audio: %w", err)
	}

	jobID, err := c.createTranscript(ctx, uploadURL)
	if err != nil {
		return "", fmt.Errorf("create transcript: %w", err)
	}

	text, err := c.waitForTranscript(ctx, jobID)
	if err != nil {
		return "", err
	}
	c.log.Debug("audio transcribed", "job_id", jobID, "bytes", len(audio), "chars", len(text))
	return text, nil
}

func (c *AssemblyAIClient) upload(ctx context.Context, audio []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload", bytes.NewReader(audio))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Content-Type", "application/octet-stream")

	var out uploadResponse
	if err := c.do(req, &out); err != nil {
		return "", err
	}
	if out.UploadURL == "" {
		return "", errors.New("upload returned no URL")
	}
	return out.UploadURL, nil
}

func (c *AssemblyAIClient) createTranscript(ctx context.Context, audioURL string) (string, error) {
	body, err := json.Marshal(transcriptRequest{AudioURL: audioURL})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/transcript", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	var out transcriptResponse
	if err := c.do(req, &out); err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", errors.New("transcript job has no id")
	}
	return out.ID, nil
}

func (c *AssemblyAIClient) waitForTranscript(ctx context.Context, jobID string) (string, error) {
	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/transcript/"+jobID, nil)
		if err != nil {
			return "", err
		}
		req.Header.Set("Authorization", c.apiKey)

		var out transcriptResponse
		if err := c.do(req, &out); err != nil {
			return "", err
		}

		switch out.Status {
		case "completed":
			return out.Text, nil
		case "error":
			return "", fmt.Errorf("transcription failed: %s", out.Error)
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(c.pollEvery):
		}
	}
}

func (c *AssemblyAIClient) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("AssemblyAI API error: %s - %s", resp.Status, string(respBody))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
