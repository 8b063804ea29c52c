package agent

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func testTranscriber(srvURL string) *AssemblyAIClient {
	c := NewAssemblyAIClient("test-key")
	c.baseURL = srvURL
	c.pollEvery = time.Millisecond
	return c
}

func TestAssemblyAITranscribe(t *testing.T) {
	var polls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "test-key" {
			t.Errorf("Authorization = %q, want api key", got)
		}
		w.Header().Set("Content-Type", "application/json")

		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/upload":
			json.NewEncoder(w).Encode(map[string]string{"upload_url": "https://cdn.example/audio/1"})

		case r.Method == http.MethodPost && r.URL.Path == "/transcript":
			var req transcriptRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Errorf("decode transcript request: %v", err)
			}
			if req.AudioURL != "https://cdn.example/audio/1" {
				t.Errorf("audio_url = %q, want the uploaded URL", req.AudioURL)
			}
			json.NewEncoder(w).Encode(transcriptResponse{ID: "job-1", Status: "queued"})

		case r.Method == http.MethodGet && r.URL.Path == "/transcript/job-1":
			if polls.Add(1) < 2 {
				json.NewEncoder(w).Encode(transcriptResponse{ID: "job-1", Status: "processing"})
				return
			}
			json.NewEncoder(w).Encode(transcriptResponse{ID: "job-1", Status: "completed", Text: "I have a headache"})

		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	text, err := testTranscriber(srv.URL).Transcribe(context.Background(), []byte("RIFF....WAVE"))
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if text != "I have a headache" {
		t.Errorf("text = %q", text)
	}
	if polls.Load() < 2 {
		t.Errorf("polls = %d, want at least 2 (job settles on the second poll)", polls.Load())
	}
}

func TestAssemblyAITranscribeJobError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/upload":
			json.NewEncoder(w).Encode(map[string]string{"upload_url": "https://cdn.example/audio/2"})
		case r.Method == http.MethodPost && r.URL.Path == "/transcript":
			json.NewEncoder(w).Encode(transcriptResponse{ID: "job-2", Status: "queued"})
		default:
			json.NewEncoder(w).Encode(transcriptResponse{ID: "job-2", Status: "error", Error: "audio too short"})
		}
	}))
	defer srv.Close()

	_, err := testTranscriber(srv.URL).Transcribe(context.Background(), []byte("x"))
	if err == nil || !strings.Contains(err.Error(), "audio too short") {
		t.Fatalf("err = %v, want the job's error message", err)
	}
}

func TestAssemblyAITranscribeAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "bad api key"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := testTranscriber(srv.URL).Transcribe(context.Background(), []byte("x"))
	if err == nil || !strings.Contains(err.Error(), "AssemblyAI API error") {
		t.Fatalf("err = %v, want an API error", err)
	}
}

func TestAssemblyAITranscribeEmptyAudio(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for empty audio")
	}))
	defer srv.Close()

	if _, err := testTranscriber(srv.URL).Transcribe(context.Background(), nil); err == nil {
		t.Fatal("want error for empty audio")
	}
}

func TestAssemblyAITranscribeContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/upload":
			json.NewEncoder(w).Encode(map[string]string{"upload_url": "https://cdn.example/audio/3"})
		case r.Method == http.MethodPost && r.URL.Path == "/transcript":
			json.NewEncoder(w).Encode(transcriptResponse{ID: "job-3", Status: "queued"})
		default:
			// Never settles.
			json.NewEncoder(w).Encode(transcriptResponse{ID: "job-3", Status: "processing"})
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	c := testTranscriber(srv.URL)
	c.pollEvery = 10 * time.Millisecond

	_, err := c.Transcribe(ctx, []byte("x"))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want context deadline", err)
	}
}
