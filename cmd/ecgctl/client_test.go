package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTempImage(t *testing.T) string {
	t.Helper()
	return writeTempFile(t, "ecg.jpg")
}

func writeTempFile(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("jpeg-bytes"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestAPIClientAnalyze(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		file, header, err := r.FormFile("image")
		if err != nil {
			t.Errorf("missing image field: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		data, _ := io.ReadAll(file)
		if header.Filename != "ecg.jpg" || string(data) != "jpeg-bytes" {
			t.Errorf("unexpected upload %q / %q", header.Filename, data)
		}
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"response":{"decision":"Unknown","justification":"x"},"status":"Fallback LLM response","statusCode":"500","timeTaken":1.5}`))
	}))
	defer srv.Close()

	env, err := newAPIClient(srv.URL).Analyze(context.Background(), writeTempImage(t))
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if env.StatusCode != "500" || env.Response.Decision != "Unknown" || env.TimeTaken != 1.5 {
		t.Errorf("unexpected envelope %+v", env)
	}
}

func TestAPIClientDetailError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"detail":"Failed to process the image: boom"}`))
	}))
	defer srv.Close()

	_, err := newAPIClient(srv.URL).Analyze(context.Background(), writeTempImage(t))
	if err == nil || !strings.Contains(err.Error(), "Failed to process the image: boom") {
		t.Fatalf("expected detail error, got %v", err)
	}
}

func TestAPIClientSendsContentTypeByExtension(t *testing.T) {
	tests := map[string]string{
		"ecg.png":  "image/png",
		"ecg.JPG":  "image/jpeg",
		"ecg.jpeg": "image/jpeg",
		"ecg.ecgx": "application/octet-stream",
	}

	for name, want := range tests {
		t.Run(name, func(t *testing.T) {
			var got string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, header, err := r.FormFile("image")
				if err != nil {
					t.Errorf("missing image field: %v", err)
					return
				}
				got = header.Header.Get("Content-Type")
				_, _ = w.Write([]byte(`{"response":{"decision":"A","justification":"B"},"status":"Success","statusCode":"200","timeTaken":0.1}`))
			}))
			defer srv.Close()

			if _, err := newAPIClient(srv.URL).Analyze(context.Background(), writeTempFile(t, name)); err != nil {
				t.Fatalf("Analyze failed: %v", err)
			}
			if got != want {
				t.Errorf("expected content type %q, got %q", want, got)
			}
		})
	}
}
