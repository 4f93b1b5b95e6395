package deepgram

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/MrWong99/readscript/pkg/provider/stt"
)

// ---- URL / query-param tests ----

func TestBuildURL_Defaults(t *testing.T) {
	p, err := New("test-key")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	rawURL, err := p.buildURL("")
	if err != nil {
		t.Fatalf("buildURL: %v", err)
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		t.Fatalf("parse URL: %v", err)
	}
	q := u.Query()

	assertEqual(t, "host", "api.deepgram.com", u.Host)
	assertEqual(t, "model", "nova-3", q.Get("model"))
	assertEqual(t, "language", "en", q.Get("language"))
	assertEqual(t, "smart_format", "true", q.Get("smart_format"))
}

func TestBuildURL_LanguageOverride(t *testing.T) {
	p, _ := New("key", WithModel("base"), WithLanguage("de-DE"))
	rawURL, _ := p.buildURL("fr")
	u, _ := url.Parse(rawURL)
	assertEqual(t, "model", "base", u.Query().Get("model"))
	assertEqual(t, "language", "fr", u.Query().Get("language"))
}

// ---- response parsing ----

func TestParseResponse(t *testing.T) {
	body := []byte(`{
		"metadata": {"duration": 61.5},
		"results": {"channels": [{"detected_language": "en",
			"alternatives": [{"transcript": " hello there world ", "confidence": 0.97}]}]}
	}`)
	tr, err := parseResponse(body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertEqual(t, "text", "hello there world", tr.Text)
	assertEqual(t, "language", "en", tr.Language)
	if tr.Duration != 61500*time.Millisecond {
		t.Errorf("duration: got %v, want 61.5s", tr.Duration)
	}
}

func TestParseResponse_Empty(t *testing.T) {
	if _, err := parseResponse([]byte(`{"results": {"channels": []}}`)); err == nil {
		t.Error("expected error for empty channels")
	}
	if _, err := parseResponse([]byte(`not json`)); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

// ---- round trip ----

func TestTranscribe_RoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assertEqual(t, "auth", "Token dg-key", r.Header.Get("Authorization"))
		assertEqual(t, "content-type", "audio/mpeg", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assertEqual(t, "body", "mp3-bytes", string(body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"metadata":{"duration":2},"results":{"channels":[{"alternatives":[{"transcript":"one two three"}]}]}}`)
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "s.mp3")
	if err := os.WriteFile(path, []byte("mp3-bytes"), 0o644); err != nil {
		t.Fatal(err)
	}

	p, _ := New("dg-key", WithEndpoint(srv.URL+"/v1/listen"))
	tr, err := p.Transcribe(context.Background(), stt.Request{Path: path})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertEqual(t, "text", "one two three", tr.Text)
	if tr.Duration != 2*time.Second {
		t.Errorf("duration: got %v", tr.Duration)
	}
}

func TestTranscribe_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"err_code":"INVALID_AUTH"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "s.wav")
	_ = os.WriteFile(path, []byte("RIFF"), 0o644)

	p, _ := New("bad", WithEndpoint(srv.URL))
	if _, err := p.Transcribe(context.Background(), stt.Request{Path: path}); err == nil {
		t.Fatal("expected error for HTTP 401")
	}
}

func TestNew_EmptyAPIKey(t *testing.T) {
	if _, err := New(""); err == nil {
		t.Error("expected error for empty API key")
	}
}

func TestContentType(t *testing.T) {
	assertEqual(t, "mp3", "audio/mpeg", contentType("a/B.MP3"))
	assertEqual(t, "wav", "audio/wav", contentType("x.wav"))
	assertEqual(t, "unknown", "application/octet-stream", contentType("x.bin"))
}

// ---- helpers ----

func assertEqual(t *testing.T, label, want, got string) {
	t.Helper()
	if want != got {
		t.Errorf("%s: want %q, got %q", label, want, got)
	}
}
