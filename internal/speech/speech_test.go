package speech

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestTranscribe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/audio/transcriptions") {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"text": "Напомни купить хлеб"}`))
	}))
	defer server.Close()

	s := NewOpenAISpeech("test-key", server.URL)
	text, err := s.Transcribe(context.Background(), bytes.NewReader([]byte("fake-opus")), "voice.ogg")
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	if text != "Напомни купить хлеб" {
		t.Errorf("Unexpected transcription: %q", text)
	}
}

func TestTranscribeEmptyResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"text": "  "}`))
	}))
	defer server.Close()

	s := NewOpenAISpeech("test-key", server.URL)
	if _, err := s.Transcribe(context.Background(), bytes.NewReader(nil), "voice.ogg"); err == nil {
		t.Fatal("Expected error for empty transcription, got nil")
	}
}

func TestSynthesize(t *testing.T) {
	audio := []byte{0x4f, 0x67, 0x67, 0x53} // Ogg magic
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/audio/speech") {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}
		w.Write(audio)
	}))
	defer server.Close()

	s := NewOpenAISpeech("test-key", server.URL)
	got, err := s.Synthesize(context.Background(), "Привет!")
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	if !bytes.Equal(got, audio) {
		t.Errorf("Unexpected audio bytes: %v", got)
	}
}

func TestSynthesizeEmptyText(t *testing.T) {
	s := NewOpenAISpeech("test-key", "")
	if _, err := s.Synthesize(context.Background(), "   "); err == nil {
		t.Fatal("Expected error for empty text, got nil")
	}
}
