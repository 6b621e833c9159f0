package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"

	"github.com/gkorolev/telemate/internal/logger"
)

// fakeCompleter scripted provider for tests
type fakeCompleter struct {
	name  string
	text  string
	err   error
	calls int
}

func (f *fakeCompleter) Name() string { return f.name }

func (f *fakeCompleter) Complete(ctx context.Context, req Request) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

// memPrefs in-memory preference store
type memPrefs struct {
	providers map[int64]string
}

func newMemPrefs() *memPrefs {
	return &memPrefs{providers: make(map[int64]string)}
}

func (m *memPrefs) PreferredProvider(chatID int64) (string, error) {
	return m.providers[chatID], nil
}

func (m *memPrefs) SetPreferredProvider(chatID int64, name string) error {
	m.providers[chatID] = name
	return nil
}

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.NewLogger(logger.Config{LogDir: t.TempDir(), Level: logger.ERROR})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { log.Close() })
	return log
}

func newTestFailover(t *testing.T, primary string, providers ...Completer) (*Failover, *memPrefs) {
	t.Helper()
	reg := NewRegistry()
	for _, p := range providers {
		if err := reg.Register(p); err != nil {
			t.Fatal(err)
		}
	}
	prefs := newMemPrefs()
	return NewFailover(reg, prefs, primary, newTestLogger(t)), prefs
}

func TestRegistry_DuplicateName(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register(&fakeCompleter{name: "openai"}); err != nil {
		t.Fatal(err)
	}
	if err := reg.Register(&fakeCompleter{name: "openai"}); err == nil {
		t.Error("Registering a duplicate provider name should fail")
	}
}

func TestFailover_UsesPrimaryByDefault(t *testing.T) {
	a := &fakeCompleter{name: "deepseek", text: "from deepseek"}
	b := &fakeCompleter{name: "openai", text: "from openai"}
	f, _ := newTestFailover(t, "deepseek", a, b)

	text, err := f.Complete(context.Background(), Request{ChatID: 1, Messages: []Message{User("hi")}})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if text != "from deepseek" {
		t.Errorf("Expected primary provider answer, got %q", text)
	}
	if b.calls != 0 {
		t.Error("Secondary provider should not have been called")
	}
}

func TestFailover_QuotaSwitchesAndPersists(t *testing.T) {
	a := &fakeCompleter{name: "deepseek", err: &ProviderError{Provider: "deepseek", Status: http.StatusTooManyRequests, Err: ErrQuotaExceeded}}
	b := &fakeCompleter{name: "openai", text: "rescued"}
	f, prefs := newTestFailover(t, "deepseek", a, b)

	req := Request{ChatID: 42, Messages: []Message{User("hi")}}
	text, err := f.Complete(context.Background(), req)
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if text != "rescued" {
		t.Errorf("Expected fallback answer, got %q", text)
	}
	if prefs.providers[42] != "openai" {
		t.Errorf("Expected persisted switch to openai, got %q", prefs.providers[42])
	}

	// Subsequent calls go straight to the switched provider
	a.calls, b.calls = 0, 0
	if _, err := f.Complete(context.Background(), req); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if a.calls != 0 {
		t.Error("Failed provider should not be re-attempted after the switch")
	}
	if b.calls != 1 {
		t.Errorf("Expected exactly one call to openai, got %d", b.calls)
	}
}

func TestFailover_BothFail_KeepsPreference(t *testing.T) {
	a := &fakeCompleter{name: "deepseek", err: &ProviderError{Provider: "deepseek", Err: errors.New("down")}}
	b := &fakeCompleter{name: "openai", err: &ProviderError{Provider: "openai", Err: errors.New("down too")}}
	f, prefs := newTestFailover(t, "deepseek", a, b)

	_, err := f.Complete(context.Background(), Request{ChatID: 7, Messages: []Message{User("hi")}})
	if err == nil {
		t.Fatal("Expected error when both providers fail")
	}
	if !IsProviderFailure(err) {
		t.Errorf("Expected a provider failure, got %v", err)
	}
	if prefs.providers[7] != "" {
		t.Error("Preference must not change when the fallback also fails")
	}
}

func TestFailover_EmptyCompletionNotRetried(t *testing.T) {
	a := &fakeCompleter{name: "deepseek", err: ErrEmptyCompletion}
	b := &fakeCompleter{name: "openai", text: "unused"}
	f, _ := newTestFailover(t, "deepseek", a, b)

	_, err := f.Complete(context.Background(), Request{ChatID: 1, Messages: []Message{User("hi")}})
	if !errors.Is(err, ErrEmptyCompletion) {
		t.Fatalf("Expected ErrEmptyCompletion, got %v", err)
	}
	if b.calls != 0 {
		t.Error("Empty completion must not trigger provider fallback")
	}
}

func TestProvider_WrapError_Quota(t *testing.T) {
	p := NewProvider("openai", "key", "", "gpt-4o-mini")

	err := p.wrapError(&openai.APIError{HTTPStatusCode: http.StatusTooManyRequests, Message: "rate limited"})
	if !IsQuota(err) {
		t.Errorf("429 should map to quota, got %v", err)
	}

	err = p.wrapError(&openai.APIError{HTTPStatusCode: http.StatusPaymentRequired, Code: "insufficient_quota"})
	if !IsQuota(err) {
		t.Errorf("insufficient_quota should map to quota, got %v", err)
	}

	err = p.wrapError(&openai.APIError{HTTPStatusCode: http.StatusInternalServerError})
	if IsQuota(err) {
		t.Error("500 should not map to quota")
	}
	if !IsProviderFailure(err) {
		t.Error("API errors should be provider failures")
	}
}

func TestProvider_EmptyMessages(t *testing.T) {
	p := NewProvider("openai", "key", "", "gpt-4o-mini")
	_, err := p.Complete(context.Background(), Request{})
	if !errors.Is(err, ErrNoMessages) {
		t.Errorf("Expected ErrNoMessages, got %v", err)
	}
}

func TestExtractObject(t *testing.T) {
	type reminder struct {
		Text string `json:"text"`
		Time string `json:"time"`
		Type string `json:"type"`
	}

	tests := []struct {
		name    string
		input   string
		wantErr bool
		want    reminder
	}{
		{
			name:  "bare object",
			input: `{"text": "Купить хлеб", "time": "2026-08-28T18:00:00", "type": "one-time"}`,
			want:  reminder{Text: "Купить хлеб", Time: "2026-08-28T18:00:00", Type: "one-time"},
		},
		{
			name:  "object wrapped in prose",
			input: "Вот напоминание:\n```json\n{\"text\": \"Зарядка\", \"time\": \"2026-08-29T07:00:00\", \"type\": \"constant\"}\n```\nГотово!",
			want:  reminder{Text: "Зарядка", Time: "2026-08-29T07:00:00", Type: "constant"},
		},
		{
			name:    "no json at all",
			input:   "извините, не понял",
			wantErr: true,
		},
		{
			name:    "broken json",
			input:   `{"text": "x", "time":`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got reminder
			err := ExtractObject(tt.input, &got)
			if tt.wantErr {
				if !errors.Is(err, ErrMalformedJSON) {
					t.Errorf("Expected ErrMalformedJSON, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ExtractObject failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("ExtractObject = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestExtractArray(t *testing.T) {
	type note struct {
		ChatID int64  `json:"chat_id"`
		Text   string `json:"text"`
	}

	input := "Обновление заметки:\n[\n{\"chat_id\": 42, \"text\": \"старый текст\"},\n{\"chat_id\": 42, \"text\": \"новый текст\"}\n]"
	var got []note
	if err := ExtractArray(input, &got); err != nil {
		t.Fatalf("ExtractArray failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 elements, got %d", len(got))
	}
	if got[0].Text != "старый текст" || got[1].Text != "новый текст" {
		t.Errorf("Unexpected contents: %+v", got)
	}

	var bad []note
	if err := ExtractArray("nothing here", &bad); !errors.Is(err, ErrMalformedJSON) {
		t.Errorf("Expected ErrMalformedJSON, got %v", err)
	}
}

func TestExtractObject_ErrorKeepsSubstring(t *testing.T) {
	var v map[string]any
	err := ExtractObject("no payload", &v)
	if err == nil || !strings.Contains(err.Error(), "malformed JSON") {
		t.Errorf("Error should mention malformed JSON: %v", err)
	}
}
