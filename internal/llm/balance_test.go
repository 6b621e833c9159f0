package llm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

type fakeBalancer struct {
	fakeCompleter
	balance string
}

func (f *fakeBalancer) Balance(ctx context.Context) (string, error) {
	return f.balance, nil
}

func TestProviderBalance_DeepSeek(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/user/balance" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Unexpected authorization header %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"is_available":true,"balance_infos":[{"currency":"CNY","total_balance":"110.00"},{"currency":"USD","total_balance":"23.00"}]}`))
	}))
	defer srv.Close()

	p := NewProvider("deepseek", "test-key", srv.URL, "deepseek-chat")
	balance, err := p.Balance(context.Background())
	if err != nil {
		t.Fatalf("Balance failed: %v", err)
	}
	if balance != "110.00 CNY, 23.00 USD" {
		t.Errorf("Unexpected balance string %q", balance)
	}
}

func TestProviderBalance_NotSupported(t *testing.T) {
	p := NewProvider("openai", "test-key", "", "gpt-4o-mini")
	if _, err := p.Balance(context.Background()); err == nil {
		t.Error("Providers without a balance endpoint should report an error")
	}
}

func TestProviderBalance_Unavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"is_available":false,"balance_infos":[]}`))
	}))
	defer srv.Close()

	p := NewProvider("deepseek", "test-key", srv.URL, "deepseek-chat")
	if _, err := p.Balance(context.Background()); err == nil {
		t.Error("An unavailable balance should report an error")
	}
}

func TestProviderBalance_RejectedRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	p := NewProvider("deepseek", "bad-key", srv.URL, "deepseek-chat")
	_, err := p.Balance(context.Background())
	if err == nil {
		t.Fatal("A rejected balance request should report an error")
	}
	if !IsProviderFailure(err) {
		t.Errorf("Expected a provider failure, got %v", err)
	}
}

func TestFailoverBalance_UsesPreferredProvider(t *testing.T) {
	a := &fakeBalancer{fakeCompleter: fakeCompleter{name: "deepseek"}, balance: "110.00 CNY"}
	b := &fakeCompleter{name: "openai"}
	f, prefs := newTestFailover(t, "deepseek", a, b)

	balance, err := f.Balance(context.Background(), 1)
	if err != nil {
		t.Fatalf("Balance failed: %v", err)
	}
	if balance != "110.00 CNY" {
		t.Errorf("Unexpected balance %q", balance)
	}

	prefs.SetPreferredProvider(1, "openai")
	if _, err := f.Balance(context.Background(), 1); err == nil {
		t.Error("A preferred provider without balance support should report an error")
	}
}
