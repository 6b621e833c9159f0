package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// BalanceReporter is an optional provider capability. Not every
// OpenAI-compatible API exposes an account balance endpoint.
type BalanceReporter interface {
	Balance(ctx context.Context) (string, error)
}

// deepseekBalance mirrors the DeepSeek GET /user/balance payload
type deepseekBalance struct {
	IsAvailable  bool `json:"is_available"`
	BalanceInfos []struct {
		Currency     string `json:"currency"`
		TotalBalance string `json:"total_balance"`
	} `json:"balance_infos"`
}

// Balance queries the provider's remaining account balance. Only the
// DeepSeek API exposes one; other providers report an error.
func (p *Provider) Balance(ctx context.Context) (string, error) {
	if p.name != "deepseek" {
		return "", fmt.Errorf("provider %s does not report balance", p.name)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/user/balance", nil)
	if err != nil {
		return "", fmt.Errorf("failed to build balance request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := p.http.Do(req)
	if err != nil {
		return "", &ProviderError{Provider: p.name, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &ProviderError{Provider: p.name, Status: resp.StatusCode, Err: fmt.Errorf("balance request rejected")}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read balance response: %w", err)
	}

	var balance deepseekBalance
	if err := json.Unmarshal(body, &balance); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedJSON, err)
	}
	if !balance.IsAvailable || len(balance.BalanceInfos) == 0 {
		return "", fmt.Errorf("provider %s reports no available balance", p.name)
	}

	parts := make([]string, 0, len(balance.BalanceInfos))
	for _, info := range balance.BalanceInfos {
		parts = append(parts, fmt.Sprintf("%s %s", info.TotalBalance, info.Currency))
	}
	return strings.Join(parts, ", "), nil
}

// Balance reports the account balance of the chat's preferred provider.
func (f *Failover) Balance(ctx context.Context, chatID int64) (string, error) {
	name := f.Preferred(chatID)
	p, ok := f.registry.Get(name)
	if !ok {
		return "", fmt.Errorf("provider %s is not registered", name)
	}
	reporter, ok := p.(BalanceReporter)
	if !ok {
		return "", fmt.Errorf("provider %s does not report balance", name)
	}
	return reporter.Balance(ctx)
}
