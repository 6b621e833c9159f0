package llm

import (
	"context"
	"errors"

	"github.com/gkorolev/telemate/internal/logger"
)

// PreferenceStore persists the provider a conversation prefers
type PreferenceStore interface {
	PreferredProvider(chatID int64) (string, error)
	SetPreferredProvider(chatID int64, name string) error
}

// Failover routes completions to the conversation's preferred provider and
// retries once against another registered provider when the preferred one
// fails. A successful fallback is persisted as the new preference, so
// subsequent calls for that conversation go straight to the working provider.
type Failover struct {
	registry *Registry
	prefs    PreferenceStore
	primary  string
	log      *logger.Logger
}

// NewFailover creates a failover router.
// primary is used for conversations without a stored preference.
func NewFailover(registry *Registry, prefs PreferenceStore, primary string, log *logger.Logger) *Failover {
	return &Failover{
		registry: registry,
		prefs:    prefs,
		primary:  primary,
		log:      log,
	}
}

func (f *Failover) Name() string {
	return "failover"
}

// Preferred returns the provider name the conversation currently uses
func (f *Failover) Preferred(chatID int64) string {
	name, err := f.prefs.PreferredProvider(chatID)
	if err != nil || name == "" {
		return f.primary
	}
	if _, ok := f.registry.Get(name); !ok {
		return f.primary
	}
	return name
}

// Providers returns the registered provider names in registration order
func (f *Failover) Providers() []string {
	return f.registry.Names()
}

// SetPreferred stores the provider the conversation should use
func (f *Failover) SetPreferred(chatID int64, name string) error {
	if _, ok := f.registry.Get(name); !ok {
		return errors.New("unknown provider: " + name)
	}
	return f.prefs.SetPreferredProvider(chatID, name)
}

// Complete tries the preferred provider and falls back once on provider failure.
// Empty completions are not retried; that policy belongs to the handlers.
func (f *Failover) Complete(ctx context.Context, req Request) (string, error) {
	preferred := f.Preferred(req.ChatID)

	provider, ok := f.registry.Get(preferred)
	if !ok {
		return "", errors.New("no provider registered as " + preferred)
	}

	text, err := provider.Complete(ctx, req)
	if err == nil {
		return text, nil
	}
	if !IsProviderFailure(err) {
		return "", err
	}

	fallback := f.other(preferred)
	if fallback == nil {
		return "", err
	}

	f.log.Warn("provider %s failed for chat %d, retrying with %s: %v",
		preferred, req.ChatID, fallback.Name(), err)

	text, ferr := fallback.Complete(ctx, req)
	if ferr != nil {
		// Report the original failure; the fallback one is only logged
		f.log.Error("fallback provider %s also failed for chat %d: %v",
			fallback.Name(), req.ChatID, ferr)
		return "", err
	}

	if serr := f.prefs.SetPreferredProvider(req.ChatID, fallback.Name()); serr != nil {
		f.log.Error("failed to persist provider switch for chat %d: %v", req.ChatID, serr)
	} else {
		f.log.Info("chat %d switched to provider %s", req.ChatID, fallback.Name())
	}

	return text, nil
}

// other returns the first registered provider that is not name
func (f *Failover) other(name string) Completer {
	for _, candidate := range f.registry.Names() {
		if candidate == name {
			continue
		}
		if p, ok := f.registry.Get(candidate); ok {
			return p
		}
	}
	return nil
}
