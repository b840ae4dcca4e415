package manifest

import (
	"fmt"
	"os"
	"regexp"

	"github.com/agentgraph/agentgraph/internal/adapter"
)

// AdapterFactory builds an adapter.Factory that resolves a provider name
// against the manifest's providers map and constructs the concrete
// Session variant its transport names (§6 DOMAIN STACK "Provider
// Adapter variants"): subprocess/JSONL, interactive pty, or HTTP chat.
func (m *Manifest) AdapterFactory() adapter.Factory {
	return func(provider string) (adapter.Session, error) {
		cfg, ok := m.Providers[provider]
		if !ok {
			return nil, fmt.Errorf("manifest: unknown provider %q", provider)
		}
		switch cfg.Transport {
		case "", "cli":
			return adapter.NewSubprocessSession(cfg.Binary), nil
		case "cli-interactive":
			var re *regexp.Regexp
			if cfg.PromptPattern != "" {
				compiled, err := regexp.Compile(cfg.PromptPattern)
				if err != nil {
					return nil, fmt.Errorf("manifest: provider %q promptPattern: %w", provider, err)
				}
				re = compiled
			}
			return adapter.NewPtySession(cfg.Binary, re), nil
		case "api":
			apiKey := os.Getenv(cfg.APIKeyEnv)
			rps := cfg.RequestsPerSec
			if rps <= 0 {
				rps = 1
			}
			return adapter.NewHTTPChatSession(cfg.Endpoint, apiKey, rps), nil
		case "mock":
			return adapter.NewMockSession(), nil
		default:
			return nil, fmt.Errorf("manifest: provider %q has unknown transport %q", provider, cfg.Transport)
		}
	}
}
