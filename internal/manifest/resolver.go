package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/agentgraph/agentgraph/internal/runner"
)

// SystemTemplatesDir is the fallback role-template directory consulted
// when a run's repo-local docs/templates/<name>.md is missing.
const SystemTemplatesDir = "/etc/agentgraph/templates"

// Resolver implements runner.Resolver (§6 "Provider Adapter contract",
// "Role template files") against a loaded Manifest. Role template text
// is cached per name on first resolution, repo-local-then-system, and a
// missing file is never an error — it caches a placeholder instead, per
// spec.md §6.
type Resolver struct {
	manifest   *Manifest
	repoRoot   string
	systemDir  string
	mu         sync.Mutex
	roleCache  map[string]string
}

// NewResolver builds a Resolver; repoRoot is the run's cwd, where
// docs/templates/ is first consulted.
func NewResolver(m *Manifest, repoRoot string) *Resolver {
	return &Resolver{
		manifest:  m,
		repoRoot:  repoRoot,
		systemDir: SystemTemplatesDir,
		roleCache: make(map[string]string),
	}
}

// ProviderSpec resolves provider into the Runner's ProviderSpec.
func (r *Resolver) ProviderSpec(provider string) (runner.ProviderSpec, error) {
	cfg, ok := r.manifest.Providers[provider]
	if !ok {
		return runner.ProviderSpec{}, fmt.Errorf("manifest: unknown provider %q", provider)
	}
	return runner.ProviderSpec{Binary: cfg.Binary, ResumeSupported: cfg.ResumeSupported}, nil
}

// RoleTemplate returns the cached or freshly loaded prompt text for
// roleTemplate. A manifest-declared inline template wins; otherwise the
// repo-local file is tried, then the system directory; a miss on both
// caches a placeholder rather than failing the turn.
func (r *Resolver) RoleTemplate(roleTemplate string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if text, ok := r.roleCache[roleTemplate]; ok {
		return text, nil
	}

	if inline, ok := r.manifest.RoleTemplates[roleTemplate]; ok {
		r.roleCache[roleTemplate] = inline
		return inline, nil
	}

	text := r.loadFromDisk(roleTemplate)
	r.roleCache[roleTemplate] = text
	return text, nil
}

func (r *Resolver) loadFromDisk(roleTemplate string) string {
	candidates := []string{
		filepath.Join(r.repoRoot, "docs", "templates", roleTemplate+".md"),
		filepath.Join(r.systemDir, roleTemplate+".md"),
	}
	for _, path := range candidates {
		data, err := os.ReadFile(path)
		if err == nil {
			return string(data)
		}
	}
	return fmt.Sprintf("Role template not found: %s", roleTemplate)
}
