package db

import (
	"strings"
	"testing"

	"github.com/pysugar/nexus-console/internal/db/models"
)

func validProvider() *models.Provider {
	return &models.Provider{
		Name:         "anthropic-main",
		URL:          "https://api.anthropic.com",
		ProviderType: "claude",
		Weight:       1,
	}
}

func TestValidateProvider(t *testing.T) {
	if err := ValidateProvider(validProvider()); err != nil {
		t.Fatalf("expected valid provider, got err=%v", err)
	}

	tests := []struct {
		name   string
		mutate func(p *models.Provider)
		want   string
	}{
		{"missing name", func(p *models.Provider) { p.Name = " " }, "name is required"},
		{"bad url", func(p *models.Provider) { p.URL = "ftp://x" }, "url must be"},
		{"unknown type", func(p *models.Provider) { p.ProviderType = "bedrock" }, "not supported"},
		{"zero weight", func(p *models.Provider) { p.Weight = 0 }, "weight"},
		{"negative threshold", func(p *models.Provider) { p.CircuitBreakerFailureThreshold = -1 }, "threshold"},
		{"custom mcp without url", func(p *models.Provider) { p.MCPPassthroughType = "custom" }, "mcpPassthroughUrl"},
		{"bad proxy scheme", func(p *models.Provider) { p.ProxyURL = "ftp://proxy:21" }, "proxy url scheme"},
	}
	for _, tc := range tests {
		p := validProvider()
		tc.mutate(p)
		err := ValidateProvider(p)
		if err == nil || !strings.Contains(err.Error(), tc.want) {
			t.Fatalf("%s: expected error containing %q, got %v", tc.name, tc.want, err)
		}
	}

	p := validProvider()
	p.ProviderType = ""
	p.ProxyURL = "socks5://127.0.0.1:1080"
	p.MCPPassthroughType = "custom"
	p.MCPPassthroughURL = "https://mcp.example.com"
	if err := ValidateProvider(p); err != nil {
		t.Fatalf("expected defaults and socks5 proxy to be valid, got err=%v", err)
	}
}

func TestProviderTypeLabel(t *testing.T) {
	tests := map[string]string{
		"claude":            "Claude",
		"CLAUDE-AUTH":       "Claude (Auth)",
		"gemini-cli":        "Gemini CLI",
		"openai-compatible": "OpenAI Compatible",
		"codex":             "Codex",
		"":                  "Claude",
	}
	for in, want := range tests {
		if got := ProviderTypeLabel(in); got != want {
			t.Fatalf("ProviderTypeLabel(%q) = %q, want %q", in, got, want)
		}
	}
}
