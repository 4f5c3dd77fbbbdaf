package db

import (
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/pysugar/nexus-console/internal/db/models"
)

const (
	ProviderTypeClaude           = "claude"
	ProviderTypeClaudeAuth       = "claude-auth"
	ProviderTypeCodex            = "codex"
	ProviderTypeGemini           = "gemini"
	ProviderTypeGeminiCLI        = "gemini-cli"
	ProviderTypeOpenAICompatible = "openai-compatible"
)

const (
	MCPPassthroughNone    = "none"
	MCPPassthroughMinimax = "minimax"
	MCPPassthroughGLM     = "glm"
	MCPPassthroughCustom  = "custom"
)

var providerTypes = []string{
	ProviderTypeClaude,
	ProviderTypeClaudeAuth,
	ProviderTypeCodex,
	ProviderTypeGemini,
	ProviderTypeGeminiCLI,
	ProviderTypeOpenAICompatible,
}

var mcpPassthroughTypes = []string{
	MCPPassthroughNone,
	MCPPassthroughMinimax,
	MCPPassthroughGLM,
	MCPPassthroughCustom,
}

// NormalizeProviderType lower-cases and trims the provider type.
// Empty input defaults to "claude".
func NormalizeProviderType(providerType string) string {
	t := strings.ToLower(strings.TrimSpace(providerType))
	if t == "" {
		return ProviderTypeClaude
	}
	return t
}

// ValidateProvider checks a provider before it is stored.
func ValidateProvider(p *models.Provider) error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("provider name is required")
	}
	if err := validateHTTPURL("url", p.URL, false); err != nil {
		return err
	}
	if err := validateHTTPURL("websiteUrl", p.WebsiteURL, true); err != nil {
		return err
	}

	t := NormalizeProviderType(p.ProviderType)
	if !slices.Contains(providerTypes, t) {
		return fmt.Errorf(
			"provider type %q is not supported (allowed: %s)",
			t,
			strings.Join(providerTypes, ", "),
		)
	}

	if p.Weight < 1 || p.Weight > 100 {
		return fmt.Errorf("weight must be between 1 and 100, got %d", p.Weight)
	}
	if p.CostMultiplier < 0 {
		return fmt.Errorf("cost multiplier must not be negative")
	}
	if p.CircuitBreakerFailureThreshold < 0 {
		return fmt.Errorf("circuit breaker failure threshold must not be negative")
	}

	mcp := p.MCPPassthroughType
	if mcp == "" {
		mcp = MCPPassthroughNone
	}
	if !slices.Contains(mcpPassthroughTypes, mcp) {
		return fmt.Errorf(
			"mcp passthrough type %q is not supported (allowed: %s)",
			mcp,
			strings.Join(mcpPassthroughTypes, ", "),
		)
	}
	if mcp == MCPPassthroughCustom {
		if err := validateHTTPURL("mcpPassthroughUrl", p.MCPPassthroughURL, false); err != nil {
			return err
		}
	}

	if p.ProxyURL != "" {
		u, err := url.Parse(p.ProxyURL)
		if err != nil || u.Host == "" {
			return fmt.Errorf("invalid proxy url %q", p.ProxyURL)
		}
		switch u.Scheme {
		case "http", "https", "socks5":
		default:
			return fmt.Errorf("proxy url scheme %q is not supported", u.Scheme)
		}
	}
	return nil
}

func validateHTTPURL(field, raw string, optional bool) error {
	if raw == "" {
		if optional {
			return nil
		}
		return fmt.Errorf("%s is required", field)
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("%s must be an http(s) url, got %q", field, raw)
	}
	return nil
}

// ProviderTypeLabel returns a human-readable name for a provider type.
func ProviderTypeLabel(providerType string) string {
	specialCases := map[string]string{
		ProviderTypeClaudeAuth:       "Claude (Auth)",
		ProviderTypeGeminiCLI:        "Gemini CLI",
		ProviderTypeOpenAICompatible: "OpenAI Compatible",
	}

	t := NormalizeProviderType(providerType)
	if name, ok := specialCases[t]; ok {
		return name
	}

	words := strings.Fields(strings.ReplaceAll(t, "-", " "))
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}
