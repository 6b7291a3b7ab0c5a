package config

import (
	"fmt"
	"time"
)

// LLMConfig holds LLM provider and prompt settings.
type LLMConfig struct {
	// Provider names the default entry in Providers.
	Provider   string                       `yaml:"provider"`
	Providers  map[string]LLMProviderConfig `yaml:"providers"`
	Defaults   LLMOptions                   `yaml:"defaults"`
	Entities   map[string]LLMOptions        `yaml:"entities"`
	TimeoutSec int                          `yaml:"timeout_sec"`
}

// Timeout returns the per-completion timeout.
func (l LLMConfig) Timeout() time.Duration {
	return time.Duration(l.TimeoutSec) * time.Second
}

// LLMProviderConfig holds one provider's connection settings.
type LLMProviderConfig struct {
	Kind    string       `yaml:"kind"` // openai, gemini
	APIKey  string       `yaml:"api_key"`
	BaseURL string       `yaml:"base_url"`
	Model   string       `yaml:"model"`
	Budget  BudgetConfig `yaml:"budget"`
}

// BudgetConfig holds token budget settings.
type BudgetConfig struct {
	DailyTokenLimit   int64  `yaml:"daily_token_limit"`   // 0 = unlimited
	MonthlyTokenLimit int64  `yaml:"monthly_token_limit"` // 0 = unlimited
	Action            string `yaml:"action"`              // "reject" | "warn" (default)
}

// LLMOptions are prompt and completion settings, global or per entity type.
// Zero values fall back to the global defaults.
type LLMOptions struct {
	Provider    string   `yaml:"provider"`
	MaxTokens   int      `yaml:"max_tokens"`
	Temperature *float64 `yaml:"temperature"`
	SystemRole  string   `yaml:"system_role"`
	Format      string   `yaml:"format"` // json, markdown, delimited; empty = by data shape
	Prompt      string   `yaml:"prompt"` // text/template override
}

// Resolve returns the options for entityKey with unset fields taken from Defaults.
func (l LLMConfig) Resolve(entityKey string) LLMOptions {
	out := l.Defaults
	if out.Provider == "" {
		out.Provider = l.Provider
	}
	o, ok := l.Entities[entityKey]
	if !ok {
		return out
	}
	if o.Provider != "" {
		out.Provider = o.Provider
	}
	if o.MaxTokens > 0 {
		out.MaxTokens = o.MaxTokens
	}
	if o.Temperature != nil {
		out.Temperature = o.Temperature
	}
	if o.SystemRole != "" {
		out.SystemRole = o.SystemRole
	}
	if o.Format != "" {
		out.Format = o.Format
	}
	if o.Prompt != "" {
		out.Prompt = o.Prompt
	}
	return out
}

func (l *LLMConfig) applyDefaults() {
	if l.TimeoutSec <= 0 {
		l.TimeoutSec = 60
	}
	if l.Defaults.MaxTokens <= 0 {
		l.Defaults.MaxTokens = 1024
	}
	if l.Defaults.Temperature == nil {
		zero := 0.0
		l.Defaults.Temperature = &zero
	}
	if l.Provider == "" && len(l.Providers) == 1 {
		for name := range l.Providers {
			l.Provider = name
		}
	}
}

func (l *LLMConfig) validate() error {
	for name, p := range l.Providers {
		switch p.Kind {
		case "openai", "gemini":
		default:
			return fmt.Errorf("llm.providers.%s.kind must be \"openai\" or \"gemini\", got %q", name, p.Kind)
		}
		if p.Model == "" {
			return fmt.Errorf("llm.providers.%s.model is required", name)
		}
		switch p.Budget.Action {
		case "", "warn", "reject":
			// ok
		default:
			return fmt.Errorf(
				"llm.providers.%s.budget.action must be \"warn\" or \"reject\", got %q",
				name, p.Budget.Action,
			)
		}
	}
	if l.Provider != "" {
		if _, ok := l.Providers[l.Provider]; !ok {
			return fmt.Errorf("llm.provider %q is not declared in llm.providers", l.Provider)
		}
	}
	if err := validateOptions("llm.defaults", l.Defaults, l.Providers); err != nil {
		return err
	}
	for key, o := range l.Entities {
		if err := validateOptions("llm.entities."+key, o, l.Providers); err != nil {
			return err
		}
	}
	return nil
}

func validateOptions(path string, o LLMOptions, providers map[string]LLMProviderConfig) error {
	if o.Provider != "" {
		if _, ok := providers[o.Provider]; !ok {
			return fmt.Errorf("%s.provider %q is not declared in llm.providers", path, o.Provider)
		}
	}
	switch o.Format {
	case "", "json", "markdown", "delimited":
	default:
		return fmt.Errorf("%s.format must be json, markdown or delimited, got %q", path, o.Format)
	}
	if o.Temperature != nil && (*o.Temperature < 0 || *o.Temperature > 2) {
		return fmt.Errorf("%s.temperature must be in [0,2], got %v", path, *o.Temperature)
	}
	return nil
}
