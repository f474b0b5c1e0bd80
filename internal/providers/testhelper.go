package providers

import (
	"os"
)

// TestConfig holds provider credentials loaded from environment variables
// so live tests use the same configuration path as production.
type TestConfig struct {
	MistralAPIKey string
	OpenAIAPIKey  string
	LayoutURL     string
}

// LoadTestConfig loads provider settings from the environment.
func LoadTestConfig() TestConfig {
	return TestConfig{
		MistralAPIKey: os.Getenv("MISTRAL_API_KEY"),
		OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),
		LayoutURL:     os.Getenv("SCHOLAR_LAYOUT_URL"),
	}
}

// HasMistral returns true if a Mistral API key is configured.
func (c TestConfig) HasMistral() bool {
	return c.MistralAPIKey != ""
}

// HasOpenAI returns true if an OpenAI API key is configured.
func (c TestConfig) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}

// ToRegistryConfig converts the test config to a RegistryConfig. Only
// backends with credentials are enabled.
func (c TestConfig) ToRegistryConfig() RegistryConfig {
	cfg := RegistryConfig{
		Layout: ServiceConfig{BaseURL: c.LayoutURL},
	}
	if c.HasMistral() {
		cfg.Mistral = &MistralOCRConfig{ServiceConfig: ServiceConfig{APIKey: c.MistralAPIKey}}
	}
	if c.HasOpenAI() {
		cfg.OpenAI = &OpenAIMathConfig{APIKey: c.OpenAIAPIKey}
	}
	return cfg
}
