// internal/analysis/descriptor.go
package analysis

import (
	"sort"

	"admissions-workers/internal/common/config"
	"admissions-workers/internal/common/logger"
	"admissions-workers/internal/models"
	"admissions-workers/internal/providers"
)

// Descriptor describes one provider in the preference chain. Lower Priority is tried first.
type Descriptor struct {
	Name         string
	Priority     int
	Capabilities providers.Capabilities
	Factory      func(settings models.Settings) providers.Provider
}

// DefaultDescriptors builds the provider chain from config. Priorities follow
// cfg.Providers.Order; LM Studio always sorts after the hosted providers.
func DefaultDescriptors(cfg *config.Config, log logger.Logger) []Descriptor {
	priority := map[string]int{}
	for i, name := range cfg.Providers.Order {
		priority[name] = i
	}
	rank := func(name string) int {
		if name == models.ProviderLMStudio {
			return len(cfg.Providers.Order) + 1
		}
		if p, ok := priority[name]; ok {
			return p
		}
		return len(cfg.Providers.Order)
	}

	all := []Descriptor{
		{
			Name:         models.ProviderOpenRouter,
			Capabilities: providers.Capabilities{Analyze: true},
			Factory: func(s models.Settings) providers.Provider {
				return providers.NewOpenRouter(cfg.Providers.OpenRouter, cfg.App.SiteURL, s, log)
			},
		},
		{
			Name:         models.ProviderOpenAI,
			Capabilities: providers.Capabilities{Analyze: true, Transcribe: true},
			Factory: func(s models.Settings) providers.Provider {
				return providers.NewOpenAI(cfg.Providers.OpenAI, s, log)
			},
		},
		{
			Name:         models.ProviderGroq,
			Capabilities: providers.Capabilities{Analyze: true, Transcribe: true},
			Factory: func(s models.Settings) providers.Provider {
				return providers.NewGroq(cfg.Providers.Groq, s, log)
			},
		},
		{
			Name:         models.ProviderLMStudio,
			Capabilities: providers.Capabilities{Analyze: true},
			Factory: func(s models.Settings) providers.Provider {
				return providers.NewLMStudio(cfg.Providers.LMStudio, s, log)
			},
		},
	}

	enabled := map[string]bool{models.ProviderLMStudio: true}
	for _, name := range cfg.Providers.Order {
		enabled[name] = true
	}

	out := make([]Descriptor, 0, len(all))
	for _, d := range all {
		if !enabled[d.Name] {
			continue
		}
		d.Priority = rank(d.Name)
		out = append(out, d)
	}
	return out
}

// orderFor returns the descriptors sorted by priority with the preferred
// provider promoted to the front. LM Studio is never promoted past the hosted providers.
func orderFor(descriptors []Descriptor, preferred string) []Descriptor {
	ordered := append([]Descriptor(nil), descriptors...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority < ordered[j].Priority
	})

	if preferred == "" || preferred == models.ProviderLMStudio {
		return ordered
	}
	for i, d := range ordered {
		if d.Name == preferred {
			copy(ordered[1:i+1], ordered[:i])
			ordered[0] = d
			break
		}
	}
	return ordered
}

func findDescriptor(descriptors []Descriptor, name string) (Descriptor, bool) {
	for _, d := range descriptors {
		if d.Name == name {
			return d, true
		}
	}
	return Descriptor{}, false
}

// DefaultSettings turns the configured settings record into the defaults
// merged under every request.
func DefaultSettings(cfg *config.Config) models.Settings {
	s := cfg.Settings
	return models.Settings{
		AIProvider:    s.AIProvider,
		OpenAIKey:     s.OpenAIKey,
		GroqKey:       s.GroqKey,
		OpenRouterKey: s.OpenRouterKey,
		LMStudioURL:   s.LMStudioURL,
		VoiceEnabled:  s.VoiceEnabled,
		VoiceProvider: s.VoiceProvider,
	}
}
