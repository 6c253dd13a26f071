package source

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/lysyi3m/event-comb/app/card"
)

type ConfigCache struct {
	sourcesDir string
	cache      map[string]*Config
	mu         sync.RWMutex
}

func NewConfigCache(sourcesDir string) *ConfigCache {
	return &ConfigCache{
		sourcesDir: sourcesDir,
		cache:      make(map[string]*Config),
	}
}

func (cc *ConfigCache) Run() error {
	if _, err := os.Stat(cc.sourcesDir); os.IsNotExist(err) {
		return nil
	}

	files, err := filepath.Glob(filepath.Join(cc.sourcesDir, "*.yml"))
	if err != nil {
		return fmt.Errorf("failed to find YML files: %w", err)
	}

	for _, file := range files {
		sourceName := strings.TrimSuffix(filepath.Base(file), ".yml")

		config, err := cc.LoadConfig(sourceName)
		if err != nil {
			return fmt.Errorf("error loading %s: %w", file, err)
		}

		slog.Debug("Configuration loaded", "source", sourceName, "kind", config.Kind, "enabled", config.Settings.Enabled, "refresh_interval", config.Settings.RefreshInterval)
	}

	return nil
}

// LoadConfig (re)reads a single source file into the cache.
func (cc *ConfigCache) LoadConfig(sourceName string) (*Config, error) {
	configFile := cc.getConfigFilePath(sourceName)
	sourceConfig, err := cc.parseConfig(configFile)
	if err != nil {
		return nil, err
	}

	sourceConfig.Name = sourceName

	if err := cc.validateConfig(sourceConfig); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", configFile, err)
	}

	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.cache[sourceConfig.Name] = sourceConfig

	return sourceConfig, nil
}

func (cc *ConfigCache) GetConfig(sourceName string) (*Config, error) {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	sourceConfig, ok := cc.cache[sourceName]
	if !ok {
		return nil, fmt.Errorf("source config with name '%s' not found", sourceName)
	}
	return sourceConfig, nil
}

func (cc *ConfigCache) GetConfigs() map[string]*Config {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	configsCopy := make(map[string]*Config, len(cc.cache))
	for k, v := range cc.cache {
		configsCopy[k] = v
	}
	return configsCopy
}

func (cc *ConfigCache) GetEnabledConfigs() map[string]*Config {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	enabledConfigs := make(map[string]*Config)
	for k, v := range cc.cache {
		if v.Settings.Enabled {
			enabledConfigs[k] = v
		}
	}
	return enabledConfigs
}

// GetConfigNames returns the cached source names in sorted order.
func (cc *ConfigCache) GetConfigNames() []string {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	names := make([]string, 0, len(cc.cache))
	for name := range cc.cache {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (cc *ConfigCache) GetConfigCount() int {
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	return len(cc.cache)
}

func (cc *ConfigCache) parseConfig(configFile string) (*Config, error) {
	data, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var sourceConfig Config
	if err := yaml.Unmarshal(data, &sourceConfig); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if sourceConfig.Kind == "" {
		sourceConfig.Kind = KindActivities
	}
	if sourceConfig.Settings.RefreshInterval == 0 {
		sourceConfig.Settings.RefreshInterval = 3600
	}
	if sourceConfig.Settings.Timeout == 0 {
		sourceConfig.Settings.Timeout = 30
	}
	if sourceConfig.Settings.History == 0 {
		sourceConfig.Settings.History = 24
	}
	if sourceConfig.Settings.Concurrency == 0 {
		sourceConfig.Settings.Concurrency = 1
	}
	if sourceConfig.Retention.Ended == "" {
		sourceConfig.Retention.Ended = card.EndedGroupByProgress
	}
	if sourceConfig.Retention.Limit == 0 {
		sourceConfig.Retention.Limit = card.DefaultEndedLimit
	}
	if sourceConfig.Retention.Order == "" {
		sourceConfig.Retention.Order = card.OrderOngoingFirst
	}

	sourceConfig.Selectors = mergeSelectors(sourceConfig.Selectors, DefaultSelectors(sourceConfig.Kind))

	return &sourceConfig, nil
}

func mergeSelectors(s, defaults Selectors) Selectors {
	pick := func(value, fallback string) string {
		if value != "" {
			return value
		}
		return fallback
	}
	return Selectors{
		Card:        pick(s.Card, defaults.Card),
		Image:       pick(s.Image, defaults.Image),
		Title:       pick(s.Title, defaults.Title),
		Description: pick(s.Description, defaults.Description),
		Tags:        pick(s.Tags, defaults.Tags),
		Status:      pick(s.Status, defaults.Status),
		Progress:    pick(s.Progress, defaults.Progress),
	}
}

func (cc *ConfigCache) validateConfig(sourceConfig *Config) error {
	if sourceConfig == nil {
		return fmt.Errorf("sourceConfig is nil")
	}

	requiredFields := map[string]string{
		"source name": sourceConfig.Name,
		"source URL":  sourceConfig.URL,
	}

	for fieldName, fieldValue := range requiredFields {
		if fieldValue == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
	}

	if sourceConfig.Kind != KindActivities && sourceConfig.Kind != KindPools {
		return fmt.Errorf("invalid kind: %s", sourceConfig.Kind)
	}

	nonNegativeFields := map[string]int{
		"refresh interval": sourceConfig.Settings.RefreshInterval,
		"timeout":          sourceConfig.Settings.Timeout,
		"history":          sourceConfig.Settings.History,
		"concurrency":      sourceConfig.Settings.Concurrency,
		"retention limit":  sourceConfig.Retention.Limit,
	}

	for fieldName, fieldValue := range nonNegativeFields {
		if fieldValue < 0 {
			return fmt.Errorf("%s must be non-negative", fieldName)
		}
	}

	switch sourceConfig.Retention.Ended {
	case card.EndedGroupByProgress, card.EndedLimit:
	default:
		return fmt.Errorf("invalid ended retention policy: %s", sourceConfig.Retention.Ended)
	}

	switch sourceConfig.Retention.Order {
	case card.OrderOngoingFirst, card.OrderUpcomingFirst:
	default:
		return fmt.Errorf("invalid bucket order: %s", sourceConfig.Retention.Order)
	}

	for i, rule := range sourceConfig.Categories {
		if rule.Label == "" {
			return fmt.Errorf("category rule at index %d must have a label", i)
		}
		if len(rule.Keywords) == 0 {
			return fmt.Errorf("category rule at index %d must have at least one keyword", i)
		}
	}

	return nil
}

func (cc *ConfigCache) getConfigFilePath(sourceName string) string {
	return filepath.Join(cc.sourcesDir, sourceName+".yml")
}
