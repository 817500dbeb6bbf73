// Package config loads the options recognized by the rollout manager from
// a YAML document, using the usual file-plus-struct-tags style built on
// gopkg.in/yaml.v3.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultFetchThrottleWindowSeconds is applied when the config omits
// fetchThrottleWindowSeconds.
const DefaultFetchThrottleWindowSeconds = 300

// Options holds the rollout manager's recognized configuration.
type Options struct {
	// ServiceName is required: it identifies the target service.
	ServiceName string `yaml:"serviceName"`

	// FetchThrottleWindowSeconds is the window over which random fetch
	// delays are drawn. Defaults to DefaultFetchThrottleWindowSeconds.
	FetchThrottleWindowSeconds int `yaml:"fetchThrottleWindowSeconds"`

	// CurrentRolloutId seeds Controller.SetCurrentRolloutId so a proxy
	// that already knows which rollout it serves can suppress its first
	// fetch. Empty means "no baseline".
	CurrentRolloutId string `yaml:"currentRolloutId"`
}

// ThrottleWindow returns FetchThrottleWindowSeconds as a time.Duration.
func (o Options) ThrottleWindow() time.Duration {
	return time.Duration(o.FetchThrottleWindowSeconds) * time.Second
}

// Load reads and parses the YAML document at path.
func Load(path string) (Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Options{}, fmt.Errorf("config: reading %s: %w", path, err)
	}

	opts := Options{FetchThrottleWindowSeconds: DefaultFetchThrottleWindowSeconds}
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return Options{}, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	if opts.ServiceName == "" {
		return Options{}, fmt.Errorf("config: %s: serviceName is required", path)
	}
	if opts.FetchThrottleWindowSeconds <= 0 {
		opts.FetchThrottleWindowSeconds = DefaultFetchThrottleWindowSeconds
	}

	return opts, nil
}
