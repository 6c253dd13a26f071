package source

import (
	"github.com/lysyi3m/event-comb/app/card"
)

type Kind string

const (
	KindActivities Kind = "activities"
	KindPools      Kind = "pools"
)

type Config struct {
	Name       string           // Derived from filename (without .yml extension)
	URL        string           `yaml:"url"`
	Kind       Kind             `yaml:"kind"`
	Settings   ConfigSettings   `yaml:"settings"`
	Retention  ConfigRetention  `yaml:"retention"`
	Selectors  Selectors        `yaml:"selectors"`
	Categories []card.Rule      `yaml:"categories"` // replaces the kind's default table
	Lifecycle  card.Synonyms    `yaml:"lifecycle"`  // merged with the default synonyms
}

type ConfigSettings struct {
	Enabled         bool `yaml:"enabled"`
	RefreshInterval int  `yaml:"refresh_interval"` // seconds
	Timeout         int  `yaml:"timeout"`          // seconds
	History         int  `yaml:"history"`          // stored snapshots kept
	Concurrency     int  `yaml:"concurrency"`
}

type ConfigRetention struct {
	Ended card.EndedPolicy `yaml:"ended"`
	Limit int              `yaml:"limit"`
	Order card.BucketOrder `yaml:"order"`
}

// Selectors are goquery selectors; everything but Card is relative to the
// card node.
type Selectors struct {
	Card        string `yaml:"card"`
	Image       string `yaml:"image"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Tags        string `yaml:"tags"`
	Status      string `yaml:"status"`
	Progress    string `yaml:"progress"`
}
