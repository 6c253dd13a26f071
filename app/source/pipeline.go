package source

import (
	"github.com/lysyi3m/event-comb/app/card"
)

func DefaultSelectors(kind Kind) Selectors {
	if kind == KindPools {
		return Selectors{
			Card:        ".card-item",
			Image:       ".img-box .pic",
			Title:       ".title",
			Description: ".desc",
			Tags:        ".tag-list .tag",
			Status:      ".current",
			Progress:    ".progess-box .txt",
		}
	}
	return Selectors{
		Card:        ".card-item",
		Image:       ".left img.pic",
		Title:       ".right .title",
		Description: ".right .desc",
		Tags:        ".tag-list .tag",
		Status:      ".status-txt",
		Progress:    ".progess-box .txt",
	}
}

func (c *Config) Classifier() card.Classifier {
	if c.Kind == KindPools {
		return card.NewPoolClassifier(c.Categories)
	}
	return card.NewEventClassifier(c.Categories)
}

// NewPipeline assembles the classification pipeline described by the config.
func (c *Config) NewPipeline() *card.Pipeline {
	pipeline := card.NewPipeline(
		c.Name,
		c.Classifier(),
		card.NewBucketer(card.DefaultSynonyms().Merge(c.Lifecycle)),
		card.NewSelector(c.Retention.Ended, c.Retention.Limit, c.Retention.Order),
	)
	if c.Settings.Concurrency > 1 {
		pipeline.Concurrency = c.Settings.Concurrency
	}
	return pipeline
}
