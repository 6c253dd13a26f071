package card

import (
	"strings"
)

// Synonyms lists the status surface forms of each lifecycle.
type Synonyms struct {
	Ongoing  []string `yaml:"ongoing"`
	Upcoming []string `yaml:"upcoming"`
	Ended    []string `yaml:"ended"`
}

func DefaultSynonyms() Synonyms {
	return Synonyms{
		Ongoing:  []string{"进行中"},
		Upcoming: []string{"未开启", "未开始", "将开始"},
		Ended:    []string{"已结束"},
	}
}

// Merge returns s extended with the forms of extra not already present.
func (s Synonyms) Merge(extra Synonyms) Synonyms {
	return Synonyms{
		Ongoing:  appendMissing(s.Ongoing, extra.Ongoing),
		Upcoming: appendMissing(s.Upcoming, extra.Upcoming),
		Ended:    appendMissing(s.Ended, extra.Ended),
	}
}

func appendMissing(base, extra []string) []string {
	out := append([]string(nil), base...)
	for _, form := range extra {
		found := false
		for _, existing := range out {
			if existing == form {
				found = true
				break
			}
		}
		if !found && form != "" {
			out = append(out, form)
		}
	}
	return out
}

type Bucketer struct {
	table []bucketEntry
}

type bucketEntry struct {
	lifecycle Lifecycle
	forms     []string
}

func NewBucketer(synonyms Synonyms) *Bucketer {
	// Ongoing is checked first: a status mentioning both "进行中" and
	// "已结束" describes a running event.
	return &Bucketer{
		table: []bucketEntry{
			{lifecycle: Ongoing, forms: synonyms.Ongoing},
			{lifecycle: Upcoming, forms: synonyms.Upcoming},
			{lifecycle: Ended, forms: synonyms.Ended},
		},
	}
}

// Bucket reports false when the status matches no known synonym.
func (b *Bucketer) Bucket(status string) (Lifecycle, bool) {
	for _, entry := range b.table {
		for _, form := range entry.forms {
			if form != "" && strings.Contains(status, form) {
				return entry.lifecycle, true
			}
		}
	}
	return Unknown, false
}
