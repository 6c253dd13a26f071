package card

import (
	"strings"
)

// OtherCategory is emitted when no rule matches a title.
const OtherCategory = "其他"

// Rule fires when any of its keywords is contained in the title.
type Rule struct {
	Keywords []string `yaml:"keywords"`
	Label    string   `yaml:"label"`
}

func (r Rule) matches(title string) bool {
	for _, keyword := range r.Keywords {
		if keyword != "" && strings.Contains(title, keyword) {
			return true
		}
	}
	return false
}

// Classifier maps a title to its categories.
type Classifier interface {
	Classify(title string) CategorySet
}

// DefaultEventRules is the rule table for the event listing.
func DefaultEventRules() []Rule {
	return []Rule{
		{Keywords: []string{"2倍", "3倍"}, Label: "资源翻倍"},
		{Keywords: []string{"登入活动"}, Label: "签到"},
		{Keywords: []string{"制约解除决战"}, Label: "制约解除决战"},
		{Keywords: []string{"[活动]"}, Label: "活动"},
		{Keywords: []string{"总力战"}, Label: "总力战"},
		{Keywords: []string{"招募100次"}, Label: "庆典"},
		{Keywords: []string{"大决战"}, Label: "大决战"},
		{Keywords: []string{"综合战术考试"}, Label: "考试"},
		{Keywords: []string{"[迷你活动]"}, Label: "长草活动"},
		{Keywords: []string{"复刻"}, Label: "复刻"},
	}
}

// DefaultPoolRules is the rule table for the recruitment pool listing,
// highest priority first.
func DefaultPoolRules() []Rule {
	return []Rule{
		{Keywords: []string{"PICK UP", "Pick Up", "PickUp"}, Label: "UP"},
		{Keywords: []string{"精选", "特选"}, Label: "精选"},
		{Keywords: []string{"庆典", "周年", "Fes", "FES"}, Label: "庆典"},
		{Keywords: []string{"复刻"}, Label: "复刻"},
		{Keywords: []string{"招募"}, Label: "常驻招募"},
	}
}

// EventClassifier evaluates every rule, so one title can carry several labels.
type EventClassifier struct {
	rules []Rule
}

func NewEventClassifier(rules []Rule) *EventClassifier {
	if len(rules) == 0 {
		rules = DefaultEventRules()
	}
	return &EventClassifier{rules: rules}
}

func (c *EventClassifier) Classify(title string) CategorySet {
	categories := make(CategorySet, 0, 2)
	for _, rule := range c.rules {
		if rule.matches(title) {
			categories = append(categories, rule.Label)
		}
	}

	if len(categories) == 0 {
		return CategorySet{OtherCategory}
	}
	return categories
}

// PoolClassifier stops at the first matching rule.
type PoolClassifier struct {
	rules []Rule
}

func NewPoolClassifier(rules []Rule) *PoolClassifier {
	if len(rules) == 0 {
		rules = DefaultPoolRules()
	}
	return &PoolClassifier{rules: rules}
}

func (c *PoolClassifier) Classify(title string) CategorySet {
	for _, rule := range c.rules {
		if rule.matches(title) {
			return CategorySet{rule.Label}
		}
	}
	return CategorySet{OtherCategory}
}
