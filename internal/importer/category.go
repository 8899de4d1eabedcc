package importer

import (
	"regexp"
	"strings"

	"github.com/cleared-dev/finsight/internal/model"
)

// Rule maps a case-insensitive pattern to a category label.
type Rule struct {
	Pattern *regexp.Regexp
	Label   string
}

// Classifier assigns a fallback category from an ordered rule list. The
// first matching rule wins.
type Classifier struct {
	rules []Rule
}

// NewClassifier copies rules into a new classifier.
func NewClassifier(rules []Rule) *Classifier {
	return &Classifier{rules: append([]Rule(nil), rules...)}
}

// DefaultRules returns the built-in keyword rules.
func DefaultRules() []Rule {
	return []Rule{
		{regexp.MustCompile(`(?i)coffee|cafe|starbucks`), "Food & Drink"},
		{regexp.MustCompile(`(?i)grocery|wholefoods|market`), "Groceries"},
		{regexp.MustCompile(`(?i)spotify|music|netflix|subscription`), "Subscriptions"},
		{regexp.MustCompile(`(?i)uber|lyft|ride`), "Transport"},
		{regexp.MustCompile(`(?i)salary|payroll|employer`), "Income"},
	}
}

// DefaultClassifier returns a classifier over DefaultRules.
func DefaultClassifier() *Classifier {
	return NewClassifier(DefaultRules())
}

// Classify returns the label of the first rule matching description and
// merchant, or nil.
func (c *Classifier) Classify(description, merchant string) *string {
	text := description + " " + merchant
	for _, r := range c.rules {
		if r.Pattern.MatchString(text) {
			return model.StringPtr(r.Label)
		}
	}
	return nil
}

// categoryAssigner resolves a row's category with this precedence: an
// existing category column, the description when the category column was
// consumed as description, then the keyword fallback.
type categoryAssigner struct {
	classifier        *Classifier
	descriptionSource string
	hasCategoryColumn bool
}

func (a categoryAssigner) assign(raw, description, merchant string) *string {
	if a.descriptionSource != ColCategory && a.hasCategoryColumn {
		if v := strings.TrimSpace(raw); v != "" {
			return model.StringPtr(v)
		}
	} else if a.descriptionSource == ColCategory && description != model.UnknownDescription {
		return model.StringPtr(description)
	}
	return a.classifier.Classify(description, merchant)
}
