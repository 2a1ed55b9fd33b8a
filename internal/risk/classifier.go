package risk

import (
	"sort"
	"strings"

	"github.com/BTreeMap/CrisisSense/internal/models"
)

// moderateIndicatorThreshold is the indicator count that must be exceeded for text
// without severe or high matches to be rated moderate. It counts every indicator, not
// only moderate ones.
const moderateIndicatorThreshold = 2

// Tier is a group of keywords sharing one urgency level.
type Tier struct {
	Level    models.UrgencyLevel
	Keywords []string
}

// DefaultTiers returns the built-in keyword lexicon.
func DefaultTiers() []Tier {
	return []Tier{
		{
			Level: models.UrgencySevere,
			Keywords: []string{
				"suicide", "suicidal", "kill myself", "end my life", "want to die",
				"better off dead", "hurt myself", "self harm",
			},
		},
		{
			Level: models.UrgencyHigh,
			Keywords: []string{
				"hopeless", "give up", "worthless", "no way out", "can't go on", "trapped", "burden",
			},
		},
		{
			Level: models.UrgencyModerate,
			Keywords: []string{
				"overwhelmed", "desperate", "panic", "help", "scared", "alone", "can't cope",
			},
		},
	}
}

type tierKeyword struct {
	level models.UrgencyLevel
	text  string
}

// ContentClassifier tags free text with keyword-tier risk indicators. It is immutable
// once built and safe for concurrent use.
type ContentClassifier struct {
	keywords []tierKeyword
	matcher  *keywordMatcher
}

// NewContentClassifier builds a classifier from keyword tiers. Tiers with a level other
// than severe, high or moderate are ignored.
func NewContentClassifier(tiers ...Tier) *ContentClassifier {
	ordered := make([]Tier, 0, len(tiers))
	for _, t := range tiers {
		if urgencyRank(t.Level) > 0 {
			ordered = append(ordered, t)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return urgencyRank(ordered[i].Level) > urgencyRank(ordered[j].Level)
	})

	c := &ContentClassifier{}
	texts := make([]string, 0)
	for _, t := range ordered {
		for _, kw := range t.Keywords {
			kw = strings.TrimSpace(kw)
			if kw == "" {
				continue
			}
			c.keywords = append(c.keywords, tierKeyword{level: t.Level, text: kw})
			texts = append(texts, kw)
		}
	}
	c.matcher = newKeywordMatcher(texts)
	return c
}

// Analyze classifies text. Empty or whitespace-only input yields no indicators, low
// urgency and no review recommendation.
func (c *ContentClassifier) Analyze(text string) models.TextRiskAssessment {
	assessment := models.TextRiskAssessment{
		RiskIndicators: []string{},
		UrgencyLevel:   models.UrgencyLow,
	}
	if c == nil || c.matcher == nil || strings.TrimSpace(text) == "" {
		return assessment
	}

	var severe, high bool
	for _, idx := range c.matcher.match(text) {
		kw := c.keywords[idx]
		assessment.RiskIndicators = append(assessment.RiskIndicators, string(kw.level)+": "+kw.text)
		switch kw.level {
		case models.UrgencySevere:
			severe = true
		case models.UrgencyHigh:
			high = true
		}
	}

	count := len(assessment.RiskIndicators)
	switch {
	case severe:
		assessment.UrgencyLevel = models.UrgencySevere
	case high:
		assessment.UrgencyLevel = models.UrgencyHigh
	case count > moderateIndicatorThreshold:
		assessment.UrgencyLevel = models.UrgencyModerate
	}

	switch assessment.UrgencyLevel {
	case models.UrgencySevere, models.UrgencyHigh:
		assessment.RecommendProfessionalReview = true
	case models.UrgencyModerate:
		assessment.RecommendProfessionalReview = count > moderateIndicatorThreshold
	}
	return assessment
}

var defaultClassifier = NewContentClassifier(DefaultTiers()...)

// AnalyzeCrisisContent classifies text with the built-in lexicon.
func AnalyzeCrisisContent(text string) models.TextRiskAssessment {
	return defaultClassifier.Analyze(text)
}

func urgencyRank(u models.UrgencyLevel) int {
	switch u {
	case models.UrgencySevere:
		return 3
	case models.UrgencyHigh:
		return 2
	case models.UrgencyModerate:
		return 1
	default:
		return 0
	}
}
