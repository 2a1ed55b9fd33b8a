package risk

import (
	"sort"

	"github.com/BTreeMap/CrisisSense/internal/models"
)

// triggerVocabulary is the fixed list of trigger keywords looked for in crisis notes.
var triggerVocabulary = []string{
	"stress",
	"isolation",
	"conflict",
	"financial",
	"health",
	"family",
	"work",
	"relationship",
}

var triggerMatcher = newKeywordMatcher(triggerVocabulary)

// Triggers returns a copy of the trigger vocabulary.
func Triggers() []string {
	return append([]string(nil), triggerVocabulary...)
}

// TriggerFrequencies counts, per trigger keyword, how many records mention it in their
// notes. Most frequent first; triggers never mentioned are omitted.
func (a Analyzer) TriggerFrequencies(resolutions []models.CrisisResolution) []models.TriggerFrequency {
	counts := make([]int, len(triggerVocabulary))
	for _, r := range resolutions {
		for _, idx := range triggerMatcher.match(r.Notes) {
			counts[idx]++
		}
	}

	triggers := make([]models.TriggerFrequency, 0, len(triggerVocabulary))
	for idx, n := range counts {
		if n > 0 {
			triggers = append(triggers, models.TriggerFrequency{Trigger: triggerVocabulary[idx], Frequency: n})
		}
	}
	sort.SliceStable(triggers, func(i, j int) bool {
		return triggers[i].Frequency > triggers[j].Frequency
	})
	return triggers
}
