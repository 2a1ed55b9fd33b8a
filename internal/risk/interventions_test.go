package risk

import (
	"math"
	"reflect"
	"testing"

	"github.com/BTreeMap/CrisisSense/internal/models"
)

func interventionFixture() []models.CrisisResolution {
	return []models.CrisisResolution{
		resolutionAt(1, "", rating(8), "breathing"),
		resolutionAt(2, "", rating(6), "breathing"),
		resolutionAt(3, "", rating(9), "walk"),
		resolutionAt(4, "", nil, "walk"),
		resolutionAt(5, "", rating(11), "journaling"),
		resolutionAt(6, "", rating(4), "music", "music", " "),
	}
}

func TestInterventionStats(t *testing.T) {
	got := testAnalyzer().InterventionStats(interventionFixture())
	want := map[string]models.InterventionStat{
		"breathing": {Count: 2, TotalEffectiveness: 14, AverageEffectiveness: 7},
		"walk":      {Count: 1, TotalEffectiveness: 9, AverageEffectiveness: 9},
		"music":     {Count: 1, TotalEffectiveness: 4, AverageEffectiveness: 4},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("InterventionStats() = %v, want %v", got, want)
	}
}

func TestInterventionEffectiveness_SortedAndGuarded(t *testing.T) {
	got := testAnalyzer().InterventionEffectiveness(interventionFixture())
	want := []models.InterventionScore{
		{Intervention: "walk", AverageEffectiveness: 9},
		{Intervention: "breathing", AverageEffectiveness: 7},
		{Intervention: "music", AverageEffectiveness: 4},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("InterventionEffectiveness() = %v, want %v", got, want)
	}
	for _, s := range got {
		if math.IsNaN(s.AverageEffectiveness) {
			t.Errorf("intervention %q has NaN average", s.Intervention)
		}
	}
}

func TestInterventionEffectiveness_UnratedOnly(t *testing.T) {
	got := testAnalyzer().InterventionEffectiveness([]models.CrisisResolution{resolutionAt(1, "", nil, "walk")})
	if len(got) != 0 {
		t.Errorf("expected unrated interventions to be excluded, got %v", got)
	}
}

func score(name string, avg float64) models.InterventionScore {
	return models.InterventionScore{Intervention: name, AverageEffectiveness: avg}
}

func TestRecommendInterventions(t *testing.T) {
	tests := []struct {
		name   string
		ranked []models.InterventionScore
		want   []string
	}{
		{"none", nil, nil},
		{"below threshold", []models.InterventionScore{score("walk", 6.9)}, nil},
		{"threshold inclusive", []models.InterventionScore{score("breathing", 7)}, []string{"breathing"}},
		{"top three", []models.InterventionScore{
			score("a", 7.5), score("b", 9), score("c", 8), score("d", 10), score("e", 3),
		}, []string{"d", "b", "c"}},
		{"ties by name", []models.InterventionScore{score("walk", 8), score("breathing", 8)}, []string{"breathing", "walk"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RecommendInterventions(tt.ranked); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("RecommendInterventions() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDefaultInterventionsReturnsFreshSlice(t *testing.T) {
	first := DefaultInterventions()
	if len(first) != 3 {
		t.Fatalf("expected three default interventions, got %v", first)
	}
	first[0] = "mutated"
	if DefaultInterventions()[0] == "mutated" {
		t.Error("default interventions were mutated through a returned slice")
	}
}
