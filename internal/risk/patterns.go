package risk

import "github.com/BTreeMap/CrisisSense/internal/models"

// AnalyzePatterns builds the pattern snapshot for one user's records. RiskScore is the
// trend score over the last seven days of check-ins.
func (a Analyzer) AnalyzePatterns(resolutions []models.CrisisResolution, checkIns []models.CheckIn) models.PatternAnalysis {
	precursors := CrisisPrecursors(checkIns)
	return models.PatternAnalysis{
		InterventionStats: a.InterventionStats(resolutions),
		CrisisPrecursors:  precursors,
		RiskScore:         a.CalculateRiskScore(a.RecentCheckIns(checkIns), precursors),
		VulnerableHours:   a.VulnerableHours(resolutions),
	}
}
