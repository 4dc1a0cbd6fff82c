package service

import (
	"github.com/shashidhar-chinthaparthi-au6/ai-voice/internal/model"
)

// Placeholder strategies. These figures stand in for data sources that do
// not exist yet (measured trust signals, real peer queries, industry
// datasets). They are isolated here so a real implementation can replace
// them without reshaping the analytics record.

// placeholderTrustScore is the fixed trust figure used until a measured
// trust signal exists.
func placeholderTrustScore() float64 {
	return 7
}

// placeholderPeerComparison stands in for a real peer-group query
func placeholderPeerComparison() model.ComparisonBlock {
	return model.ComparisonBlock{
		WellBeing:  6.5,
		Stress:     5.5,
		Percentile: 75,
	}
}

// placeholderIndustryBenchmarks stands in for an industry dataset lookup
func placeholderIndustryBenchmarks() model.ComparisonBlock {
	return model.ComparisonBlock{
		WellBeing:  6.2,
		Stress:     5.8,
		Percentile: 75,
	}
}

// comparativeAnalytics assembles the peer/industry/baseline block. The peer
// and industry figures are placeholders; the personal baseline comes from
// the user's own history.
func comparativeAnalytics(historical model.HistoricalAnalysis, profile *model.UserProfile) model.ComparativeAnalytics {
	comparative := model.ComparativeAnalytics{
		PeerComparison:     placeholderPeerComparison(),
		IndustryBenchmarks: placeholderIndustryBenchmarks(),
		PersonalBaseline: model.ComparisonBlock{
			WellBeing:  historical.PreviousMood,
			Stress:     5,
			Percentile: 50,
		},
	}
	if profile != nil {
		comparative.Department = profile.Department
	}
	return comparative
}
