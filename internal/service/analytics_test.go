package service

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/shashidhar-chinthaparthi-au6/ai-voice/internal/model"
)

func scoredEntry(response string, sentiment, intensity float64, emotion string) model.QuestionEntry {
	return model.QuestionEntry{
		QuestionText: "q",
		UserResponse: response,
		Emotion: model.EmotionAnalysis{
			PrimaryEmotion: emotion,
			Intensity:      intensity,
			Sentiment:      sentiment,
			Scored:         true,
		},
	}
}

func TestConversationMetricsSkipsUnscoredResponses(t *testing.T) {
	conv := testConversation()
	conv.Questions = model.QuestionEntryList{
		scoredEntry("good day overall", 0.8, 6, "content"),
		{
			QuestionText: "q2",
			UserResponse: "fine",
			Emotion:      DefaultEmotionAnalysis(), // unscored fallback
		},
		scoredEntry("a bit tired", -0.2, 4, "tired"),
	}

	m := conversationMetrics(conv)

	require.Equal(t, 3, m.AITurns)
	require.Equal(t, 3, m.UserTurns)
	require.Equal(t, 2, m.ScoredResponses)
	require.InDelta(t, 0.3, m.AverageSentiment, 1e-9)
	require.InDelta(t, 5.0, m.AverageIntensity, 1e-9)
}

func TestConversationMetricsResponseLatency(t *testing.T) {
	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	conv := testConversation()
	conv.StartedAt = start
	conv.Questions = model.QuestionEntryList{
		{UserResponse: "a", RespondedAt: start.Add(10 * time.Second)},
		{UserResponse: "b", RespondedAt: start.Add(30 * time.Second)},
	}

	m := conversationMetrics(conv)

	// 10s to the first answer, 20s between answers
	require.InDelta(t, 15.0, m.AverageResponseTime, 1e-9)
}

func TestEmotionalInsightSummaryCountsScoredOnly(t *testing.T) {
	conv := testConversation()
	conv.Questions = model.QuestionEntryList{
		{UserResponse: "x", Emotion: model.EmotionAnalysis{
			PrimaryEmotion: "stressed", Triggers: []string{"deadlines"}, Needs: []string{"rest"}, Scored: true,
		}},
		{UserResponse: "y", Emotion: model.EmotionAnalysis{
			PrimaryEmotion: "stressed", Triggers: []string{"deadlines", "meetings"}, Scored: true,
		}},
		{UserResponse: "z", Emotion: model.EmotionAnalysis{
			PrimaryEmotion: "neutral", Scored: false,
		}},
	}

	summary := emotionalInsightSummary(conv)

	require.Equal(t, []model.FrequencyItem{{Label: "stressed", Count: 2}}, summary.TopEmotions)
	require.Equal(t, model.FrequencyItem{Label: "deadlines", Count: 2}, summary.TopTriggers[0])
	require.Len(t, summary.TopTriggers, 2)
	require.Equal(t, []model.FrequencyItem{{Label: "rest", Count: 1}}, summary.TopNeeds)
}

func TestTopFrequenciesOrderAndLimit(t *testing.T) {
	items := []string{"b", "a", "a", "c", "b", "a", "", "d", "e", "f"}

	top := topFrequencies(items, 3)

	require.Len(t, top, 3)
	require.Equal(t, model.FrequencyItem{Label: "a", Count: 3}, top[0])
	require.Equal(t, model.FrequencyItem{Label: "b", Count: 2}, top[1])
	// ties keep first-seen order
	require.Equal(t, model.FrequencyItem{Label: "c", Count: 1}, top[2])
}

func TestAnalyzeTopicsCountsKeywordMatches(t *testing.T) {
	turns := []model.QuestionEntry{
		{UserResponse: "The deadline for the project is brutal and the meeting ran long"},
		{UserResponse: "I feel so much stress and pressure lately"},
	}

	topics := analyzeTopics(turns)

	// "deadline", "project", "meeting" hit work; "stress", "pressure" hit stress
	require.Equal(t, 3, topicFrequency(topics, "work"))
	require.Equal(t, 2, topicFrequency(topics, "stress"))
	require.Equal(t, "work", topics[0].Topic)
}

func TestAnalyzeTopicsEmptyTurns(t *testing.T) {
	require.Empty(t, analyzeTopics(nil))
}

func TestBuildRecommendationsEmissionOrder(t *testing.T) {
	metrics := model.ConversationMetrics{
		StressLevel:    8,
		WellBeingScore: 3,
	}
	topics := model.TopicFrequencyList{{Topic: "work", Frequency: 4}}

	recs := buildRecommendations(metrics, topics)

	require.Len(t, recs, 3)
	require.Equal(t, model.RecommendationEmotionalSupport, recs[0].Type)
	require.Equal(t, model.PriorityHigh, recs[0].Priority)
	require.Equal(t, model.RecommendationPersonalDevelopment, recs[1].Type)
	require.Equal(t, model.PriorityHigh, recs[1].Priority)
	require.Equal(t, model.RecommendationWorkplaceImprovement, recs[2].Type)
	require.Equal(t, model.PriorityMedium, recs[2].Priority)
}

func TestBuildRecommendationsThresholdsAreExclusive(t *testing.T) {
	metrics := model.ConversationMetrics{StressLevel: 7, WellBeingScore: 4}
	topics := model.TopicFrequencyList{{Topic: "work", Frequency: 3}}

	recs := buildRecommendations(metrics, topics)

	require.Empty(t, recs)
}

func TestBuildRecommendationsIgnoresZeroWellBeing(t *testing.T) {
	// A zero score means the summary never ran, not that well-being is rock bottom
	recs := buildRecommendations(model.ConversationMetrics{WellBeingScore: 0}, nil)
	require.Empty(t, recs)
}

func TestTrackActionsFollowUp(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	recs := model.RecommendationList{
		{Type: model.RecommendationWorkplaceImprovement, Priority: model.PriorityMedium},
		{Type: model.RecommendationEmotionalSupport, Priority: model.PriorityHigh},
	}

	tracking := trackActions(recs, now)

	require.Len(t, tracking.Actions, 2)
	require.True(t, tracking.FollowUpRequired)
	require.NotNil(t, tracking.FollowUpDate)
	require.Equal(t, now.AddDate(0, 0, 7), *tracking.FollowUpDate)
}

func TestTrackActionsNoHighPriority(t *testing.T) {
	tracking := trackActions(model.RecommendationList{
		{Type: model.RecommendationWorkplaceImprovement, Priority: model.PriorityMedium},
	}, time.Now())

	require.False(t, tracking.FollowUpRequired)
	require.Nil(t, tracking.FollowUpDate)
}

func TestTrendDirectionTwoConversations(t *testing.T) {
	// Most recent first: current conversation at 8, one prior at 4
	require.Equal(t, model.TrendImproving, trendDirection([]float64{8, 4}))
	require.Equal(t, model.TrendDeclining, trendDirection([]float64{4, 8}))
	require.Equal(t, model.TrendStable, trendDirection([]float64{6, 6.4}))
}

func TestTrendDirectionGroupsOfThree(t *testing.T) {
	// Recent three average 8, older three average 4
	require.Equal(t, model.TrendImproving, trendDirection([]float64{8, 8, 8, 4, 4, 4}))
	require.Equal(t, model.TrendDeclining, trendDirection([]float64{4, 4, 4, 8, 8, 8}))
	// Extra older scores beyond the comparison window are ignored
	require.Equal(t, model.TrendImproving, trendDirection([]float64{8, 8, 8, 4, 4, 4, 10, 10}))
}

func TestTrendDirectionSingleScore(t *testing.T) {
	require.Equal(t, model.TrendStable, trendDirection([]float64{7}))
	require.Equal(t, model.TrendStable, trendDirection(nil))
}

func TestBuildHistoricalAnalysisDefaults(t *testing.T) {
	conv := testConversation()
	conv.OverallEmotion.WellBeingScore = 6

	analysis := buildHistoricalAnalysis(conv, nil)

	require.Equal(t, 5.0, analysis.PreviousMood)
	require.Equal(t, model.TrendStable, analysis.TrendDirection)
	require.Equal(t, 0, analysis.SampleSize)
	require.NotNil(t, analysis.RecurringThemes)
}

func TestBuildHistoricalAnalysisWithPrior(t *testing.T) {
	conv := testConversation()
	conv.OverallEmotion.WellBeingScore = 8

	prior := []model.EmotionConversation{
		{OverallEmotion: model.OverallEmotion{WellBeingScore: 4}},
	}
	analysis := buildHistoricalAnalysis(conv, prior)

	require.Equal(t, 4.0, analysis.PreviousMood)
	require.Equal(t, model.TrendImproving, analysis.TrendDirection)
	require.Equal(t, 1, analysis.SampleSize)
}

func TestRecurringThemesRequireRepetition(t *testing.T) {
	convs := []model.EmotionConversation{
		{Questions: model.QuestionEntryList{{UserResponse: "work deadline stress"}}},
		{Questions: model.QuestionEntryList{{UserResponse: "another work week"}}},
	}

	themes := recurringThemes(convs)

	// "work" appears 3 times total, "stress" only once
	require.Contains(t, themes, "work")
	require.NotContains(t, themes, "stress")
}

func TestContextualAnalysisTimeBuckets(t *testing.T) {
	cases := []struct {
		hour int
		want string
	}{
		{2, "night"},
		{6, "morning"},
		{11, "morning"},
		{12, "afternoon"},
		{17, "afternoon"},
		{18, "evening"},
		{23, "evening"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, timeOfDay(tc.hour), "hour %d", tc.hour)
	}
}

func TestSeasonBuckets(t *testing.T) {
	require.Equal(t, "winter", season(time.December))
	require.Equal(t, "winter", season(time.February))
	require.Equal(t, "spring", season(time.March))
	require.Equal(t, "summer", season(time.July))
	require.Equal(t, "autumn", season(time.October))
}

func TestContextualAnalysisFactors(t *testing.T) {
	started := time.Date(2025, 7, 14, 9, 0, 0, 0, time.UTC) // Monday morning, summer
	analysis := contextualAnalysis(started, &ContextFactors{
		Workload: "High",
		Weather:  "Sunny",
		Location: "Home",
	})

	require.Equal(t, "morning", analysis.TimeOfDay)
	require.Equal(t, "monday", analysis.DayOfWeek)
	require.Equal(t, "summer", analysis.Season)
	require.Equal(t, "high", analysis.Workload)
	require.Equal(t, "sunny", analysis.Weather)
	require.Equal(t, "home", analysis.Location)
	require.Equal(t, "unknown", analysis.Device)
	// high workload -2, sunny +1, home +1
	require.Equal(t, 0.0, analysis.EnvironmentalImpact)
}

func TestContextualAnalysisNilFactors(t *testing.T) {
	analysis := contextualAnalysis(time.Date(2025, 1, 5, 22, 0, 0, 0, time.UTC), nil)

	require.Equal(t, "unknown", analysis.Workload)
	require.Equal(t, "unknown", analysis.Weather)
	require.Equal(t, "evening", analysis.TimeOfDay)
	require.Equal(t, "winter", analysis.Season)
	require.Equal(t, 0.0, analysis.EnvironmentalImpact)
}

func TestConversationFlowClassification(t *testing.T) {
	require.Equal(t, "linear", conversationFlow(2))
	require.Equal(t, "branching", conversationFlow(3))
	require.Equal(t, "branching", conversationFlow(8))
	require.Equal(t, "adaptive", conversationFlow(9))
}

func TestInteractionAnalysisEmptyTurns(t *testing.T) {
	conv := testConversation()
	conv.Questions = nil

	analysis := interactionAnalysis(conv, nil)

	require.Equal(t, "linear", analysis.ConversationFlow)
	require.Zero(t, analysis.MeanResponseLength)
	require.Zero(t, analysis.Complexity)
}

func TestQualityMetricsClamping(t *testing.T) {
	conv := testConversation()
	conv.OverallEmotion.Satisfaction = 8

	// A single terse turn keeps engagement at the floor
	short := []model.QuestionEntry{{UserResponse: "ok"}}
	q := qualityMetrics(conv, short, 9)

	require.Equal(t, 1.0, q.Engagement)
	require.Equal(t, 2.0, q.Openness)
	require.Equal(t, 7.0, q.Trust)
	require.Equal(t, 8.0, q.Satisfaction)
	require.Equal(t, 9.0, q.Helpfulness)

	// Six long turns cap openness at 10
	long := make([]model.QuestionEntry, 6)
	for i := range long {
		long[i] = model.QuestionEntry{UserResponse: strings.Repeat("a", 300)}
	}
	q = qualityMetrics(conv, long, 5)
	require.Equal(t, 10.0, q.Engagement)
	require.Equal(t, 10.0, q.Openness)
}

func TestComparativeAnalyticsUsesBaselineAndProfile(t *testing.T) {
	historical := model.HistoricalAnalysis{PreviousMood: 6.5}
	profile := &model.UserProfile{Department: "Engineering"}

	comp := comparativeAnalytics(historical, profile)

	require.Equal(t, 6.5, comp.PersonalBaseline.WellBeing)
	require.Equal(t, "Engineering", comp.Department)
	require.NotZero(t, comp.PeerComparison.WellBeing)
	require.NotZero(t, comp.IndustryBenchmarks.WellBeing)
}

func TestComparativeAnalyticsNilProfile(t *testing.T) {
	comp := comparativeAnalytics(model.HistoricalAnalysis{PreviousMood: 5}, nil)
	require.Empty(t, comp.Department)
}
