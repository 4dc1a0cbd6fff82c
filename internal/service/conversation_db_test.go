package service

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/shashidhar-chinthaparthi-au6/ai-voice/internal/model"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.Tenant{},
		&model.User{},
		&model.UserProfile{},
		&model.Survey{},
		&model.SurveyResponse{},
		&model.EmotionConversation{},
		&model.EmotionAnalytics{},
		&model.ConversationAnalytics{},
	))
	return db
}

func scoringCaller() *fakeCaller {
	return &fakeCaller{responses: map[string]string{
		"ResponseEmotionScore": `{
			"primary_emotion": "stressed",
			"intensity": 7,
			"confidence": 0.9,
			"triggers": ["deadlines"],
			"context": "work",
			"needs": ["rest"],
			"sentiment": -0.4
		}`,
		"ConversationSummary": `{
			"dominant_emotion": "stressed",
			"average_intensity": 7,
			"emotional_state": "strained",
			"well_being_score": 4,
			"stress_level": 8,
			"energy_level": 4,
			"satisfaction": 6
		}`,
		"ConversationInsights": `{
			"emotional_patterns": ["stress peaks midweek"],
			"concerns": ["sustained deadline pressure"],
			"positive_factors": [],
			"recommendations": ["lighter sprint load"],
			"key_topics": ["work"],
			"ai_performance": {"helpfulness": 8, "empathy": 7}
		}`,
		"PredictiveInsights": `{
			"risk_factors": ["burnout"],
			"improvement_areas": ["workload"],
			"early_warnings": [],
			"next_week_mood": 5,
			"next_week_stress": 7,
			"next_week_energy": 4,
			"confidence": 0.6
		}`,
	}}
}

func newTestStack(t *testing.T) (*ConversationService, *Aggregator, *gorm.DB) {
	t.Helper()
	db := openTestDB(t)
	log := zap.NewNop()
	extraction := NewExtractionService(scoringCaller(), log)
	aggregator := NewAggregator(db, extraction, log)
	snapshots := NewEmotionSnapshotService(db, log)
	convs := NewConversationService(db, extraction, aggregator, snapshots, log)
	return convs, aggregator, db
}

func TestConversationLifecycle(t *testing.T) {
	ctx := context.Background()
	convs, _, db := newTestStack(t)

	conv, questions, err := convs.Start(ctx, 1, 10, model.ConversationDaily)
	require.NoError(t, err)
	require.NotEmpty(t, conv.SessionID)
	require.Equal(t, model.ConversationInProgress, conv.Status)
	require.Len(t, questions, 3)

	_, analysis, err := convs.Respond(ctx, 1, 10, conv.SessionID,
		"daily_1", "How are you feeling today?", "Stressed, too many deadlines at work")
	require.NoError(t, err)
	require.True(t, analysis.Scored)
	require.Equal(t, "stressed", analysis.PrimaryEmotion)

	_, _, err = convs.Respond(ctx, 1, 10, conv.SessionID,
		"daily_2", "What was the most significant part of your day?", "A long meeting about the project deadline")
	require.NoError(t, err)

	completed, analytics, err := convs.Complete(ctx, 1, 10, conv.SessionID, &ContextFactors{Workload: "high"})
	require.NoError(t, err)
	require.Equal(t, model.ConversationCompleted, completed.Status)
	require.NotNil(t, completed.CompletedAt)
	require.Equal(t, 4.0, completed.OverallEmotion.WellBeingScore)
	require.Equal(t, []string{"work"}, completed.Insights.KeyTopics)

	require.NotNil(t, analytics)
	require.Equal(t, completed.ID, analytics.ConversationID)
	require.Equal(t, 2, analytics.Metrics.UserTurns)
	require.Equal(t, 2, analytics.Metrics.ScoredResponses)
	// stress 8 fires the high-priority support rule
	require.NotEmpty(t, analytics.Recommendations)
	require.Equal(t, model.RecommendationEmotionalSupport, analytics.Recommendations[0].Type)
	require.True(t, analytics.Actions.FollowUpRequired)
	require.Equal(t, "high", analytics.Contextual.Workload)

	// Completion also wrote the per-user snapshot
	var snapshots []model.EmotionAnalytics
	require.NoError(t, db.Where("tenant_id = ? AND user_id = ?", 1, 10).Find(&snapshots).Error)
	require.Len(t, snapshots, 1)
	require.Equal(t, 4.0, snapshots[0].WellBeing)
	require.Equal(t, "stressed", snapshots[0].DominantEmotion)
}

func TestCompleteIsTerminal(t *testing.T) {
	ctx := context.Background()
	convs, _, _ := newTestStack(t)

	conv, _, err := convs.Start(ctx, 1, 10, model.ConversationDaily)
	require.NoError(t, err)
	_, _, err = convs.Respond(ctx, 1, 10, conv.SessionID, "daily_1", "How are you feeling today?", "fine")
	require.NoError(t, err)

	_, _, err = convs.Complete(ctx, 1, 10, conv.SessionID, nil)
	require.NoError(t, err)

	_, _, err = convs.Complete(ctx, 1, 10, conv.SessionID, nil)
	require.ErrorIs(t, err, ErrConversationCompleted)

	_, _, err = convs.Respond(ctx, 1, 10, conv.SessionID, "daily_2", "q", "late answer")
	require.ErrorIs(t, err, ErrConversationCompleted)
}

func TestAnalyzeIsIdempotent(t *testing.T) {
	ctx := context.Background()
	convs, aggregator, db := newTestStack(t)

	conv, _, err := convs.Start(ctx, 1, 10, model.ConversationDaily)
	require.NoError(t, err)
	_, _, err = convs.Respond(ctx, 1, 10, conv.SessionID, "daily_1", "q", "busy work day")
	require.NoError(t, err)
	completed, first, err := convs.Complete(ctx, 1, 10, conv.SessionID, nil)
	require.NoError(t, err)

	second, err := aggregator.Analyze(ctx, completed, nil)
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)

	var count int64
	require.NoError(t, db.Model(&model.ConversationAnalytics{}).
		Where("conversation_id = ?", completed.ID).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestAnalyzeRejectsInProgressConversation(t *testing.T) {
	ctx := context.Background()
	convs, aggregator, _ := newTestStack(t)

	conv, _, err := convs.Start(ctx, 1, 10, model.ConversationDaily)
	require.NoError(t, err)

	_, err = aggregator.Analyze(ctx, conv, nil)
	require.Error(t, err)
}

func TestConversationsAreTenantScoped(t *testing.T) {
	ctx := context.Background()
	convs, _, _ := newTestStack(t)

	conv, _, err := convs.Start(ctx, 1, 10, model.ConversationDaily)
	require.NoError(t, err)

	// Same session id through another tenant or another user resolves nothing
	_, err = convs.GetBySession(ctx, 2, 10, conv.SessionID)
	require.ErrorIs(t, err, ErrConversationNotFound)
	_, err = convs.GetBySession(ctx, 1, 11, conv.SessionID)
	require.ErrorIs(t, err, ErrConversationNotFound)

	_, err = convs.GetByID(ctx, 2, conv.ID)
	require.ErrorIs(t, err, ErrConversationNotFound)
}

func TestStartFallsBackToDailyQuestions(t *testing.T) {
	ctx := context.Background()
	convs, _, _ := newTestStack(t)

	conv, questions, err := convs.Start(ctx, 1, 10, "quarterly")
	require.NoError(t, err)
	require.Equal(t, model.ConversationDaily, conv.ConversationType)
	require.Len(t, questions, 3)
}

func TestHistoricalAnalysisSeesPriorConversations(t *testing.T) {
	ctx := context.Background()
	convs, aggregator, _ := newTestStack(t)

	// First completed conversation establishes the baseline
	first, _, err := convs.Start(ctx, 1, 10, model.ConversationDaily)
	require.NoError(t, err)
	_, _, err = convs.Respond(ctx, 1, 10, first.SessionID, "daily_1", "q", "rough work deadline again")
	require.NoError(t, err)
	_, _, err = convs.Complete(ctx, 1, 10, first.SessionID, nil)
	require.NoError(t, err)

	second, _, err := convs.Start(ctx, 1, 10, model.ConversationDaily)
	require.NoError(t, err)
	_, _, err = convs.Respond(ctx, 1, 10, second.SessionID, "daily_1", "q", "work again, more deadlines")
	require.NoError(t, err)
	completedSecond, _, err := convs.Complete(ctx, 1, 10, second.SessionID, nil)
	require.NoError(t, err)

	historical := aggregator.historicalAnalysis(ctx, completedSecond)
	require.Equal(t, 1, historical.SampleSize)
	require.Equal(t, 4.0, historical.PreviousMood)
	require.Contains(t, historical.RecurringThemes, "work")
}

func TestDashboardScopesByTenant(t *testing.T) {
	ctx := context.Background()
	convs, _, db := newTestStack(t)
	dashboard := NewDashboardService(db, zap.NewNop())

	conv, _, err := convs.Start(ctx, 1, 10, model.ConversationDaily)
	require.NoError(t, err)
	_, _, err = convs.Respond(ctx, 1, 10, conv.SessionID, "daily_1", "q", "stressful work deadline")
	require.NoError(t, err)
	_, _, err = convs.Complete(ctx, 1, 10, conv.SessionID, nil)
	require.NoError(t, err)

	start, end, err := ParseTimeWindow("7d", "", "")
	require.NoError(t, err)

	mine, err := dashboard.Dashboard(ctx, 1, start, end)
	require.NoError(t, err)
	require.Equal(t, 1, mine.ConversationCount)
	require.InDelta(t, 4.0, mine.AverageWellBeing, 1e-9)

	other, err := dashboard.Dashboard(ctx, 2, start, end)
	require.NoError(t, err)
	require.Equal(t, 0, other.ConversationCount)
	require.Empty(t, other.TopEmotions)

	records, err := dashboard.UserAnalytics(ctx, 1, 10, start, end)
	require.NoError(t, err)
	require.Len(t, records, 1)
}
