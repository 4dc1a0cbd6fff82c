package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/shashidhar-chinthaparthi-au6/ai-voice/internal/model"
	"github.com/shashidhar-chinthaparthi-au6/ai-voice/prometheus"
)

// ContextFactors is the optional environment input to an analysis. Absent
// fields fall back to "unknown"/neutral values.
type ContextFactors struct {
	Workload string `json:"workload,omitempty"`
	Weather  string `json:"weather,omitempty"`
	Location string `json:"location,omitempty"`
	Device   string `json:"device,omitempty"`
}

// Aggregator transforms one completed conversation plus tenant/user context
// into one ConversationAnalytics record. The record is built fully in memory
// and persisted once; a failed build never leaves a partial row behind.
type Aggregator struct {
	db         *gorm.DB
	extraction *ExtractionService
	log        *zap.Logger
}

// NewAggregator builds the rollup pipeline
func NewAggregator(db *gorm.DB, extraction *ExtractionService, log *zap.Logger) *Aggregator {
	return &Aggregator{db: db, extraction: extraction, log: log}
}

// Analyze runs the full per-conversation pipeline and persists the result.
// The insert ignores conflicts on conversation_id, so concurrent analyze
// calls for the same conversation converge on a single record; the stored
// record is returned either way.
func (a *Aggregator) Analyze(ctx context.Context, conv *model.EmotionConversation, factors *ContextFactors) (*model.ConversationAnalytics, error) {
	if conv.Status != model.ConversationCompleted {
		return nil, fmt.Errorf("conversation %s is not completed", conv.SessionID)
	}

	record := a.buildRecord(ctx, conv, factors)

	defer prometheus.TrackDBOperation("insert")(time.Now())
	result := a.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "conversation_id"}},
			DoNothing: true,
		}).
		Create(record)
	if result.Error != nil {
		return nil, fmt.Errorf("persist analytics: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		// Another caller already analyzed this conversation; return theirs.
		var existing model.ConversationAnalytics
		err := a.db.WithContext(ctx).
			Where("tenant_id = ? AND conversation_id = ?", conv.TenantID, conv.ID).
			First(&existing).Error
		if err != nil {
			return nil, fmt.Errorf("load existing analytics: %w", err)
		}
		a.log.Info("analytics already recorded for conversation",
			zap.String("session_id", conv.SessionID),
			zap.Uint("analytics_id", existing.ID))
		return &existing, nil
	}

	a.log.Info("conversation analytics recorded",
		zap.String("session_id", conv.SessionID),
		zap.Uint("analytics_id", record.ID),
		zap.Int("recommendations", len(record.Recommendations)))
	return record, nil
}

// buildRecord assembles the full analytics document. Only the historical
// block and the two extraction calls touch the outside world; everything
// else is a pure function of the conversation.
func (a *Aggregator) buildRecord(ctx context.Context, conv *model.EmotionConversation, factors *ContextFactors) *model.ConversationAnalytics {
	now := time.Now()
	turns := conv.UserTurns()

	metrics := conversationMetrics(conv)
	insightSummary := emotionalInsightSummary(conv)
	topics := analyzeTopics(turns)

	_, helpfulness := a.extraction.DeriveInsights(ctx, conv)
	quality := qualityMetrics(conv, turns, helpfulness)

	recommendations := buildRecommendations(metrics, topics)

	historical := a.historicalAnalysis(ctx, conv)
	predictive := a.extraction.PredictInsights(ctx, conv, historical)

	profile := a.loadProfile(ctx, conv.TenantID, conv.UserID)

	return &model.ConversationAnalytics{
		TenantID:          conv.TenantID,
		UserID:            conv.UserID,
		ConversationID:    conv.ID,
		AnalyzedAt:        now,
		Metrics:           metrics,
		EmotionalInsights: insightSummary,
		Topics:            topics,
		Quality:           quality,
		Recommendations:   recommendations,
		Contextual:        contextualAnalysis(conv.StartedAt, factors),
		Interaction:       interactionAnalysis(conv, turns),
		Historical:        historical,
		Predictive:        predictive,
		Comparative:       comparativeAnalytics(historical, profile),
		Actions:           trackActions(recommendations, now),
	}
}

func (a *Aggregator) loadProfile(ctx context.Context, tenantID, userID uint) *model.UserProfile {
	var profile model.UserProfile
	err := a.db.WithContext(ctx).
		Where("tenant_id = ? AND user_id = ?", tenantID, userID).
		First(&profile).Error
	if err != nil {
		return nil
	}
	return &profile
}
