package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/shashidhar-chinthaparthi-au6/ai-voice/internal/model"
	"github.com/shashidhar-chinthaparthi-au6/ai-voice/prometheus"
)

// historyWindow bounds how far back the historical comparison looks
const historyWindow = 90 * 24 * time.Hour

// historicalAnalysis fetches the user's completed conversations from the
// last 90 days and compares the current conversation against them. A fetch
// failure degrades to the no-history defaults; analysis never fails the
// rollup.
func (a *Aggregator) historicalAnalysis(ctx context.Context, conv *model.EmotionConversation) model.HistoricalAnalysis {
	since := time.Now().Add(-historyWindow)

	defer prometheus.TrackDBOperation("query")(time.Now())
	var prior []model.EmotionConversation
	err := a.db.WithContext(ctx).
		Where("tenant_id = ? AND user_id = ? AND status = ? AND id <> ? AND completed_at >= ?",
			conv.TenantID, conv.UserID, model.ConversationCompleted, conv.ID, since).
		Order("completed_at DESC").
		Find(&prior).Error
	if err != nil {
		a.log.Warn("historical fetch failed, using defaults",
			zap.String("session_id", conv.SessionID), zap.Error(err))
		prior = nil
	}

	return buildHistoricalAnalysis(conv, prior)
}

// buildHistoricalAnalysis is the pure core: prior conversations are ordered
// most recent first.
func buildHistoricalAnalysis(conv *model.EmotionConversation, prior []model.EmotionConversation) model.HistoricalAnalysis {
	analysis := model.HistoricalAnalysis{
		PreviousMood:    5, // neutral default when no history exists
		TrendDirection:  model.TrendStable,
		RecurringThemes: []string{},
		SampleSize:      len(prior),
	}

	if len(prior) > 0 {
		analysis.PreviousMood = prior[0].OverallEmotion.WellBeingScore
	}

	// Trend compares the mean well-being of the 3 most recent conversations
	// (current included) against the next 3 older ones.
	scores := make([]float64, 0, len(prior)+1)
	scores = append(scores, conv.OverallEmotion.WellBeingScore)
	for _, p := range prior {
		scores = append(scores, p.OverallEmotion.WellBeingScore)
	}
	analysis.TrendDirection = trendDirection(scores)

	analysis.RecurringThemes = recurringThemes(append([]model.EmotionConversation{*conv}, prior...))
	return analysis
}

// trendDirection takes well-being scores most recent first and compares the
// mean of the newest group (up to 3) against the mean of the next-older
// group (up to 3). With fewer than 6 scores the split point is the midpoint,
// so even two conversations yield a direction. A gap over 0.5 in either
// direction breaks "stable".
func trendDirection(scores []float64) string {
	if len(scores) < 2 {
		return model.TrendStable
	}

	split := len(scores) / 2
	if split > 3 {
		split = 3
	}
	recent := mean(scores[:split])

	olderEnd := split + 3
	if olderEnd > len(scores) {
		olderEnd = len(scores)
	}
	older := mean(scores[split:olderEnd])

	switch {
	case recent-older > 0.5:
		return model.TrendImproving
	case older-recent > 0.5:
		return model.TrendDeclining
	default:
		return model.TrendStable
	}
}

// recurringThemes keeps topics whose summed frequency across the
// conversation set exceeds 1.
func recurringThemes(convs []model.EmotionConversation) []string {
	totals := make(map[string]int)
	for _, c := range convs {
		for _, t := range analyzeTopics(c.UserTurns()) {
			totals[t.Topic] += t.Frequency
		}
	}

	themes := []string{}
	for _, topic := range topicOrder {
		if totals[topic] > 1 {
			themes = append(themes, topic)
		}
	}
	return themes
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
