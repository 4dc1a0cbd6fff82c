package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/shashidhar-chinthaparthi-au6/ai-voice/internal/model"
	"github.com/shashidhar-chinthaparthi-au6/ai-voice/prometheus"
)

// RecommendationCount groups recommendation occurrences by (type, priority)
type RecommendationCount struct {
	Type     string `json:"type"`
	Priority string `json:"priority"`
	Count    int    `json:"count"`
}

// DashboardSummary is the fleet-wide rollup over stored analytics records.
// An empty window yields the zero-count form with empty lists, never null.
type DashboardSummary struct {
	ConversationCount    int                   `json:"conversation_count"`
	AverageWellBeing     float64               `json:"average_well_being"`
	AverageStress        float64               `json:"average_stress"`
	AverageSatisfaction  float64               `json:"average_satisfaction"`
	AverageEngagement    float64               `json:"average_engagement"`
	TopEmotions          []model.FrequencyItem `json:"top_emotions"`
	TopTopics            []model.FrequencyItem `json:"top_topics"`
	RecommendationCounts []RecommendationCount `json:"recommendation_counts"`
	StartDate            time.Time             `json:"start_date"`
	EndDate              time.Time             `json:"end_date"`
}

// DashboardService answers time-windowed aggregation queries over persisted
// conversation analytics. Pure reads; safe under any concurrency.
type DashboardService struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewDashboardService builds the dashboard query layer
func NewDashboardService(db *gorm.DB, log *zap.Logger) *DashboardService {
	return &DashboardService{db: db, log: log}
}

// ParseTimeWindow resolves either a rolling day-count ("30d") or an explicit
// start/end pair into absolute bounds. The default window is 30 days.
func ParseTimeWindow(timeRange, startDate, endDate string) (time.Time, time.Time, error) {
	now := time.Now()

	if startDate != "" || endDate != "" {
		if startDate == "" || endDate == "" {
			return time.Time{}, time.Time{}, fmt.Errorf("both startDate and endDate are required")
		}
		start, err := time.Parse("2006-01-02", startDate)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid startDate: %w", err)
		}
		end, err := time.Parse("2006-01-02", endDate)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid endDate: %w", err)
		}
		end = end.AddDate(0, 0, 1) // make the end date inclusive
		if end.Before(start) {
			return time.Time{}, time.Time{}, fmt.Errorf("endDate precedes startDate")
		}
		return start, end, nil
	}

	days := 30
	if timeRange != "" {
		trimmed := strings.TrimSuffix(timeRange, "d")
		parsed, err := strconv.Atoi(trimmed)
		if err != nil || parsed <= 0 {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid timeRange %q", timeRange)
		}
		days = parsed
	}
	return now.AddDate(0, 0, -days), now, nil
}

// Dashboard fetches all analytics records for the tenant in the window and
// rolls them up.
func (s *DashboardService) Dashboard(ctx context.Context, tenantID uint, start, end time.Time) (*DashboardSummary, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())

	var records []model.ConversationAnalytics
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND analyzed_at >= ? AND analyzed_at < ?", tenantID, start, end).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("fetch analytics records: %w", err)
	}

	summary := aggregateDashboard(records)
	summary.StartDate = start
	summary.EndDate = end
	return summary, nil
}

// UserAnalytics returns the stored analytics records for one user, newest
// first.
func (s *DashboardService) UserAnalytics(ctx context.Context, tenantID, userID uint, start, end time.Time) ([]model.ConversationAnalytics, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())

	var records []model.ConversationAnalytics
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND user_id = ? AND analyzed_at >= ? AND analyzed_at < ?", tenantID, userID, start, end).
		Order("analyzed_at DESC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("fetch user analytics: %w", err)
	}
	return records, nil
}

// aggregateDashboard is the pure rollup over a fetched record set. Running
// it twice over the same records yields identical output.
func aggregateDashboard(records []model.ConversationAnalytics) *DashboardSummary {
	summary := &DashboardSummary{
		TopEmotions:          []model.FrequencyItem{},
		TopTopics:            []model.FrequencyItem{},
		RecommendationCounts: []RecommendationCount{},
	}
	if len(records) == 0 {
		return summary
	}

	summary.ConversationCount = len(records)

	var wellBeing, stress, satisfaction, engagement float64
	emotionCounts := make(map[string]int)
	var emotionOrder []string
	topicCounts := make(map[string]int)
	var topicOrderSeen []string
	recCounts := make(map[string]int)
	var recOrder []string

	for _, r := range records {
		wellBeing += r.Metrics.WellBeingScore
		stress += r.Metrics.StressLevel
		satisfaction += r.Metrics.Satisfaction
		engagement += r.Quality.Engagement

		for _, e := range r.EmotionalInsights.TopEmotions {
			if _, seen := emotionCounts[e.Label]; !seen {
				emotionOrder = append(emotionOrder, e.Label)
			}
			emotionCounts[e.Label] += e.Count
		}
		for _, t := range r.Topics {
			if _, seen := topicCounts[t.Topic]; !seen {
				topicOrderSeen = append(topicOrderSeen, t.Topic)
			}
			topicCounts[t.Topic] += t.Frequency
		}
		for _, rec := range r.Recommendations {
			key := rec.Type + "|" + rec.Priority
			if _, seen := recCounts[key]; !seen {
				recOrder = append(recOrder, key)
			}
			recCounts[key]++
		}
	}

	n := float64(len(records))
	summary.AverageWellBeing = wellBeing / n
	summary.AverageStress = stress / n
	summary.AverageSatisfaction = satisfaction / n
	summary.AverageEngagement = engagement / n

	summary.TopEmotions = topCounted(emotionOrder, emotionCounts, 5)
	summary.TopTopics = topCounted(topicOrderSeen, topicCounts, 5)

	for _, key := range recOrder {
		parts := strings.SplitN(key, "|", 2)
		summary.RecommendationCounts = append(summary.RecommendationCounts, RecommendationCount{
			Type:     parts[0],
			Priority: parts[1],
			Count:    recCounts[key],
		})
	}
	sort.SliceStable(summary.RecommendationCounts, func(i, j int) bool {
		return summary.RecommendationCounts[i].Count > summary.RecommendationCounts[j].Count
	})

	return summary
}

// topCounted converts first-seen-ordered counts into a top-n frequency list
func topCounted(order []string, counts map[string]int, n int) []model.FrequencyItem {
	items := make([]model.FrequencyItem, 0, len(order))
	for _, label := range order {
		items = append(items, model.FrequencyItem{Label: label, Count: counts[label]})
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Count > items[j].Count
	})
	if len(items) > n {
		items = items[:n]
	}
	return items
}
