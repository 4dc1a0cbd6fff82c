package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/shashidhar-chinthaparthi-au6/ai-voice/internal/model"
	"github.com/shashidhar-chinthaparthi-au6/ai-voice/prometheus"
)

// EmotionSnapshotService writes the simpler per-completion analytics
// snapshot and answers the basic dashboard queries over it.
type EmotionSnapshotService struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewEmotionSnapshotService builds the snapshot service
func NewEmotionSnapshotService(db *gorm.DB, log *zap.Logger) *EmotionSnapshotService {
	return &EmotionSnapshotService{db: db, log: log}
}

// RecordCompletion writes one snapshot row for a just-completed
// conversation. Trend buckets compare against the user's recent snapshots.
func (s *EmotionSnapshotService) RecordCompletion(ctx context.Context, conv *model.EmotionConversation, engagement float64) (*model.EmotionAnalytics, error) {
	now := time.Now()

	snapshot := &model.EmotionAnalytics{
		TenantID:        conv.TenantID,
		UserID:          conv.UserID,
		ConversationID:  conv.ID,
		Date:            now,
		MoodScore:       conv.OverallEmotion.WellBeingScore,
		StressLevel:     conv.OverallEmotion.StressLevel,
		EnergyLevel:     conv.OverallEmotion.EnergyLevel,
		Satisfaction:    conv.OverallEmotion.Satisfaction,
		Engagement:      engagement,
		WellBeing:       conv.OverallEmotion.WellBeingScore,
		DominantEmotion: conv.OverallEmotion.DominantEmotion,
		Trends: model.TrendBuckets{
			Daily:   s.windowAverage(ctx, conv.TenantID, conv.UserID, now.AddDate(0, 0, -1)),
			Weekly:  s.windowAverage(ctx, conv.TenantID, conv.UserID, now.AddDate(0, 0, -7)),
			Monthly: s.windowAverage(ctx, conv.TenantID, conv.UserID, now.AddDate(0, -1, 0)),
		},
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := s.db.WithContext(ctx).Create(snapshot).Error; err != nil {
		return nil, fmt.Errorf("persist emotion snapshot: %w", err)
	}
	return snapshot, nil
}

// windowAverage returns the user's mean well-being since a cutoff, or 0
// when no snapshots exist yet.
func (s *EmotionSnapshotService) windowAverage(ctx context.Context, tenantID, userID uint, since time.Time) float64 {
	var avg *float64
	err := s.db.WithContext(ctx).
		Model(&model.EmotionAnalytics{}).
		Select("AVG(well_being)").
		Where("tenant_id = ? AND user_id = ? AND date >= ?", tenantID, userID, since).
		Scan(&avg).Error
	if err != nil || avg == nil {
		return 0
	}
	return *avg
}

// EmotionOverview is the acting user's aggregate snapshot view
type EmotionOverview struct {
	ConversationCount int     `json:"conversation_count"`
	AverageMood       float64 `json:"average_mood"`
	AverageStress     float64 `json:"average_stress"`
	AverageEnergy     float64 `json:"average_energy"`
	AverageWellBeing  float64 `json:"average_well_being"`
	DominantEmotion   string  `json:"dominant_emotion"`
}

// Overview aggregates the user's snapshots within the window
func (s *EmotionSnapshotService) Overview(ctx context.Context, tenantID, userID uint, start, end time.Time) (*EmotionOverview, error) {
	snapshots, err := s.fetch(ctx, tenantID, userID, start, end)
	if err != nil {
		return nil, err
	}

	overview := &EmotionOverview{}
	if len(snapshots) == 0 {
		return overview, nil
	}

	emotionCounts := make(map[string]int)
	var emotionOrder []string
	for _, snap := range snapshots {
		overview.AverageMood += snap.MoodScore
		overview.AverageStress += snap.StressLevel
		overview.AverageEnergy += snap.EnergyLevel
		overview.AverageWellBeing += snap.WellBeing
		if snap.DominantEmotion != "" {
			if _, seen := emotionCounts[snap.DominantEmotion]; !seen {
				emotionOrder = append(emotionOrder, snap.DominantEmotion)
			}
			emotionCounts[snap.DominantEmotion]++
		}
	}

	n := float64(len(snapshots))
	overview.ConversationCount = len(snapshots)
	overview.AverageMood /= n
	overview.AverageStress /= n
	overview.AverageEnergy /= n
	overview.AverageWellBeing /= n

	best := 0
	for _, label := range emotionOrder {
		if emotionCounts[label] > best {
			best = emotionCounts[label]
			overview.DominantEmotion = label
		}
	}
	return overview, nil
}

// TrendPoint is one day in a trend series
type TrendPoint struct {
	Date      string  `json:"date"`
	WellBeing float64 `json:"well_being"`
	Stress    float64 `json:"stress"`
	Energy    float64 `json:"energy"`
	Count     int     `json:"count"`
}

// Trends returns a per-day series of snapshot averages within the window
func (s *EmotionSnapshotService) Trends(ctx context.Context, tenantID, userID uint, start, end time.Time) ([]TrendPoint, error) {
	snapshots, err := s.fetch(ctx, tenantID, userID, start, end)
	if err != nil {
		return nil, err
	}

	byDay := make(map[string]*TrendPoint)
	var order []string
	for _, snap := range snapshots {
		day := snap.Date.Format("2006-01-02")
		point, ok := byDay[day]
		if !ok {
			point = &TrendPoint{Date: day}
			byDay[day] = point
			order = append(order, day)
		}
		point.WellBeing += snap.WellBeing
		point.Stress += snap.StressLevel
		point.Energy += snap.EnergyLevel
		point.Count++
	}

	sort.Strings(order)
	points := make([]TrendPoint, 0, len(order))
	for _, day := range order {
		p := byDay[day]
		n := float64(p.Count)
		points = append(points, TrendPoint{
			Date:      p.Date,
			WellBeing: p.WellBeing / n,
			Stress:    p.Stress / n,
			Energy:    p.Energy / n,
			Count:     p.Count,
		})
	}
	return points, nil
}

// EmotionInsights is the simple dashboard's insight view
type EmotionInsights struct {
	TopEmotions []model.FrequencyItem `json:"top_emotions"`
	BestDay     string                `json:"best_day,omitempty"`
	WorstDay    string                `json:"worst_day,omitempty"`
}

// Insights surfaces dominant emotions and best/worst days in the window
func (s *EmotionSnapshotService) Insights(ctx context.Context, tenantID, userID uint, start, end time.Time) (*EmotionInsights, error) {
	snapshots, err := s.fetch(ctx, tenantID, userID, start, end)
	if err != nil {
		return nil, err
	}

	insights := &EmotionInsights{TopEmotions: []model.FrequencyItem{}}
	if len(snapshots) == 0 {
		return insights, nil
	}

	var emotions []string
	bestScore, worstScore := -1.0, 11.0
	for _, snap := range snapshots {
		if snap.DominantEmotion != "" {
			emotions = append(emotions, snap.DominantEmotion)
		}
		if snap.WellBeing > bestScore {
			bestScore = snap.WellBeing
			insights.BestDay = snap.Date.Format("2006-01-02")
		}
		if snap.WellBeing < worstScore {
			worstScore = snap.WellBeing
			insights.WorstDay = snap.Date.Format("2006-01-02")
		}
	}
	insights.TopEmotions = topFrequencies(emotions, 5)
	return insights, nil
}

// HeatmapCell is the average well-being for one weekday/time-of-day bucket
type HeatmapCell struct {
	DayOfWeek string  `json:"day_of_week"`
	TimeOfDay string  `json:"time_of_day"`
	WellBeing float64 `json:"well_being"`
	Count     int     `json:"count"`
}

// Heatmap buckets the user's snapshots by weekday and time of day
func (s *EmotionSnapshotService) Heatmap(ctx context.Context, tenantID, userID uint, start, end time.Time) ([]HeatmapCell, error) {
	snapshots, err := s.fetch(ctx, tenantID, userID, start, end)
	if err != nil {
		return nil, err
	}

	type bucket struct {
		sum   float64
		count int
	}
	buckets := make(map[string]*bucket)
	var order []string
	for _, snap := range snapshots {
		key := snap.Date.Weekday().String() + "|" + timeOfDay(snap.Date.Hour())
		b, ok := buckets[key]
		if !ok {
			b = &bucket{}
			buckets[key] = b
			order = append(order, key)
		}
		b.sum += snap.WellBeing
		b.count++
	}

	sort.Strings(order)
	cells := make([]HeatmapCell, 0, len(order))
	for _, key := range order {
		b := buckets[key]
		parts := strings.SplitN(key, "|", 2)
		cells = append(cells, HeatmapCell{
			DayOfWeek: parts[0],
			TimeOfDay: parts[1],
			WellBeing: b.sum / float64(b.count),
			Count:     b.count,
		})
	}
	return cells, nil
}

func (s *EmotionSnapshotService) fetch(ctx context.Context, tenantID, userID uint, start, end time.Time) ([]model.EmotionAnalytics, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())

	var snapshots []model.EmotionAnalytics
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND user_id = ? AND date >= ? AND date < ?", tenantID, userID, start, end).
		Order("date ASC").
		Find(&snapshots).Error
	if err != nil {
		return nil, fmt.Errorf("fetch emotion snapshots: %w", err)
	}
	return snapshots, nil
}
