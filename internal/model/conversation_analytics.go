package model

import (
	"database/sql/driver"
	"time"

	"gorm.io/gorm"
)

// ConversationMetrics holds the per-conversation arithmetic rollup
type ConversationMetrics struct {
	UserTurns           int     `json:"user_turns"`
	AITurns             int     `json:"ai_turns"`
	AverageResponseTime float64 `json:"average_response_time_seconds"`
	AverageSentiment    float64 `json:"average_sentiment"` // over scored responses only
	AverageIntensity    float64 `json:"average_intensity"` // over scored responses only
	ScoredResponses     int     `json:"scored_responses"`
	WellBeingScore      float64 `json:"well_being_score"`
	StressLevel         float64 `json:"stress_level"`
	EnergyLevel         float64 `json:"energy_level"`
	Satisfaction        float64 `json:"satisfaction"`
}

func (m ConversationMetrics) Value() (driver.Value, error) { return jsonValue(m) }
func (m *ConversationMetrics) Scan(value interface{}) error {
	return jsonScan(m, value)
}

// FrequencyItem is a labelled occurrence count, ordered by frequency
// descending with ties broken by first-seen order.
type FrequencyItem struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// EmotionalInsightSummary holds the top-5 frequency rollups across a
// conversation's scored responses.
type EmotionalInsightSummary struct {
	TopEmotions []FrequencyItem `json:"top_emotions"`
	TopTriggers []FrequencyItem `json:"top_triggers"`
	TopNeeds    []FrequencyItem `json:"top_needs"`
}

func (s EmotionalInsightSummary) Value() (driver.Value, error) { return jsonValue(s) }
func (s *EmotionalInsightSummary) Scan(value interface{}) error {
	return jsonScan(s, value)
}

// TopicFrequency is one detected topic with its keyword-match count
type TopicFrequency struct {
	Topic     string `json:"topic"`
	Frequency int    `json:"frequency"`
}

// TopicFrequencyList is the jsonb-backed topic rollup, sorted by frequency
// descending.
type TopicFrequencyList []TopicFrequency

func (l TopicFrequencyList) Value() (driver.Value, error) {
	if l == nil {
		l = TopicFrequencyList{}
	}
	return jsonValue(l)
}

func (l *TopicFrequencyList) Scan(value interface{}) error {
	return jsonScan(l, value)
}

// QualityMetrics scores the conversation itself. Trust and helpfulness are
// placeholder strategies until real signals exist.
type QualityMetrics struct {
	Engagement   float64 `json:"engagement"` // from average response length, 1..10
	Openness     float64 `json:"openness"`   // from turn count, 1..10
	Trust        float64 `json:"trust"`
	Satisfaction float64 `json:"satisfaction"`
	Helpfulness  float64 `json:"helpfulness"`
}

func (q QualityMetrics) Value() (driver.Value, error) { return jsonValue(q) }
func (q *QualityMetrics) Scan(value interface{}) error {
	return jsonScan(q, value)
}

// Recommendation priorities and types
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"

	RecommendationEmotionalSupport     = "emotional_support"
	RecommendationPersonalDevelopment  = "personal_development"
	RecommendationWorkplaceImprovement = "workplace_improvement"
)

// Recommendation is one rule-triggered suggested action
type Recommendation struct {
	Type        string `json:"type"`
	Priority    string `json:"priority"`
	Description string `json:"description"`
}

// RecommendationList is the jsonb-backed ordered recommendation set
type RecommendationList []Recommendation

func (l RecommendationList) Value() (driver.Value, error) {
	if l == nil {
		l = RecommendationList{}
	}
	return jsonValue(l)
}

func (l *RecommendationList) Scan(value interface{}) error {
	return jsonScan(l, value)
}

// ContextualAnalysis captures when and under what conditions the
// conversation happened.
type ContextualAnalysis struct {
	TimeOfDay           string  `json:"time_of_day"` // "night", "morning", "afternoon", "evening"
	DayOfWeek           string  `json:"day_of_week"`
	Season              string  `json:"season"`
	Workload            string  `json:"workload"`
	Weather             string  `json:"weather"`
	Location            string  `json:"location"`
	Device              string  `json:"device"`
	EnvironmentalImpact float64 `json:"environmental_impact"` // -5..5
}

func (a ContextualAnalysis) Value() (driver.Value, error) { return jsonValue(a) }
func (a *ContextualAnalysis) Scan(value interface{}) error {
	return jsonScan(a, value)
}

// InteractionAnalysis classifies conversational structure. The engagement,
// pause, interruption and hesitation figures are heuristic estimates derived
// from turn counts and response-time statistics; no raw audio or timing
// signal exists for this conversation type.
type InteractionAnalysis struct {
	ConversationFlow   string  `json:"conversation_flow"` // "linear", "branching", "adaptive"
	MeanResponseLength float64 `json:"mean_response_length"`
	ResponseLengthVar  float64 `json:"response_length_variance"`
	Complexity         float64 `json:"complexity"`      // 1..10
	EmotionalDepth     float64 `json:"emotional_depth"` // 1..10
	EngagementEstimate float64 `json:"engagement_estimate"`
	PauseEstimate      float64 `json:"pause_estimate_seconds"`
	Interruptions      int     `json:"interruption_estimate"`
	Hesitations        int     `json:"hesitation_estimate"`
}

func (a InteractionAnalysis) Value() (driver.Value, error) { return jsonValue(a) }
func (a *InteractionAnalysis) Scan(value interface{}) error {
	return jsonScan(a, value)
}

// Trend directions for historical comparison
const (
	TrendImproving = "improving"
	TrendDeclining = "declining"
	TrendStable    = "stable"
)

// HistoricalAnalysis compares this conversation against the user's last 90
// days of completed conversations.
type HistoricalAnalysis struct {
	PreviousMood    float64  `json:"previous_mood"` // most recent prior well-being, default 5
	TrendDirection  string   `json:"trend_direction"`
	RecurringThemes []string `json:"recurring_themes"`
	SampleSize      int      `json:"sample_size"`
}

func (a HistoricalAnalysis) Value() (driver.Value, error) { return jsonValue(a) }
func (a *HistoricalAnalysis) Scan(value interface{}) error {
	return jsonScan(a, value)
}

// WeekProjection is the model-produced next-week numeric projection
type WeekProjection struct {
	Mood       float64 `json:"mood"`       // 1..10
	Stress     float64 `json:"stress"`     // 1..10
	Energy     float64 `json:"energy"`     // 1..10
	Confidence float64 `json:"confidence"` // 0..1
}

// PredictiveInsights holds model-derived forward-looking signals, validated
// and defaulted like every other extraction output.
type PredictiveInsights struct {
	RiskFactors      []string       `json:"risk_factors"`
	ImprovementAreas []string       `json:"improvement_areas"`
	EarlyWarnings    []string       `json:"early_warnings"`
	NextWeek         WeekProjection `json:"next_week"`
}

func (p PredictiveInsights) Value() (driver.Value, error) { return jsonValue(p) }
func (p *PredictiveInsights) Scan(value interface{}) error {
	return jsonScan(p, value)
}

// ComparisonBlock is one set of comparison figures
type ComparisonBlock struct {
	WellBeing  float64 `json:"well_being"`
	Stress     float64 `json:"stress"`
	Percentile float64 `json:"percentile"`
}

// ComparativeAnalytics carries peer/industry/baseline comparisons. The
// current figures come from placeholder strategies; the record shape stays
// fixed so real data sources can be substituted.
type ComparativeAnalytics struct {
	PeerComparison     ComparisonBlock `json:"peer_comparison"`
	IndustryBenchmarks ComparisonBlock `json:"industry_benchmarks"`
	PersonalBaseline   ComparisonBlock `json:"personal_baseline"`
	Department         string          `json:"department,omitempty"`
}

func (a ComparativeAnalytics) Value() (driver.Value, error) { return jsonValue(a) }
func (a *ComparativeAnalytics) Scan(value interface{}) error {
	return jsonScan(a, value)
}

// TrackedAction records one recommendation with its follow-up state
type TrackedAction struct {
	Type        string    `json:"type"`
	Priority    string    `json:"priority"`
	Description string    `json:"description"`
	RecordedAt  time.Time `json:"recorded_at"`
}

// ActionTracking rolls the recommendation set into follow-up bookkeeping.
// FollowUpRequired is true iff at least one recommendation is high priority.
type ActionTracking struct {
	Actions          []TrackedAction `json:"actions"`
	FollowUpRequired bool            `json:"follow_up_required"`
	FollowUpDate     *time.Time      `json:"follow_up_date,omitempty"`
}

func (a ActionTracking) Value() (driver.Value, error) { return jsonValue(a) }
func (a *ActionTracking) Scan(value interface{}) error {
	return jsonScan(a, value)
}

// ConversationAnalytics is the append-only rollup record, created exactly
// once per completed conversation. The unique index on ConversationID plus a
// conflict-ignoring insert keeps concurrent analyze calls from duplicating
// it.
type ConversationAnalytics struct {
	ID                uint                    `json:"id" gorm:"primaryKey"`
	TenantID          uint                    `json:"tenant_id" gorm:"not null;index:idx_analytics_tenant_date"`
	UserID            uint                    `json:"user_id" gorm:"not null;index"`
	ConversationID    uint                    `json:"conversation_id" gorm:"not null;uniqueIndex"`
	AnalyzedAt        time.Time               `json:"analyzed_at" gorm:"index:idx_analytics_tenant_date"`
	Metrics           ConversationMetrics     `json:"metrics" gorm:"type:jsonb"`
	EmotionalInsights EmotionalInsightSummary `json:"emotional_insights" gorm:"type:jsonb"`
	Topics            TopicFrequencyList      `json:"topics" gorm:"type:jsonb"`
	Quality           QualityMetrics          `json:"quality" gorm:"type:jsonb"`
	Recommendations   RecommendationList      `json:"recommendations" gorm:"type:jsonb"`
	Contextual        ContextualAnalysis      `json:"contextual" gorm:"type:jsonb"`
	Interaction       InteractionAnalysis     `json:"interaction" gorm:"type:jsonb"`
	Historical        HistoricalAnalysis      `json:"historical" gorm:"type:jsonb"`
	Predictive        PredictiveInsights      `json:"predictive" gorm:"type:jsonb"`
	Comparative       ComparativeAnalytics    `json:"comparative" gorm:"type:jsonb"`
	Actions           ActionTracking          `json:"actions" gorm:"type:jsonb"`
	CreatedAt         time.Time               `json:"created_at"`
	UpdatedAt         time.Time               `json:"updated_at"`
	DeletedAt         gorm.DeletedAt          `json:"-" gorm:"index"`
}
