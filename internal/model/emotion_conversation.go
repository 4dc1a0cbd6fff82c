package model

import (
	"database/sql/driver"
	"time"

	"gorm.io/gorm"
)

// Conversation statuses
const (
	ConversationInProgress = "in_progress"
	ConversationCompleted  = "completed"
	ConversationAbandoned  = "abandoned"
)

// Conversation types
const (
	ConversationDaily   = "daily"
	ConversationWeekly  = "weekly"
	ConversationMonthly = "monthly"
	ConversationCustom  = "custom"
)

// EmotionAnalysis is the per-response scoring produced by the extraction
// service. Scored records whether the values came from a successful
// extraction call; when false the fields hold the documented neutral
// defaults and are skipped by downstream averaging.
type EmotionAnalysis struct {
	PrimaryEmotion string   `json:"primary_emotion"`
	Intensity      float64  `json:"intensity"`  // 1..10
	Confidence     float64  `json:"confidence"` // 0..1
	Triggers       []string `json:"triggers"`
	Context        string   `json:"context,omitempty"`
	Needs          []string `json:"needs"`
	Sentiment      float64  `json:"sentiment"` // -1..1
	Scored         bool     `json:"scored"`
}

// QuestionEntry is one question/response pair within a conversation
type QuestionEntry struct {
	QuestionID   string          `json:"question_id"`
	QuestionText string          `json:"question_text"`
	UserResponse string          `json:"user_response"`
	RespondedAt  time.Time       `json:"responded_at"`
	Emotion      EmotionAnalysis `json:"emotion"`
}

// QuestionEntryList is the jsonb-backed ordered list of question entries
type QuestionEntryList []QuestionEntry

func (l QuestionEntryList) Value() (driver.Value, error) {
	if l == nil {
		l = QuestionEntryList{}
	}
	return jsonValue(l)
}

func (l *QuestionEntryList) Scan(value interface{}) error {
	return jsonScan(l, value)
}

// OverallEmotion is the aggregate emotional summary computed once at
// conversation completion. All scores are on a 1..10 scale.
type OverallEmotion struct {
	DominantEmotion  string  `json:"dominant_emotion"`
	AverageIntensity float64 `json:"average_intensity"`
	EmotionalState   string  `json:"emotional_state"`
	WellBeingScore   float64 `json:"well_being_score"`
	StressLevel      float64 `json:"stress_level"`
	EnergyLevel      float64 `json:"energy_level"`
	Satisfaction     float64 `json:"satisfaction"`
}

func (o OverallEmotion) Value() (driver.Value, error) { return jsonValue(o) }
func (o *OverallEmotion) Scan(value interface{}) error {
	return jsonScan(o, value)
}

// ConversationInsights is the free-text insight set derived at completion
type ConversationInsights struct {
	EmotionalPatterns []string `json:"emotional_patterns"`
	Concerns          []string `json:"concerns"`
	PositiveFactors   []string `json:"positive_factors"`
	Recommendations   []string `json:"recommendations"`
	KeyTopics         []string `json:"key_topics"`
}

func (i ConversationInsights) Value() (driver.Value, error) { return jsonValue(i) }
func (i *ConversationInsights) Scan(value interface{}) error {
	return jsonScan(i, value)
}

// EmotionConversation is one guided question/answer session. Created
// in_progress with zero questions; each respond call appends one entry;
// completion computes OverallEmotion and Insights once and the status
// transition is terminal.
type EmotionConversation struct {
	ID               uint                 `json:"id" gorm:"primaryKey"`
	TenantID         uint                 `json:"tenant_id" gorm:"not null;index:idx_conversations_tenant_user"`
	UserID           uint                 `json:"user_id" gorm:"not null;index:idx_conversations_tenant_user"`
	SessionID        string               `json:"session_id" gorm:"type:varchar(64);uniqueIndex"`
	ConversationType string               `json:"conversation_type" gorm:"type:varchar(20);default:'daily'"`
	Questions        QuestionEntryList    `json:"questions" gorm:"type:jsonb"`
	OverallEmotion   OverallEmotion       `json:"overall_emotion" gorm:"type:jsonb"`
	Insights         ConversationInsights `json:"insights" gorm:"type:jsonb"`
	Status           string               `json:"status" gorm:"type:varchar(20);default:'in_progress';index"`
	StartedAt        time.Time            `json:"started_at"`
	CompletedAt      *time.Time           `json:"completed_at,omitempty"`
	CreatedAt        time.Time            `json:"created_at"`
	UpdatedAt        time.Time            `json:"updated_at"`
	DeletedAt        gorm.DeletedAt       `json:"-" gorm:"index"`
}

// UserTurns returns the entries that carry a user response
func (c *EmotionConversation) UserTurns() []QuestionEntry {
	turns := make([]QuestionEntry, 0, len(c.Questions))
	for _, q := range c.Questions {
		if q.UserResponse != "" {
			turns = append(turns, q)
		}
	}
	return turns
}
