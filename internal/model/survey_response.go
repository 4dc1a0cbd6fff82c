package model

import (
	"database/sql/driver"
	"time"

	"gorm.io/gorm"
)

// AnswerItem is one answer within a survey response
type AnswerItem struct {
	QuestionID string          `json:"question_id"`
	Answer     string          `json:"answer"`
	Emotion    EmotionAnalysis `json:"emotion"`
}

// AnswerItemList is the jsonb-backed answer list
type AnswerItemList []AnswerItem

func (l AnswerItemList) Value() (driver.Value, error) {
	if l == nil {
		l = AnswerItemList{}
	}
	return jsonValue(l)
}

func (l *AnswerItemList) Scan(value interface{}) error {
	return jsonScan(l, value)
}

// ResponseMetadata captures submission context
type ResponseMetadata struct {
	Device      string `json:"device,omitempty"`
	UserAgent   string `json:"user_agent,omitempty"`
	Language    string `json:"language,omitempty"`
	DurationSec int    `json:"duration_seconds,omitempty"`
}

func (m ResponseMetadata) Value() (driver.Value, error) { return jsonValue(m) }
func (m *ResponseMetadata) Scan(value interface{}) error {
	return jsonScan(m, value)
}

// ResponseAnalytics is the per-response sentiment rollup
type ResponseAnalytics struct {
	AverageSentiment float64 `json:"average_sentiment"`
	DominantEmotion  string  `json:"dominant_emotion"`
	Completed        bool    `json:"completed"` // all required questions answered
}

func (a ResponseAnalytics) Value() (driver.Value, error) { return jsonValue(a) }
func (a *ResponseAnalytics) Scan(value interface{}) error {
	return jsonScan(a, value)
}

// SurveyResponse is one submission, possibly anonymous (UserID nil)
type SurveyResponse struct {
	ID        uint              `json:"id" gorm:"primaryKey"`
	TenantID  uint              `json:"tenant_id" gorm:"not null;index:idx_responses_tenant_survey"`
	SurveyID  uint              `json:"survey_id" gorm:"not null;index:idx_responses_tenant_survey"`
	UserID    *uint             `json:"user_id,omitempty" gorm:"index"`
	Responses AnswerItemList    `json:"responses" gorm:"type:jsonb"`
	Metadata  ResponseMetadata  `json:"metadata" gorm:"type:jsonb"`
	Analytics ResponseAnalytics `json:"analytics" gorm:"type:jsonb"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
	DeletedAt gorm.DeletedAt    `json:"-" gorm:"index"`
}
