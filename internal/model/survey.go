package model

import (
	"database/sql/driver"
	"time"

	"gorm.io/gorm"
)

// Survey statuses
const (
	SurveyDraft  = "draft"
	SurveyActive = "active"
	SurveyClosed = "closed"
)

// SurveyQuestion is one question in a voice survey
type SurveyQuestion struct {
	ID       string   `json:"id"`
	Text     string   `json:"text"`
	Type     string   `json:"type"` // "open", "scale", "choice"
	Required bool     `json:"required"`
	Options  []string `json:"options,omitempty"`
}

// SurveyQuestionList is the jsonb-backed ordered question list
type SurveyQuestionList []SurveyQuestion

func (l SurveyQuestionList) Value() (driver.Value, error) {
	if l == nil {
		l = SurveyQuestionList{}
	}
	return jsonValue(l)
}

func (l *SurveyQuestionList) Scan(value interface{}) error {
	return jsonScan(l, value)
}

// SurveySettings controls collection behavior
type SurveySettings struct {
	AllowAnonymous   bool       `json:"allow_anonymous"`
	VoiceEnabled     bool       `json:"voice_enabled"`
	MaxResponses     int        `json:"max_responses,omitempty"`
	ClosesAt         *time.Time `json:"closes_at,omitempty"`
	ThankYouMessage  string     `json:"thank_you_message,omitempty"`
	NotifyOnResponse bool       `json:"notify_on_response"`
}

func (s SurveySettings) Value() (driver.Value, error) { return jsonValue(s) }
func (s *SurveySettings) Scan(value interface{}) error {
	return jsonScan(s, value)
}

// SurveyAnalytics is the naive per-survey rollup refreshed on demand
type SurveyAnalytics struct {
	ResponseCount    int        `json:"response_count"`
	CompletionRate   float64    `json:"completion_rate"` // 0..1
	AverageSentiment float64    `json:"average_sentiment"`
	LastRefreshedAt  *time.Time `json:"last_refreshed_at,omitempty"`
}

func (a SurveyAnalytics) Value() (driver.Value, error) { return jsonValue(a) }
func (a *SurveyAnalytics) Scan(value interface{}) error {
	return jsonScan(a, value)
}

// Survey is a tenant-scoped culture survey definition
type Survey struct {
	ID          uint               `json:"id" gorm:"primaryKey"`
	TenantID    uint               `json:"tenant_id" gorm:"not null;index"`
	Title       string             `json:"title" gorm:"type:varchar(200);not null"`
	Description string             `json:"description" gorm:"type:text"`
	Questions   SurveyQuestionList `json:"questions" gorm:"type:jsonb"`
	Settings    SurveySettings     `json:"settings" gorm:"type:jsonb"`
	Analytics   SurveyAnalytics    `json:"analytics" gorm:"type:jsonb"`
	Status      string             `json:"status" gorm:"type:varchar(20);default:'draft'"`
	CreatedBy   uint               `json:"created_by" gorm:"index"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
	DeletedAt   gorm.DeletedAt     `json:"-" gorm:"index"`
}
