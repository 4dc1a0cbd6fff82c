package model

import (
	"database/sql/driver"
	"time"

	"gorm.io/gorm"
)

// TrendBuckets holds the daily/weekly/monthly trend figures shown by the
// simple emotion dashboard.
type TrendBuckets struct {
	Daily   float64 `json:"daily"`
	Weekly  float64 `json:"weekly"`
	Monthly float64 `json:"monthly"`
}

func (t TrendBuckets) Value() (driver.Value, error) { return jsonValue(t) }
func (t *TrendBuckets) Scan(value interface{}) error {
	return jsonScan(t, value)
}

// EmotionAnalytics is the per-completion snapshot backing the simpler
// dashboard. One row is written each time a conversation completes; all
// scores are 1..10.
type EmotionAnalytics struct {
	ID              uint           `json:"id" gorm:"primaryKey"`
	TenantID        uint           `json:"tenant_id" gorm:"not null;index:idx_emotion_tenant_date"`
	UserID          uint           `json:"user_id" gorm:"not null;index"`
	ConversationID  uint           `json:"conversation_id" gorm:"not null;index"`
	Date            time.Time      `json:"date" gorm:"index:idx_emotion_tenant_date"`
	MoodScore       float64        `json:"mood_score"`
	StressLevel     float64        `json:"stress_level"`
	EnergyLevel     float64        `json:"energy_level"`
	Satisfaction    float64        `json:"satisfaction"`
	Engagement      float64        `json:"engagement"`
	WellBeing       float64        `json:"well_being"`
	DominantEmotion string         `json:"dominant_emotion" gorm:"type:varchar(50)"`
	Trends          TrendBuckets   `json:"trends" gorm:"type:jsonb"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `json:"-" gorm:"index"`
}
