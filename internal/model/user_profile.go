package model

import (
	"database/sql/driver"
	"time"

	"gorm.io/gorm"
)

// ProfilePreferences holds per-user product preferences
type ProfilePreferences struct {
	ConversationReminders bool   `json:"conversation_reminders"`
	ReminderFrequency     string `json:"reminder_frequency,omitempty"` // "daily", "weekly", "monthly"
	Language              string `json:"language,omitempty"`
}

func (p ProfilePreferences) Value() (driver.Value, error) { return jsonValue(p) }
func (p *ProfilePreferences) Scan(value interface{}) error {
	return jsonScan(p, value)
}

// UserProfile carries the organizational context used by the comparative
// analytics block (department/team baselines).
type UserProfile struct {
	ID          uint               `json:"id" gorm:"primaryKey"`
	TenantID    uint               `json:"tenant_id" gorm:"not null;uniqueIndex:idx_profiles_tenant_user"`
	UserID      uint               `json:"user_id" gorm:"not null;uniqueIndex:idx_profiles_tenant_user"`
	Department  string             `json:"department" gorm:"type:varchar(100)"`
	Team        string             `json:"team" gorm:"type:varchar(100)"`
	JobTitle    string             `json:"job_title" gorm:"type:varchar(100)"`
	Timezone    string             `json:"timezone" gorm:"type:varchar(64)"`
	Preferences ProfilePreferences `json:"preferences" gorm:"type:jsonb"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
	DeletedAt   gorm.DeletedAt     `json:"-" gorm:"index"`
}
