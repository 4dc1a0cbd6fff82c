package model

import (
	"database/sql/driver"
	"time"

	"gorm.io/gorm"
)

// Subscription plan identifiers
const (
	PlanFree       = "free"
	PlanStandard   = "standard"
	PlanEnterprise = "enterprise"
)

// ThemeSettings holds per-tenant branding configuration
type ThemeSettings struct {
	PrimaryColor   string `json:"primary_color,omitempty"`
	SecondaryColor string `json:"secondary_color,omitempty"`
	LogoURL        string `json:"logo_url,omitempty"`
	CompanyName    string `json:"company_name,omitempty"`
}

func (s ThemeSettings) Value() (driver.Value, error) { return jsonValue(s) }
func (s *ThemeSettings) Scan(value interface{}) error {
	return jsonScan(s, value)
}

// FeatureToggles controls which product surfaces are enabled for a tenant
type FeatureToggles struct {
	EmotionConversations bool `json:"emotion_conversations"`
	VoiceSurveys         bool `json:"voice_surveys"`
	Analytics            bool `json:"analytics"`
	Recommendations      bool `json:"recommendations"`
}

func (f FeatureToggles) Value() (driver.Value, error) { return jsonValue(f) }
func (f *FeatureToggles) Scan(value interface{}) error {
	return jsonScan(f, value)
}

// UsageLimits caps tenant resource consumption by subscription plan
type UsageLimits struct {
	MaxSurveys   int `json:"max_surveys"`
	MaxResponses int `json:"max_responses"`
	MaxUsers     int `json:"max_users"`
}

func (u UsageLimits) Value() (driver.Value, error) { return jsonValue(u) }
func (u *UsageLimits) Scan(value interface{}) error {
	return jsonScan(u, value)
}

// Subscription holds the tenant's billing state
type Subscription struct {
	Plan      string     `json:"plan"`
	Status    string     `json:"status"` // "active", "past_due", "cancelled"
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

func (s Subscription) Value() (driver.Value, error) { return jsonValue(s) }
func (s *Subscription) Scan(value interface{}) error {
	return jsonScan(s, value)
}

// Tenant represents an isolated organization namespace. Every other entity
// carries a TenantID and every query must filter by it.
type Tenant struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	Name         string         `json:"name" gorm:"type:varchar(100);not null"`
	Subdomain    string         `json:"subdomain" gorm:"type:varchar(100);uniqueIndex"`
	Domain       string         `json:"domain,omitempty" gorm:"type:varchar(255);index"`
	Theme        ThemeSettings  `json:"theme" gorm:"type:jsonb"`
	Features     FeatureToggles `json:"features" gorm:"type:jsonb"`
	Limits       UsageLimits    `json:"limits" gorm:"type:jsonb"`
	Subscription Subscription   `json:"subscription" gorm:"type:jsonb"`
	Active       bool           `json:"active" gorm:"default:true"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-" gorm:"index"`
}

// DefaultLimits returns the usage limits applied to newly provisioned tenants
func DefaultLimits() UsageLimits {
	return UsageLimits{
		MaxSurveys:   10,
		MaxResponses: 1000,
		MaxUsers:     25,
	}
}

// DefaultFeatures returns the feature set enabled for newly provisioned tenants
func DefaultFeatures() FeatureToggles {
	return FeatureToggles{
		EmotionConversations: true,
		VoiceSurveys:         true,
		Analytics:            true,
		Recommendations:      true,
	}
}

// Usable reports whether requests for this tenant should be processed
func (t *Tenant) Usable() bool {
	if !t.Active {
		return false
	}
	if t.Subscription.Status != "" && t.Subscription.Status != "active" {
		return false
	}
	if t.Subscription.ExpiresAt != nil && t.Subscription.ExpiresAt.Before(time.Now()) {
		return false
	}
	return true
}
