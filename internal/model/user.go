package model

import (
	"time"

	"gorm.io/gorm"
)

// Roles within a tenant, from most to least privileged
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleAnalyst = "analyst"
	RoleViewer  = "viewer"
	RoleUser    = "user"
)

// roleRank orders roles for privilege comparisons. RoleUser sits at viewer
// level: it can use the product but not manage it.
var roleRank = map[string]int{
	RoleAdmin:   4,
	RoleManager: 3,
	RoleAnalyst: 2,
	RoleViewer:  1,
	RoleUser:    1,
}

// User represents a tenant-scoped account
type User struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	TenantID    uint           `json:"tenant_id" gorm:"not null;uniqueIndex:idx_users_tenant_email"`
	Email       string         `json:"email" gorm:"type:varchar(100);not null;uniqueIndex:idx_users_tenant_email"`
	Password    string         `json:"-" gorm:"type:varchar(255)"`
	Name        string         `json:"name" gorm:"type:varchar(100)"`
	Role        string         `json:"role" gorm:"type:varchar(50);not null;default:'user'"`
	Permissions StringList     `json:"permissions" gorm:"type:jsonb"`
	Active      bool           `json:"active" gorm:"default:true"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}

// HasRole reports whether the user's role is at least the required role
func (u *User) HasRole(required string) bool {
	return roleRank[u.Role] >= roleRank[required]
}

// HasPermission reports whether the user carries an explicit permission
func (u *User) HasPermission(perm string) bool {
	for _, p := range u.Permissions {
		if p == perm {
			return true
		}
	}
	return false
}
