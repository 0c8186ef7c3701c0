package models

import (
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
)

// BaseModel provides common fields and auto-generated ULID for all models
type BaseModel struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(26)"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// BeforeCreate generates a ULID for the ID field if it's empty
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = ulid.Make().String()
	}
	return nil
}

// Config represents the global configuration for the deployment
// This is a singleton model (only one row should exist)
type Config struct {
	BaseModel
	// Authentication configuration
	JWTSecret string `json:"-" gorm:"type:varchar(64);not null"` // Auto-generated on first start (64 hex chars)
}

// User represents a console account
type User struct {
	BaseModel
	Username     string     `json:"username" gorm:"unique;not null"`
	PasswordHash string     `json:"-" gorm:"not null"`
	Name         string     `json:"name"`
	Avatar       string     `json:"avatar"`
	Introduction string     `json:"introduction"`
	Phone        string     `json:"phone"`
	Roles        string     `json:"-" gorm:"not null;default:''"` // Comma separated
	LastLoginAt  *time.Time `json:"last_login_at"`
	UpdatedAt    time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
}

// RoleList splits the stored roles
func (u *User) RoleList() []string {
	if u.Roles == "" {
		return []string{}
	}
	parts := strings.Split(u.Roles, ",")
	roles := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			roles = append(roles, p)
		}
	}
	return roles
}

// SetRoles stores roles in their comma separated form
func (u *User) SetRoles(roles []string) {
	u.Roles = strings.Join(roles, ",")
}

// RevokedToken records a logged out token until it would have expired anyway
type RevokedToken struct {
	JTI       string    `json:"jti" gorm:"primaryKey;type:varchar(26)"`
	UserID    string    `json:"user_id" gorm:"index"`
	ExpiresAt time.Time `json:"expires_at" gorm:"index;not null"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// AutoMigrate runs database migrations for all models
func AutoMigrate(db *gorm.DB) error {
	// Collect all models
	models := []interface{}{
		&User{}, &Config{}, &RevokedToken{},
	}

	return db.AutoMigrate(models...)
}

// FindByID safely finds a record by string ID
func FindByID[T any](db *gorm.DB, id string, model *T) error {
	return db.Where("id = ?", id).First(model).Error
}

// IsRevoked reports whether the token with jti has been logged out
func IsRevoked(db *gorm.DB, jti string) (bool, error) {
	var count int64
	if err := db.Model(&RevokedToken{}).Where("jti = ?", jti).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// PurgeExpiredRevocations deletes revocations whose tokens have expired
func PurgeExpiredRevocations(db *gorm.DB, now time.Time) (int64, error) {
	res := db.Where("expires_at < ?", now).Delete(&RevokedToken{})
	return res.RowsAffected, res.Error
}
