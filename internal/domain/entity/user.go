package entity

import (
	"time"

	"github.com/google/uuid"
)

// User is the centralized authentication table shared by admins, doctors and
// patients. Role-specific data lives in the profile tables.
//
// An account has either a local password, an external Google identity, or
// both. Password is empty (never zero-length hash) when only an external
// identity exists.
type User struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	RoleID   int       `gorm:"not null;index" json:"role_id"`
	Email    string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Password string    `gorm:"type:text" json:"-"`
	GoogleID *string   `gorm:"type:varchar(255);uniqueIndex" json:"-"`
	FullName string    `gorm:"type:varchar(255);not null" json:"full_name"`

	// IsActive is the account suspension switch; flipped by admins.
	IsActive *bool `gorm:"not null;default:true;index" json:"is_active"`

	// IsEmailVerified is set only through the verification-token exchange.
	IsEmailVerified bool `gorm:"not null;default:false" json:"is_email_verified"`

	// IsProfileComplete is true for patients at creation; doctors and admins
	// flip it through a follow-up profile-completion step.
	IsProfileComplete bool `gorm:"not null;default:false" json:"is_profile_complete"`

	// Single-use, time-boxed tokens, stored only as SHA-256 hashes.
	EmailVerifyTokenHash *string    `gorm:"type:char(64);index" json:"-"`
	EmailVerifyExpiresAt *time.Time `json:"-"`
	ResetTokenHash       *string    `gorm:"type:char(64);index" json:"-"`
	ResetExpiresAt       *time.Time `json:"-"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	Role           Role            `gorm:"foreignKey:RoleID" json:"role,omitempty"`
	DoctorProfile  *DoctorProfile  `gorm:"foreignKey:UserID" json:"doctor_profile,omitempty"`
	PatientProfile *PatientProfile `gorm:"foreignKey:UserID" json:"patient_profile,omitempty"`
}

func (User) TableName() string {
	return "users"
}

// IsSuspended reports whether the account is blocked from logging in.
func (u *User) IsSuspended() bool {
	return u.IsActive != nil && !*u.IsActive
}

// HasExternalIdentityOnly reports whether the account can only sign in via
// its linked Google identity.
func (u *User) HasExternalIdentityOnly() bool {
	return u.GoogleID != nil && u.Password == ""
}

// SetEmailVerified flips the verification flag and clears the token pair so
// the token cannot be replayed.
func (u *User) SetEmailVerified() {
	u.IsEmailVerified = true
	u.EmailVerifyTokenHash = nil
	u.EmailVerifyExpiresAt = nil
}

// ClearResetToken removes the password-reset token pair after use.
func (u *User) ClearResetToken() {
	u.ResetTokenHash = nil
	u.ResetExpiresAt = nil
}
