package model

import "time"

// Identity carries the credential and account-state fields shared by every
// account, independent of profile data. It is embedded into User rather than
// inherited so the profile model stays decoupled from auth bookkeeping.
type Identity struct {
	PasswordHash string     `gorm:"not null;size:255" json:"-"`
	IsActive     bool       `gorm:"not null;default:true" json:"is_active"`
	IsStaff      bool       `gorm:"not null;default:false" json:"is_staff"`
	DateJoined   time.Time  `gorm:"autoCreateTime" json:"date_joined"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
}

// User 用户模型. Email, not username, is the authentication identifier; both
// email and username carry unique indexes, which is the authoritative guard
// against duplicate registrations racing past the validator's pre-check.
type User struct {
	ID        uint64     `gorm:"primarykey" json:"id"`
	Email     string     `gorm:"uniqueIndex;not null;size:254" json:"email"`
	Username  string     `gorm:"uniqueIndex;not null;size:150" json:"username"`
	Location  string     `gorm:"size:30" json:"location,omitempty"`
	BirthDate *time.Time `gorm:"type:date" json:"birth_date,omitempty"`
	Bio       string     `gorm:"size:500" json:"bio,omitempty"`
	AvatarKey string     `gorm:"size:255" json:"avatar_key,omitempty"`
	Identity  Identity   `gorm:"embedded" json:"identity"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
