package models

import "time"

type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// Valid reports whether r is one of the three stored roles.
func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleMember:
		return true
	}
	return false
}

type Class struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	OwnerID   uint      `gorm:"not null;index" json:"owner_id"`
	Title     string    `gorm:"size:100;not null" json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

// Membership is the (user, class) relation. The unique index enforces one row per pair.
type Membership struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_membership_user_class" json:"user_id"`
	ClassID   uint      `gorm:"not null;uniqueIndex:idx_membership_user_class;index" json:"class_id"`
	Role      Role      `gorm:"type:varchar(10);not null" json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

type Invitation struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Code      string    `gorm:"size:6;uniqueIndex;not null" json:"code"`
	CreatedBy uint      `gorm:"not null;index" json:"created_by"`
	ClassID   uint      `gorm:"not null;index" json:"class_id"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
}

// NeverExpires is stored as the expiration of invitations that do not expire.
var NeverExpires = time.Date(9999, 12, 31, 23, 59, 59, 0, time.UTC)

// IsNeverExpiring reports whether the invitation carries the sentinel expiration.
func (i Invitation) IsNeverExpiring() bool {
	return !i.ExpiresAt.Before(NeverExpires)
}

// ValidAt reports whether the invitation can still be used at now.
func (i Invitation) ValidAt(now time.Time) bool {
	return i.IsNeverExpiring() || !i.ExpiresAt.Before(now)
}

// TeacherColor is a base color when Subject is nil, else a per-subject override.
type TeacherColor struct {
	ID      uint    `gorm:"primaryKey" json:"id"`
	ClassID uint    `gorm:"not null;index" json:"class_id"`
	Teacher string  `gorm:"size:50;not null;index" json:"teacher"`
	Color   string  `gorm:"size:7;not null" json:"color"`
	Subject *string `gorm:"size:100" json:"subject,omitempty"`
}
