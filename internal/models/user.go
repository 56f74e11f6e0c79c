// Package models contains data structures for the application's domain models.
package models

import "time"

// Role is a coarse authorization role.
type Role string

const (
	// RoleUser is the default role for registered accounts.
	RoleUser Role = "user"
	// RoleAdmin may manage categories and moderate comments.
	RoleAdmin Role = "admin"
)

// User represents a registered account.
type User struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Username  string `gorm:"size:20;uniqueIndex;not null" json:"username"`
	Email     string `gorm:"uniqueIndex;not null" json:"email,omitempty"`
	Password  string `gorm:"not null" json:"-"`
	Role      Role   `gorm:"type:varchar(10);not null;default:'user'" json:"role"`
	Bio       string `gorm:"size:280" json:"bio"`
	AvatarURL string `json:"avatarUrl"`
	// FollowersCount is not persisted; computed at query time
	FollowersCount int `gorm:"->;-:migration" json:"followersCount"`
	// FollowingCount is not persisted; computed at query time
	FollowingCount int       `gorm:"->;-:migration" json:"followingCount"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// Follow is one edge of the follow graph. The primary key projects the
// relation as "following" (by follower); the followee index projects it as
// "followers".
type Follow struct {
	FollowerID uint      `gorm:"primaryKey;autoIncrement:false" json:"followerId"`
	FolloweeID uint      `gorm:"primaryKey;autoIncrement:false;index" json:"followeeId"`
	CreatedAt  time.Time `json:"createdAt"`
}

// TableName specifies the table name for GORM
func (Follow) TableName() string {
	return "follows"
}
