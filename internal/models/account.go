package models

import (
	"time"

	"gorm.io/gorm"
)

// Platform identifies a supported social network. The values match the
// identifiers the GeeLark API expects, including the dashed tik-tok form.
type Platform string

const (
	PlatformInstagram Platform = "instagram"
	PlatformFacebook  Platform = "facebook"
	PlatformTikTok    Platform = "tik-tok"
	PlatformYouTube   Platform = "youtube"
)

// Account is an automatable social-media account bound to a cloud phone.
// The dispatch core treats it as a read-only value.
type Account struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	MobileID  string         `gorm:"not null;size:255" json:"mobile_id"`
	Platform  Platform       `gorm:"not null;size:50;index" json:"platform"`
	Username  string         `gorm:"not null;size:255;index" json:"username"`
	Password  string         `gorm:"not null;size:255" json:"-"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
