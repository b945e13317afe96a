package models

import "time"

// Phone is a cloud phone known to the GeeLark account. The inventory is a
// cache refreshed wholesale from the remote list endpoint.
type Phone struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	MobileID   string    `gorm:"uniqueIndex;not null;size:255" json:"mobile_id"`
	SerialName string    `gorm:"size:255" json:"serial_name"`
	Brand      string    `gorm:"size:255" json:"brand"`
	Model      string    `gorm:"size:255" json:"model"`
	OSVersion  string    `gorm:"size:100" json:"os_version"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
