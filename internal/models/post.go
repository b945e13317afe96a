package models

import (
	"time"

	"gorm.io/gorm"
)

// MediaKind distinguishes video from image publishes; the encoder picks a
// different endpoint per kind.
type MediaKind string

const (
	MediaVideo MediaKind = "video"
	MediaImage MediaKind = "image"
)

var mediaKindByExtension = map[string]MediaKind{
	"mp4":  MediaVideo,
	"mov":  MediaVideo,
	"jpg":  MediaImage,
	"jpeg": MediaImage,
	"png":  MediaImage,
}

// MediaKindForExtension maps a lowercase file extension to the media kind
// the publish endpoints distinguish. Unknown extensions are rejected.
func MediaKindForExtension(ext string) (MediaKind, bool) {
	kind, ok := mediaKindByExtension[ext]
	return kind, ok
}

// Post is the domain record of one scheduled publish, paired 1:1 with a
// Task through TaskID once the remote job is accepted. Status is
// denormalized from the task for query convenience. Cancelling the task
// deletes the post in the same transaction.
type Post struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	TaskID     string         `gorm:"index;size:255" json:"task_id"`
	Username   string         `gorm:"not null;size:255;index" json:"username"`
	Platform   Platform       `gorm:"not null;size:50;index" json:"platform"`
	Caption    string         `gorm:"type:text" json:"caption"`
	MediaURL   string         `gorm:"not null;size:2048" json:"media_url"`
	MediaKind  MediaKind      `gorm:"not null;size:20" json:"media_kind"`
	Status     string         `gorm:"not null;size:50;default:'Waiting'" json:"status"`
	ScheduleAt time.Time      `gorm:"not null" json:"schedule_at"`
	CreatedAt  time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}
