package model

import "time"

// DashboardConfiguration stores the persisted layout document of one dashboard.
type DashboardConfiguration struct {
	Name          string    `gorm:"primaryKey;size:64"`
	SchemaVersion *int      `gorm:"column:schema_version"`
	Payload       []byte    `gorm:"type:blob"`
	Revision      int64     `gorm:"not null;default:0"`
	CreatedAt     time.Time `gorm:"autoCreateTime"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime"`
}

// User records an account that signed in to the administrative shell.
type User struct {
	Email      string    `gorm:"primaryKey;size:320"`
	Name       string    `gorm:"size:200"`
	PictureURL string    `gorm:"size:500"`
	LastSeenAt time.Time `gorm:"index"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}
