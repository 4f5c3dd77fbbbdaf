package models

import "time"

// Config stores console settings such as the generated admin token.
type Config struct {
	Key       string `gorm:"primaryKey"`
	Value     string
	CreatedAt time.Time
	UpdatedAt time.Time
}
