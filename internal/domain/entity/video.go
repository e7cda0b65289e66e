package entity

import "time"

type Video struct {
	ID          string
	VideoFile   string
	Thumbnail   string
	Title       string
	Description string
	Duration    float64 // seconds
	Views       int64
	IsPublished bool
	OwnerID     string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
