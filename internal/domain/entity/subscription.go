package entity

import "time"

// Subscription is a follow edge: SubscriberID follows the channel ChannelID.
type Subscription struct {
	ID           string
	SubscriberID string
	ChannelID    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
