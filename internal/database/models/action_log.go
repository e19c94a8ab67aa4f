package models

import "time"

// ActionLog records a ping command run by a Discord member.
type ActionLog struct {
	UserID    string                 `bson:"user_id"`
	Username  string                 `bson:"username,omitempty"`
	Action    string                 `bson:"action"`
	ChannelID string                 `bson:"channel_id"`
	Details   map[string]interface{} `bson:"details,omitempty"`
	Time      time.Time              `bson:"time"`
}
