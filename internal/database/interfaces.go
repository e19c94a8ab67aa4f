package database

import (
	"context"

	"fleetping-bot/internal/database/models"
)

// PingStore maps a Discord channel id to the last ping posted there.
// Put replaces any previous record for the channel.
type PingStore interface {
	// Get returns ErrPingNotFound when the channel has no record.
	Get(ctx context.Context, channelID string) (*models.PingRecord, error)
	Put(ctx context.Context, channelID string, record *models.PingRecord) error
	Delete(ctx context.Context, channelID string) error
}

// ActionLogger defines the interface for logging member actions.
type ActionLogger interface {
	// LogUserAction logs an action performed by a member.
	LogUserAction(ctx context.Context, entry models.ActionLog) error
}
