package handlers

import (
	"context"

	"fleetping-bot/internal/database/models"
	"fleetping-bot/internal/pings"

	"github.com/bwmarrin/discordgo"
)

// PingService defines the ping operations used by InteractionHandler.
type PingService interface {
	Publish(ctx context.Context, target pings.Target, content pings.Content, mirror bool) (*models.PingRecord, error)
	Reping(ctx context.Context, target pings.Target) (*models.PingRecord, error)
	SetStatus(ctx context.Context, target pings.Target, status string) error
}

// PermissionCheckerInterface decides who may run ping commands.
type PermissionCheckerInterface interface {
	CanPing(member *discordgo.Member) bool
}
