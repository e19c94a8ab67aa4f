package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"fleetping-bot/internal/database/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	actionCollectionName = "user_actions"
	memberCollectionName = "members"
)

// MongoLogger implements ActionLogger using MongoDB.
// Besides the action log it keeps a per-member activity counter.
type MongoLogger struct {
	db *mongo.Database
}

// NewMongoLogger creates and returns a new MongoLogger instance.
func NewMongoLogger(db *mongo.Database) *MongoLogger {
	return &MongoLogger{db: db}
}

// LogUserAction writes the entry and bumps the member's counters.
func (m *MongoLogger) LogUserAction(ctx context.Context, entry models.ActionLog) error {
	if entry.Time.IsZero() {
		entry.Time = time.Now()
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := m.db.Collection(actionCollectionName).InsertOne(ctx, entry); err != nil {
		return fmt.Errorf("failed to insert action log for user %s: %w", entry.UserID, err)
	}

	update := bson.M{
		"$set": bson.M{
			"username":    entry.Username,
			"last_seen":   entry.Time,
			"last_action": entry.Action,
		},
		"$inc": bson.M{
			"actions_count": 1,
		},
		"$setOnInsert": bson.M{
			"first_seen": entry.Time,
		},
	}
	_, err := m.db.Collection(memberCollectionName).UpdateOne(
		ctx,
		bson.M{"_id": entry.UserID},
		update,
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to update member %s: %w", entry.UserID, err)
	}
	return nil
}

// LogActionLogger writes actions to the process log. It is used when no
// database is configured.
type LogActionLogger struct{}

// LogUserAction prints the entry.
func (LogActionLogger) LogUserAction(_ context.Context, entry models.ActionLog) error {
	log.Printf("[Action:%s User:%s(%s) Channel:%s] %v", entry.Action, entry.UserID, entry.Username, entry.ChannelID, entry.Details)
	return nil
}
