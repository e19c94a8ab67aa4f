package database

import (
	"context"
	"errors"
	"fmt"

	"fleetping-bot/internal/database/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const pingCollectionName = "last_pings"

// MongoPingRepository implements PingStore for MongoDB.
// Documents use the channel id as _id.
type MongoPingRepository struct {
	collection *mongo.Collection
}

// NewMongoPingRepository creates a new MongoDB ping repository.
func NewMongoPingRepository(db *mongo.Database) *MongoPingRepository {
	return &MongoPingRepository{
		collection: db.Collection(pingCollectionName),
	}
}

// Get retrieves the last ping of a channel.
// It returns ErrPingNotFound if the channel has none.
func (r *MongoPingRepository) Get(ctx context.Context, channelID string) (*models.PingRecord, error) {
	var record models.PingRecord
	err := r.collection.FindOne(ctx, bson.M{"_id": channelID}).Decode(&record)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrPingNotFound
		}
		return nil, fmt.Errorf("failed to find ping for channel %s: %w", channelID, err)
	}
	return &record, nil
}

// Put replaces the channel's record, inserting it if needed.
func (r *MongoPingRepository) Put(ctx context.Context, channelID string, record *models.PingRecord) error {
	if record == nil {
		return errors.New("nil ping record")
	}
	doc := *record
	doc.ChannelID = channelID

	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": channelID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to store ping for channel %s: %w", channelID, err)
	}
	return nil
}

// Delete removes the channel's record.
func (r *MongoPingRepository) Delete(ctx context.Context, channelID string) error {
	if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": channelID}); err != nil {
		return fmt.Errorf("failed to delete ping for channel %s: %w", channelID, err)
	}
	return nil
}
