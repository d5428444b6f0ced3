package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"inzira-booking-client/internal/domain/entity"
	"inzira-booking-client/internal/domain/repository"
)

// MongoRecoveryRepository keeps the recovery record as one document
type MongoRecoveryRepository struct {
	collection *mongo.Collection
}

// NewMongoRecoveryRepository creates a new mongo-backed recovery repository
func NewMongoRecoveryRepository(db *mongo.Database) repository.RecoveryRepository {
	return &MongoRecoveryRepository{
		collection: db.Collection("recovery_records"),
	}
}

// Save upserts the record under the fixed document id
func (r *MongoRecoveryRepository) Save(ctx context.Context, record *entity.RecoveryRecord) error {
	updateDoc := bson.M{
		"bookingId":            record.ID,
		"bookingReference":     record.BookingReference,
		"phoneNumber":          record.PhoneNumber,
		"email":                record.Email,
		"transactionReference": record.TransactionReference,
		"updatedAt":            time.Now(),
	}

	opts := options.Update().SetUpsert(true)
	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": entity.RecoveryKey},
		bson.M{"$set": updateDoc},
		opts,
	)
	if err != nil {
		return fmt.Errorf("failed to save recovery record: %w", err)
	}
	return nil
}

func (r *MongoRecoveryRepository) Load(ctx context.Context) (*entity.RecoveryRecord, error) {
	var record entity.RecoveryRecord
	err := r.collection.FindOne(ctx, bson.M{"_id": entity.RecoveryKey}).Decode(&record)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load recovery record: %w", err)
	}
	return &record, nil
}

func (r *MongoRecoveryRepository) Clear(ctx context.Context) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": entity.RecoveryKey})
	return err
}
