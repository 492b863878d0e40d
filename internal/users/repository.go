package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/imaginify/imaginify/backend/go-services/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrDuplicateUser is returned when a user with the same external id already exists.
var ErrDuplicateUser = errors.New("user already exists")

// UserRepository defines persistence operations for users.
// A nil user with a nil error means no document matched.
type UserRepository interface {
	Create(ctx context.Context, u *models.User) (*models.User, error)
	UpdateByExternalID(ctx context.Context, externalID string, upd models.UserUpdate) (*models.User, error)
	DeleteByExternalID(ctx context.Context, externalID string) (*models.User, error)
	GetByExternalID(ctx context.Context, externalID string) (*models.User, error)
}

// MetadataOutbox tracks users whose internal id has not yet reached the identity provider.
type MetadataOutbox interface {
	// ClaimPendingMetadata leases up to limit pending users whose retry time has passed.
	ClaimPendingMetadata(ctx context.Context, now time.Time, lease time.Duration, limit int) ([]models.User, error)
	MarkMetadataSynced(ctx context.Context, externalID string, at time.Time) error
	MarkMetadataFailed(ctx context.Context, externalID string, retryAt time.Time, reason string) error
}

// MongoUserRepository implements UserRepository and MetadataOutbox using MongoDB
type MongoUserRepository struct {
	col *mongo.Collection
	now func() time.Time
}

// NewMongoUserRepository creates a new repository for the given collection
func NewMongoUserRepository(col *mongo.Collection) *MongoUserRepository {
	return &MongoUserRepository{col: col, now: func() time.Time { return time.Now().UTC() }}
}

// EnsureIndexes creates the unique external id index and the outbox index.
func (r *MongoUserRepository) EnsureIndexes(ctx context.Context) error {
	idx := []mongo.IndexModel{
		{Keys: bson.D{{Key: "externalId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "metadataPending", Value: 1}, {Key: "metadataRetryAt", Value: 1}}},
	}
	if _, err := r.col.Indexes().CreateMany(ctx, idx); err != nil {
		return fmt.Errorf("create user indexes: %w", err)
	}
	return nil
}

func (r *MongoUserRepository) Create(ctx context.Context, u *models.User) (*models.User, error) {
	now := r.now()
	u.CreatedAt = now
	u.UpdatedAt = now
	res, err := r.col.InsertOne(ctx, u)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("%w: externalId=%s", ErrDuplicateUser, u.ExternalID)
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	var created models.User
	if err := r.col.FindOne(ctx, bson.M{"_id": res.InsertedID}).Decode(&created); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("load created user: %w", err)
	}
	return &created, nil
}

func (r *MongoUserRepository) UpdateByExternalID(ctx context.Context, externalID string, upd models.UserUpdate) (*models.User, error) {
	set := bson.M{
		"username":  upd.Username,
		"firstName": upd.FirstName,
		"lastName":  upd.LastName,
		"photo":     upd.Photo,
		"updatedAt": r.now(),
	}
	if upd.Email != "" {
		set["email"] = upd.Email
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated models.User
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"externalId": externalID}, bson.M{"$set": set}, opts).Decode(&updated); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	return &updated, nil
}

func (r *MongoUserRepository) DeleteByExternalID(ctx context.Context, externalID string) (*models.User, error) {
	var deleted models.User
	if err := r.col.FindOneAndDelete(ctx, bson.M{"externalId": externalID}).Decode(&deleted); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("delete user: %w", err)
	}
	return &deleted, nil
}

func (r *MongoUserRepository) GetByExternalID(ctx context.Context, externalID string) (*models.User, error) {
	var u models.User
	if err := r.col.FindOne(ctx, bson.M{"externalId": externalID}).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

// ClaimPendingMetadata claims users one by one with FindOneAndUpdate so that two relays
// never lease the same user inside one lease window.
func (r *MongoUserRepository) ClaimPendingMetadata(ctx context.Context, now time.Time, lease time.Duration, limit int) ([]models.User, error) {
	filter := bson.M{
		"metadataPending": true,
		"$or": bson.A{
			bson.M{"metadataRetryAt": bson.M{"$lte": now}},
			bson.M{"metadataRetryAt": bson.M{"$exists": false}},
		},
	}
	update := bson.M{"$set": bson.M{"metadataRetryAt": now.Add(lease)}}
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetSort(bson.D{{Key: "createdAt", Value: 1}})

	out := make([]models.User, 0, limit)
	for len(out) < limit {
		var u models.User
		err := r.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&u)
		if errors.Is(err, mongo.ErrNoDocuments) {
			break
		}
		if err != nil {
			return out, fmt.Errorf("claim pending metadata: %w", err)
		}
		out = append(out, u)
	}
	return out, nil
}

func (r *MongoUserRepository) MarkMetadataSynced(ctx context.Context, externalID string, at time.Time) error {
	update := bson.M{
		"$set":   bson.M{"metadataPending": false, "metadataSyncedAt": at},
		"$unset": bson.M{"metadataError": "", "metadataRetryAt": ""},
	}
	if _, err := r.col.UpdateOne(ctx, bson.M{"externalId": externalID}, update); err != nil {
		return fmt.Errorf("mark metadata synced: %w", err)
	}
	return nil
}

func (r *MongoUserRepository) MarkMetadataFailed(ctx context.Context, externalID string, retryAt time.Time, reason string) error {
	update := bson.M{
		"$set": bson.M{"metadataRetryAt": retryAt, "metadataError": reason},
		"$inc": bson.M{"metadataAttempts": 1},
	}
	if _, err := r.col.UpdateOne(ctx, bson.M{"externalId": externalID}, update); err != nil {
		return fmt.Errorf("mark metadata failed: %w", err)
	}
	return nil
}
