package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is the local mirror of an identity-provider account.
// ExternalID is the provider's user id and never changes once stored.
type User struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	ExternalID    string             `bson:"externalId" json:"externalId"`
	Email         string             `bson:"email" json:"email"`
	Username      string             `bson:"username" json:"username"`
	FirstName     string             `bson:"firstName" json:"firstName"`
	LastName      string             `bson:"lastName" json:"lastName"`
	Photo         string             `bson:"photo" json:"photo"`
	PlanID        int                `bson:"planId" json:"planId"`
	CreditBalance int                `bson:"creditBalance" json:"creditBalance"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`

	// metadata write-back bookkeeping (see internal/metadata)
	MetadataPending  bool       `bson:"metadataPending" json:"-"`
	MetadataAttempts int        `bson:"metadataAttempts,omitempty" json:"-"`
	MetadataRetryAt  time.Time  `bson:"metadataRetryAt,omitempty" json:"-"`
	MetadataError    string     `bson:"metadataError,omitempty" json:"-"`
	MetadataSyncedAt *time.Time `bson:"metadataSyncedAt,omitempty" json:"-"`
}

// UserUpdate carries the mutable profile fields of a user.
// Email is only applied when non-empty.
type UserUpdate struct {
	Email     string
	Username  string
	FirstName string
	LastName  string
	Photo     string
}
