package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is the sole persistent entity: one document per account in the
// users collection. Username is unique when set but may be absent for
// accounts created by a federated login; GoogleID is unique when set.
// At least one of PasswordHash/GoogleID is populated for any reachable
// account.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Username     string             `bson:"username,omitempty"`
	PasswordHash string             `bson:"password_hash,omitempty"`
	GoogleID     string             `bson:"google_id,omitempty"`
	Name         string             `bson:"name,omitempty"`
	Picture      string             `bson:"picture,omitempty"`
	Provider     string             `bson:"provider"` // "local" | "google"
	CreatedAt    time.Time          `bson:"created_at"`
}
