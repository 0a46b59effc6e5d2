package repo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"secrets-service/internal/domain"
)

const usersColl = "users"

// EnsureUserIndexes creates the uniqueness indexes the auth flows rely on.
// Both are partial: federated-only accounts have no username, local-only
// accounts have no google_id, and absent fields must not collide.
func (s *Store) EnsureUserIndexes(ctx context.Context) error {
	coll := s.DB.Collection(usersColl)

	if _, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "username", Value: 1}},
		Options: options.Index().
			SetUnique(true).
			SetPartialFilterExpression(bson.M{"username": bson.M{"$type": "string"}}),
	}); err != nil {
		return err
	}

	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "google_id", Value: 1}},
		Options: options.Index().
			SetUnique(true).
			SetPartialFilterExpression(bson.M{"google_id": bson.M{"$type": "string"}}),
	})
	return err
}

func (s *Store) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return s.findOne(ctx, bson.M{"username": username})
}

func (s *Store) FindByGoogleID(ctx context.Context, googleID string) (*domain.User, error) {
	return s.findOne(ctx, bson.M{"google_id": googleID})
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	var u domain.User
	err := s.DB.Collection(usersColl).FindOne(ctx, filter).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts a new user document, assigning ID and CreatedAt.
func (s *Store) Create(ctx context.Context, u *domain.User) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	res, err := s.DB.Collection(usersColl).InsertOne(ctx, u)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	if err != nil {
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		u.ID = oid
	}
	return nil
}

// FindOrCreateByGoogleID returns the user keyed by googleID, creating it
// from defaults on first login. A single FindOneAndUpdate upsert keeps the
// operation atomic; the unique index on google_id plus one retry covers the
// race where two callbacks upsert simultaneously.
func (s *Store) FindOrCreateByGoogleID(ctx context.Context, googleID string, defaults domain.User) (*domain.User, error) {
	setOnInsert := bson.M{
		"provider":   "google",
		"created_at": time.Now().UTC(),
	}
	if defaults.Name != "" {
		setOnInsert["name"] = defaults.Name
	}
	if defaults.Picture != "" {
		setOnInsert["picture"] = defaults.Picture
	}
	if defaults.Username != "" {
		setOnInsert["username"] = defaults.Username
	}

	upsert := func() (*domain.User, error) {
		var u domain.User
		err := s.DB.Collection(usersColl).FindOneAndUpdate(
			ctx,
			bson.M{"google_id": googleID},
			bson.M{"$setOnInsert": setOnInsert},
			options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
		).Decode(&u)
		if err != nil {
			return nil, err
		}
		return &u, nil
	}

	u, err := upsert()
	if err != nil && mongo.IsDuplicateKeyError(err) {
		// lost the upsert race; the winner's document exists now
		return s.FindByGoogleID(ctx, googleID)
	}
	return u, err
}
