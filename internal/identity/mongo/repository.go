// Package mongo provides MongoDB implementation of the identity repository.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bissquit/bloomshop/internal/domain"
	"github.com/bissquit/bloomshop/internal/identity"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const collectionName = "users"

type userDocument struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Name         string             `bson:"name"`
	Email        string             `bson:"email"`
	PasswordHash string             `bson:"password_hash"`
	Role         string             `bson:"role"`
	RegisteredAt time.Time          `bson:"registered_at"`
	UpdatedAt    time.Time          `bson:"updated_at"`
}

func (d *userDocument) toDomain() domain.User {
	return domain.User{
		ID:           d.ID.Hex(),
		Name:         d.Name,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		Role:         domain.Role(d.Role),
		RegisteredAt: d.RegisteredAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

// Repository implements the identity.Repository interface using MongoDB.
type Repository struct {
	users *mongo.Collection
}

// NewRepository creates a new MongoDB repository.
func NewRepository(db *mongo.Database) *Repository {
	return &Repository{users: db.Collection(collectionName)}
}

// EnsureIndexes creates the unique email index.
func (r *Repository) EnsureIndexes(ctx context.Context) error {
	_, err := r.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("users_email_unique"),
	})
	if err != nil {
		return fmt.Errorf("create users email index: %w", err)
	}
	return nil
}

// CreateUser inserts the user and assigns its ID.
func (r *Repository) CreateUser(ctx context.Context, user *domain.User) error {
	doc := userDocument{
		ID:           primitive.NewObjectID(),
		Name:         user.Name,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		Role:         string(user.Role),
		RegisteredAt: user.RegisteredAt,
		UpdatedAt:    user.UpdatedAt,
	}

	if _, err := r.users.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return identity.ErrEmailExists
		}
		return fmt.Errorf("insert user: %w", err)
	}

	user.ID = doc.ID.Hex()
	return nil
}

// GetUserByID retrieves a user by ID. Malformed IDs are reported as not found.
func (r *Repository) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, identity.ErrUserNotFound
	}
	return r.findOne(ctx, bson.M{"_id": objID})
}

// GetUserByEmail retrieves a user by email.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *Repository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	var doc userDocument
	if err := r.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, identity.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	user := doc.toDomain()
	return &user, nil
}

// UpdateProfile sets name and email of the user.
func (r *Repository) UpdateProfile(ctx context.Context, id, name, email string, updatedAt time.Time) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return identity.ErrUserNotFound
	}

	result, err := r.users.UpdateOne(ctx,
		bson.M{"_id": objID},
		bson.M{"$set": bson.M{"name": name, "email": email, "updated_at": updatedAt}},
	)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return identity.ErrEmailExists
		}
		return fmt.Errorf("update user profile: %w", err)
	}
	if result.MatchedCount == 0 {
		return identity.ErrUserNotFound
	}
	return nil
}

// ListUsersByRole returns users holding role in insertion order, without password hashes.
func (r *Repository) ListUsersByRole(ctx context.Context, role domain.Role) ([]domain.User, error) {
	opts := options.Find().
		SetProjection(bson.D{{Key: "password_hash", Value: 0}}).
		SetSort(bson.D{{Key: "_id", Value: 1}})

	cur, err := r.users.Find(ctx, bson.M{"role": string(role)}, opts)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer cur.Close(ctx)

	var docs []userDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}

	users := make([]domain.User, 0, len(docs))
	for i := range docs {
		users = append(users, docs[i].toDomain())
	}
	return users, nil
}

// DeleteUserWithRole deletes the user when it holds role.
func (r *Repository) DeleteUserWithRole(ctx context.Context, id string, role domain.Role) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return identity.ErrUserNotFound
	}

	result, err := r.users.DeleteOne(ctx, bson.M{"_id": objID, "role": string(role)})
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if result.DeletedCount == 0 {
		return identity.ErrUserNotFound
	}
	return nil
}
