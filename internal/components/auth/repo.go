package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/fx"
)

type (
	// UserRepository persists credential records. Uniqueness of username and
	// email is enforced by the store's unique indexes, not by application
	// locking: the second concurrent writer gets a DuplicateKeyError.
	UserRepository interface {
		Create(ctx context.Context, user *User) error
		GetByUsername(ctx context.Context, username string) (*User, error)
		GetByID(ctx context.Context, id string) (*User, error)
	}

	// SessionRepository persists session records keyed by token hash.
	SessionRepository interface {
		Create(ctx context.Context, session *Session) error
		GetByTokenHash(ctx context.Context, tokenHash string) (*Session, error)
		DeleteByTokenHash(ctx context.Context, tokenHash string) error
	}

	mongoUserRepo struct {
		col *mongo.Collection
	}

	mongoSessionRepo struct {
		col *mongo.Collection
	}
)

// NewUserRepo creates the users repository and registers the unique indexes
// on startup via the fx lifecycle.
func NewUserRepo(lc fx.Lifecycle, db *mongo.Database) UserRepository {
	repo := &mongoUserRepo{col: db.Collection("users")}
	lc.Append(fx.Hook{
		OnStart: repo.ensureIndexes,
	})
	return repo
}

func (r *mongoUserRepo) ensureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	})
	return err
}

func (r *mongoUserRepo) Create(ctx context.Context, user *User) error {
	_, err := r.col.InsertOne(ctx, user)
	if err != nil {
		return classifyDuplicateKey(err)
	}
	return nil
}

func (r *mongoUserRepo) GetByUsername(ctx context.Context, username string) (*User, error) {
	var user User
	err := r.col.FindOne(ctx, bson.M{"username": username}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *mongoUserRepo) GetByID(ctx context.Context, id string) (*User, error) {
	var user User
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// classifyDuplicateKey maps a unique-index violation to a DuplicateKeyError
// naming the offending field. Other errors pass through untouched.
func classifyDuplicateKey(err error) error {
	if !mongo.IsDuplicateKeyError(err) {
		return err
	}
	// Match on the violated index name, "index: email_1". The message also
	// embeds the duplicate value itself, which may contain the bare word
	// "email" even when the username index was the one violated.
	if strings.Contains(err.Error(), "index: email_1") {
		return &DuplicateKeyError{Field: "email"}
	}
	return &DuplicateKeyError{Field: "username"}
}

func NewSessionRepo(db *mongo.Database) SessionRepository {
	return &mongoSessionRepo{col: db.Collection("sessions")}
}

func (r *mongoSessionRepo) Create(ctx context.Context, session *Session) error {
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}
	_, err := r.col.InsertOne(ctx, session)
	return err
}

func (r *mongoSessionRepo) GetByTokenHash(ctx context.Context, tokenHash string) (*Session, error) {
	var session Session
	err := r.col.FindOne(ctx, bson.M{"_id": tokenHash}).Decode(&session)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &session, nil
}

func (r *mongoSessionRepo) DeleteByTokenHash(ctx context.Context, tokenHash string) error {
	// DeleteOne on an absent document is not an error, which keeps logout
	// idempotent all the way down.
	_, err := r.col.DeleteOne(ctx, bson.M{"_id": tokenHash})
	return err
}
