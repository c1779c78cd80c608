// Package mongodb stores events and participations in MongoDB. Multi-document
// transactions need a replica set (a single-node one is enough).
package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"

	"rollcall/internal/platform/sentinel"
	"rollcall/internal/ports/output"
)

const (
	collectionEvents         = "events"
	collectionParticipations = "participations"
)

var _ output.Transactor = (*Store)(nil)

type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect opens a client on uri and checks it answers.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongodb connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongodb ping: %w", err)
	}
	return client, nil
}

func NewStore(client *mongo.Client, database string) *Store {
	return &Store{client: client, db: client.Database(database)}
}

func (s *Store) Events() *EventRepository {
	return &EventRepository{coll: s.db.Collection(collectionEvents)}
}

func (s *Store) Participations() *ParticipationRepository {
	return &ParticipationRepository{
		coll:   s.db.Collection(collectionParticipations),
		events: s.db.Collection(collectionEvents),
	}
}

// EnsureIndexes creates the indexes the repositories rely on, uniqueness of
// (event, user) and of ticket tokens included.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.db.Collection(collectionParticipations).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "event_id", Value: 1}, {Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("event_user_unique"),
		},
		{
			Keys: bson.D{{Key: "ticket.token", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("ticket_token_unique").
				SetPartialFilterExpression(bson.D{{Key: "ticket.token", Value: bson.D{{Key: "$exists", Value: true}}}}),
		},
		{
			Keys:    bson.D{{Key: "event_id", Value: 1}, {Key: "status", Value: 1}, {Key: "sequence", Value: 1}},
			Options: options.Index().SetName("waitlist"),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "ticket.used", Value: 1}, {Key: "ticket.expires_at", Value: 1}},
			Options: options.Index().SetName("ticket_expiry"),
		},
	})
	if err != nil {
		return fmt.Errorf("create indexes: %w", err)
	}
	return nil
}

// WithinTx runs fn in a multi-document transaction. Transient transaction
// failures come back as sentinel.ErrConflict so the caller's retry policy
// decides, not the driver's.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if mongo.SessionFromContext(ctx) != nil {
		return fn(ctx)
	}
	sess, err := s.client.StartSession()
	if err != nil {
		return mapErr(fmt.Errorf("start session: %w", err))
	}
	defer sess.EndSession(context.WithoutCancel(ctx))

	opts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())

	return mongo.WithSession(ctx, sess, func(sc mongo.SessionContext) error {
		if err := sess.StartTransaction(opts); err != nil {
			return mapErr(fmt.Errorf("start transaction: %w", err))
		}
		if err := fn(sc); err != nil {
			_ = sess.AbortTransaction(context.WithoutCancel(sc))
			return err
		}
		if err := sess.CommitTransaction(sc); err != nil {
			return mapErr(fmt.Errorf("commit: %w", err))
		}
		return nil
	})
}

// mapErr translates driver failures into store sentinels.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("%w: %w", sentinel.ErrNotFound, err)
	}
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %w", sentinel.ErrDuplicate, err)
	}
	var labeled mongo.LabeledError
	if errors.As(err, &labeled) &&
		(labeled.HasErrorLabel("TransientTransactionError") || labeled.HasErrorLabel("UnknownTransactionCommitResult")) {
		return fmt.Errorf("%w: %w", sentinel.ErrConflict, err)
	}
	if mongo.IsTimeout(err) || mongo.IsNetworkError(err) {
		return fmt.Errorf("%w: %w", sentinel.ErrUnavailable, err)
	}
	return err
}
