package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"rollcall/internal/domain"
	"rollcall/internal/domain/entities"
	"rollcall/internal/platform/sentinel"
	"rollcall/internal/ports/output"
)

var _ output.EventRepository = (*EventRepository)(nil)

type EventRepository struct {
	coll *mongo.Collection
}

func (r *EventRepository) Create(ctx context.Context, event *entities.Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	event.CreatedAt = now
	event.UpdatedAt = now
	if _, err := r.coll.InsertOne(ctx, eventToDoc(event)); err != nil {
		return mapErr(fmt.Errorf("create event: %w", err))
	}
	return nil
}

func (r *EventRepository) FindByID(ctx context.Context, id string) (*entities.Event, error) {
	var d eventDoc
	if err := r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&d); err != nil {
		return nil, mapErr(fmt.Errorf("get event by id: %w", err))
	}
	return eventToDomain(d), nil
}

func (r *EventRepository) UpdateSchedule(ctx context.Context, id, title string, endsAt time.Time) error {
	var ends any
	if !endsAt.IsZero() {
		ends = endsAt
	}
	res, err := r.coll.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: id}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "title", Value: title},
			{Key: "ends_at", Value: ends},
			{Key: "updated_at", Value: time.Now().UTC()},
		}}},
	)
	if err != nil {
		return mapErr(fmt.Errorf("update schedule: %w", err))
	}
	if res.MatchedCount == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (r *EventRepository) UpdateCapacity(ctx context.Context, id string, capacity int) error {
	filter := bson.D{{Key: "_id", Value: id}}
	if capacity > 0 {
		filter = append(filter, bson.E{Key: "registered_count", Value: bson.D{{Key: "$lte", Value: capacity}}})
	}
	res, err := r.coll.UpdateOne(ctx, filter, bson.D{{Key: "$set", Value: bson.D{
		{Key: "capacity", Value: capacity},
		{Key: "updated_at", Value: time.Now().UTC()},
	}}})
	if err != nil {
		return mapErr(fmt.Errorf("update capacity: %w", err))
	}
	if res.MatchedCount == 0 {
		if _, err := r.FindByID(ctx, id); err != nil {
			return err
		}
		return sentinel.ErrInvalidState
	}
	return nil
}

// ReserveSlot compares the count it read with the stored one when it
// increments. A concurrent change in between yields domain.ErrCapacityRaceLost.
func (r *EventRepository) ReserveSlot(ctx context.Context, id string) (bool, error) {
	event, err := r.FindByID(ctx, id)
	if err != nil {
		return false, err
	}
	if !event.HasFreeSlot() {
		return false, nil
	}
	res, err := r.coll.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: id}, {Key: "registered_count", Value: event.RegisteredCount}},
		bson.D{
			{Key: "$inc", Value: bson.D{{Key: "registered_count", Value: 1}}},
			{Key: "$set", Value: bson.D{{Key: "updated_at", Value: time.Now().UTC()}}},
		},
	)
	if err != nil {
		return false, mapErr(fmt.Errorf("reserve slot: %w", err))
	}
	if res.MatchedCount == 0 {
		return false, domain.ErrCapacityRaceLost
	}
	return true, nil
}

func (r *EventRepository) ReleaseSlot(ctx context.Context, id string) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: id}, {Key: "registered_count", Value: bson.D{{Key: "$gt", Value: 0}}}},
		bson.D{
			{Key: "$inc", Value: bson.D{{Key: "registered_count", Value: -1}}},
			{Key: "$set", Value: bson.D{{Key: "updated_at", Value: time.Now().UTC()}}},
		},
	)
	if err != nil {
		return mapErr(fmt.Errorf("release slot: %w", err))
	}
	if res.MatchedCount == 0 {
		_, err := r.FindByID(ctx, id)
		return err
	}
	return nil
}

func (r *EventRepository) NextSequence(ctx context.Context, id string) (int64, error) {
	var d eventDoc
	err := r.coll.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: id}},
		bson.D{{Key: "$inc", Value: bson.D{{Key: "waitlist_seq", Value: 1}}}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, sentinel.ErrNotFound
	}
	if err != nil {
		return 0, mapErr(fmt.Errorf("next sequence: %w", err))
	}
	return d.WaitlistSeq, nil
}
