package mongodb

import (
	"context"
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

var _ output.ParticipationRepository = (*ParticipationRepository)(nil)

type ParticipationRepository struct {
	coll   *mongo.Collection
	events *mongo.Collection
}

// pendingTicket matches registered records holding an unused ticket.
func pendingTicket() bson.D {
	return bson.D{
		{Key: "status", Value: domain.StatusRegistered},
		{Key: "ticket", Value: bson.D{{Key: "$ne", Value: nil}}},
		{Key: "ticket.used", Value: false},
	}
}

func (r *ParticipationRepository) Create(ctx context.Context, p *entities.Participation) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	if _, err := r.coll.InsertOne(ctx, participationToDoc(p)); err != nil {
		return mapErr(fmt.Errorf("create participation: %w", err))
	}
	return nil
}

func (r *ParticipationRepository) findOne(ctx context.Context, filter bson.D, opts ...*options.FindOneOptions) (*entities.Participation, error) {
	var d participationDoc
	if err := r.coll.FindOne(ctx, filter, opts...).Decode(&d); err != nil {
		return nil, mapErr(fmt.Errorf("find participation: %w", err))
	}
	p := participationToDomain(d)
	return &p, nil
}

func (r *ParticipationRepository) find(ctx context.Context, filter bson.D, opts ...*options.FindOptions) ([]entities.Participation, error) {
	cursor, err := r.coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, mapErr(fmt.Errorf("find participations: %w", err))
	}
	var docs []participationDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, mapErr(fmt.Errorf("decode participations: %w", err))
	}
	out := make([]entities.Participation, 0, len(docs))
	for _, d := range docs {
		out = append(out, participationToDomain(d))
	}
	return out, nil
}

func (r *ParticipationRepository) FindByEventIDAndUserID(ctx context.Context, eventID, userID string) (*entities.Participation, error) {
	return r.findOne(ctx, bson.D{{Key: "event_id", Value: eventID}, {Key: "user_id", Value: userID}})
}

func (r *ParticipationRepository) FindByEventIDAndToken(ctx context.Context, eventID, token string) (*entities.Participation, error) {
	return r.findOne(ctx, bson.D{{Key: "event_id", Value: eventID}, {Key: "ticket.token", Value: token}})
}

// FindByEventID sorts on the status string: attended, registered and
// waitlisted happen to be in alphabetical order.
func (r *ParticipationRepository) FindByEventID(ctx context.Context, eventID string) ([]entities.Participation, error) {
	return r.find(ctx,
		bson.D{{Key: "event_id", Value: eventID}},
		options.Find().SetSort(bson.D{{Key: "status", Value: 1}, {Key: "sequence", Value: 1}, {Key: "created_at", Value: 1}}),
	)
}

func (r *ParticipationRepository) FindOldestWaitlisted(ctx context.Context, eventID string) (*entities.Participation, error) {
	return r.findOne(ctx,
		bson.D{{Key: "event_id", Value: eventID}, {Key: "status", Value: domain.StatusWaitlisted}},
		options.FindOne().SetSort(bson.D{{Key: "sequence", Value: 1}}),
	)
}

func (r *ParticipationRepository) Delete(ctx context.Context, eventID, userID string) (*entities.Participation, error) {
	var d participationDoc
	err := r.coll.FindOneAndDelete(ctx, bson.D{{Key: "event_id", Value: eventID}, {Key: "user_id", Value: userID}}).Decode(&d)
	if err != nil {
		return nil, mapErr(fmt.Errorf("delete participation: %w", err))
	}
	p := participationToDomain(d)
	return &p, nil
}

func (r *ParticipationRepository) Promote(ctx context.Context, id string, ticket entities.Ticket, now time.Time) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: id}, {Key: "status", Value: domain.StatusWaitlisted}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "status", Value: domain.StatusRegistered},
			{Key: "ticket", Value: ticketToDoc(&ticket)},
			{Key: "updated_at", Value: now},
		}}},
	)
	if err != nil {
		return mapErr(fmt.Errorf("promote participation: %w", err))
	}
	if res.MatchedCount == 0 {
		return sentinel.ErrConflict
	}
	return nil
}

func (r *ParticipationRepository) MarkAttended(ctx context.Context, id string, at time.Time, by string) error {
	filter := append(bson.D{{Key: "_id", Value: id}}, pendingTicket()...)
	res, err := r.coll.UpdateOne(ctx, filter, bson.D{{Key: "$set", Value: bson.D{
		{Key: "status", Value: domain.StatusAttended},
		{Key: "attended_at", Value: at},
		{Key: "attended_by", Value: by},
		{Key: "ticket.used", Value: true},
		{Key: "ticket.used_at", Value: at},
		{Key: "ticket.used_by", Value: by},
		{Key: "updated_at", Value: at},
	}}})
	if err != nil {
		return mapErr(fmt.Errorf("mark attended: %w", err))
	}
	if res.MatchedCount == 0 {
		return sentinel.ErrConflict
	}
	return nil
}

// BackfillTicketExpiry has no join to lean on, so it walks the events that
// own tickets without expiry and updates them one event at a time.
func (r *ParticipationRepository) BackfillTicketExpiry(ctx context.Context, grace time.Duration) (int, error) {
	missing := append(pendingTicket(), bson.E{Key: "ticket.expires_at", Value: nil})
	ids, err := r.coll.Distinct(ctx, "event_id", missing)
	if err != nil {
		return 0, mapErr(fmt.Errorf("distinct events: %w", err))
	}
	if len(ids) == 0 {
		return 0, nil
	}

	cursor, err := r.events.Find(ctx, bson.D{
		{Key: "_id", Value: bson.D{{Key: "$in", Value: ids}}},
		{Key: "ends_at", Value: bson.D{{Key: "$ne", Value: nil}}},
	})
	if err != nil {
		return 0, mapErr(fmt.Errorf("find events: %w", err))
	}
	var events []eventDoc
	if err := cursor.All(ctx, &events); err != nil {
		return 0, mapErr(fmt.Errorf("decode events: %w", err))
	}

	n := 0
	for _, e := range events {
		filter := append(bson.D{{Key: "event_id", Value: e.ID}}, missing...)
		res, err := r.coll.UpdateMany(ctx, filter, bson.D{{Key: "$set", Value: bson.D{
			{Key: "ticket.expires_at", Value: e.EndsAt.Add(grace)},
			{Key: "updated_at", Value: time.Now().UTC()},
		}}})
		if err != nil {
			return n, mapErr(fmt.Errorf("backfill ticket expiry: %w", err))
		}
		n += int(res.ModifiedCount)
	}
	return n, nil
}

func (r *ParticipationRepository) UpdateTicketExpiry(ctx context.Context, eventID string, expiresAt *time.Time) (int, error) {
	filter := append(bson.D{{Key: "event_id", Value: eventID}}, pendingTicket()...)
	res, err := r.coll.UpdateMany(ctx, filter, bson.D{{Key: "$set", Value: bson.D{
		{Key: "ticket.expires_at", Value: expiresAt},
		{Key: "updated_at", Value: time.Now().UTC()},
	}}})
	if err != nil {
		return 0, mapErr(fmt.Errorf("update ticket expiry: %w", err))
	}
	return int(res.ModifiedCount), nil
}

func expiredBefore(now time.Time) bson.D {
	return append(pendingTicket(), bson.E{Key: "ticket.expires_at", Value: bson.D{{Key: "$lt", Value: now}}})
}

func (r *ParticipationRepository) FindExpiredTickets(ctx context.Context, now time.Time, limit int) ([]entities.Participation, error) {
	opts := options.Find().SetSort(bson.D{{Key: "ticket.expires_at", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	return r.find(ctx, expiredBefore(now), opts)
}

func (r *ParticipationRepository) ExpireTicket(ctx context.Context, id string, now time.Time, by string) (bool, error) {
	filter := append(bson.D{{Key: "_id", Value: id}}, expiredBefore(now)...)
	res, err := r.coll.UpdateOne(ctx, filter, bson.D{{Key: "$set", Value: bson.D{
		{Key: "ticket.used", Value: true},
		{Key: "ticket.used_at", Value: now},
		{Key: "ticket.used_by", Value: by},
		{Key: "updated_at", Value: now},
	}}})
	if err != nil {
		return false, mapErr(fmt.Errorf("expire ticket: %w", err))
	}
	return res.ModifiedCount == 1, nil
}
