package mongodb

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Malcolm-Mukorera/campus-events-api/internal/domain/entity"
	"github.com/Malcolm-Mukorera/campus-events-api/internal/domain/repository"
)

type eventDoc struct {
	ID          string    `bson:"_id"`
	Title       string    `bson:"title"`
	Description string    `bson:"description"`
	Date        time.Time `bson:"date"`
	Location    string    `bson:"location"`
	Category    string    `bson:"category"`
	Faculty     string    `bson:"faculty"`
	Organizer   string    `bson:"organizer"`
	Attendees   []string  `bson:"attendees"`
	Capacity    *int      `bson:"capacity"`
	CreatedAt   time.Time `bson:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt"`
}

func (d eventDoc) entity(organizer entity.UserRef) entity.Event {
	attendees := d.Attendees
	if attendees == nil {
		attendees = []string{}
	}
	if organizer.ID == "" {
		organizer.ID = d.Organizer
	}
	return entity.Event{
		ID:          d.ID,
		Title:       d.Title,
		Description: d.Description,
		Date:        d.Date.UTC(),
		Location:    d.Location,
		Category:    entity.Category(d.Category),
		Faculty:     d.Faculty,
		Organizer:   organizer,
		Attendees:   attendees,
		Capacity:    d.Capacity,
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}
}

type EventRepository struct {
	col   *mongo.Collection
	users *UserRepository
}

func NewEventRepository(db *mongo.Database, users *UserRepository) *EventRepository {
	return &EventRepository{col: db.Collection(eventsCollection), users: users}
}

func buildFilter(f entity.EventFilter) bson.M {
	filter := bson.M{}
	if f.IDs != nil {
		filter["_id"] = bson.M{"$in": f.IDs}
	}
	if f.Category != "" {
		filter["category"] = string(f.Category)
	}
	if f.Faculty != "" {
		filter["faculty"] = primitive.Regex{Pattern: regexp.QuoteMeta(f.Faculty), Options: "i"}
	}
	if f.From != nil || f.To != nil {
		date := bson.M{}
		if f.From != nil {
			date["$gte"] = *f.From
		}
		if f.To != nil {
			date["$lt"] = *f.To
		}
		filter["date"] = date
	}
	if len(f.Terms) > 0 {
		or := make(bson.A, 0, 2*len(f.Terms))
		for _, t := range f.Terms {
			re := primitive.Regex{Pattern: regexp.QuoteMeta(t), Options: "i"}
			or = append(or, bson.M{"title": re}, bson.M{"description": re})
		}
		filter["$or"] = or
	}
	return filter
}

func (r *EventRepository) List(ctx context.Context, f entity.EventFilter) ([]entity.Event, int64, error) {
	filter := buildFilter(f)
	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "date", Value: 1}, {Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}).
		SetSkip(int64(f.Offset))
	if f.Limit > 0 {
		opts.SetLimit(int64(f.Limit))
	}
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	var docs []eventDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, 0, err
	}
	items, err := r.resolve(ctx, docs)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// resolve converts docs to entities with organizers loaded in one query.
func (r *EventRepository) resolve(ctx context.Context, docs []eventDoc) ([]entity.Event, error) {
	ids := make([]string, 0, len(docs))
	seen := make(map[string]struct{}, len(docs))
	for _, d := range docs {
		if _, ok := seen[d.Organizer]; !ok {
			seen[d.Organizer] = struct{}{}
			ids = append(ids, d.Organizer)
		}
	}
	refs, err := r.users.refs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]entity.Event, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.entity(refs[d.Organizer]))
	}
	return out, nil
}

func (r *EventRepository) GetByID(ctx context.Context, id string) (*entity.Event, error) {
	var d eventDoc
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	items, err := r.resolve(ctx, []eventDoc{d})
	if err != nil {
		return nil, err
	}
	return &items[0], nil
}

func (r *EventRepository) Create(ctx context.Context, e *entity.Event) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Attendees == nil {
		e.Attendees = []string{}
	}
	now := time.Now().UTC().Truncate(time.Millisecond)
	e.CreatedAt, e.UpdatedAt = now, now
	_, err := r.col.InsertOne(ctx, eventDoc{
		ID:          e.ID,
		Title:       e.Title,
		Description: e.Description,
		Date:        e.Date,
		Location:    e.Location,
		Category:    string(e.Category),
		Faculty:     e.Faculty,
		Organizer:   e.Organizer.ID,
		Attendees:   e.Attendees,
		Capacity:    e.Capacity,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	return err
}

// Update writes the editable fields only when the new capacity still holds
// every current attendee; the condition and the write are one operation.
func (r *EventRepository) Update(ctx context.Context, e *entity.Event) error {
	filter := bson.M{"_id": e.ID}
	if e.Capacity != nil {
		filter["$expr"] = bson.M{"$lte": bson.A{bson.M{"$size": "$attendees"}, *e.Capacity}}
	}
	now := time.Now().UTC().Truncate(time.Millisecond)
	res, err := r.col.UpdateOne(ctx, filter, bson.M{"$set": bson.M{
		"title":       e.Title,
		"description": e.Description,
		"date":        e.Date,
		"location":    e.Location,
		"category":    string(e.Category),
		"faculty":     e.Faculty,
		"capacity":    e.Capacity,
		"updatedAt":   now,
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		if err := r.exists(ctx, e.ID); err != nil {
			return err
		}
		return repository.ErrCapacityBelowAttendees
	}
	e.UpdatedAt = now
	return nil
}

func (r *EventRepository) Delete(ctx context.Context, id string) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// toggleAttempts bounds retries when a concurrent toggle by the same user
// changes membership between the pull and the push.
const toggleAttempts = 3

// ToggleAttendee pulls userID when present, otherwise pushes it guarded by
// the capacity expression. Each update is atomic on the document.
func (r *EventRepository) ToggleAttendee(ctx context.Context, id, userID string) (bool, error) {
	for i := 0; i < toggleAttempts; i++ {
		now := time.Now().UTC().Truncate(time.Millisecond)
		res, err := r.col.UpdateOne(ctx,
			bson.M{"_id": id, "attendees": userID},
			bson.M{"$pull": bson.M{"attendees": userID}, "$set": bson.M{"updatedAt": now}},
		)
		if err != nil {
			return false, err
		}
		if res.MatchedCount == 1 {
			return false, nil
		}

		res, err = r.col.UpdateOne(ctx,
			bson.M{
				"_id":       id,
				"attendees": bson.M{"$ne": userID},
				"$or": bson.A{
					bson.M{"capacity": nil},
					bson.M{"$expr": bson.M{"$lt": bson.A{bson.M{"$size": "$attendees"}, "$capacity"}}},
				},
			},
			bson.M{"$push": bson.M{"attendees": userID}, "$set": bson.M{"updatedAt": now}},
		)
		if err != nil {
			return false, err
		}
		if res.MatchedCount == 1 {
			return true, nil
		}

		var d eventDoc
		if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&d); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return false, repository.ErrNotFound
			}
			return false, err
		}
		ev := d.entity(entity.UserRef{})
		if !ev.HasAttendee(userID) && ev.IsFull() {
			return false, repository.ErrCapacityReached
		}
	}
	return false, errors.New("rsvp toggle contended, try again")
}

func (r *EventRepository) exists(ctx context.Context, id string) error {
	n, err := r.col.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *EventRepository) DeleteAll(ctx context.Context) error {
	_, err := r.col.DeleteMany(ctx, bson.M{})
	return err
}

var _ repository.EventRepository = (*EventRepository)(nil)
