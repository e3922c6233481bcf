package mongodb

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Malcolm-Mukorera/campus-events-api/internal/domain/entity"
)

func TestBuildFilter(t *testing.T) {
	assert.Equal(t, bson.M{}, buildFilter(entity.EventFilter{}))

	from := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)
	got := buildFilter(entity.EventFilter{
		IDs:      []string{"a", "b"},
		Category: entity.CategoryCareer,
		Faculty:  "C++ (Evening)",
		From:     &from,
		To:       &to,
		Terms:    []string{"fair"},
	})

	fairRe := primitive.Regex{Pattern: "fair", Options: "i"}
	assert.Equal(t, bson.M{
		"_id":      bson.M{"$in": []string{"a", "b"}},
		"category": "career",
		"faculty":  primitive.Regex{Pattern: `C\+\+ \(Evening\)`, Options: "i"},
		"date":     bson.M{"$gte": from, "$lt": to},
		"$or":      bson.A{bson.M{"title": fairRe}, bson.M{"description": fairRe}},
	}, got)
}

func TestEventDocEntityDefaults(t *testing.T) {
	e := eventDoc{ID: "e1", Organizer: "u1"}.entity(entity.UserRef{})
	assert.Equal(t, "u1", e.Organizer.ID)
	assert.NotNil(t, e.Attendees)
	assert.Empty(t, e.Attendees)
}
