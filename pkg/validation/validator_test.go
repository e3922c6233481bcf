package validation

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	cases := map[string]time.Time{
		"2025-03-01":                time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		"2025-03-01T18:30":          time.Date(2025, 3, 1, 18, 30, 0, 0, time.UTC),
		"2025-03-01T18:30:15":       time.Date(2025, 3, 1, 18, 30, 15, 0, time.UTC),
		"2025-03-01T18:30:00+02:00": time.Date(2025, 3, 1, 16, 30, 0, 0, time.UTC),
		" 2025-03-01T18:30:00Z ":    time.Date(2025, 3, 1, 18, 30, 0, 0, time.UTC),
	}
	for in, want := range cases {
		got, err := ParseDate(in)
		require.NoError(t, err, in)
		assert.True(t, want.Equal(got), "%s: got %s", in, got)
		assert.Equal(t, time.UTC, got.Location())
	}

	for _, bad := range []string{"", "tomorrow", "2025-13-01", "01/03/2025"} {
		_, err := ParseDate(bad)
		assert.Error(t, err, bad)
	}
}

type sample struct {
	Name     string `json:"name" validate:"required,max=5"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,pwd"`
	Date     string `json:"date" validate:"required,isodate"`
	Kind     string `json:"kind" validate:"omitempty,oneof=a b"`
	Seats    *int   `json:"seats" validate:"omitnil,gte=1"`
}

func TestStruct_Messages(t *testing.T) {
	zero := 0
	errs := Struct(sample{
		Name:     "too long",
		Email:    "nope",
		Password: "123",
		Date:     "whenever",
		Kind:     "c",
		Seats:    &zero,
	})

	got := map[string]string{}
	for _, fe := range errs {
		got[fe.Field] = fe.Message
	}
	assert.Equal(t, map[string]string{
		"name":     "must be at most 5 characters long",
		"email":    "must be a valid email",
		"password": "must be at least 6 characters long",
		"date":     "must be a valid ISO 8601 date",
		"kind":     "must be one of: a, b",
		"seats":    "must be greater than or equal to 1",
	}, got)
}

func TestStruct_Valid(t *testing.T) {
	assert.Nil(t, Struct(sample{Name: "Ada", Email: "ada@uni.ac.uk", Password: "secret1", Date: "2025-03-01"}))
}

func TestStruct_Required(t *testing.T) {
	errs := Struct(sample{})
	require.NotEmpty(t, errs)
	for _, fe := range errs {
		assert.Equal(t, "is required", fe.Message, fe.Field)
	}
}

func TestToDetails_BadJSON(t *testing.T) {
	var v sample
	err := json.Unmarshal([]byte(`{"name":`), &v)
	assert.Equal(t, []FieldError{{Field: "payload", Message: "invalid json"}}, ToDetails(err))

	err = json.Unmarshal([]byte(`{"name": 12}`), &v)
	assert.Equal(t, []FieldError{{Field: "name", Message: "has the wrong type"}}, ToDetails(err))

	assert.Nil(t, ToDetails(nil))
}
