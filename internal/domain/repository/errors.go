package repository

import "errors"

var (
	ErrNotFound               = errors.New("not found")
	ErrDuplicate              = errors.New("duplicate key")
	ErrCapacityReached        = errors.New("capacity reached")
	ErrCapacityBelowAttendees = errors.New("capacity below attendee count")
)
