package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Malcolm-Mukorera/campus-events-api/internal/domain/entity"
	"github.com/Malcolm-Mukorera/campus-events-api/internal/domain/repository"
)

type EventRepository struct {
	pool *pgxpool.Pool
}

func NewEventRepository(pool *pgxpool.Pool) *EventRepository {
	return &EventRepository{pool: pool}
}

const selectEvent = `
	SELECT e.id, e.title, e.description, e.date, e.location, e.category, e.faculty,
	       e.capacity, e.created_at, e.updated_at,
	       u.id, u.name, u.email,
	       COALESCE((SELECT array_agg(a.user_id::text ORDER BY a.position)
	                 FROM event_attendees a WHERE a.event_id = e.id), '{}') AS attendees
	FROM events e
	JOIN users u ON u.id = e.organizer_id
`

func scanEvent(row pgx.Row) (*entity.Event, error) {
	var (
		e        entity.Event
		category string
	)
	err := row.Scan(&e.ID, &e.Title, &e.Description, &e.Date, &e.Location, &category, &e.Faculty,
		&e.Capacity, &e.CreatedAt, &e.UpdatedAt,
		&e.Organizer.ID, &e.Organizer.Name, &e.Organizer.Email,
		&e.Attendees)
	if err != nil {
		return nil, err
	}
	e.Category = entity.Category(category)
	e.Date = e.Date.UTC()
	if e.Attendees == nil {
		e.Attendees = []string{}
	}
	return &e, nil
}

// whereClause renders f as SQL conditions with positional arguments.
func whereClause(f entity.EventFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.IDs != nil {
		conds = append(conds, "e.id = ANY("+arg(f.IDs)+"::uuid[])")
	}
	if f.Category != "" {
		conds = append(conds, "e.category = "+arg(string(f.Category)))
	}
	if f.Faculty != "" {
		conds = append(conds, "e.faculty ILIKE "+arg(containsPattern(f.Faculty)))
	}
	if f.From != nil {
		conds = append(conds, "e.date >= "+arg(*f.From))
	}
	if f.To != nil {
		conds = append(conds, "e.date < "+arg(*f.To))
	}
	if len(f.Terms) > 0 {
		ors := make([]string, 0, len(f.Terms))
		for _, t := range f.Terms {
			p := arg(containsPattern(t))
			ors = append(ors, "e.title ILIKE "+p+" OR e.description ILIKE "+p)
		}
		conds = append(conds, "("+strings.Join(ors, " OR ")+")")
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

func (r *EventRepository) List(ctx context.Context, f entity.EventFilter) ([]entity.Event, int64, error) {
	if f.IDs != nil {
		ids := make([]string, 0, len(f.IDs))
		for _, id := range f.IDs {
			if validID(id) {
				ids = append(ids, id)
			}
		}
		if len(ids) == 0 {
			return []entity.Event{}, 0, nil
		}
		f.IDs = ids
	}

	where, args := whereClause(f)

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM events e`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count events: %w", err)
	}

	query := selectEvent + where + " ORDER BY e.date ASC, e.created_at ASC, e.id ASC"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	items := make([]entity.Event, 0, f.Limit)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *EventRepository) GetByID(ctx context.Context, id string) (*entity.Event, error) {
	if !validID(id) {
		return nil, repository.ErrNotFound
	}
	e, err := scanEvent(r.pool.QueryRow(ctx, selectEvent+" WHERE e.id = $1", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	return e, err
}

func (r *EventRepository) Create(ctx context.Context, e *entity.Event) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO events (title, description, date, location, category, faculty, organizer_id, capacity)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`, e.Title, e.Description, e.Date, e.Location, string(e.Category), e.Faculty, e.Organizer.ID, e.Capacity)
	if err := row.Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return err
	}
	if e.Attendees == nil {
		e.Attendees = []string{}
	}
	return nil
}

// Update locks the event row so the attendee count it checks against cannot
// change before the write commits.
func (r *EventRepository) Update(ctx context.Context, e *entity.Event) error {
	if !validID(e.ID) {
		return repository.ErrNotFound
	}
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := lockEvent(ctx, tx, e.ID, nil); err != nil {
			return err
		}
		if e.Capacity != nil {
			n, err := countAttendees(ctx, tx, e.ID)
			if err != nil {
				return err
			}
			if n > *e.Capacity {
				return repository.ErrCapacityBelowAttendees
			}
		}
		return tx.QueryRow(ctx, `
			UPDATE events
			SET title = $2, description = $3, date = $4, location = $5, category = $6,
			    faculty = $7, capacity = $8, updated_at = now()
			WHERE id = $1
			RETURNING updated_at
		`, e.ID, e.Title, e.Description, e.Date, e.Location, string(e.Category), e.Faculty, e.Capacity).
			Scan(&e.UpdatedAt)
	})
}

func (r *EventRepository) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return repository.ErrNotFound
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// ToggleAttendee runs the membership check, the capacity check and the write
// in one transaction holding the event row lock.
func (r *EventRepository) ToggleAttendee(ctx context.Context, id, userID string) (bool, error) {
	if !validID(id) || !validID(userID) {
		return false, repository.ErrNotFound
	}
	var joined bool
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var capacity *int
		if err := lockEvent(ctx, tx, id, &capacity); err != nil {
			return err
		}

		tag, err := tx.Exec(ctx, `DELETE FROM event_attendees WHERE event_id = $1 AND user_id = $2`, id, userID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			if capacity != nil {
				n, err := countAttendees(ctx, tx, id)
				if err != nil {
					return err
				}
				if n >= *capacity {
					return repository.ErrCapacityReached
				}
			}
			if _, err := tx.Exec(ctx, `INSERT INTO event_attendees (event_id, user_id) VALUES ($1, $2)`, id, userID); err != nil {
				return err
			}
			joined = true
		}
		_, err = tx.Exec(ctx, `UPDATE events SET updated_at = now() WHERE id = $1`, id)
		return err
	})
	if err != nil {
		return false, err
	}
	return joined, nil
}

func (r *EventRepository) DeleteAll(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM events`)
	return err
}

// lockEvent takes the row lock on event id, optionally reading its capacity.
func lockEvent(ctx context.Context, tx pgx.Tx, id string, capacity **int) error {
	var c *int
	err := tx.QueryRow(ctx, `SELECT capacity FROM events WHERE id = $1 FOR UPDATE`, id).Scan(&c)
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.ErrNotFound
	}
	if err != nil {
		return err
	}
	if capacity != nil {
		*capacity = c
	}
	return nil
}

func countAttendees(ctx context.Context, tx pgx.Tx, id string) (int, error) {
	var n int
	err := tx.QueryRow(ctx, `SELECT count(*) FROM event_attendees WHERE event_id = $1`, id).Scan(&n)
	return n, err
}

var _ repository.EventRepository = (*EventRepository)(nil)
