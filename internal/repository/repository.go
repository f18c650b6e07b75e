package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Ved-panchal/fcarena-2.0/shared/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrSlotTaken = errors.New("time slot already booked")
)

// DB is the subset of pgxpool.Pool the repository needs
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository handles database operations for slots and bookings
type Repository struct {
	db DB
}

// NewRepository creates a new repository
func NewRepository(db DB) *Repository {
	return &Repository{db: db}
}

// --- Slot Operations ---

// GetAvailableSlots returns the active slots that have no booking on date
func (r *Repository) GetAvailableSlots(ctx context.Context, date string) ([]models.AvailableSlot, error) {
	rows, err := r.db.Query(ctx, `
		SELECT ts.slot_time, ts.price::float8
		FROM time_slots ts
		WHERE ts.active
		  AND NOT EXISTS (
			SELECT 1 FROM bookings b
			WHERE b.booking_date = $1::date AND b.time_slot = ts.slot_time
		  )
		ORDER BY ts.position, ts.slot_time
	`, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query slots: %w", err)
	}
	defer rows.Close()

	slots := []models.AvailableSlot{}
	for rows.Next() {
		var s models.AvailableSlot
		if err := rows.Scan(&s.Time, &s.Price); err != nil {
			return nil, fmt.Errorf("failed to scan slot: %w", err)
		}
		slots = append(slots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read slots: %w", err)
	}
	return slots, nil
}

// --- Booking Operations ---

// CreateBooking stores a finalized booking and fills its id and creation time
func (r *Repository) CreateBooking(ctx context.Context, rec *models.BookingRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}

	err := r.db.QueryRow(ctx, `
		INSERT INTO bookings (id, name, contact, booking_date, time_slot)
		VALUES ($1, $2, $3, $4::date, $5)
		RETURNING created_at
	`, rec.ID, rec.Name, rec.Contact, rec.Date, rec.TimeSlot).Scan(&rec.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrSlotTaken
		}
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

// GetBooking returns a booking by ID
func (r *Repository) GetBooking(ctx context.Context, id string) (*models.BookingRecord, error) {
	var b models.BookingRecord
	err := r.db.QueryRow(ctx, `
		SELECT id::text, name, contact, booking_date::text, time_slot, created_at
		FROM bookings
		WHERE id = $1
	`, id).Scan(&b.ID, &b.Name, &b.Contact, &b.Date, &b.TimeSlot, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return &b, nil
}

// ListBookings returns the bookings made for date
func (r *Repository) ListBookings(ctx context.Context, date string) ([]models.BookingRecord, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id::text, name, contact, booking_date::text, time_slot, created_at
		FROM bookings
		WHERE booking_date = $1::date
		ORDER BY time_slot
	`, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer rows.Close()

	bookings := []models.BookingRecord{}
	for rows.Next() {
		var b models.BookingRecord
		if err := rows.Scan(&b.ID, &b.Name, &b.Contact, &b.Date, &b.TimeSlot, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read bookings: %w", err)
	}
	return bookings, nil
}
