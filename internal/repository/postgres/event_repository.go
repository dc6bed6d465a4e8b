package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mja2001/SolCipher-Cronos/internal/domain"
	"github.com/mja2001/SolCipher-Cronos/internal/repository"
)

type eventRepository struct {
	db *pgxpool.Pool
}

// NewEventRepository creates an audit log backed by the given pool.
func NewEventRepository(db *pgxpool.Pool) repository.EventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) Append(ctx context.Context, e *domain.PaymentEvent) error {
	query := `
        INSERT INTO payment_events (id, payment_id, event_type, actor, detail, recorded_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `

	_, err := r.db.Exec(ctx, query, e.ID, e.PaymentID, e.Type, e.Actor, e.Detail, e.RecordedAt)
	if err != nil {
		return fmt.Errorf("failed to append payment event: %w", err)
	}

	return nil
}

func (r *eventRepository) ListByPayment(ctx context.Context, paymentID string) ([]*domain.PaymentEvent, error) {
	query := `
        SELECT id, payment_id, event_type, actor, detail, recorded_at
        FROM payment_events
        WHERE payment_id = $1
        ORDER BY recorded_at ASC
    `

	rows, err := r.db.Query(ctx, query, paymentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payment events: %w", err)
	}
	defer rows.Close()

	var events []*domain.PaymentEvent
	for rows.Next() {
		var e domain.PaymentEvent
		if err := rows.Scan(&e.ID, &e.PaymentID, &e.Type, &e.Actor, &e.Detail, &e.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan payment event: %w", err)
		}
		events = append(events, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating payment events: %w", err)
	}

	return events, nil
}
