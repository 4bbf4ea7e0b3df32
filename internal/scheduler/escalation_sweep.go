package scheduler

import (
	"context"
	"time"

	"maintops_backend/internal/events"
	"maintops_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	defaultSweepInterval   = time.Hour
	defaultEscalateAfter   = 2 // days overdue before automatic escalation
	escalationReasonUnread = "overdue_unaddressed"
)

// EscalationSweep periodically finds assignments that have sat overdue past
// the threshold without an explanation and raises a gate escalation for
// each, so coordinators see them even if the technician never opens the
// morning gate.
type EscalationSweep struct {
	pool          *pgxpool.Pool
	bus           events.Bus
	log           *logger.Logger
	interval      time.Duration
	escalateAfter int
}

func NewEscalationSweep(pool *pgxpool.Pool, bus events.Bus, log *logger.Logger, interval time.Duration, escalateAfter int) *EscalationSweep {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	if escalateAfter <= 0 {
		escalateAfter = defaultEscalateAfter
	}

	return &EscalationSweep{
		pool:          pool,
		bus:           bus,
		log:           log,
		interval:      interval,
		escalateAfter: escalateAfter,
	}
}

func (s *EscalationSweep) Run(ctx context.Context) {
	if s == nil || s.pool == nil {
		return
	}

	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *EscalationSweep) sweep(ctx context.Context) {
	rows, err := s.pool.Query(ctx, `
		SELECT a.id, a.technician_id
		FROM work_order_assignments a
		WHERE a.status IN ('scheduled', 'in_progress')
		  AND a.scheduled_date < CURRENT_DATE - $1::int
		  AND NOT EXISTS (
			SELECT 1 FROM incomplete_explanations e WHERE e.assignment_id = a.id
		  )
	`, s.escalateAfter)
	if err != nil {
		s.log.Error("escalation sweep query failed", "error", err)
		return
	}
	defer rows.Close()

	count := 0
	for rows.Next() {
		var assignmentID, technicianID uuid.UUID
		if err := rows.Scan(&assignmentID, &technicianID); err != nil {
			s.log.Error("escalation sweep scan failed", "error", err)
			return
		}

		s.bus.Publish(ctx, events.GateEscalated{
			BaseEvent:    events.NewBaseEvent(),
			AssignmentID: assignmentID,
			TechnicianID: technicianID,
			Reason:       escalationReasonUnread,
		})
		count++
	}
	if err := rows.Err(); err != nil {
		s.log.Error("escalation sweep iteration failed", "error", err)
		return
	}

	if count > 0 {
		s.log.Info("escalation sweep raised escalations", "count", count)
	}
}
