package queue

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/parceldesk/courier-system/internal/core/domain"
)

// LogPublisher writes events to the structured log. It is used when no
// broker is configured.
type LogPublisher struct {
	log zerolog.Logger
}

func NewLogPublisher(log zerolog.Logger) *LogPublisher {
	return &LogPublisher{log: log}
}

func (p *LogPublisher) Publish(_ context.Context, e domain.ParcelEvent) error {
	p.log.Info().
		Str("event_id", e.ID).
		Str("parcel_id", e.ParcelID).
		Str("tracking_code", e.TrackingCode).
		Str("operation", e.Operation).
		Str("status", string(e.Status)).
		Bool("blocked", e.IsBlocked).
		Str("updated_by", e.UpdatedBy).
		Time("occurred_at", e.OccurredAt).
		Msg("parcel event")
	return nil
}
