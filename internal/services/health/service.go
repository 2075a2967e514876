package health

import (
	"context"
	"time"
)

// ServiceName is reported by health and info endpoints.
const ServiceName = "Document Processing Service"

// Converter reports whether format conversion is possible.
type Converter interface {
	Available() bool
}

// Pinger checks a backing store, typically a *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Status is the health payload.
type Status struct {
	Status               string `json:"status"`
	Service              string `json:"service"`
	LibreOfficeAvailable bool   `json:"libreoffice_available"`
	Database             string `json:"database,omitempty"`
}

// Service encapsulates health-related checks.
type Service struct {
	converter Converter
	db        Pinger
}

// NewService constructs a new health service. db may be nil.
func NewService(converter Converter, db Pinger) *Service {
	return &Service{converter: converter, db: db}
}

// Status reports service health. A failing database degrades the status
// but conversion availability never does.
func (s *Service) Status(ctx context.Context) Status {
	out := Status{Status: "healthy", Service: ServiceName}
	if s.converter != nil {
		out.LibreOfficeAvailable = s.converter.Available()
	}
	if s.db != nil {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := s.db.PingContext(pingCtx); err != nil {
			out.Status = "degraded"
			out.Database = "unreachable"
		} else {
			out.Database = "ok"
		}
	}
	return out
}
