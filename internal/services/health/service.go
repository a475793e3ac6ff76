package health

import (
	"context"
	"database/sql"
	"time"
)

const pingTimeout = 2 * time.Second

// Service encapsulates health-related checks.
type Service struct {
	DB              *sql.DB
	PDFEngines      []string
	EmailConfigured bool
}

// Report is the /health payload.
type Report struct {
	Status          string   `json:"status"`
	Database        string   `json:"database"`
	PDFEngines      []string `json:"pdf_engines"`
	EmailConfigured bool     `json:"email_configured"`
}

// NewService constructs a new health service. db may be nil when the
// in-memory repository is in use.
func NewService(db *sql.DB, pdfEngines []string, emailConfigured bool) *Service {
	return &Service{DB: db, PDFEngines: pdfEngines, EmailConfigured: emailConfigured}
}

// Status runs the checks. Only an unreachable database makes the service
// unhealthy; missing email config is reported but not fatal.
func (s *Service) Status(ctx context.Context) (Report, bool) {
	r := Report{Status: "healthy", Database: "memory", PDFEngines: s.PDFEngines, EmailConfigured: s.EmailConfigured}
	if r.PDFEngines == nil {
		r.PDFEngines = []string{}
	}
	if s.DB == nil {
		return r, true
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := s.DB.PingContext(ctx); err != nil {
		r.Status = "unhealthy"
		r.Database = "unreachable"
		return r, false
	}
	r.Database = "postgres"
	return r, true
}
