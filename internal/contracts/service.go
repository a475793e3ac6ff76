package contracts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"contract-backend/internal/email"
	"contract-backend/internal/pdf"
	"contract-backend/internal/render"
	"contract-backend/internal/shared/metrics"
	"contract-backend/internal/shared/telemetry"
	"contract-backend/internal/signature"
)

// Service runs the contract pipeline: validate, normalize the signature,
// persist, render, convert to PDF and optionally email.
type Service struct {
	Repo     Repo
	Renderer *render.Renderer
	PDF      *pdf.Generator
	Email    *email.Dispatcher
	Now      func() time.Time
}

// CreateResult carries everything produced by Create. PDF is nil when
// generation failed; EmailErr is set when a requested email was not sent.
type CreateResult struct {
	Record    Record
	HTML      string
	PDF       *pdf.File
	EmailSent bool
	EmailErr  error
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

// prepare validates a request and returns the data to store. Nothing is
// persisted when it fails.
func (s *Service) prepare(req CreateRequest) (Data, error) {
	data := req.Data.Normalize()
	if err := Validate(data); err != nil {
		return Data{}, err
	}
	sig, err := signature.Normalize(req.Signature)
	if err != nil {
		return Data{}, err
	}
	data.SignatureBase64 = sig
	if req.CustomPDFFilename != "" {
		if _, err := pdf.CustomFileName(req.CustomPDFFilename); err != nil {
			return Data{}, fieldError("custom_pdf_filename", "filename", "custom_pdf_filename is not a valid file name")
		}
	}
	return data, nil
}

// Create persists a new contract and produces its preview and PDF. A PDF
// failure returns the stored record together with an error wrapping
// pdf.ErrGeneration; email failures never fail the call.
func (s *Service) Create(ctx context.Context, req CreateRequest) (CreateResult, error) {
	data, err := s.prepare(req)
	if err != nil {
		return CreateResult{}, err
	}

	now := s.now()
	rec, err := s.Repo.Create(ctx, Record{ContractType: data.ContractType, Data: data, CreatedAt: now, UpdatedAt: now})
	if err != nil {
		return CreateResult{}, fmt.Errorf("store contract: %w", err)
	}
	metrics.IncContractsCreated()
	telemetry.Info("contract.created", map[string]any{"contract_id": rec.ID, "contract_type": rec.ContractType, "signed": data.SignatureBase64 != ""})

	res := CreateResult{Record: rec}
	res.HTML, err = s.Renderer.Render(renderInput(rec))
	if err != nil {
		return res, fmt.Errorf("%w: %w", pdf.ErrGeneration, err)
	}

	file, err := s.generate(ctx, rec, res.HTML, req.CustomPDFFilename)
	if err != nil {
		return res, err
	}
	res.PDF = &file

	if req.RecipientEmail != "" {
		res.EmailErr = s.Email.SendContract(ctx, email.Message{
			Recipient:    req.RecipientEmail,
			ContractID:   rec.ID,
			ContractType: rec.ContractType,
			PDFPath:      file.Path,
		})
		res.EmailSent = res.EmailErr == nil
	}
	return res, nil
}

// Get returns a record and its newest PDF, if any.
func (s *Service) Get(ctx context.Context, id int64) (Record, *pdf.File, error) {
	rec, err := s.Repo.Get(ctx, id)
	if err != nil {
		return Record{}, nil, err
	}
	file, err := s.PDF.Latest(ctx, id)
	switch {
	case err == nil:
		return rec, &file, nil
	case errors.Is(err, pdf.ErrNotFound):
		return rec, nil, nil
	default:
		return Record{}, nil, err
	}
}

// List returns one page of records plus the total count.
func (s *Service) List(ctx context.Context, skip, limit int) ([]Record, int, error) {
	total, err := s.Repo.Count(ctx)
	if err != nil {
		return nil, 0, err
	}
	recs, err := s.Repo.List(ctx, skip, limit)
	if err != nil {
		return nil, 0, err
	}
	return recs, total, nil
}

// Replace overwrites a record with a fully validated payload. Existing PDFs
// are left untouched.
func (s *Service) Replace(ctx context.Context, id int64, req CreateRequest) (Record, error) {
	data, err := s.prepare(req)
	if err != nil {
		return Record{}, err
	}
	rec, err := s.Repo.Replace(ctx, Record{ID: id, ContractType: data.ContractType, Data: data, UpdatedAt: s.now()})
	if err != nil {
		return Record{}, err
	}
	telemetry.Info("contract.replaced", map[string]any{"contract_id": id})
	return rec, nil
}

// Delete removes a record and then, when deletePDF is set, its default-named
// PDFs. PDF cleanup failures are logged and do not fail the delete; a failed
// record delete leaves the PDFs in place.
func (s *Service) Delete(ctx context.Context, id int64, deletePDF bool) ([]string, error) {
	if err := s.Repo.Delete(ctx, id); err != nil {
		return nil, err
	}
	deleted := []string{}
	if deletePDF {
		names, err := s.PDF.DeleteForContract(ctx, id)
		if err != nil {
			telemetry.Warn("contract.pdf_delete_failed", map[string]any{"contract_id": id, "error": err})
		}
		deleted = append(deleted, names...)
	}
	telemetry.Info("contract.deleted", map[string]any{"contract_id": id, "pdfs_deleted": len(deleted)})
	return deleted, nil
}

// RenderHTML renders a stored contract.
func (s *Service) RenderHTML(ctx context.Context, id int64) (string, error) {
	rec, err := s.Repo.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return s.Renderer.Render(renderInput(rec))
}

// GeneratePDF renders a stored contract into a new PDF.
func (s *Service) GeneratePDF(ctx context.Context, id int64, customName string) (pdf.File, error) {
	rec, err := s.Repo.Get(ctx, id)
	if err != nil {
		return pdf.File{}, err
	}
	html, err := s.Renderer.Render(renderInput(rec))
	if err != nil {
		return pdf.File{}, fmt.Errorf("%w: %w", pdf.ErrGeneration, err)
	}
	return s.generate(ctx, rec, html, customName)
}

// SendEmail mails the newest PDF of a contract, generating one first when
// none exists.
func (s *Service) SendEmail(ctx context.Context, id int64, recipient string) (pdf.File, error) {
	rec, err := s.Repo.Get(ctx, id)
	if err != nil {
		return pdf.File{}, err
	}
	if !s.Email.Configured() {
		return pdf.File{}, email.ErrNotConfigured
	}
	if _, err := email.ValidateRecipient(recipient); err != nil {
		return pdf.File{}, err
	}
	file, err := s.PDF.Latest(ctx, id)
	if errors.Is(err, pdf.ErrNotFound) {
		file, err = s.GeneratePDF(ctx, id, "")
	}
	if err != nil {
		return pdf.File{}, err
	}
	err = s.Email.SendContract(ctx, email.Message{
		Recipient:    recipient,
		ContractID:   rec.ID,
		ContractType: rec.ContractType,
		PDFPath:      file.Path,
	})
	return file, err
}

func (s *Service) generate(ctx context.Context, rec Record, html, customName string) (pdf.File, error) {
	name, err := s.PDF.FileName(ctx, rec.ID, customName)
	if err != nil {
		return pdf.File{}, err
	}
	file, err := s.PDF.Generate(ctx, html, name)
	if err != nil {
		telemetry.Error("contract.pdf_failed", map[string]any{"contract_id": rec.ID, "file": name, "error": err})
		return pdf.File{}, err
	}
	return file, nil
}

func renderInput(rec Record) render.Input {
	d := rec.Data
	return render.Input{
		ContractID:        rec.ID,
		ContractType:      firstNonEmpty(rec.ContractType, d.ContractType),
		PartyA:            render.Party(d.PartyA),
		PartyB:            render.Party(d.PartyB),
		Terms:             d.Terms,
		StartDate:         d.StartDate,
		EndDate:           d.EndDate,
		AdditionalClauses: d.AdditionalClauses,
		Signature:         d.SignatureBase64,
		IssuedAt:          rec.CreatedAt,
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
