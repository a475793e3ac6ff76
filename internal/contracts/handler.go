package contracts

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"contract-backend/internal/email"
	"contract-backend/internal/pdf"
	"contract-backend/internal/render"
	"contract-backend/internal/shared/server/respond"
	"contract-backend/internal/signature"
)

const (
	defaultListLimit = 100
	maxListLimit     = 1000
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc           *Service
	RetentionDays int
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, retentionDays int) *Handler {
	if retentionDays <= 0 {
		retentionDays = 30
	}
	return &Handler{Svc: svc, RetentionDays: retentionDays}
}

// RegisterRoutes attaches contract and PDF routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/contracts", h.create)
	rg.GET("/contracts", h.list)
	rg.GET("/contracts/sample-data", h.sampleData)
	rg.GET("/contracts/download/:filename", h.download)
	rg.GET("/contracts/:id", h.get)
	rg.PUT("/contracts/:id", h.replace)
	rg.DELETE("/contracts/:id", h.delete)
	rg.GET("/contracts/:id/render", h.render)
	rg.GET("/contracts/:id/pdf", h.generatePDF)
	rg.POST("/contracts/:id/email", h.email)
	rg.GET("/pdfs", h.listPDFs)
	rg.POST("/pdfs/cleanup", h.cleanupPDFs)
}

func (h *Handler) create(c *gin.Context) {
	req, err := ParseCreateRequest(c)
	if err != nil {
		writeError(c, err)
		return
	}

	res, err := h.Svc.Create(c.Request.Context(), req)
	if err != nil {
		if res.Record.ID != 0 {
			c.Set("contractId", res.Record.ID)
			respond.Error(c, http.StatusInternalServerError, "pdf_generation_failed",
				"Contract was saved but the PDF could not be generated", gin.H{"contract_id": res.Record.ID})
			return
		}
		writeError(c, err)
		return
	}
	c.Set("contractId", res.Record.ID)
	c.Set("pdfEngine", res.PDF.Engine)

	out := createResponse{
		Message:        "Contract created successfully with HTML preview and PDF generated",
		ContractID:     res.Record.ID,
		ContractData:   toResponse(res.Record),
		PreviewHTML:    res.HTML,
		PDFInfo:        toPDFInfo(*res.PDF),
		EmailRequested: req.RecipientEmail != "",
		EmailSent:      res.EmailSent,
	}
	if res.EmailErr != nil {
		_, code := email.ErrorStatus(res.EmailErr)
		out.EmailError = res.EmailErr.Error()
		out.EmailErrorCode = code
	}
	respond.Created(c, out)
}

func (h *Handler) list(c *gin.Context) {
	skip := queryInt(c, "skip", 0)
	if skip < 0 {
		skip = 0
	}
	limit := queryInt(c, "limit", defaultListLimit)
	if limit < 1 {
		limit = 1
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	recs, total, err := h.Svc.List(c.Request.Context(), skip, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	items := make([]listItem, 0, len(recs))
	for _, rec := range recs {
		items = append(items, toListItem(rec))
	}
	respond.OK(c, listResponse{
		Message:        fmt.Sprintf("Retrieved %d contracts", len(items)),
		TotalContracts: total,
		Skip:           skip,
		Limit:          limit,
		Contracts:      items,
	})
}

func (h *Handler) get(c *gin.Context) {
	id, ok := contractID(c)
	if !ok {
		return
	}
	rec, file, err := h.Svc.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, toDetail(rec, file))
}

func (h *Handler) replace(c *gin.Context) {
	id, ok := contractID(c)
	if !ok {
		return
	}
	req, err := ParseCreateRequest(c)
	if err != nil {
		writeError(c, err)
		return
	}
	rec, err := h.Svc.Replace(c.Request.Context(), id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, gin.H{
		"message":       fmt.Sprintf("Contract %d updated successfully", id),
		"contract_id":   id,
		"contract_data": toResponse(rec),
	})
}

func (h *Handler) delete(c *gin.Context) {
	id, ok := contractID(c)
	if !ok {
		return
	}
	deletePDF := true
	if raw := strings.TrimSpace(c.Query("delete_pdf")); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "delete_pdf must be true or false", nil)
			return
		}
		deletePDF = v
	}

	deleted, err := h.Svc.Delete(c.Request.Context(), id, deletePDF)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, deleteResponse{
		Message:      fmt.Sprintf("Contract %d deleted successfully", id),
		ContractID:   id,
		PDFDeleted:   len(deleted) > 0,
		DeletedFiles: deleted,
	})
}

func (h *Handler) render(c *gin.Context) {
	id, ok := contractID(c)
	if !ok {
		return
	}
	html, err := h.Svc.RenderHTML(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}

func (h *Handler) generatePDF(c *gin.Context) {
	id, ok := contractID(c)
	if !ok {
		return
	}
	file, err := h.Svc.GeneratePDF(c.Request.Context(), id, c.Query("custom_filename"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.Set("pdfEngine", file.Engine)
	respond.OK(c, pdfResponse{Message: "PDF generated successfully", ContractID: id, pdfInfo: toPDFInfo(file)})
}

func (h *Handler) download(c *gin.Context) {
	name := c.Param("filename")
	if !strings.HasSuffix(strings.ToLower(name), ".pdf") {
		respond.Error(c, http.StatusBadRequest, "validation_error", "Invalid file type", nil)
		return
	}
	file, err := h.Svc.PDF.Stat(c.Request.Context(), name)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Header("Content-Type", "application/pdf")
	c.FileAttachment(file.Path, file.Name)
}

func (h *Handler) email(c *gin.Context) {
	id, ok := contractID(c)
	if !ok {
		return
	}
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	recipient := strings.TrimSpace(req.RecipientEmail)
	if recipient == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "recipient_email is required", []string{"recipient_email"})
		return
	}

	file, err := h.Svc.SendEmail(c.Request.Context(), id, recipient)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, emailResponse{
		Message:        fmt.Sprintf("Contract %d sent to %s", id, recipient),
		ContractID:     id,
		RecipientEmail: recipient,
		EmailSent:      true,
		Filename:       file.Name,
	})
}

func (h *Handler) sampleData(c *gin.Context) {
	in := render.SampleInput()
	respond.OK(c, gin.H{
		"message": "Sample contract data for testing",
		"data": Data{
			ContractType:      in.ContractType,
			PartyA:            Party(in.PartyA),
			PartyB:            Party(in.PartyB),
			Terms:             in.Terms,
			StartDate:         in.StartDate,
			EndDate:           in.EndDate,
			AdditionalClauses: in.AdditionalClauses,
		},
	})
}

func (h *Handler) listPDFs(c *gin.Context) {
	files, err := h.Svc.PDF.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, pdfListResponse{TotalFiles: len(files), Files: files})
}

func (h *Handler) cleanupPDFs(c *gin.Context) {
	days := queryInt(c, "days", h.RetentionDays)
	if days < 1 {
		respond.Error(c, http.StatusBadRequest, "validation_error", "days must be a positive integer", nil)
		return
	}
	res, err := h.Svc.PDF.CleanupOlderThan(c.Request.Context(), time.Duration(days)*24*time.Hour)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, gin.H{
		"message":       fmt.Sprintf("Deleted %d PDF files older than %d days", len(res.Deleted), days),
		"days":          days,
		"deleted_files": res.Deleted,
		"kept":          res.Kept,
	})
}

func contractID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		respond.Error(c, http.StatusBadRequest, "validation_error", "contract id must be a positive integer", nil)
		return 0, false
	}
	c.Set("contractId", id)
	return id, true
}

// queryInt returns def for a missing or malformed parameter.
func queryInt(c *gin.Context, key string, def int) int {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

func writeError(c *gin.Context, err error) {
	var verr *ValidationError
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &verr):
		respond.Error(c, http.StatusBadRequest, "validation_error", verr.Error(), verr.Fields)
	case errors.As(err, &maxErr):
		respond.Error(c, http.StatusRequestEntityTooLarge, "validation_error", "request body too large", nil)
	case errors.Is(err, ErrInvalidBody):
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
	case errors.Is(err, signature.ErrInvalidType):
		respond.Error(c, http.StatusBadRequest, "invalid_signature_type", err.Error(), nil)
	case errors.Is(err, signature.ErrInvalidFormat):
		respond.Error(c, http.StatusBadRequest, "invalid_signature_format", err.Error(), nil)
	case errors.Is(err, signature.ErrTooLarge):
		respond.Error(c, http.StatusRequestEntityTooLarge, "signature_too_large", err.Error(), nil)
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "Contract not found", nil)
	case errors.Is(err, pdf.ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "PDF file not found", nil)
	case errors.Is(err, pdf.ErrInvalidName):
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid file name", nil)
	case errors.Is(err, pdf.ErrGeneration):
		respond.Error(c, http.StatusInternalServerError, "pdf_generation_failed", "PDF generation failed", nil)
	case errors.Is(err, email.ErrNotConfigured), errors.Is(err, email.ErrInvalidRecipient),
		errors.Is(err, email.ErrAttachmentNotFound), errors.Is(err, email.ErrSendFailed):
		status, code := email.ErrorStatus(err)
		respond.Error(c, status, code, err.Error(), nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal", "internal server error", nil)
	}
}
