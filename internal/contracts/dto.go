package contracts

import (
	"net/url"
	"time"

	"contract-backend/internal/pdf"
)

// DownloadPath is the public route serving generated PDFs.
const DownloadPath = "/api/v1/contracts/download/"

type contractResponse struct {
	ID                int64     `json:"id"`
	ContractType      string    `json:"contract_type"`
	PartyA            Party     `json:"party_a"`
	PartyB            Party     `json:"party_b"`
	Terms             string    `json:"terms"`
	StartDate         string    `json:"start_date"`
	EndDate           string    `json:"end_date"`
	AdditionalClauses []string  `json:"additional_clauses"`
	SignatureBase64   string    `json:"signature_base64,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func toResponse(rec Record) contractResponse {
	clauses := rec.Data.AdditionalClauses
	if clauses == nil {
		clauses = []string{}
	}
	return contractResponse{
		ID:                rec.ID,
		ContractType:      rec.ContractType,
		PartyA:            rec.Data.PartyA,
		PartyB:            rec.Data.PartyB,
		Terms:             rec.Data.Terms,
		StartDate:         rec.Data.StartDate,
		EndDate:           rec.Data.EndDate,
		AdditionalClauses: clauses,
		SignatureBase64:   rec.Data.SignatureBase64,
		CreatedAt:         rec.CreatedAt,
		UpdatedAt:         rec.UpdatedAt,
	}
}

type listItem struct {
	ID           int64     `json:"id"`
	ContractType string    `json:"contract_type"`
	PartyAName   string    `json:"party_a_name"`
	PartyBName   string    `json:"party_b_name"`
	CreatedAt    time.Time `json:"created_at"`
}

func toListItem(rec Record) listItem {
	return listItem{
		ID:           rec.ID,
		ContractType: rec.ContractType,
		PartyAName:   orUnknown(rec.Data.PartyA.Name),
		PartyBName:   orUnknown(rec.Data.PartyB.Name),
		CreatedAt:    rec.CreatedAt,
	}
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}

type pdfInfo struct {
	Filename    string `json:"filename"`
	PDFPath     string `json:"pdf_path"`
	DownloadURL string `json:"download_url"`
	SizeBytes   int64  `json:"size_bytes"`
	Engine      string `json:"engine,omitempty"`
}

func toPDFInfo(f pdf.File) pdfInfo {
	return pdfInfo{
		Filename:    f.Name,
		PDFPath:     f.Path,
		DownloadURL: DownloadURL(f.Name),
		SizeBytes:   f.Size,
		Engine:      f.Engine,
	}
}

// DownloadURL is the download link for a generated file.
func DownloadURL(name string) string {
	return DownloadPath + url.PathEscape(name)
}

type createResponse struct {
	Message        string           `json:"message"`
	ContractID     int64            `json:"contract_id"`
	ContractData   contractResponse `json:"contract_data"`
	PreviewHTML    string           `json:"preview_html"`
	PDFInfo        pdfInfo          `json:"pdf_info"`
	EmailRequested bool             `json:"email_requested"`
	EmailSent      bool             `json:"email_sent"`
	EmailError     string           `json:"email_error,omitempty"`
	EmailErrorCode string           `json:"email_error_code,omitempty"`
}

type detailResponse struct {
	Contract    contractResponse `json:"contract"`
	PDFFilePath *string          `json:"pdf_file_path"`
	PDFFilename *string          `json:"pdf_filename"`
	PDFExists   bool             `json:"pdf_exists"`
	DownloadURL *string          `json:"download_url"`
}

func toDetail(rec Record, f *pdf.File) detailResponse {
	out := detailResponse{Contract: toResponse(rec)}
	if f != nil {
		link := DownloadURL(f.Name)
		out.PDFFilePath = &f.Path
		out.PDFFilename = &f.Name
		out.PDFExists = true
		out.DownloadURL = &link
	}
	return out
}

type listResponse struct {
	Message        string     `json:"message"`
	TotalContracts int        `json:"total_contracts"`
	Skip           int        `json:"skip"`
	Limit          int        `json:"limit"`
	Contracts      []listItem `json:"contracts"`
}

type deleteResponse struct {
	Message      string   `json:"message"`
	ContractID   int64    `json:"contract_id"`
	PDFDeleted   bool     `json:"pdf_deleted"`
	DeletedFiles []string `json:"deleted_files"`
}

type pdfResponse struct {
	Message    string `json:"message"`
	ContractID int64  `json:"contract_id"`
	pdfInfo
}

type emailRequest struct {
	RecipientEmail string `json:"recipient_email"`
}

type emailResponse struct {
	Message        string `json:"message"`
	ContractID     int64  `json:"contract_id"`
	RecipientEmail string `json:"recipient_email"`
	EmailSent      bool   `json:"email_sent"`
	Filename       string `json:"filename"`
}

type pdfListResponse struct {
	TotalFiles int        `json:"total_files"`
	Files      []pdf.File `json:"files"`
}
