package contracts

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"contract-backend/internal/signature"
)

// maxRequestSize bounds the whole body. The signature itself is capped
// separately by the signature package.
const maxRequestSize = 12 << 20

// CreateRequest is the transport-neutral form of a create or replace call.
// JSON and multipart bodies both end up here before anything else runs.
type CreateRequest struct {
	Data              Data
	Signature         signature.Input
	RecipientEmail    string
	CustomPDFFilename string
}

type jsonBody struct {
	Data
	RecipientEmail    string `json:"recipient_email"`
	CustomPDFFilename string `json:"custom_pdf_filename"`
}

func (b jsonBody) request() CreateRequest {
	req := CreateRequest{
		Data:              b.Data,
		Signature:         signature.Input{DataURI: b.Data.SignatureBase64},
		RecipientEmail:    strings.TrimSpace(b.RecipientEmail),
		CustomPDFFilename: strings.TrimSpace(b.CustomPDFFilename),
	}
	req.Data.SignatureBase64 = ""
	return req
}

// ParseCreateRequest reads either an application/json body or a
// multipart/form-data body with a contract_data JSON field and an optional
// signature_file upload.
func ParseCreateRequest(c *gin.Context) (CreateRequest, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxRequestSize)

	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		return parseMultipart(c)
	}

	var body jsonBody
	if err := c.ShouldBindJSON(&body); err != nil {
		return CreateRequest{}, fmt.Errorf("%w: %v", ErrInvalidBody, err)
	}
	return body.request(), nil
}

func parseMultipart(c *gin.Context) (CreateRequest, error) {
	if err := c.Request.ParseMultipartForm(maxRequestSize); err != nil {
		return CreateRequest{}, fmt.Errorf("%w: %v", ErrInvalidBody, err)
	}

	raw := strings.TrimSpace(c.PostForm("contract_data"))
	if raw == "" {
		return CreateRequest{}, fieldError("contract_data", "required", "contract_data is required")
	}
	var body jsonBody
	if err := json.Unmarshal([]byte(raw), &body); err != nil {
		return CreateRequest{}, fieldError("contract_data", "json", "contract_data must be a JSON object")
	}
	req := body.request()

	if v := strings.TrimSpace(c.PostForm("recipient_email")); v != "" {
		req.RecipientEmail = v
	}
	if v := strings.TrimSpace(c.PostForm("custom_pdf_filename")); v != "" {
		req.CustomPDFFilename = v
	}
	if v := strings.TrimSpace(c.PostForm("signature_base64")); v != "" {
		req.Signature.DataURI = v
	}

	fh, err := c.FormFile("signature_file")
	switch {
	case errors.Is(err, http.ErrMissingFile):
		return req, nil
	case err != nil:
		return CreateRequest{}, fmt.Errorf("%w: %v", ErrInvalidBody, err)
	}
	if fh.Size > signature.MaxBytes {
		return CreateRequest{}, signature.ErrTooLarge
	}
	f, err := fh.Open()
	if err != nil {
		return CreateRequest{}, fmt.Errorf("%w: %v", ErrInvalidBody, err)
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, signature.MaxBytes+1))
	if err != nil {
		return CreateRequest{}, fmt.Errorf("%w: %v", ErrInvalidBody, err)
	}
	req.Signature.File = data
	req.Signature.FileContentType = fh.Header.Get("Content-Type")
	return req, nil
}
