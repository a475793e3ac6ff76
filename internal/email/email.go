// Package email delivers generated contract PDFs over SMTP.
//
// Email is optional: with an incomplete configuration every send fails with
// ErrNotConfigured and callers carry on without it.
package email

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	gomail "github.com/wneessen/go-mail"

	"contract-backend/internal/shared/metrics"
	"contract-backend/internal/shared/telemetry"
)

const (
	DefaultPort       = 587
	DefaultSenderName = "Quick Contract Generator"
	dialTimeout       = 15 * time.Second
)

var (
	ErrNotConfigured      = errors.New("email is not configured")
	ErrInvalidRecipient   = errors.New("invalid recipient email address")
	ErrAttachmentNotFound = errors.New("pdf attachment not found")
	ErrSendFailed         = errors.New("email send failed")
)

// Config holds SMTP settings. Any missing required value disables email.
type Config struct {
	Server      string
	Port        int
	Username    string
	Password    string
	SenderEmail string
	SenderName  string
}

// withDefaults fills the optional values.
func (c Config) withDefaults() Config {
	c.Server = strings.TrimSpace(c.Server)
	c.Username = strings.TrimSpace(c.Username)
	c.SenderEmail = strings.TrimSpace(c.SenderEmail)
	if c.Port <= 0 {
		c.Port = DefaultPort
	}
	if c.SenderEmail == "" {
		c.SenderEmail = c.Username
	}
	if strings.TrimSpace(c.SenderName) == "" {
		c.SenderName = DefaultSenderName
	}
	return c
}

// Complete reports whether server, credentials and sender are all present.
func (c Config) Complete() bool {
	return c.Server != "" && c.Username != "" && c.Password != "" && c.SenderEmail != ""
}

// Status is the configuration summary exposed over HTTP. It never carries
// the username or password.
type Status struct {
	ServerConfigured      bool   `json:"smtp_server_configured"`
	UsernameConfigured    bool   `json:"smtp_username_configured"`
	PasswordConfigured    bool   `json:"smtp_password_configured"`
	SenderEmailConfigured bool   `json:"sender_email_configured"`
	Server                string `json:"smtp_server"`
	Port                  int    `json:"smtp_port"`
	SenderEmail           string `json:"sender_email"`
	SenderName            string `json:"sender_name"`
	ConfigurationComplete bool   `json:"configuration_complete"`
}

// Message is one contract delivery.
type Message struct {
	Recipient    string
	ContractID   int64
	ContractType string
	PDFPath      string
}

// TestResult is the outcome of a connectivity check.
type TestResult struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

// Sender is the SMTP transport.
type Sender interface {
	Send(ctx context.Context, msg *gomail.Msg) error
	Check(ctx context.Context) error
}

// Dispatcher builds contract emails and hands them to a Sender.
type Dispatcher struct {
	cfg    Config
	sender Sender
	now    func() time.Time
}

// NewDispatcher returns a dispatcher using go-mail over STARTTLS.
func NewDispatcher(cfg Config) *Dispatcher {
	cfg = cfg.withDefaults()
	return &Dispatcher{cfg: cfg, sender: &smtpSender{cfg: cfg}, now: time.Now}
}

// NewDispatcherWithSender swaps the transport, mostly for tests.
func NewDispatcherWithSender(cfg Config, sender Sender) *Dispatcher {
	d := NewDispatcher(cfg)
	d.sender = sender
	return d
}

// Configured reports whether sends can be attempted.
func (d *Dispatcher) Configured() bool {
	return d.cfg.Complete()
}

// Status summarizes the configuration.
func (d *Dispatcher) Status() Status {
	s := Status{
		ServerConfigured:      d.cfg.Server != "",
		UsernameConfigured:    d.cfg.Username != "",
		PasswordConfigured:    d.cfg.Password != "",
		SenderEmailConfigured: d.cfg.SenderEmail != "",
		Server:                d.cfg.Server,
		Port:                  d.cfg.Port,
		SenderEmail:           d.cfg.SenderEmail,
		SenderName:            d.cfg.SenderName,
		ConfigurationComplete: d.cfg.Complete(),
	}
	if s.Server == "" {
		s.Server = "Not configured"
	}
	if s.SenderEmail == "" {
		s.SenderEmail = "Not configured"
	}
	return s
}

// ValidateRecipient checks an address without sending anything.
func ValidateRecipient(addr string) (string, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return "", ErrInvalidRecipient
	}
	parsed, err := mail.ParseAddress(addr)
	if err != nil || !strings.Contains(parsed.Address, "@") {
		return "", fmt.Errorf("%w: %s", ErrInvalidRecipient, addr)
	}
	return parsed.Address, nil
}

// SendContract emails the contract PDF at msg.PDFPath to msg.Recipient.
func (d *Dispatcher) SendContract(ctx context.Context, msg Message) error {
	err := d.sendContract(ctx, msg)
	if err != nil {
		metrics.IncEmailFailed()
		telemetry.Warn("email.send_failed", map[string]any{"contract_id": msg.ContractID, "error": err})
		return err
	}
	metrics.IncEmailSent()
	telemetry.Info("email.sent", map[string]any{"contract_id": msg.ContractID, "attachment": filepath.Base(msg.PDFPath)})
	return nil
}

func (d *Dispatcher) sendContract(ctx context.Context, msg Message) error {
	if !d.Configured() {
		return ErrNotConfigured
	}
	recipient, err := ValidateRecipient(msg.Recipient)
	if err != nil {
		return err
	}
	if fi, err := os.Stat(msg.PDFPath); err != nil || fi.IsDir() {
		return fmt.Errorf("%w: %s", ErrAttachmentNotFound, filepath.Base(msg.PDFPath))
	}

	m, err := d.buildMessage(recipient, msg)
	if err != nil {
		return err
	}
	if err := d.sender.Send(ctx, m); err != nil {
		return fmt.Errorf("%w: %w", ErrSendFailed, err)
	}
	return nil
}

func (d *Dispatcher) buildMessage(recipient string, msg Message) (*gomail.Msg, error) {
	m := gomail.NewMsg()
	if err := m.FromFormat(d.cfg.SenderName, d.cfg.SenderEmail); err != nil {
		return nil, fmt.Errorf("%w: sender address: %w", ErrSendFailed, err)
	}
	if err := m.To(recipient); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRecipient, err)
	}
	m.Subject(Subject(msg.ContractType, msg.ContractID))
	m.SetBodyString(gomail.TypeTextPlain, Body(msg.ContractType, msg.ContractID, d.now()))
	m.AttachFile(msg.PDFPath, gomail.WithFileContentType(gomail.ContentType("application/pdf")))
	return m, nil
}

// Subject is the contract email subject line.
func Subject(contractType string, id int64) string {
	return fmt.Sprintf("Your %s Contract (ID: %d)", contractType, id)
}

// Body is the plain-text contract email body.
func Body(contractType string, id int64, generated time.Time) string {
	return fmt.Sprintf(`Dear Customer,

Thank you for using Quick Contract Generator. Please find your %[1]s contract attached to this email.

Contract Details:
- Contract ID: %[2]d
- Contract Type: %[1]s
- Generated: %[3]s

If you have any questions about this contract, please contact us.

Best regards,
Quick Contract Generator Team`, contractType, id, generated.Format("2006-01-02 15:04:05"))
}

// Test dials the server, upgrades to TLS and authenticates without sending.
func (d *Dispatcher) Test(ctx context.Context) TestResult {
	if !d.Configured() {
		return TestResult{OK: false, Message: ErrNotConfigured.Error()}
	}
	if err := d.sender.Check(ctx); err != nil {
		telemetry.Warn("email.test_failed", map[string]any{"server": d.cfg.Server, "port": d.cfg.Port, "error": err})
		return TestResult{OK: false, Message: fmt.Sprintf("SMTP check failed: %v", err)}
	}
	return TestResult{OK: true, Message: "SMTP connection and authentication succeeded"}
}

// ErrorStatus maps dispatcher errors to an HTTP status and error code.
func ErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, ErrNotConfigured):
		return http.StatusServiceUnavailable, "email_not_configured"
	case errors.Is(err, ErrInvalidRecipient):
		return http.StatusBadRequest, "invalid_recipient"
	case errors.Is(err, ErrAttachmentNotFound):
		return http.StatusNotFound, "attachment_not_found"
	case errors.Is(err, ErrSendFailed):
		return http.StatusBadGateway, "email_send_failed"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

type smtpSender struct {
	cfg Config
}

func (s *smtpSender) client() (*gomail.Client, error) {
	return gomail.NewClient(s.cfg.Server,
		gomail.WithPort(s.cfg.Port),
		gomail.WithTLSPolicy(gomail.TLSMandatory),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.cfg.Username),
		gomail.WithPassword(s.cfg.Password),
		gomail.WithTimeout(dialTimeout),
	)
}

func (s *smtpSender) Send(ctx context.Context, msg *gomail.Msg) error {
	c, err := s.client()
	if err != nil {
		return err
	}
	return c.DialAndSendWithContext(ctx, msg)
}

func (s *smtpSender) Check(ctx context.Context) error {
	c, err := s.client()
	if err != nil {
		return err
	}
	if err := c.DialWithContext(ctx); err != nil {
		return err
	}
	return c.Close()
}
