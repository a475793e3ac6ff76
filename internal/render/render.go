// Package render merges contract data into the embedded HTML template.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strconv"
	"strings"
	"time"

	"contract-backend/internal/signature"
)

//go:embed templates/contract.html
var templateFS embed.FS

const dateLayout = "2006-01-02"

// Party is one side of the contract.
type Party struct {
	Name    string
	Email   string
	Address string
	Phone   string
}

// Input is everything the template needs. IssuedAt is supplied by the caller
// so identical input always renders identical HTML.
type Input struct {
	ContractID        int64
	ContractType      string
	PartyA            Party
	PartyB            Party
	Terms             string
	StartDate         string
	EndDate           string
	AdditionalClauses []string
	Signature         string
	IssuedAt          time.Time
}

type partyView struct {
	Role string
	Party
}

type view struct {
	ContractType      string
	Number            string
	Issued            string
	Parties           []partyView
	PartyA            Party
	PartyB            Party
	Terms             string
	StartDate         string
	EndDate           string
	AdditionalClauses []string
	Signature         template.HTMLAttr
}

// Renderer holds the parsed template. It is safe for concurrent use.
type Renderer struct {
	tmpl *template.Template
}

// New parses the embedded contract template.
func New() (*Renderer, error) {
	tmpl, err := template.New("contract.html").
		Funcs(template.FuncMap{"formatDate": formatDate}).
		ParseFS(templateFS, "templates/contract.html")
	if err != nil {
		return nil, fmt.Errorf("parse contract template: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// MustNew is New for package-level initialization.
func MustNew() *Renderer {
	r, err := New()
	if err != nil {
		panic(err)
	}
	return r
}

// Render produces a self-contained HTML document. User text is escaped by
// html/template; the signature is only emitted as an image source once it
// has been validated as an image data URI.
func (r *Renderer) Render(in Input) (string, error) {
	v := view{
		ContractType:      strings.TrimSpace(in.ContractType),
		Number:            "Draft",
		Issued:            in.IssuedAt.UTC().Format("2006-01-02 15:04 MST"),
		PartyA:            trimParty(in.PartyA),
		PartyB:            trimParty(in.PartyB),
		Terms:             strings.TrimSpace(in.Terms),
		StartDate:         strings.TrimSpace(in.StartDate),
		EndDate:           strings.TrimSpace(in.EndDate),
		AdditionalClauses: nonEmpty(in.AdditionalClauses),
	}
	if in.ContractID > 0 {
		v.Number = strconv.FormatInt(in.ContractID, 10)
	}
	if in.IssuedAt.IsZero() {
		v.Issued = "-"
	}
	v.Parties = []partyView{{Role: "Party A", Party: v.PartyA}, {Role: "Party B", Party: v.PartyB}}
	if in.Signature != "" && signature.IsDataURI(in.Signature) {
		// A validated data URI only holds [A-Za-z0-9+/=.;:,-], so it cannot
		// break out of the quoted attribute.
		v.Signature = template.HTMLAttr(`src="` + in.Signature + `"`)
	}

	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, v); err != nil {
		return "", fmt.Errorf("render contract: %w", err)
	}
	return buf.String(), nil
}

// SampleInput returns a realistic contract for previews and smoke tests.
func SampleInput() Input {
	return Input{
		ContractType: "Service Agreement",
		PartyA: Party{
			Name:    "ABC Company Inc.",
			Address: "123 Business St, City, State 12345",
			Email:   "contact@abccompany.com",
			Phone:   "+1 (555) 123-4567",
		},
		PartyB: Party{
			Name:    "John Doe",
			Address: "456 Client Ave, Town, State 67890",
			Email:   "john.doe@email.com",
			Phone:   "+1 (555) 987-6543",
		},
		Terms:     "This agreement establishes the terms for providing consulting services. The service provider agrees to deliver high-quality consulting services according to the specifications outlined in this contract.",
		StartDate: "2024-01-01",
		EndDate:   "2024-12-31",
		AdditionalClauses: []string{
			"All work must be completed within the agreed timeframe.",
			"Payment terms are Net 30 days from invoice date.",
			"This contract may be terminated by either party with 30 days written notice.",
		},
	}
}

func formatDate(raw string) string {
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return raw
	}
	return t.Format("January 2, 2006")
}

func trimParty(p Party) Party {
	return Party{
		Name:    strings.TrimSpace(p.Name),
		Email:   strings.TrimSpace(p.Email),
		Address: strings.TrimSpace(p.Address),
		Phone:   strings.TrimSpace(p.Phone),
	}
}

func nonEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
