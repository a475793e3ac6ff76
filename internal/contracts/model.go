package contracts

import (
	"strings"
	"time"
)

// Party is one side of a contract. Field order matches render.Party.
type Party struct {
	Name    string `json:"name" validate:"required,max=200"`
	Email   string `json:"email,omitempty" validate:"omitempty,email"`
	Address string `json:"address,omitempty" validate:"max=500"`
	Phone   string `json:"phone,omitempty" validate:"max=50"`
}

// Data is the JSON document stored with every contract.
type Data struct {
	ContractType      string   `json:"contract_type" validate:"required,max=100"`
	PartyA            Party    `json:"party_a"`
	PartyB            Party    `json:"party_b"`
	Terms             string   `json:"terms" validate:"required,min=10"`
	StartDate         string   `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate           string   `json:"end_date" validate:"required,datetime=2006-01-02"`
	AdditionalClauses []string `json:"additional_clauses" validate:"max=50,dive,max=2000"`
	SignatureBase64   string   `json:"signature_base64,omitempty"`
}

// Record is a persisted contract.
type Record struct {
	ID           int64
	ContractType string
	Data         Data
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Normalize trims free text and drops blank clauses.
func (d Data) Normalize() Data {
	d.ContractType = strings.TrimSpace(d.ContractType)
	d.PartyA = d.PartyA.normalize()
	d.PartyB = d.PartyB.normalize()
	d.Terms = strings.TrimSpace(d.Terms)
	d.StartDate = strings.TrimSpace(d.StartDate)
	d.EndDate = strings.TrimSpace(d.EndDate)
	clauses := make([]string, 0, len(d.AdditionalClauses))
	for _, c := range d.AdditionalClauses {
		if c = strings.TrimSpace(c); c != "" {
			clauses = append(clauses, c)
		}
	}
	d.AdditionalClauses = clauses
	d.SignatureBase64 = strings.TrimSpace(d.SignatureBase64)
	return d
}

func (p Party) normalize() Party {
	return Party{
		Name:    strings.TrimSpace(p.Name),
		Email:   strings.TrimSpace(p.Email),
		Address: strings.TrimSpace(p.Address),
		Phone:   strings.TrimSpace(p.Phone),
	}
}
