package render

import (
	"strings"
	"testing"
	"time"
)

const tinyPNGURI = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAQAAAC1HAwCAAAAC0lEQVR42mNkYAAAAAYAAjCB0C8AAAAASUVORK5CYII="

func TestRenderWithoutSignatureUsesPlaceholder(t *testing.T) {
	r := MustNew()
	in := SampleInput()
	in.ContractID = 3
	in.IssuedAt = time.Date(2024, 1, 2, 3, 4, 0, 0, time.UTC)

	out, err := r.Render(in)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if strings.Contains(out, "<img") {
		t.Fatalf("expected no image tag without a signature")
	}
	if !strings.Contains(out, `class="signature-placeholder"`) {
		t.Fatalf("expected signature placeholder")
	}
	for _, want := range []string{"ABC Company Inc.", "John Doe", "Contract No. 3", "January 1, 2024", "December 31, 2024", "Payment terms are Net 30 days"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output", want)
		}
	}
}

func TestRenderEmbedsSignatureVerbatim(t *testing.T) {
	r := MustNew()
	in := SampleInput()
	in.Signature = tinyPNGURI

	out, err := r.Render(in)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(out, `src="`+tinyPNGURI+`"`) {
		t.Fatalf("expected signature data uri as img src, got:\n%s", out)
	}
}

func TestRenderDropsInvalidSignature(t *testing.T) {
	r := MustNew()
	in := SampleInput()
	in.Signature = `javascript:alert(1)" onerror="x`

	out, err := r.Render(in)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if strings.Contains(out, "<img") || strings.Contains(out, "javascript:") {
		t.Fatalf("expected invalid signature to be dropped")
	}
}

func TestRenderEscapesUserText(t *testing.T) {
	r := MustNew()
	in := SampleInput()
	in.PartyA.Name = `<script>alert("x")</script>`
	in.Terms = `Terms & <b>conditions</b> apply to all work`
	in.AdditionalClauses = []string{"<img src=x onerror=alert(1)>"}

	out, err := r.Render(in)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if strings.Contains(out, "<script>") || strings.Contains(out, "<b>") || strings.Contains(out, "<img src=x") {
		t.Fatalf("expected user text to be escaped, got:\n%s", out)
	}
	if !strings.Contains(out, "&lt;script&gt;") {
		t.Fatalf("expected escaped script tag")
	}
	if !strings.Contains(out, "Terms &amp; &lt;b&gt;conditions") {
		t.Fatalf("expected escaped terms")
	}
}

func TestRenderOmitsEmptyOptionalFields(t *testing.T) {
	r := MustNew()
	in := Input{
		ContractType: "NDA",
		PartyA:       Party{Name: "A"},
		PartyB:       Party{Name: "B"},
		Terms:        "ten-char minimum terms text",
		StartDate:    "2024-01-01",
		EndDate:      "not-a-date",
	}
	out, err := r.Render(in)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if strings.Contains(out, "Email:") || strings.Contains(out, "Phone:") {
		t.Fatalf("expected optional party fields to be omitted")
	}
	if strings.Contains(out, "Additional Clauses") {
		t.Fatalf("expected clauses section to be omitted")
	}
	if !strings.Contains(out, "until not-a-date") {
		t.Fatalf("expected unparseable date to render verbatim")
	}
	if !strings.Contains(out, "Contract No. Draft") {
		t.Fatalf("expected draft number for unsaved contract")
	}
}

func TestRenderIsDeterministic(t *testing.T) {
	r := MustNew()
	in := SampleInput()
	in.IssuedAt = time.Date(2024, 5, 6, 7, 8, 0, 0, time.UTC)
	first, err := r.Render(in)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	second, err := r.Render(in)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if first != second {
		t.Fatalf("expected identical output for identical input")
	}
}
