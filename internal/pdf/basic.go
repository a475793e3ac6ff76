package pdf

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"strconv"
	"strings"

	"github.com/phpdave11/gofpdf"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"contract-backend/internal/signature"
)

// Page geometry in millimetres.
const (
	basicMargin     = 20.0
	basicLineHeight = 5.5
	signatureWidth  = 50.0
)

// fontFamily is a DejaVu face registered as UTF-8 so names and terms outside
// Latin-1 print as written.
const fontFamily = "DejaVu"

var (
	//go:embed fonts/DejaVuSansCondensed.ttf
	fontRegular []byte
	//go:embed fonts/DejaVuSansCondensed-Bold.ttf
	fontBold []byte
)

// BasicEngine lays out the document structure (headings, paragraphs, list
// items, signature image) with gofpdf. It needs no native dependencies but
// ignores CSS.
type BasicEngine struct{}

// NewBasicEngine returns the pure-Go engine.
func NewBasicEngine() *BasicEngine { return &BasicEngine{} }

func (e *BasicEngine) Name() string { return "basic" }

type blockKind int

const (
	blockHeading1 blockKind = iota
	blockHeading2
	blockHeading3
	blockParagraph
	blockListItem
	blockImage
	blockSignatureLine
)

type block struct {
	kind blockKind
	text string
	src  string
}

// Render parses html and writes an A4 PDF.
func (e *BasicEngine) Render(ctx context.Context, src string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	root, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("basic: parse html: %w", err)
	}
	var blocks []block
	collectBlocks(root, &blocks)
	if len(blocks) == 0 {
		return nil, fmt.Errorf("basic: document has no printable content")
	}

	doc := gofpdf.New("P", "mm", "A4", "")
	doc.SetMargins(basicMargin, basicMargin, basicMargin)
	doc.SetAutoPageBreak(true, basicMargin)
	doc.SetTitle(firstHeading(blocks), true)
	doc.SetCreator("contract-backend", true)
	doc.AddUTF8FontFromBytes(fontFamily, "", fontRegular)
	doc.AddUTF8FontFromBytes(fontFamily, "B", fontBold)
	if err := doc.Error(); err != nil {
		return nil, fmt.Errorf("basic: load font: %w", err)
	}
	doc.AddPage()

	images := 0
	for _, b := range blocks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		switch b.kind {
		case blockHeading1:
			doc.SetFont(fontFamily, "B", 18)
			doc.MultiCell(0, 9, b.text, "", "C", false)
			doc.Ln(2)
		case blockHeading2:
			doc.Ln(3)
			doc.SetFont(fontFamily, "B", 13)
			doc.MultiCell(0, 7, b.text, "B", "L", false)
			doc.Ln(2)
		case blockHeading3:
			doc.SetFont(fontFamily, "B", 11)
			doc.MultiCell(0, basicLineHeight+0.5, b.text, "", "L", false)
		case blockParagraph:
			doc.SetFont(fontFamily, "", 11)
			doc.MultiCell(0, basicLineHeight, b.text, "", "L", false)
			doc.Ln(1)
		case blockListItem:
			doc.SetFont(fontFamily, "", 11)
			doc.SetX(basicMargin + 5)
			doc.MultiCell(0, basicLineHeight, b.text, "", "L", false)
		case blockImage:
			if drawImage(doc, b.src, images) {
				images++
				continue
			}
			drawSignatureLine(doc)
		case blockSignatureLine:
			drawSignatureLine(doc)
		}
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("basic: write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// drawImage embeds a data URI image; formats gofpdf cannot read are skipped.
func drawImage(doc *gofpdf.Fpdf, src string, n int) bool {
	mediaType, data, err := signature.Decode(src)
	if err != nil {
		return false
	}
	var imageType string
	switch mediaType {
	case "image/png":
		imageType = "PNG"
	case "image/jpeg", "image/jpg":
		imageType = "JPG"
	case "image/gif":
		imageType = "GIF"
	default:
		return false
	}
	name := "signature-" + strconv.Itoa(n)
	opts := gofpdf.ImageOptions{ImageType: imageType}
	info := doc.RegisterImageOptionsReader(name, opts, bytes.NewReader(data))
	if doc.Err() || info == nil {
		doc.ClearError()
		return false
	}
	doc.ImageOptions(name, basicMargin, -1, signatureWidth, 0, true, opts, 0, "")
	if doc.Err() {
		doc.ClearError()
		return false
	}
	doc.Ln(2)
	return true
}

func drawSignatureLine(doc *gofpdf.Fpdf) {
	doc.Ln(12)
	x, y := doc.GetXY()
	doc.SetLineWidth(0.3)
	doc.Line(x, y, x+70, y)
	doc.Ln(2)
}

func firstHeading(blocks []block) string {
	for _, b := range blocks {
		if b.kind == blockHeading1 {
			return b.text
		}
	}
	return "Contract"
}

// collectBlocks flattens the DOM into printable blocks in document order.
func collectBlocks(n *html.Node, out *[]block) {
	if n.Type == html.TextNode {
		if text := collapseSpace(n.Data); text != "" && !insideHead(n) {
			*out = append(*out, block{kind: blockParagraph, text: text})
		}
		return
	}
	if n.Type == html.ElementNode {
		switch n.DataAtom {
		case atom.Head, atom.Style, atom.Script, atom.Title:
			return
		case atom.H1:
			appendText(out, blockHeading1, textOf(n, false))
			return
		case atom.H2:
			appendText(out, blockHeading2, textOf(n, false))
			return
		case atom.H3, atom.H4, atom.H5, atom.H6:
			appendText(out, blockHeading3, textOf(n, false))
			return
		case atom.P:
			appendText(out, blockParagraph, textOf(n, hasClass(n, "terms")))
			return
		case atom.Ol, atom.Ul:
			i := 0
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type != html.ElementNode || c.DataAtom != atom.Li {
					continue
				}
				i++
				marker := "-"
				if n.DataAtom == atom.Ol {
					marker = strconv.Itoa(i) + "."
				}
				appendText(out, blockListItem, marker+" "+textOf(c, false))
			}
			return
		case atom.Img:
			*out = append(*out, block{kind: blockImage, src: attr(n, "src")})
			return
		case atom.Span:
			if hasClass(n, "signature-placeholder") {
				*out = append(*out, block{kind: blockSignatureLine})
				return
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectBlocks(c, out)
	}
}

func appendText(out *[]block, kind blockKind, text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	*out = append(*out, block{kind: kind, text: text})
}

// textOf concatenates descendant text. With preserveLines, newlines in the
// source survive; otherwise all whitespace runs collapse to one space.
func textOf(n *html.Node, preserveLines bool) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		switch {
		case c.Type == html.TextNode:
			sb.WriteString(c.Data)
		case c.Type == html.ElementNode && c.DataAtom == atom.Br:
			sb.WriteString("\n")
		}
		for ch := c.FirstChild; ch != nil; ch = ch.NextSibling {
			walk(ch)
		}
	}
	walk(n)
	if !preserveLines {
		return collapseSpace(sb.String())
	}
	lines := strings.Split(strings.ReplaceAll(sb.String(), "\r\n", "\n"), "\n")
	for i, line := range lines {
		lines[i] = collapseSpace(line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func insideHead(n *html.Node) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && (p.DataAtom == atom.Head || p.DataAtom == atom.Style || p.DataAtom == atom.Script) {
			return true
		}
	}
	return false
}

func hasClass(n *html.Node, class string) bool {
	for _, f := range strings.Fields(attr(n, "class")) {
		if f == class {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
