// Package docx provides a Converter for Word documents.
// Paragraph text is read from word/document.xml and heading styles map to
// markdown heading levels.
package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
)

// Ensure Converter implements the interface.
var _ driven.Converter = (*Converter)(nil)

// Converter handles DOCX documents.
type Converter struct{}

// New creates a new DOCX converter.
func New() *Converter {
	return &Converter{}
}

// Name returns the converter name.
func (c *Converter) Name() string {
	return "docx"
}

// Extensions returns the extensions this converter handles.
func (c *Converter) Extensions() []string {
	return []string{".docx"}
}

// Convert renders the document body as markdown.
// The core title, when set and not already the first heading, leads the output.
func (c *Converter) Convert(_ context.Context, name string, content []byte) (string, error) {
	reader, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("%w: %s is not a docx archive: %v", domain.ErrConversion, name, err)
	}

	docXML, err := readEntry(reader, "word/document.xml")
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", domain.ErrConversion, name, err)
	}

	var doc documentXML
	if err := xml.Unmarshal(docXML, &doc); err != nil {
		return "", fmt.Errorf("%w: %s: parsing document.xml: %v", domain.ErrConversion, name, err)
	}

	body := renderMarkdown(doc)
	title := extractTitle(reader)
	if title != "" && !strings.HasPrefix(body, "# "+title) {
		if body == "" {
			return "# " + title, nil
		}
		return "# " + title + "\n\n" + body, nil
	}
	return body, nil
}

// readEntry returns the bytes of the named archive entry.
func readEntry(reader *zip.Reader, name string) ([]byte, error) {
	for _, file := range reader.File {
		if file.Name != name {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, fmt.Errorf("missing %s", name)
}

// documentXML represents the structure of word/document.xml.
type documentXML struct {
	Body struct {
		Paragraphs []paragraph `xml:"p"`
	} `xml:"body"`
}

type paragraph struct {
	Props struct {
		Style struct {
			Val string `xml:"val,attr"`
		} `xml:"pStyle"`
		Numbering *struct{} `xml:"numPr"`
	} `xml:"pPr"`
	Runs []run `xml:"r"`
}

type run struct {
	Text []textElement `xml:"t"`
}

type textElement struct {
	Content string `xml:",chardata"`
}

// renderMarkdown writes one markdown block per non-empty paragraph.
func renderMarkdown(doc documentXML) string {
	var blocks []string
	for _, para := range doc.Body.Paragraphs {
		var text strings.Builder
		for _, r := range para.Runs {
			for _, t := range r.Text {
				text.WriteString(t.Content)
			}
		}
		line := strings.TrimSpace(text.String())
		if line == "" {
			continue
		}
		switch {
		case headingLevel(para.Props.Style.Val) > 0:
			line = strings.Repeat("#", headingLevel(para.Props.Style.Val)) + " " + line
		case para.Props.Numbering != nil:
			line = "- " + line
		}
		blocks = append(blocks, line)
	}
	return strings.Join(blocks, "\n\n")
}

// headingLevel maps a paragraph style to a heading level, or 0.
func headingLevel(style string) int {
	switch {
	case style == "Title":
		return 1
	case strings.HasPrefix(style, "Heading"):
		n, err := strconv.Atoi(strings.TrimPrefix(style, "Heading"))
		if err != nil || n < 1 {
			return 0
		}
		if n > 6 {
			n = 6
		}
		return n
	default:
		return 0
	}
}

// coreXML represents the structure of docProps/core.xml.
type coreXML struct {
	Title string `xml:"title"`
}

// extractTitle returns the title from docProps/core.xml, or "".
func extractTitle(reader *zip.Reader) string {
	content, err := readEntry(reader, "docProps/core.xml")
	if err != nil {
		return ""
	}
	var core coreXML
	if err := xml.Unmarshal(content, &core); err != nil {
		return ""
	}
	return strings.TrimSpace(core.Title)
}
