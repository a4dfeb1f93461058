package html

import (
	"context"
	"fmt"
	"html"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
)

// Ensure Converter implements the interface.
var _ driven.Converter = (*Converter)(nil)

// Converter handles HTML documents.
type Converter struct{}

// New creates a new HTML converter.
func New() *Converter {
	return &Converter{}
}

// Name returns the converter name.
func (c *Converter) Name() string {
	return "html"
}

// Extensions returns the extensions this converter handles.
func (c *Converter) Extensions() []string {
	return []string{".html", ".htm", ".xhtml"}
}

// Convert renders the HTML document as markdown.
// The <title>, when present, becomes the leading heading.
func (c *Converter) Convert(_ context.Context, name string, content []byte) (string, error) {
	if !utf8.Valid(content) {
		return "", fmt.Errorf("%w: %s is not valid UTF-8", domain.ErrConversion, name)
	}

	raw := string(content)
	title := extractTitle(raw)
	body := toMarkdown(raw)

	if title != "" && !strings.HasPrefix(body, "# "+title) {
		if body == "" {
			return "# " + title, nil
		}
		return "# " + title + "\n\n" + body, nil
	}
	return body, nil
}

// Pre-compiled regular expressions for HTML parsing performance.
var (
	titleTag      = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	scriptTag     = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleTag      = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	noscriptTag   = regexp.MustCompile(`(?is)<noscript[^>]*>.*?</noscript>`)
	headTag       = regexp.MustCompile(`(?is)<head[^>]*>.*?</head>`)
	svgTag        = regexp.MustCompile(`(?is)<svg[^>]*>.*?</svg>`)
	htmlComments  = regexp.MustCompile(`(?s)<!--.*?-->`)
	whitespaceRun = regexp.MustCompile(`\s+`)
	anchorTag     = regexp.MustCompile(`(?is)<a\s[^>]*href\s*=\s*"([^"]*)"[^>]*>(.*?)</a>`)
	strongTag     = regexp.MustCompile(`(?is)<(?:strong|b)(?:\s[^>]*)?>(.*?)</(?:strong|b)>`)
	emTag         = regexp.MustCompile(`(?is)<(?:em|i)(?:\s[^>]*)?>(.*?)</(?:em|i)>`)
	codeTag       = regexp.MustCompile(`(?is)<code(?:\s[^>]*)?>(.*?)</code>`)
	listItemOpen  = regexp.MustCompile(`(?i)<li(?:\s[^>]*)?>`)
	listItemClose = regexp.MustCompile(`(?i)</li>`)
	blockElements = regexp.MustCompile(`(?i)</?(p|div|ul|ol|tr|table|blockquote|pre|section|article|header|footer|main|nav)(?:\s[^>]*)?>`)
	brTags        = regexp.MustCompile(`(?i)<br\s*/?>`)
	hrTags        = regexp.MustCompile(`(?i)<hr\s*/?>`)
	allTags       = regexp.MustCompile(`<[^>]+>`)
	multiSpaces   = regexp.MustCompile(`[ \t]+`)
	headingTags   = compileHeadings()
)

// compileHeadings returns one pattern per heading level, h1 first.
// RE2 has no backreferences, so each level needs its own expression.
func compileHeadings() []*regexp.Regexp {
	out := make([]*regexp.Regexp, 6)
	for i := range out {
		out[i] = regexp.MustCompile(fmt.Sprintf(`(?is)<h%d(?:\s[^>]*)?>(.*?)</h%d>`, i+1, i+1))
	}
	return out
}

// extractTitle returns the decoded <title> text, or "".
func extractTitle(content string) string {
	matches := titleTag.FindStringSubmatch(content)
	if len(matches) < 2 {
		return ""
	}
	title := allTags.ReplaceAllString(matches[1], "")
	title = html.UnescapeString(title)
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(title, " "))
}

// toMarkdown converts the HTML body to markdown.
func toMarkdown(content string) string {
	content = scriptTag.ReplaceAllString(content, "")
	content = styleTag.ReplaceAllString(content, "")
	content = noscriptTag.ReplaceAllString(content, "")
	content = headTag.ReplaceAllString(content, "")
	content = titleTag.ReplaceAllString(content, "")
	content = svgTag.ReplaceAllString(content, "")
	content = htmlComments.ReplaceAllString(content, "")

	// Source newlines are insignificant in HTML; only tags introduce breaks.
	content = whitespaceRun.ReplaceAllString(content, " ")

	for level, re := range headingTags {
		marker := strings.Repeat("#", level+1)
		content = re.ReplaceAllString(content, "\n\n"+marker+" $1\n\n")
	}

	content = anchorTag.ReplaceAllString(content, "[$2]($1)")
	content = strongTag.ReplaceAllString(content, "**$1**")
	content = emTag.ReplaceAllString(content, "*$1*")
	content = codeTag.ReplaceAllString(content, "`$1`")

	content = listItemOpen.ReplaceAllString(content, "\n- ")
	content = listItemClose.ReplaceAllString(content, "")
	content = blockElements.ReplaceAllString(content, "\n\n")
	content = brTags.ReplaceAllString(content, "\n")
	content = hrTags.ReplaceAllString(content, "\n\n---\n\n")

	content = allTags.ReplaceAllString(content, "")
	content = html.UnescapeString(content)
	content = multiSpaces.ReplaceAllString(content, " ")

	return collapseLines(content)
}

// collapseLines trims each line and keeps at most one blank line in a row.
func collapseLines(content string) string {
	var out []string
	blank := false
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			blank = len(out) > 0
			continue
		}
		if blank {
			out = append(out, "")
			blank = false
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
