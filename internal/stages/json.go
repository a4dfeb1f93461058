package stages

import (
	"encoding/json"
	"fmt"
	"path"
	"strings"
)

// Document is the JSON representation of a converted document.
type Document struct {
	Title    string `json:"title"`
	Contents string `json:"contents"`
}

// ToJSON wraps markdown in its JSON representation.
// name is the document key, used for the title when the markdown has no
// top-level heading.
func ToJSON(name, markdown string) (string, error) {
	data, err := json.Marshal(Document{
		Title:    Title(name, markdown),
		Contents: markdown,
	})
	if err != nil {
		return "", fmt.Errorf("encoding json representation: %w", err)
	}
	return string(data), nil
}

// Title returns the first H1 heading, falling back to the file name.
func Title(name, markdown string) string {
	for _, line := range strings.Split(markdown, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "#"))
		}
	}

	filename := path.Base(strings.ReplaceAll(name, "\\", "/"))
	if filename == "." || filename == "/" {
		return ""
	}
	filename = strings.TrimSuffix(filename, path.Ext(filename))
	filename = strings.ReplaceAll(filename, "_", " ")
	filename = strings.ReplaceAll(filename, "-", " ")
	return filename
}
