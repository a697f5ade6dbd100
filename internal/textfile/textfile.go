// Package textfile converts notes to and from plain text files:
// title on the first line, a blank separator line, then the body verbatim.
// Font settings and timestamps are not part of the text format.
package textfile

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/starford/laguz/internal/apperr"
	"github.com/starford/laguz/internal/models"
)

// DefaultTitle is used when imported content has an empty first line.
const DefaultTitle = "Untitled note"

// Export renders a note as UTF-8 plain text.
func Export(n models.Note) []byte {
	return []byte(n.Title + "\n\n" + n.Body)
}

// Import splits plain text content into a title and body. The first line is
// the title (DefaultTitle when blank); one blank separator line after it is
// consumed, the remainder is the body verbatim. Import accepts any content
// permissively and fails only when data is not valid UTF-8 text.
func Import(data []byte) (title, body string, err error) {
	if !utf8.Valid(data) {
		return "", "", fmt.Errorf("textfile: content is not valid UTF-8: %w", apperr.ErrFormat)
	}
	s := string(data)

	first, rest, hasRest := strings.Cut(s, "\n")
	title = strings.TrimRight(first, "\r")
	if strings.TrimSpace(title) == "" {
		title = DefaultTitle
	}
	if !hasRest {
		return title, "", nil
	}
	// Consume the single separator line Export emits, if present.
	if sep, after, ok := strings.Cut(rest, "\n"); ok && strings.TrimRight(sep, "\r") == "" {
		return title, after, nil
	} else if !ok && strings.TrimRight(rest, "\r") == "" {
		return title, "", nil
	}
	return title, rest, nil
}
