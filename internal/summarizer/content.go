package summarizer

import (
	"regexp"
	"strings"

	"github.com/go-shiori/go-readability"
)

var (
	htmlTag           = regexp.MustCompile(`<[a-zA-Z][^>]*>`)
	anyTag            = regexp.MustCompile(`</?[a-zA-Z][^>]*>`)
	redundantNewLines = regexp.MustCompile(`\n{3,}`)
)

// prepareContent turns feed content into plain text for the prompt. Feeds
// often ship HTML bodies; when readability finds nothing the tags are stripped.
func prepareContent(content string) string {
	content = strings.TrimSpace(content)
	if !htmlTag.MatchString(content) {
		return content
	}

	var text string
	if doc, err := readability.FromReader(strings.NewReader(content), nil); err == nil {
		text = doc.TextContent
	}
	if strings.TrimSpace(text) == "" {
		text = anyTag.ReplaceAllString(content, "")
	}

	return strings.TrimSpace(redundantNewLines.ReplaceAllString(text, "\n"))
}
