package narration

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
)

// DocumentRequest describes an exportable speaker-notes document.
type DocumentRequest struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	Number   int    `json:"number"`
	Notes    string `json:"notes"`
	Duration string `json:"duration"`
}

// Document is a speaker-notes export in Markdown and HTML.
type Document struct {
	Filename string `json:"filename"`
	Markdown string `json:"markdown"`
	HTML     string `json:"html"`
}

func newMarkdownRenderer() goldmark.Markdown {
	return goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	)
}

// FormatDocument lays out a slide's notes under a heading with subtitle and duration.
func FormatDocument(request DocumentRequest) string {
	return fmt.Sprintf("### Slide %d: %s\n**%s**\n%s\n\n%s",
		request.Number, request.Title, request.Subtitle, request.Duration, strings.TrimSpace(request.Notes))
}

func renderHTML(markdown goldmark.Markdown, source string) (string, error) {
	var buffer bytes.Buffer
	if err := markdown.Convert([]byte(source), &buffer); err != nil {
		return "", err
	}
	return buffer.String(), nil
}
