package services

import (
	"mime"
	"strings"
)

// Report formats the API can serve.
const (
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
)

// ContentType returns the media type of a report format.
func ContentType(format string) string {
	if format == FormatJSON {
		return "application/json"
	}
	return "text/markdown; charset=utf-8"
}

// NegotiateFormat picks the report format from an explicit ?format= value or
// the Accept header. Markdown is the default.
func NegotiateFormat(explicit, accept string) string {
	switch strings.ToLower(explicit) {
	case "json":
		return FormatJSON
	case "md", "markdown":
		return FormatMarkdown
	}
	for _, part := range strings.Split(accept, ",") {
		mt, _, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		switch mt {
		case "application/json":
			return FormatJSON
		case "text/markdown", "text/plain", "text/*", "*/*":
			return FormatMarkdown
		}
	}
	return FormatMarkdown
}
