package service

import (
	"fmt"
	"strings"
)

// PreviewContentPolicy is the content security policy applied to rendered
// previews. All network access and external resources are blocked; inline
// style/script are permitted because the document only ever contains the
// author's own code and is rendered inside a sandboxed frame.
const PreviewContentPolicy = "default-src 'none'; img-src data:; style-src 'unsafe-inline'; script-src 'unsafe-inline'; frame-ancestors 'none'"

// BuildPreview composes the draft HTML, CSS and JS into one self-contained
// document suitable for rendering untrusted student code in an isolated
// iframe. Pure function, no side effects.
func BuildPreview(html, css, js string) string {
	var doc strings.Builder

	doc.WriteString("<!DOCTYPE html>\n<html lang=\"id\">\n<head>\n")
	doc.WriteString("<meta charset=\"utf-8\">\n")
	doc.WriteString(fmt.Sprintf("<meta http-equiv=\"Content-Security-Policy\" content=\"%s\">\n", PreviewContentPolicy))
	doc.WriteString("<meta name=\"viewport\" content=\"width=device-width, initial-scale=1\">\n")

	if css != "" {
		doc.WriteString("<style>\n")
		doc.WriteString(css)
		doc.WriteString("\n</style>\n")
	}

	doc.WriteString("</head>\n<body>\n")
	doc.WriteString(html)
	doc.WriteString("\n")

	if js != "" {
		doc.WriteString("<script>\n")
		doc.WriteString(js)
		doc.WriteString("\n</script>\n")
	}

	doc.WriteString("</body>\n</html>\n")

	return doc.String()
}
