package billtext

import (
	"bytes"
	"encoding/base64"
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Kind tags the decoded shape of an upstream document body. The feed does
// not label what it returns, so the shape has to be inferred.
type Kind int

const (
	KindEmpty Kind = iota
	KindDirectURL
	KindInlineText
	KindInlinePDF
)

// Document is the classified form of one upstream document body.
type Document struct {
	Kind Kind
	Text string // plain text, HTML already stripped (KindInlineText)
	PDF  []byte // raw PDF bytes (KindInlinePDF)
	URL  string // direct link (KindDirectURL)
}

var pdfSignature = []byte("%PDF-")

var (
	base64Shape = regexp.MustCompile(`^[A-Za-z0-9+/=\s]+$`)
	stripPolicy = bluemonday.StrictPolicy()
	spaceRuns   = regexp.MustCompile(`[ \t\r\f]+`)
	blankRuns   = regexp.MustCompile(`\n{3,}`)
)

// Classify inspects a raw document body and decides whether it is a direct
// link, inline encoded PDF bytes, inline text (possibly HTML, possibly
// base64-wrapped), or nothing usable.
func Classify(raw string) Document {
	body := strings.TrimSpace(raw)
	if body == "" {
		return Document{Kind: KindEmpty}
	}

	if strings.HasPrefix(body, "http://") || strings.HasPrefix(body, "https://") {
		return Document{Kind: KindDirectURL, URL: body}
	}

	if decoded, ok := decodeBase64(body); ok {
		if bytes.HasPrefix(decoded, pdfSignature) {
			return Document{Kind: KindInlinePDF, PDF: decoded}
		}
		if printableRatio(decoded) >= 0.8 {
			if text := NormalizeText(string(decoded)); text != "" {
				return Document{Kind: KindInlineText, Text: text}
			}
			return Document{Kind: KindEmpty}
		}
		// Decodable but binary and not a PDF: nothing we can use.
		return Document{Kind: KindEmpty}
	}

	// Not base64-shaped: treat as literal text.
	if text := NormalizeText(body); text != "" {
		return Document{Kind: KindInlineText, Text: text}
	}
	return Document{Kind: KindEmpty}
}

// decodeBase64 decodes body if it is base64-shaped. Short strings are left
// alone; ordinary prose can be accidentally valid base64.
func decodeBase64(body string) ([]byte, bool) {
	if len(body) < 64 || !base64Shape.MatchString(body) {
		return nil, false
	}
	compact := strings.Map(func(r rune) rune {
		if r == ' ' || r == '\n' || r == '\r' || r == '\t' {
			return -1
		}
		return r
	}, body)
	if len(compact)%4 != 0 {
		return nil, false
	}
	decoded, err := base64.StdEncoding.DecodeString(compact)
	if err != nil {
		return nil, false
	}
	return decoded, true
}

func printableRatio(b []byte) float64 {
	if len(b) == 0 {
		return 0
	}
	printable := 0
	for _, c := range b {
		if c == '\n' || c == '\r' || c == '\t' || (c >= 0x20 && c < 0x7f) {
			printable++
		}
	}
	return float64(printable) / float64(len(b))
}

// NormalizeText strips HTML markup and collapses whitespace.
func NormalizeText(s string) string {
	if strings.Contains(s, "<") && strings.Contains(s, ">") {
		s = stripPolicy.Sanitize(s)
		s = html.UnescapeString(s)
	}
	s = spaceRuns.ReplaceAllString(s, " ")
	s = blankRuns.ReplaceAllString(s, "\n\n")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// Readable reports whether normalized text is substantive enough to feed the
// summarizer: long enough, enough words, and actual sentences.
func Readable(s string) bool {
	if len(s) < minReadableChars {
		return false
	}
	if len(strings.Fields(s)) < 40 {
		return false
	}
	return strings.ContainsAny(s, ".!?;")
}
