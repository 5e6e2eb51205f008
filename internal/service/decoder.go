package service

import (
	"encoding/base64"
	"strings"

	"zlatko/internal/mailbox"
)

const (
	mimeTextPlain = "text/plain"
	mimeTextHTML  = "text/html"
)

// DecodeBody extracts the text body of a message payload. Plain text is
// preferred anywhere in the tree, HTML is the fallback, and the first match of
// a depth-first in-order walk wins. A payload without a decodable text part
// yields "".
func DecodeBody(payload *mailbox.Part) string {
	if payload == nil {
		return ""
	}

	if len(payload.Parts) == 0 {
		switch mediaType(payload.MimeType) {
		case mimeTextPlain, mimeTextHTML, "":
			text, _ := decodeData(payload.Data)
			return text
		}
		return ""
	}

	if text, ok := findText(payload.Parts, mimeTextPlain); ok {
		return text
	}
	if text, ok := findText(payload.Parts, mimeTextHTML); ok {
		return text
	}
	return ""
}

func findText(parts []*mailbox.Part, want string) (string, bool) {
	for _, part := range parts {
		if part == nil {
			continue
		}
		if mediaType(part.MimeType) == want {
			if text, ok := decodeData(part.Data); ok {
				return text, true
			}
		}
		if text, ok := findText(part.Parts, want); ok {
			return text, true
		}
	}
	return "", false
}

func mediaType(mimeType string) string {
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	return strings.ToLower(strings.TrimSpace(mimeType))
}

var bodyEncodings = []*base64.Encoding{
	base64.URLEncoding,
	base64.RawURLEncoding,
	base64.StdEncoding,
	base64.RawStdEncoding,
}

// decodeData reports false for empty or undecodable data
func decodeData(data string) (string, bool) {
	data = strings.TrimSpace(data)
	if data == "" {
		return "", false
	}
	for _, enc := range bodyEncodings {
		if raw, err := enc.DecodeString(data); err == nil && len(raw) > 0 {
			return string(raw), true
		}
	}
	return "", false
}
