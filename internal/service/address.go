package service

import (
	"strings"

	"zlatko/internal/model"
)

// ExtractAddress returns the address inside angle brackets of a header such
// as `"Alice" <alice@corp.com>`, or the trimmed value when there are none.
func ExtractAddress(header string) string {
	start := strings.LastIndex(header, "<")
	if start >= 0 {
		if end := strings.Index(header[start:], ">"); end > 0 {
			return strings.TrimSpace(header[start+1 : start+end])
		}
	}
	return strings.TrimSpace(header)
}

// ClassifyDirection is inbound when the sender address contains the
// prospect address, case-insensitively. Substring matching means a prospect
// address that is part of an unrelated sender address also counts.
func ClassifyDirection(from, prospectEmail string) model.Direction {
	sender := strings.ToLower(ExtractAddress(from))
	known := strings.ToLower(strings.TrimSpace(prospectEmail))
	if known != "" && strings.Contains(sender, known) {
		return model.DirectionInbound
	}
	return model.DirectionOutbound
}
