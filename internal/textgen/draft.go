package textgen

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// DraftKind tags how a generated draft was understood
type DraftKind string

const (
	DraftStructured DraftKind = "structured"
	DraftRaw        DraftKind = "raw"
)

// Draft is either a structured subject/body pair or the raw generated text
type Draft struct {
	Kind    DraftKind `json:"kind"`
	Subject string    `json:"subject,omitempty"`
	Body    string    `json:"body,omitempty"`
	Text    string    `json:"text,omitempty"`
}

var (
	codeFence    = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*(.*?)\\s*```$")
	subjectField = regexp.MustCompile(`"subject"\s*:\s*"((?:[^"\\]|\\.)*)"`)
	bodyField    = regexp.MustCompile(`"body"\s*:\s*"((?:[^"\\]|\\.)*)"`)
)

// ParseDraft interprets generator output. It strips code fences, then tries
// a JSON object, then field extraction, and falls back to the raw text.
func ParseDraft(output string) Draft {
	text := strings.TrimSpace(output)
	if m := codeFence.FindStringSubmatch(text); m != nil {
		text = strings.TrimSpace(m[1])
	}

	if d, ok := parseDraftJSON(text); ok {
		return d
	}
	if start, end := strings.Index(text, "{"), strings.LastIndex(text, "}"); start != -1 && end > start {
		if d, ok := parseDraftJSON(text[start : end+1]); ok {
			return d
		}
	}

	subject, okSubject := extractField(subjectField, text)
	body, okBody := extractField(bodyField, text)
	if okSubject && okBody {
		return Draft{Kind: DraftStructured, Subject: subject, Body: body}
	}

	return Draft{Kind: DraftRaw, Text: text}
}

func parseDraftJSON(text string) (Draft, bool) {
	var fields struct {
		Subject string `json:"subject"`
		Body    string `json:"body"`
	}
	if err := json.Unmarshal([]byte(text), &fields); err != nil {
		return Draft{}, false
	}
	if fields.Subject == "" || fields.Body == "" {
		return Draft{}, false
	}
	return Draft{Kind: DraftStructured, Subject: fields.Subject, Body: fields.Body}, true
}

func extractField(re *regexp.Regexp, text string) (string, bool) {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	value, err := strconv.Unquote(`"` + m[1] + `"`)
	if err != nil {
		return m[1], true
	}
	return value, true
}
