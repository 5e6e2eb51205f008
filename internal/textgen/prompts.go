package textgen

import (
	"fmt"
	"strings"

	"zlatko/internal/model"
)

// SummaryPrompt asks for a one or two sentence summary of an email excerpt
func SummaryPrompt(excerpt string) string {
	return fmt.Sprintf(`Summarize the following email in one or two short sentences for a sales CRM.
Mention any request, commitment or date. Reply with the summary only.

EMAIL:
%s

SUMMARY:`, excerpt)
}

// DraftPrompt asks for an outreach email as a JSON object with subject and body
func DraftPrompt(p model.Prospect, recent []model.Communication, instructions string) string {
	var b strings.Builder

	b.WriteString("You write concise, friendly B2B outreach emails.\n\n")
	fmt.Fprintf(&b, "Company: %s\n", p.Company)
	if p.ContactName != "" {
		fmt.Fprintf(&b, "Contact: %s\n", p.ContactName)
	}
	fmt.Fprintf(&b, "Stage: %s\n", p.Stage)
	fmt.Fprintf(&b, "Last contact: %s\n", model.FormatDay(p.LastContactDate))
	if p.Notes != "" {
		fmt.Fprintf(&b, "Notes: %s\n", p.Notes)
	}

	if len(recent) > 0 {
		b.WriteString("\nRecent history (newest first):\n")
		for _, c := range recent {
			line := c.Subject
			if c.AISummary != "" {
				line += " - " + c.AISummary
			}
			fmt.Fprintf(&b, "- %s %s %s: %s\n", c.CreatedAt.UTC().Format("2006-01-02"), c.Type, c.Direction, line)
		}
	}

	if instructions != "" {
		fmt.Fprintf(&b, "\nInstructions: %s\n", instructions)
	}

	b.WriteString("\nReturn ONLY a JSON object of the form {\"subject\": \"...\", \"body\": \"...\"}.")
	return b.String()
}
