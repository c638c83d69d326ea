// Package prompts holds the prompt shared by every extraction provider.
package prompts

import "fmt"

// SystemPrompt instructs the model to act as a strict JSON extractor
const SystemPrompt = "You are a strict JSON extractor. Given an email subject and body, return only valid JSON " +
	"with keys: invoice_number (or null), po_number (or null), invoice_amount (number or null), " +
	"po_amount (number or null), currency (ISO 4217 code or null), supplier_name (string or null), " +
	"issue_summary (short string), confidence (number between 0 and 1). " +
	"Amounts should be numbers (no currency symbols). Invoice format: INV-1234. PO format: 45xxxxx."

const userPromptFormat = "Email SUBJECT:\n%s\n\nEmail BODY:\n%s\n\nReturn the JSON only."

// UserPrompt renders the user message for an email
func UserPrompt(subject, body string) string {
	return fmt.Sprintf(userPromptFormat, subject, body)
}

// Combined renders system and user prompt as one message for providers without a system role
func Combined(subject, body string) string {
	return SystemPrompt + "\n\n" + UserPrompt(subject, body)
}
