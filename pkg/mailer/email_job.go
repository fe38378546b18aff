package mailer

// EmailJob is a rendered or template-based email ready to hand to Mailgun.
// HTML is optional; Text is recommended as fallback.
type EmailJob struct {
	To       string `json:"to"`
	Subject  string `json:"subject,omitempty"`
	Text     string `json:"text,omitempty"`
	HTML     string `json:"html,omitempty"`
	Template string `json:"template,omitempty"` // e.g. "new_report"
	Data     any    `json:"data,omitempty"`
}
