package mailer

// EmailJob is the JSON payload put on the RabbitMQ queue for sending email.
// Producers normally set Template and Data; Subject/Text/HTML are used as-is when Template is empty.
type EmailJob struct {
	To       string         `json:"to"`
	Subject  string         `json:"subject,omitempty"`
	Text     string         `json:"text,omitempty"`
	HTML     string         `json:"html,omitempty"`
	Template string         `json:"template,omitempty"` // "welcome", "password_changed"
	Data     map[string]any `json:"data,omitempty"`
}
