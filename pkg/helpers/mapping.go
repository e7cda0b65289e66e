package helpers

import (
	"fmt"
	"strings"

	"github.com/oksasatya/videotube/pkg/mailer"
	mailtpl "github.com/oksasatya/videotube/pkg/mailer/templates"
)

func SubjectFor(template string) string {
	switch strings.ToLower(template) {
	case mailtpl.Welcome:
		return "Welcome to VideoTube"
	case mailtpl.PasswordChanged:
		return "Your password was changed"
	default:
		return "Notification"
	}
}

// EnsureRecipientAndEmail fills Email/RecipientEmail from the job recipient when the producer left them out.
func EnsureRecipientAndEmail(job *mailer.EmailJob) {
	if job.Data == nil {
		job.Data = map[string]any{}
	}
	if v, ok := job.Data["Email"]; !ok || fmt.Sprintf("%v", v) == "" {
		job.Data["Email"] = job.To
	}
	if v, ok := job.Data["RecipientEmail"]; !ok || fmt.Sprintf("%v", v) == "" {
		job.Data["RecipientEmail"] = job.To
	}
}
