package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/resend/resend-go/v2"
)

// ResendNotifier emails booking confirmations via the Resend API
type ResendNotifier struct {
	client      *resend.Client
	fromAddress string
	recipient   string
}

// NewResendNotifier creates a new Resend email notifier. Returns nil when no
// API key is configured, which disables email confirmations.
func NewResendNotifier(apiKey, from, recipient string) *ResendNotifier {
	if apiKey == "" {
		return nil
	}
	return &ResendNotifier{
		client:      resend.NewClient(apiKey),
		fromAddress: from,
		recipient:   recipient,
	}
}

// Name returns the notifier name
func (r *ResendNotifier) Name() string {
	return "resend"
}

// IsConfigured returns true if the notifier has server-side config
func (r *ResendNotifier) IsConfigured() bool {
	return r.client != nil && r.fromAddress != "" && r.recipient != ""
}

// Send emails a confirmation for a booked appointment
func (r *ResendNotifier) Send(ctx context.Context, conf Confirmation) error {
	if !r.IsConfigured() {
		return fmt.Errorf("resend notifier is not configured")
	}

	subject := fmt.Sprintf("Appointment booked: %s", conf.StartTime.Format("Jan 2, 3:04 PM"))
	params := &resend.SendEmailRequest{
		From:    r.fromAddress,
		To:      []string{r.recipient},
		Subject: subject,
		Html:    r.formatEmailHTML(conf),
	}

	if _, err := r.client.Emails.Send(params); err != nil {
		return fmt.Errorf("resend send failed: %w", err)
	}

	fmt.Printf("Confirmation email sent to %s for %s\n", r.recipient, conf.StartTime.Format(time.RFC3339))
	return nil
}

// formatEmailHTML creates the HTML email body
func (r *ResendNotifier) formatEmailHTML(conf Confirmation) string {
	startStr := conf.StartTime.Format("Monday, January 2, 2006 at 3:04 PM")
	endStr := conf.EndTime.Format("3:04 PM")

	linkHTML := ""
	if conf.EventLink != "" {
		linkHTML = fmt.Sprintf(`
    <a href="%s" style="display: inline-block; background: #007bff; color: white; padding: 12px 24px; text-decoration: none; border-radius: 6px; margin-top: 16px; font-weight: 500;">
      Open in Calendar
    </a>`, conf.EventLink)
	}

	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px; background-color: #f5f5f5;">
  <div style="background-color: white; border-radius: 8px; padding: 24px; box-shadow: 0 2px 4px rgba(0,0,0,0.1);">
    <div style="margin-bottom: 16px;">
      <span style="background-color: #28a745; color: white; padding: 4px 12px; border-radius: 4px; font-size: 12px; font-weight: 600;">Appointment Booked</span>
    </div>

    <div style="background: #f8f9fa; padding: 16px; border-radius: 8px; margin: 16px 0; border-left: 4px solid #007bff;">
      <p style="margin: 8px 0;"><strong>When:</strong> %s - %s</p>
      <p style="margin: 8px 0;"><strong>Requested as:</strong> %s</p>
    </div>
    %s

    <hr style="margin-top: 32px; border: none; border-top: 1px solid #eee;">
    <p style="color: #999; font-size: 12px; margin-top: 16px;">
      Booking Agent - Calendar Assistant<br>
      <span style="color: #ccc;">Sent at %s</span>
    </p>
  </div>
</body>
</html>`,
		startStr,
		endStr,
		conf.Utterance,
		linkHTML,
		time.Now().Format("Jan 2, 2006 3:04 PM"),
	)
}
