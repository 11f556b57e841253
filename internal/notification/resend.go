package notification

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/resend/resend-go/v3"
)

// ResendNotifier delivers messages as email through the Resend API.
type ResendNotifier struct {
	client *resend.Client
	from   string
	sender string
}

// NewResendNotifier builds an email notifier. from must belong to a domain verified in Resend.
func NewResendNotifier(apiKey, from, appName string) *ResendNotifier {
	return &ResendNotifier{
		client: resend.NewClient(apiKey),
		from:   from,
		sender: appName,
	}
}

// Send emails the message body to its destination.
func (n *ResendNotifier) Send(ctx context.Context, message Message) error {
	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("%s <%s>", n.sender, n.from),
		To:      []string{message.Destination},
		Subject: message.Subject,
		Html:    renderHTML(message),
		Text:    message.Body,
	}

	if _, err := n.client.Emails.SendWithContext(ctx, params); err != nil {
		return fmt.Errorf("send %s email: %w", message.Kind, err)
	}
	return nil
}

func renderHTML(message Message) string {
	var b strings.Builder
	b.WriteString(`<!DOCTYPE html><html><body style="font-family:Arial,Helvetica,sans-serif;">`)
	fmt.Fprintf(&b, `<h2>%s</h2>`, html.EscapeString(message.Subject))
	for _, line := range strings.Split(message.Body, "\n") {
		fmt.Fprintf(&b, `<p>%s</p>`, html.EscapeString(line))
	}
	b.WriteString(`</body></html>`)
	return b.String()
}
