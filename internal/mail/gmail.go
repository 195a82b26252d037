package mail

import (
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"os"
	"strings"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// GmailSender implements Sender over the Gmail API. It sends as the
// impersonated workspace user, the same account that owns the calendar
// events.
type GmailSender struct {
	svc  *gmail.Service
	from string
}

func NewGmailSender(ctx context.Context, credentialsFile, impersonate string) (*GmailSender, error) {
	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("mail: read credentials: %w", err)
	}
	jwtCfg, err := google.JWTConfigFromJSON(data, gmail.GmailSendScope)
	if err != nil {
		return nil, fmt.Errorf("mail: parse credentials: %w", err)
	}
	jwtCfg.Subject = impersonate
	svc, err := gmail.NewService(ctx, option.WithHTTPClient(jwtCfg.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("mail: new service: %w", err)
	}
	return &GmailSender{svc: svc, from: impersonate}, nil
}

func (g *GmailSender) Send(ctx context.Context, to []string, subject, htmlBody string) error {
	if len(to) == 0 {
		return nil
	}
	raw := buildMessage(g.from, to, subject, htmlBody)
	_, err := g.svc.Users.Messages.Send("me", &gmail.Message{Raw: raw}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("mail: send to %d recipients: %w", len(to), err)
	}
	return nil
}

func (g *GmailSender) SendTemplated(ctx context.Context, to, subject string, replacements map[string]string) error {
	return g.Send(ctx, []string{to}, subject, Render(replacements))
}

// buildMessage assembles an RFC 2822 message, base64url encoded as the
// Gmail API requires. Recipients go on Bcc; the visible To is the sender.
func buildMessage(from string, to []string, subject, htmlBody string) string {
	var msg strings.Builder
	msg.WriteString("From: " + from + "\r\n")
	msg.WriteString("To: " + from + "\r\n")
	msg.WriteString("Bcc: " + strings.Join(to, ", ") + "\r\n")
	msg.WriteString("Subject: " + mime.QEncoding.Encode("UTF-8", subject) + "\r\n")
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	msg.WriteString("Content-Transfer-Encoding: base64\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(base64.StdEncoding.EncodeToString([]byte(htmlBody)))
	return base64.URLEncoding.WithPadding(base64.NoPadding).EncodeToString([]byte(msg.String()))
}
