// Package mail sends the invitation and reminder emails through the Gmail
// API, impersonating the configured workspace account.
package mail

import (
	"context"
	"strings"
)

// Template placeholder keys. Reminder emails fill these into the embedded
// HTML body.
const (
	VarRoomURL   = "[**VAR_OC**]"
	VarStartDate = "[**VAR_F**]"
	VarRoomName  = "[**VAR_T**]"
	VarViewerKey = "[**VAR_TD**]"
)

// Sender delivers HTML email.
type Sender interface {
	// Send delivers the body to every recipient. Recipients go on Bcc so
	// students never see each other's addresses.
	Send(ctx context.Context, to []string, subject, htmlBody string) error
	// SendTemplated renders the reminder template with the given
	// replacements and delivers it to a single recipient.
	SendTemplated(ctx context.Context, to, subject string, replacements map[string]string) error
}

// Render substitutes the placeholder keys into the reminder template.
func Render(replacements map[string]string) string {
	body := reminderTemplate
	for key, value := range replacements {
		body = strings.ReplaceAll(body, key, value)
	}
	return body
}
