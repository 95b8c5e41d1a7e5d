package notification

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"
	"time"
)

const resetSubject = "Reset your Expense Tracker password"

var resetHTML = htmltemplate.Must(htmltemplate.New("reset_html").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
  <h2>Password reset</h2>
  <p>Hi {{.Name}},</p>
  <p>We received a request to reset your password. The link below is valid for {{.ValidFor}}.</p>
  <p><a href="{{.Link}}" style="background:#4ECDC4;color:#fff;padding:10px 16px;text-decoration:none;border-radius:4px;">Reset password</a></p>
  <p>If the button does not work, copy this address into your browser:<br>{{.Link}}</p>
  <p>If you did not ask for a reset you can ignore this email.</p>
</body>
</html>`))

var resetText = texttemplate.Must(texttemplate.New("reset_text").Parse(`Hi {{.Name}},

We received a request to reset your password. Open the link below within {{.ValidFor}}:

{{.Link}}

If you did not ask for a reset you can ignore this email.
`))

// ResetData fills the password reset email.
type ResetData struct {
	Name     string
	Link     string
	ValidFor time.Duration
}

type resetView struct {
	Name     string
	Link     string
	ValidFor string
}

// ResetEmail renders the password reset message addressed to to.
func ResetEmail(to string, data ResetData) (Message, error) {
	view := resetView{Name: data.Name, Link: data.Link, ValidFor: humanDuration(data.ValidFor)}
	if view.Name == "" {
		view.Name = "there"
	}

	var html, text bytes.Buffer
	if err := resetHTML.Execute(&html, view); err != nil {
		return Message{}, fmt.Errorf("render reset html: %w", err)
	}
	if err := resetText.Execute(&text, view); err != nil {
		return Message{}, fmt.Errorf("render reset text: %w", err)
	}
	return Message{To: to, Subject: resetSubject, HTML: html.String(), Text: text.String()}, nil
}

func humanDuration(d time.Duration) string {
	if d >= time.Hour && d%time.Hour == 0 {
		h := int(d / time.Hour)
		if h == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", h)
	}
	m := int(d / time.Minute)
	if m == 1 {
		return "1 minute"
	}
	return fmt.Sprintf("%d minutes", m)
}
