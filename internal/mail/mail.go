// Package mail renders the transactional emails of the application and hands
// them to a Sender (SMTP, a Kafka relay topic, or the log).
package mail

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"

	"github.com/pkordes/atob/internal/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

// Address is a display name plus email address.
type Address struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}

// Message is a rendered email ready for delivery.
type Message struct {
	From    Address   `json:"from"`
	To      []Address `json:"to"`
	Cc      []Address `json:"cc,omitempty"`
	ReplyTo *Address  `json:"reply_to,omitempty"`
	Subject string    `json:"subject"`
	HTML    string    `json:"html"`
}

// Sender delivers a message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Settings are the fixed mailboxes used as sender and support recipient.
type Settings struct {
	NoReply Address
	Support Address
}

// Mailer builds messages from the embedded templates.
type Mailer struct {
	sender    Sender
	settings  Settings
	templates *template.Template
}

// NewMailer parses the embedded templates.
func NewMailer(sender Sender, settings Settings) (*Mailer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("mail.NewMailer: parse templates: %w", err)
	}
	return &Mailer{sender: sender, settings: settings, templates: tmpl}, nil
}

type linkData struct {
	Username string
	Email    string
	Link     string
}

// SendAccountCreated welcomes a new user with their confirmation link.
func (m *Mailer) SendAccountCreated(ctx context.Context, u domain.User, confirmURL string) error {
	return m.sendToUser(ctx, u, "Welcome to A to B, confirm your email", "account_created.html",
		linkData{Username: u.Username, Email: u.Email, Link: confirmURL})
}

// SendEmailChanged asks the user to confirm a new address.
func (m *Mailer) SendEmailChanged(ctx context.Context, u domain.User, confirmURL string) error {
	return m.sendToUser(ctx, u, "Confirm your new email address", "email_changed.html",
		linkData{Username: u.Username, Email: u.Email, Link: confirmURL})
}

// SendPasswordReset sends a single-use reset link.
func (m *Mailer) SendPasswordReset(ctx context.Context, u domain.User, resetURL string) error {
	return m.sendToUser(ctx, u, "Reset your password", "forgot_password.html",
		linkData{Username: u.Username, Email: u.Email, Link: resetURL})
}

// SendContact forwards a visitor's message to the support mailbox, copying
// the visitor when they asked for it. Replies go to the visitor.
func (m *Mailer) SendContact(ctx context.Context, req domain.ContactRequest) error {
	body, err := m.render("contact.html", req)
	if err != nil {
		return err
	}
	visitor := Address{Name: req.Name, Email: req.Email}
	msg := Message{
		From:    m.settings.NoReply,
		To:      []Address{m.settings.Support},
		ReplyTo: &visitor,
		Subject: "New contact request from: " + req.Name,
		HTML:    body,
	}
	if req.CopyToOwner {
		msg.Cc = []Address{visitor}
	}
	return m.deliver(ctx, msg)
}

func (m *Mailer) sendToUser(ctx context.Context, u domain.User, subject, tmpl string, data linkData) error {
	body, err := m.render(tmpl, data)
	if err != nil {
		return err
	}
	return m.deliver(ctx, Message{
		From:    m.settings.NoReply,
		To:      []Address{{Name: u.Username, Email: u.Email}},
		Subject: subject,
		HTML:    body,
	})
}

func (m *Mailer) render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := m.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("mail.Mailer: render %s: %w", name, err)
	}
	return buf.String(), nil
}

func (m *Mailer) deliver(ctx context.Context, msg Message) error {
	if err := m.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("mail.Mailer: send %q: %w", msg.Subject, err)
	}
	return nil
}
