// Package mail e-mails new contact submissions to the site owner.
package mail

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"
	"time"

	gomail "github.com/wneessen/go-mail"

	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/domain"
	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/platform/config"
)

// Subject prefixes every notification subject line.
const Subject = "رسالة جديدة من نموذج التواصل"

// Sender delivers composed messages. *gomail.Client satisfies it.
type Sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*gomail.Msg) error
}

// Notifier composes and sends contact notifications.
type Notifier struct {
	sender Sender
	from   string
	to     []string
	loc    *time.Location
}

var errNotConfigured = errors.New("mail: notifier is not configured")

var bodyTemplate = template.Must(template.New("contact").Parse(`<!DOCTYPE html>
<html lang="ar" dir="rtl">
<body style="font-family: Tahoma, Arial, sans-serif; background-color: #f4f4f4; padding: 20px;">
  <table width="600" cellpadding="0" cellspacing="0" style="background-color: #ffffff; border-radius: 8px; padding: 24px;">
    <tr><td><h2 style="margin: 0 0 16px 0;">{{ .Subject }}</h2></td></tr>
    <tr><td><strong>الاسم:</strong> {{ .Name }}</td></tr>
    {{- if .Phone }}
    <tr><td><strong>رقم الهاتف:</strong> {{ .Phone }}</td></tr>
    {{- end }}
    {{- if .Email }}
    <tr><td><strong>البريد الإلكتروني:</strong> {{ .Email }}</td></tr>
    {{- end }}
    <tr><td style="padding-top: 16px; white-space: pre-wrap;">{{ .Message }}</td></tr>
    <tr><td style="padding-top: 16px; color: #999; font-size: 12px;">{{ .SubmittedAt }}</td></tr>
  </table>
</body>
</html>`))

// NewNotifier builds an SMTP-backed notifier from cfg. It returns (nil, nil)
// when SMTP is not configured so callers can skip e-mail entirely.
func NewNotifier(cfg config.MailConfig) (*Notifier, error) {
	host := strings.TrimSpace(cfg.Host)
	if host == "" {
		return nil, nil
	}
	opts := []gomail.Option{
		gomail.WithPort(cfg.Port),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15 * time.Second),
	}
	if cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Username),
			gomail.WithPassword(cfg.Password),
		)
	}
	client, err := gomail.NewClient(host, opts...)
	if err != nil {
		return nil, fmt.Errorf("mail: create smtp client (host=%s port=%d): %w", host, cfg.Port, err)
	}
	return NewNotifierWithSender(client, cfg.From, cfg.To)
}

// NewNotifierWithSender wires an arbitrary sender.
func NewNotifierWithSender(sender Sender, from string, to []string) (*Notifier, error) {
	if sender == nil {
		return nil, errors.New("mail: sender is required")
	}
	from = strings.TrimSpace(from)
	if from == "" {
		return nil, errors.New("mail: from address is required")
	}
	recipients := make([]string, 0, len(to))
	for _, addr := range to {
		if addr = strings.TrimSpace(addr); addr != "" {
			recipients = append(recipients, addr)
		}
	}
	if len(recipients) == 0 {
		return nil, errors.New("mail: at least one recipient is required")
	}
	loc, err := time.LoadLocation("Asia/Riyadh")
	if err != nil {
		loc = time.UTC
	}
	return &Notifier{sender: sender, from: from, to: recipients, loc: loc}, nil
}

// Compose renders the notification for msg without sending it.
func (n *Notifier) Compose(msg domain.ContactMessage) (*gomail.Msg, error) {
	if n == nil {
		return nil, errNotConfigured
	}
	m := gomail.NewMsg()
	if err := m.From(n.from); err != nil {
		return nil, fmt.Errorf("mail: from: %w", err)
	}
	if err := m.To(n.to...); err != nil {
		return nil, fmt.Errorf("mail: to: %w", err)
	}
	if email := strings.TrimSpace(msg.Email); email != "" {
		// An invalid visitor address only loses the Reply-To header.
		_ = m.ReplyTo(email)
	}
	subject := Subject + ": " + strings.TrimSpace(msg.Name)
	m.Subject(subject)

	submitted := msg.CreatedAt
	if submitted.IsZero() {
		submitted = time.Now()
	}
	data := map[string]string{
		"Subject":     Subject,
		"Name":        msg.Name,
		"Phone":       msg.Phone,
		"Email":       msg.Email,
		"Message":     msg.Message,
		"SubmittedAt": submitted.In(n.loc).Format("2006-01-02 15:04"),
	}
	var html bytes.Buffer
	if err := bodyTemplate.Execute(&html, data); err != nil {
		return nil, fmt.Errorf("mail: render body: %w", err)
	}
	m.SetBodyString(gomail.TypeTextPlain, plainBody(data))
	m.AddAlternativeString(gomail.TypeTextHTML, html.String())
	return m, nil
}

// NotifyContact composes and sends the notification for msg.
func (n *Notifier) NotifyContact(ctx context.Context, msg domain.ContactMessage) error {
	if n == nil || n.sender == nil {
		return errNotConfigured
	}
	m, err := n.Compose(msg)
	if err != nil {
		return err
	}
	if err := n.sender.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("mail: send contact notification: %w", err)
	}
	return nil
}

func plainBody(data map[string]string) string {
	var b strings.Builder
	b.WriteString(data["Subject"] + "\n\n")
	b.WriteString("الاسم: " + data["Name"] + "\n")
	if data["Phone"] != "" {
		b.WriteString("رقم الهاتف: " + data["Phone"] + "\n")
	}
	if data["Email"] != "" {
		b.WriteString("البريد الإلكتروني: " + data["Email"] + "\n")
	}
	b.WriteString("\n" + data["Message"] + "\n\n" + data["SubmittedAt"] + "\n")
	return b.String()
}
