package mail

import (
	"context"
	"errors"
	"mime"
	"strings"
	"testing"
	"time"

	gomail "github.com/wneessen/go-mail"

	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/domain"
	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/platform/config"
)

type captureSender struct {
	sent []*gomail.Msg
	err  error
}

func (c *captureSender) DialAndSendWithContext(_ context.Context, messages ...*gomail.Msg) error {
	if c.err != nil {
		return c.err
	}
	c.sent = append(c.sent, messages...)
	return nil
}

func TestNotifyContactSendsToOwners(t *testing.T) {
	sender := &captureSender{}
	n, err := NewNotifierWithSender(sender, "site@example.com", []string{"owner@example.com", " ", "sales@example.com"})
	if err != nil {
		t.Fatalf("NewNotifierWithSender: %v", err)
	}
	msg := domain.ContactMessage{
		ID:        "m1",
		Name:      "Ali",
		Email:     "ali@example.com",
		Message:   "Hello",
		CreatedAt: time.Date(2025, 5, 6, 9, 0, 0, 0, time.UTC),
	}
	if err := n.NotifyContact(context.Background(), msg); err != nil {
		t.Fatalf("NotifyContact: %v", err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("expected one message, got %d", len(sender.sent))
	}
	sent := sender.sent[0]
	recipients, err := sent.GetRecipients()
	if err != nil {
		t.Fatalf("GetRecipients: %v", err)
	}
	if len(recipients) != 2 {
		t.Fatalf("expected blank recipient dropped, got %v", recipients)
	}
	subject := sent.GetGenHeader(gomail.HeaderSubject)
	if len(subject) != 1 {
		t.Fatalf("unexpected subject %v", subject)
	}
	decoded, err := new(mime.WordDecoder).DecodeHeader(subject[0])
	if err != nil {
		t.Fatalf("decode subject %q: %v", subject[0], err)
	}
	if !strings.HasSuffix(decoded, ": Ali") {
		t.Fatalf("unexpected subject %q", decoded)
	}
}

func TestNotifyContactWrapsSendError(t *testing.T) {
	boom := errors.New("smtp down")
	n, err := NewNotifierWithSender(&captureSender{err: boom}, "site@example.com", []string{"owner@example.com"})
	if err != nil {
		t.Fatalf("NewNotifierWithSender: %v", err)
	}
	err = n.NotifyContact(context.Background(), domain.ContactMessage{Name: "Ali", Message: "Hello"})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped send error, got %v", err)
	}
}

func TestPlainBodySkipsEmptyFields(t *testing.T) {
	body := plainBody(map[string]string{"Subject": Subject, "Name": "Ali", "Message": "Hello", "SubmittedAt": "2025-05-06 12:00"})
	if strings.Contains(body, "رقم الهاتف") || strings.Contains(body, "البريد الإلكتروني") {
		t.Fatalf("expected optional fields omitted, got %q", body)
	}
	if !strings.Contains(body, "Hello") {
		t.Fatalf("expected message in body, got %q", body)
	}
}

func TestNewNotifierSkipsWithoutHost(t *testing.T) {
	n, err := NewNotifier(config.MailConfig{})
	if err != nil || n != nil {
		t.Fatalf("expected nil notifier without smtp host, got %v %v", n, err)
	}
	if _, err := NewNotifierWithSender(&captureSender{}, "", []string{"a@example.com"}); err == nil {
		t.Fatalf("expected error without from address")
	}
}
