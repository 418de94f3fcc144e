package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/cms"
	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/domain"
	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/editor"
	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/repositories"
)

// Visitor-facing contact notices.
const (
	ContactInvalidTitle = "خطأ"
	ContactInvalidBody  = "يرجى ملء الحقول المطلوبة"
	ContactSentTitle    = "تم الإرسال بنجاح"
	ContactSentBody     = "شكراً لتواصلكم معنا. سنقوم بالرد عليكم في أقرب وقت ممكن"
	ContactFailedTitle  = "خطأ في الإرسال"
	ContactFailedBody   = "حدث خطأ أثناء إرسال الرسالة. يرجى المحاولة مرة أخرى"
)

// ContactPublisher fans a stored message out to downstream consumers.
type ContactPublisher interface {
	PublishContactSubmitted(ctx context.Context, msg domain.ContactMessage) (string, error)
}

// ContactMailer e-mails a stored message to the site owner.
type ContactMailer interface {
	NotifyContact(ctx context.Context, msg domain.ContactMessage) error
}

// ContactServiceDeps groups constructor parameters for the contact service.
type ContactServiceDeps struct {
	Messages  repositories.ContactMessageRepository
	Publisher ContactPublisher
	Mailer    ContactMailer
	Renderer  *cms.Renderer
	Logger    Logger
}

// ContactService validates and stores contact form submissions.
type ContactService struct {
	messages  repositories.ContactMessageRepository
	publisher ContactPublisher
	mailer    ContactMailer
	renderer  *cms.Renderer
	logger    Logger
}

// ContactForm is the raw form input.
type ContactForm struct {
	Name    string
	Phone   string
	Email   string
	Message string
}

// ErrContactNotStored wraps repository failures during submission.
var ErrContactNotStored = errors.New("contact: message not stored")

// NewContactService constructs the contact service. Publisher and mailer are optional.
func NewContactService(deps ContactServiceDeps) (*ContactService, error) {
	if deps.Messages == nil {
		return nil, ErrRepositoryMissing
	}
	renderer := deps.Renderer
	if renderer == nil {
		renderer = cms.NewRenderer()
	}
	return &ContactService{
		messages:  deps.Messages,
		publisher: deps.Publisher,
		mailer:    deps.Mailer,
		renderer:  renderer,
		logger:    orNop(deps.Logger),
	}, nil
}

// Submit validates the form and inserts one unread message. Missing name or
// message fails with a domain.MissingFieldsError before anything is stored.
// Publishing and e-mail run after the insert and never change the result.
func (s *ContactService) Submit(ctx context.Context, form ContactForm) (domain.ContactMessage, error) {
	msg := domain.ContactMessage{
		Name:    s.renderer.PlainText(form.Name),
		Phone:   strings.TrimSpace(form.Phone),
		Email:   strings.TrimSpace(form.Email),
		Message: s.renderer.PlainText(form.Message),
	}
	if err := msg.Validate(); err != nil {
		return domain.ContactMessage{}, err
	}

	stored, err := s.messages.Insert(ctx, msg)
	if err != nil {
		s.logger(ctx, "contact.insert.failed", map[string]any{"error": err.Error()})
		return domain.ContactMessage{}, fmt.Errorf("%w: %w", ErrContactNotStored, err)
	}
	s.logger(ctx, "contact.stored", map[string]any{"message_id": stored.ID})

	if s.publisher != nil {
		if _, err := s.publisher.PublishContactSubmitted(ctx, stored); err != nil {
			s.logger(ctx, "contact.publish.failed", map[string]any{"message_id": stored.ID, "error": err.Error()})
		}
	}
	if s.mailer != nil {
		if err := s.mailer.NotifyContact(ctx, stored); err != nil {
			s.logger(ctx, "contact.mail.failed", map[string]any{"message_id": stored.ID, "error": err.Error()})
		}
	}
	return stored, nil
}

// ContactNotice maps the outcome of Submit to the toast shown to the visitor.
func ContactNotice(err error) editor.Notice {
	switch {
	case err == nil:
		return editor.Success(ContactSentTitle, ContactSentBody)
	case errors.Is(err, domain.ErrMissingFields):
		return editor.Notice{Level: editor.LevelError, Title: ContactInvalidTitle, Body: ContactInvalidBody}
	default:
		return editor.Notice{Level: editor.LevelError, Title: ContactFailedTitle, Body: ContactFailedBody}
	}
}
