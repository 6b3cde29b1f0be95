package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

var ErrMailRejected = errors.New("mail rejected")

// Notifier sends meeting invitations.
type Notifier interface {
	SendInvite(ctx context.Context, email, invitedBy string, sessionID uuid.UUID) error
}

type mailSender interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// SendGrid sends invitations through a SendGrid dynamic template exposing
// INVITED_BY and MEETING_URL.
type SendGrid struct {
	client      mailSender
	from        string
	templateID  string
	joinURLBase string
}

func NewSendGrid(apiKey, templateID, from, joinURLBase string) *SendGrid {
	return &SendGrid{
		client:      sendgrid.NewSendClient(apiKey),
		from:        from,
		templateID:  templateID,
		joinURLBase: joinURLBase,
	}
}

func (s *SendGrid) SendInvite(ctx context.Context, email, invitedBy string, sessionID uuid.UUID) error {
	resp, err := s.client.SendWithContext(ctx, s.invitation(email, invitedBy, sessionID))
	if err != nil {
		return fmt.Errorf("send invitation: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d: %s", ErrMailRejected, resp.StatusCode, resp.Body)
	}
	return nil
}

func (s *SendGrid) invitation(email, invitedBy string, sessionID uuid.UUID) *mail.SGMailV3 {
	m := mail.NewV3Mail()
	m.SetFrom(mail.NewEmail("Stringify", s.from))
	m.SetTemplateID(s.templateID)

	p := mail.NewPersonalization()
	p.AddTos(mail.NewEmail("", email))
	p.SetDynamicTemplateData("INVITED_BY", invitedBy)
	p.SetDynamicTemplateData("MEETING_URL", s.joinURLBase+sessionID.String())
	m.AddPersonalizations(p)
	return m
}

// Disabled logs invitations instead of sending them.
type Disabled struct {
	Log *slog.Logger
}

func (d Disabled) SendInvite(_ context.Context, email, invitedBy string, sessionID uuid.UUID) error {
	d.Log.Info("Mail disabled, invitation not sent", "to", email, "invited_by", invitedBy, "session_id", sessionID)
	return nil
}

// Async sends invitations in the background. Failures are only logged.
type Async struct {
	notifier Notifier
	timeout  time.Duration
	log      *slog.Logger
	wg       sync.WaitGroup
}

func NewAsync(notifier Notifier, timeout time.Duration, log *slog.Logger) *Async {
	return &Async{notifier: notifier, timeout: timeout, log: log}
}

func (a *Async) Invite(email, invitedBy string, sessionID uuid.UUID) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		defer cancel()

		if err := a.notifier.SendInvite(ctx, email, invitedBy, sessionID); err != nil {
			a.log.Warn("Invitation failed", "to", email, "session_id", sessionID, "error", err)
			return
		}
		a.log.Info("Invitation sent", "to", email, "session_id", sessionID)
	}()
}

// Wait blocks until pending invitations are done.
func (a *Async) Wait() {
	a.wg.Wait()
}
