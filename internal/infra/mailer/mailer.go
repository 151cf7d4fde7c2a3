package mailer

import (
	"context"
	"fmt"

	"github.com/gsoultan/gsmail"
	gsmtp "github.com/gsoultan/gsmail/smtp"
	"go.uber.org/zap"

	"github.com/OPCFoundation/UA-NodesetEditor/internal/core/domain"
	"github.com/OPCFoundation/UA-NodesetEditor/internal/core/port"
	"github.com/OPCFoundation/UA-NodesetEditor/internal/infra/config"
	"github.com/OPCFoundation/UA-NodesetEditor/internal/infra/logger"
)

const decisionTemplate = `<p>Hello {{.Author}},</p>
<p>The status of your profile submission has changed.</p>
<p><b>Profile:</b> {{.Title}}<br/>
<b>Namespace:</b> {{.Namespace}}<br/>
<b>New status:</b> {{.Summary}}</p>
{{if .Description}}<p><b>Reviewer notes:</b> {{.Description}}</p>{{end}}
<p>You can review your submissions in the <a href="{{.PortalBase}}/profiles">profile designer</a>.</p>
`

const cancelTemplate = `<p>Hello {{.Requester}},</p>
<p>Your publish request for <b>{{.Title}}</b> ({{.Namespace}}) has been cancelled
and the profile was removed from the submission queue.</p>
<p>You can publish it again at any time from the <a href="{{.PortalBase}}/profiles">profile designer</a>.</p>
`

// Mailer delivers submission notifications over SMTP.
type Mailer struct {
	sender     gsmail.Sender
	from       string
	portalBase string
	logger     *zap.Logger
}

// New constructs an SMTP-backed notifier.
func New(cfg config.SMTPSettings, log *zap.Logger) *Mailer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Mailer{
		sender:     gsmtp.NewSender(cfg.Host, cfg.Port, cfg.Username, cfg.Password, cfg.SSL),
		from:       cfg.From,
		portalBase: cfg.PortalBase,
		logger:     log,
	}
}

// NotifyApproved emails the author that their submission was approved.
func (m *Mailer) NotifyApproved(ctx context.Context, submission domain.Submission, changeSummary string, author domain.User) error {
	subject := fmt.Sprintf("Profile submission approved: %s", displayTitle(submission))
	return m.sendDecision(ctx, subject, submission, changeSummary, author)
}

// NotifyRejected emails the author that their submission was rejected.
func (m *Mailer) NotifyRejected(ctx context.Context, submission domain.Submission, changeSummary string, author domain.User) error {
	subject := fmt.Sprintf("Profile submission rejected: %s", displayTitle(submission))
	return m.sendDecision(ctx, subject, submission, changeSummary, author)
}

// NotifyStatusChanged emails the author about any other status transition.
func (m *Mailer) NotifyStatusChanged(ctx context.Context, submission domain.Submission, changeSummary string, author domain.User) error {
	subject := fmt.Sprintf("Profile submission status changed: %s", displayTitle(submission))
	return m.sendDecision(ctx, subject, submission, changeSummary, author)
}

func (m *Mailer) sendDecision(ctx context.Context, subject string, submission domain.Submission, changeSummary string, author domain.User) error {
	if author.Email == "" {
		return fmt.Errorf("author %d has no email address", author.ID)
	}

	email := gsmail.Email{
		From:    m.from,
		To:      []string{author.Email},
		Subject: subject,
	}
	if err := email.SetBody(decisionTemplate, map[string]any{
		"Author":      author.DisplayName,
		"Title":       displayTitle(submission),
		"Namespace":   submission.Namespace,
		"Summary":     changeSummary,
		"Description": submission.ApprovalDescription,
		"PortalBase":  m.portalBase,
	}); err != nil {
		return fmt.Errorf("render decision email: %w", err)
	}

	m.logger.Debug("sending decision notification",
		zap.String("submission_id", submission.ID),
		zap.String("to", logger.MaskEmail(author.Email)),
	)

	return m.sender.Send(ctx, email)
}

// NotifyCancelled emails the requesting author that their publish request was withdrawn.
func (m *Mailer) NotifyCancelled(ctx context.Context, profile domain.LocalProfile, requester domain.User) error {
	if requester.Email == "" {
		return fmt.Errorf("user %d has no email address", requester.ID)
	}

	title := profile.Title
	if title == "" {
		title = profile.Namespace
	}

	email := gsmail.Email{
		From:    m.from,
		To:      []string{requester.Email},
		Subject: fmt.Sprintf("Publish request cancelled: %s", title),
	}
	if err := email.SetBody(cancelTemplate, map[string]any{
		"Requester":  requester.DisplayName,
		"Title":      title,
		"Namespace":  profile.Namespace,
		"PortalBase": m.portalBase,
	}); err != nil {
		return fmt.Errorf("render cancel email: %w", err)
	}

	m.logger.Debug("sending cancel notification",
		zap.Int("profile_id", profile.ID),
		zap.String("to", logger.MaskEmail(requester.Email)),
	)

	return m.sender.Send(ctx, email)
}

func displayTitle(submission domain.Submission) string {
	if submission.Title != "" {
		return submission.Title
	}
	return submission.Namespace
}

var _ port.Notifier = (*Mailer)(nil)
