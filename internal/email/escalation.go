// Package email delivers morning-gate escalation digests to the coordinator
// mailbox over SMTP.
package email

import (
	"context"
	"fmt"
	"net"
	"time"

	"maintops_backend/internal/events"
	"maintops_backend/platform/logger"

	gomail "github.com/wneessen/go-mail"
)

// Sender delivers one escalation notice.
type Sender interface {
	SendEscalation(ctx context.Context, e events.GateEscalated) error
}

type Config interface {
	GetEmailEnabled() bool
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetEmailFromName() string
	GetEmailFromAddress() string
	GetEscalationEmail() string
}

// SMTPSender sends escalation notices via a direct SMTP connection.
type SMTPSender struct {
	host      string
	port      int
	username  string
	password  string
	fromName  string
	fromEmail string
	to        string
}

func NewSMTPSender(cfg Config) *SMTPSender {
	return &SMTPSender{
		host:      cfg.GetSMTPHost(),
		port:      cfg.GetSMTPPort(),
		username:  cfg.GetSMTPUsername(),
		password:  cfg.GetSMTPPassword(),
		fromName:  cfg.GetEmailFromName(),
		fromEmail: cfg.GetEmailFromAddress(),
		to:        cfg.GetEscalationEmail(),
	}
}

func (s *SMTPSender) SendEscalation(ctx context.Context, e events.GateEscalated) error {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.fromEmail); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(s.to); err != nil {
		return fmt.Errorf("smtp to: %w", err)
	}
	msg.Subject("High-priority work item escalated")
	msg.SetBodyString(gomail.TypeTextHTML, renderEscalation(e))

	client, err := gomail.NewClient(s.host,
		gomail.WithPort(s.port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.username),
		gomail.WithPassword(s.password),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15*time.Second),
		gomail.WithDialContextFunc(func(dctx context.Context, _ string, addr string) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(dctx, "tcp4", addr)
		}),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

func renderEscalation(e events.GateEscalated) string {
	detail := e.Detail
	if detail == "" {
		detail = "(no detail provided)"
	}
	return fmt.Sprintf(
		`<h2>High-priority work item escalated</h2>
<p>A technician flagged an incomplete high-priority assignment for coordinator attention.</p>
<ul>
<li><strong>Assignment:</strong> %s</li>
<li><strong>Technician:</strong> %s</li>
<li><strong>Reason:</strong> %s</li>
<li><strong>Detail:</strong> %s</li>
</ul>`,
		e.AssignmentID, e.TechnicianID, e.Reason, detail)
}

// Subscribe wires the sender to gate escalation events. A nil sender (email
// disabled) subscribes nothing.
func Subscribe(bus events.Bus, sender Sender, log *logger.Logger) {
	if sender == nil {
		return
	}

	bus.Subscribe(events.GateEscalated{}.EventName(), events.HandlerFunc(func(ctx context.Context, event events.Event) error {
		escalated, ok := event.(events.GateEscalated)
		if !ok {
			return nil
		}
		if err := sender.SendEscalation(ctx, escalated); err != nil {
			log.Error("escalation email failed", "error", err, "assignment_id", escalated.AssignmentID.String())
			return err
		}
		return nil
	}))
}
