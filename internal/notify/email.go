package notify

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strings"

	"github.com/joshsymonds/budget-sentinel/internal/config"
	"github.com/joshsymonds/budget-sentinel/internal/model"
	"github.com/joshsymonds/budget-sentinel/internal/service"
)

// EmailNotifier delivers alerts over SMTP with STARTTLS.
type EmailNotifier struct {
	cfg config.EmailChannel
}

// NewEmailNotifier creates an SMTP-backed notifier.
func NewEmailNotifier(cfg config.EmailChannel) *EmailNotifier {
	return &EmailNotifier{cfg: cfg}
}

// Name returns the channel identifier used for notification state keys.
func (n *EmailNotifier) Name() string {
	return "email"
}

// Notify sends one alert as a plain-text email. The dial honors the
// caller's context deadline so a slow SMTP server cannot stall the run.
func (n *EmailNotifier) Notify(ctx context.Context, status model.BudgetStatus) model.DeliveryResult {
	result := model.DeliveryResult{Channel: n.Name()}

	addr := fmt.Sprintf("%s:%d", n.cfg.Host, n.cfg.Port)
	msg := n.buildMessage(status)

	if err := n.send(ctx, addr, msg); err != nil {
		result.Err = fmt.Errorf("email send failed: %w", err)
		return result
	}

	result.Success = true
	return result
}

func (n *EmailNotifier) buildMessage(status model.BudgetStatus) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", n.cfg.From)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(n.cfg.To, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", Subject(status))
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(FormatAlert(status))
	b.WriteString("\r\n")
	return []byte(b.String())
}

func (n *EmailNotifier) send(ctx context.Context, addr string, msg []byte) error {
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to dial %s: %w", addr, err)
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, n.cfg.Host)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer func() { _ = client.Close() }()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(nil); err != nil {
			return fmt.Errorf("STARTTLS failed: %w", err)
		}
	}

	if n.cfg.User != "" {
		auth := smtp.PlainAuth("", n.cfg.User, n.cfg.Password, n.cfg.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP auth failed: %w", err)
		}
	}

	if err := client.Mail(n.cfg.From); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}
	for _, rcpt := range n.cfg.To {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("RCPT TO %s failed: %w", rcpt, err)
		}
	}

	writer, err := client.Data()
	if err != nil {
		return fmt.Errorf("DATA failed: %w", err)
	}
	if _, err := writer.Write(msg); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finish message: %w", err)
	}

	return client.Quit()
}

var _ service.Notifier = (*EmailNotifier)(nil)
