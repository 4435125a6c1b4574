package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"net/url"
	"strconv"
	"strings"

	"github.com/frahmantamala/user-management/internal"
	"github.com/frahmantamala/user-management/internal/auth"
)

// actionLinkPlaceholder is replaced in the configured body templates with the
// constructed verification or reset URL.
const actionLinkPlaceholder = "{{action_link}}"

// SendFunc matches smtp.SendMail; injectable for tests.
type SendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Mailer delivers verification and reset links over SMTP using the
// configured subject/body templates.
type Mailer struct {
	cfg    internal.MailConfig
	logger *slog.Logger
	send   SendFunc
}

func NewMailer(cfg internal.MailConfig, logger *slog.Logger) *Mailer {
	return &Mailer{cfg: cfg, logger: logger, send: smtp.SendMail}
}

// ActionLink builds the landing URL for a token:
// {webPage}/{page}?token={token}&userId={userId}
func (m *Mailer) ActionLink(kind auth.NotificationKind, tokenValue string, userID int64) string {
	page := m.cfg.VerificationPage
	if kind == auth.NotifyReset {
		page = m.cfg.ResetPage
	}

	values := url.Values{}
	values.Set("token", tokenValue)
	values.Set("userId", strconv.FormatInt(userID, 10))

	base := strings.TrimRight(m.cfg.WebPage, "/")
	return fmt.Sprintf("%s/%s?%s", base, page, values.Encode())
}

func (m *Mailer) Notify(ctx context.Context, kind auth.NotificationKind, toAddress, tokenValue string, userID int64) error {
	subject := m.cfg.VerifySubject
	body := m.cfg.VerifyBody
	if kind == auth.NotifyReset {
		subject = m.cfg.ResetSubject
		body = m.cfg.ResetBody
	}

	link := m.ActionLink(kind, tokenValue, userID)
	body = strings.ReplaceAll(body, actionLinkPlaceholder, link)

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", m.cfg.FromAddress)
	fmt.Fprintf(&msg, "To: %s\r\n", toAddress)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	if err := m.send(m.cfg.SMTPAddr, nil, m.cfg.FromAddress, []string{toAddress}, []byte(msg.String())); err != nil {
		m.logger.Error("failed to send notification", "kind", string(kind), "to", toAddress, "error", err)
		return fmt.Errorf("send %s mail: %w", kind, err)
	}

	m.logger.Info("sent notification", "kind", string(kind), "to", toAddress)
	return nil
}
