package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/bastianbaeza/JackdawSoft/internal/infra/config"
	"github.com/bastianbaeza/JackdawSoft/internal/infra/logger"
)

// SMTPMailer sends transactional account emails over plain SMTP.
type SMTPMailer struct {
	cfg           config.SMTPSettings
	activationTTL time.Duration
	resetTTL      time.Duration
}

func NewSMTPMailer(cfg config.SMTPSettings, activationTTL, resetTTL time.Duration) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, activationTTL: activationTTL, resetTTL: resetTTL}
}

func (m *SMTPMailer) SendActivation(ctx context.Context, email, token string) error {
	link := fmt.Sprintf("%s/activate?token=%s", strings.TrimRight(m.cfg.FrontendURL, "/"), token)
	body := fmt.Sprintf(
		"You have been invited to Jackdaws.\r\n\r\n"+
			"Set your password and activate your account:\r\n%s\r\n\r\n"+
			"The link expires in %s. If you did not expect this invitation, ignore this email.\r\n",
		link, expiryPhrase(m.activationTTL),
	)
	return m.send(ctx, email, "Activate your Jackdaws account", body)
}

func (m *SMTPMailer) SendPasswordReset(ctx context.Context, email, token string) error {
	link := fmt.Sprintf("%s/reset-password?token=%s", strings.TrimRight(m.cfg.FrontendURL, "/"), token)
	body := fmt.Sprintf(
		"A password reset was requested for your account.\r\n\r\n"+
			"Choose a new password:\r\n%s\r\n\r\n"+
			"The link expires in %s. If you did not request a reset, ignore this email.\r\n",
		link, expiryPhrase(m.resetTTL),
	)
	return m.send(ctx, email, "Reset your Jackdaws password", body)
}

// expiryPhrase renders a TTL as plain English for the email body.
func expiryPhrase(d time.Duration) string {
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

func (m *SMTPMailer) send(ctx context.Context, to, subject, body string) error {
	msg := strings.Join([]string{
		"From: " + m.cfg.From,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=utf-8",
		"",
		body,
	}, "\r\n")

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{to}, []byte(msg)); err != nil {
		logger.FromContext(ctx).Warn("send mail failed",
			zap.String("to", logger.MaskEmail(to)),
			zap.String("subject", subject),
			zap.Error(err))
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}
