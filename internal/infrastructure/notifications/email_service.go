package notifications

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/textproto"
	"time"

	gomail "gopkg.in/gomail.v2"

	"github.com/you/blogauth/domain"
)

// SMTPConfig holds the mail sender settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// EmailServiceImpl implements domain.OTPDeliverer over SMTP.
type EmailServiceImpl struct {
	cfg    SMTPConfig
	logger *slog.Logger
}

// NewEmailService creates a new SMTP OTP deliverer.
func NewEmailService(cfg SMTPConfig, logger *slog.Logger) domain.OTPDeliverer {
	return &EmailServiceImpl{cfg: cfg, logger: logger}
}

// Send implements domain.OTPDeliverer. When no sender is configured the code
// is logged instead of sent, which keeps local development working without
// SMTP credentials.
func (s *EmailServiceImpl) Send(ctx context.Context, email, code, otpType, originIP string) error {
	if s.cfg.Host == "" || s.cfg.Username == "" {
		s.logger.Warn("smtp not configured, logging otp instead of sending",
			"email", email, "type", otpType, "code", code)
		return nil
	}

	subject, body := composeOTPMail(code, otpType, originIP)

	m := gomail.NewMessage()
	m.SetHeader("From", m.FormatAddress(s.cfg.From, "Blog-Web-App"))
	m.SetHeader("To", email)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	d := gomail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.Username, s.cfg.Password)
	if err := d.DialAndSend(m); err != nil {
		return classifySendError(err)
	}

	s.logger.Debug("otp email sent", "email", email, "type", otpType)
	return nil
}

// classifySendError sorts SMTP failures into the three causes callers treat
// differently: sender misconfiguration, retryable connectivity problems and
// terminal recipient rejection.
func classifySendError(err error) error {
	var tpErr *textproto.Error
	if errors.As(err, &tpErr) {
		switch tpErr.Code {
		case 534, 535:
			return fmt.Errorf("%w: %v", domain.ErrMailAuth, err)
		case 550, 553, 554:
			return fmt.Errorf("%w: %v", domain.ErrMailRejected, err)
		}
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: %v", domain.ErrMailConnection, err)
	}
	return fmt.Errorf("%w: %v", domain.ErrMailConnection, err)
}

func composeOTPMail(code, otpType, originIP string) (subject, body string) {
	sentAt := time.Now().UTC().Format(time.RFC1123)
	switch otpType {
	case domain.OTPTypeReset:
		subject = "Password Reset Request"
		body = fmt.Sprintf(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2>Reset Your Password</h2>
  <p>We received a request to reset your password. Use the following code to proceed:</p>
  <div style="font-size: 24px; font-weight: bold; letter-spacing: 2px;">%s</div>
  <p>This code will expire in 5 minutes.</p>
  <p>If you didn't request this password reset, please secure your account immediately.</p>
  <hr>
  <p style="font-size: 12px; color: #6b7280;">Request IP: %s<br>Sent at: %s</p>
</div>`, code, originIP, sentAt)
	default:
		subject = "Verify Your Email Address"
		body = fmt.Sprintf(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2>Email Verification</h2>
  <p>Thank you for signing up. Please use the following verification code to complete your registration:</p>
  <div style="font-size: 24px; font-weight: bold; letter-spacing: 2px;">%s</div>
  <p>This code will expire in 5 minutes.</p>
  <p>If you didn't request this verification, please ignore this email.</p>
  <hr>
  <p style="font-size: 12px; color: #6b7280;">Request IP: %s<br>Sent at: %s</p>
</div>`, code, originIP, sentAt)
	}
	return subject, body
}

var _ domain.OTPDeliverer = (*EmailServiceImpl)(nil)
