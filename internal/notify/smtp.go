package notify

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

var sendMail = smtp.SendMail

// SMTPConfig describes the relay used to reach HR.
type SMTPConfig struct {
	Host     string `mapstructure:"host" validate:"required"`
	Port     int    `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"-"`
	From     string `mapstructure:"from" validate:"omitempty,email"`
}

// SMTP sends summaries through an SMTP relay. STARTTLS is used when the
// server offers it.
type SMTP struct {
	cfg       SMTPConfig
	to        string
	signature string
	logger    *zap.Logger
}

func NewSMTP(cfg SMTPConfig, to, signature string, logger *zap.Logger) (*SMTP, error) {
	if strings.TrimSpace(cfg.Host) == "" {
		return nil, errors.New("smtp host is required")
	}
	if strings.TrimSpace(to) == "" {
		return nil, errors.New("hr email is required")
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.From == "" {
		cfg.From = cfg.User
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SMTP{cfg: cfg, to: to, signature: signature, logger: logger}, nil
}

func (s *SMTP) Notify(ctx context.Context, summary Summary) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	msg, err := Render(summary, s.signature)
	if err != nil {
		return "", err
	}

	var auth smtp.Auth
	if s.cfg.User != "" {
		auth = smtp.PlainAuth("", s.cfg.User, s.cfg.Password, s.cfg.Host)
	}

	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	if err := sendMail(addr, auth, s.cfg.From, []string{s.to}, msg.RFC822(s.cfg.From, s.to)); err != nil {
		return "", fmt.Errorf("send mail: %w", err)
	}

	s.logger.Info("email sent", zap.Uint("candidate_id", summary.ID), zap.String("to", s.to))
	return StatusSent, nil
}
