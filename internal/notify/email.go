package notify

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/dkurilov/persona-service/internal/config"
	"github.com/dkurilov/persona-service/internal/models"
	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"
)

// Sender handles sending emails via SMTP
type Sender struct {
	cfg    *config.Config
	logger *logrus.Logger
}

// NewSender creates a new email sender
func NewSender(cfg *config.Config, logger *logrus.Logger) *Sender {
	return &Sender{
		cfg:    cfg,
		logger: logger,
	}
}

// SendPersonaChange notifies a user that their financial profile moved from
// one persona to another.
func (s *Sender) SendPersonaChange(to, username string, from, current models.PersonaType) error {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{to}
	e.Subject = "Your financial profile has changed"

	body := fmt.Sprintf("Dear %s,\n\n", username)
	if from == "" {
		body += fmt.Sprintf(
			"We've classified your financial profile for the first time: %s.\n"+
				"Log in to see what this means and your personalized recommendations.\n",
			label(current),
		)
	} else {
		body += fmt.Sprintf(
			"Your financial profile has changed from %s to %s.\n"+
				"Log in to see your updated recommendations.\n",
			label(from), label(current),
		)
	}
	body += "\nBest regards,\nPersona Service"
	e.Text = []byte(body)

	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	auth := smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	if err := e.Send(addr, auth); err != nil {
		s.logger.Errorf("Failed to send email to %s: %v", to, err)
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Infof("Email sent to %s: %s", to, e.Subject)
	return nil
}

func label(p models.PersonaType) string {
	return strings.ReplaceAll(string(p), "_", " ")
}
