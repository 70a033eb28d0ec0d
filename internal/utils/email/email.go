package email

import (
	"fmt"
	"net/smtp"
	"time"

	"github.com/jordan-wright/email"
	"github.com/passion-dev-group/guardian/internal/config"
	"github.com/shopspring/decimal"
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

func (s *Sender) send(e *email.Email) error {
	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	auth := smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	if err := e.Send(addr, auth); err != nil {
		s.logger.Errorf("Failed to send email to %v: %v", e.To, err)
		return fmt.Errorf("failed to send email: %w", err)
	}
	s.logger.Infof("Email sent to %v: %s", e.To, e.Subject)
	return nil
}

// SendEnrollmentConfirmation confirms a member's recurring contribution setup
func (s *Sender) SendEnrollmentConfirmation(to, name, circleName string, amount decimal.Decimal, firstDebit time.Time) error {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{to}
	e.Subject = "Your circle contributions are set up"

	body := fmt.Sprintf(
		"Dear %s,\n\n"+
			"Your recurring contribution of %s USD to the circle \"%s\" is active.\n"+
			"The first debit is scheduled for %s.\n"+
			"\nBest regards,\nGuardian",
		name, amount.StringFixed(2), circleName, firstDebit.Format("2006-01-02"),
	)
	e.Text = []byte(body)
	return s.send(e)
}

// SendPayoutNotification tells the recipient their payout was sent
func (s *Sender) SendPayoutNotification(to, name, circleName string, amount decimal.Decimal) error {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{to}
	e.Subject = "Your circle payout is on its way"

	body := fmt.Sprintf(
		"Dear %s,\n\n"+
			"Your payout of %s USD from the circle \"%s\" has been sent to your linked bank account.\n"+
			"It usually arrives within 1-2 business days.\n"+
			"\nBest regards,\nGuardian",
		name, amount.StringFixed(2), circleName,
	)
	e.Text = []byte(body)
	return s.send(e)
}

// SendManualReviewAlert notifies the circle admin that a payout needs
// manual follow-up
func (s *Sender) SendManualReviewAlert(to, circleName string, amount decimal.Decimal) error {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{to}
	e.Subject = "Circle payout needs manual review"

	body := fmt.Sprintf(
		"Hello,\n\n"+
			"A payout of %s USD for the circle \"%s\" could not be distributed automatically.\n"+
			"The rotation has advanced; the payout is recorded as pending and needs manual follow-up.\n"+
			"\nBest regards,\nGuardian",
		amount.StringFixed(2), circleName,
	)
	e.Text = []byte(body)
	return s.send(e)
}
