// Package managers handles the sending of recovery emails using the Mailgun
// service and the Hermes package for email formatting.
package managers

import (
	"context"
	"time"

	"github.com/mailgun/mailgun-go/v4"
	"github.com/matcornic/hermes/v2"
	log "github.com/sirupsen/logrus"

	"tfc-server/internal/config"
)

// MailMgr is an interface that outlines the contract for email management.
// It includes methods for sending username recovery and password reset emails.
type MailMgr interface {
	SendUsernameRecoveryMail(email, username string) error
	SendPasswordResetMail(email, resetLink string) error
}

// MailManager is a concrete implementation of the MailMgr interface.
// It uses the Mailgun service for sending emails and the Hermes package for formatting emails.
type MailManager struct {
	Hermes      *hermes.Hermes
	Mailgun     *mailgun.MailgunImpl
	From        string
	Environment string
}

// SendUsernameRecoveryMail sends the user their username after a recovery
// request. The email content is formatted using the Hermes package and sent
// using the Mailgun service.
func (mm *MailManager) SendUsernameRecoveryMail(email, username string) error {
	mailBody := hermes.Email{
		Body: hermes.Body{
			Intros: []string{
				"As requested, here is your username for the Training Frequency Calculator:",
				username,
			},
			Outros: []string{
				"You can use this username to log in to your account.",
			},
		},
	}

	return mm.send(email, "Your Username Recovery", mailBody)
}

// SendPasswordResetMail sends a password reset link to the user.
// The email content is formatted using the Hermes package and sent using the Mailgun service.
func (mm *MailManager) SendPasswordResetMail(email, resetLink string) error {
	mailBody := hermes.Email{
		Body: hermes.Body{
			Intros: []string{
				"We received a request to reset your password. Click the button below to create a new password:",
			},
			Actions: []hermes.Action{
				{
					Instructions: "To reset your password, click the button below:",
					Button: hermes.Button{
						Color: "#6b46c1",
						Text:  "Reset Password",
						Link:  resetLink,
					},
				},
			},
			Outros: []string{
				"If you didn't request this password reset, you can safely ignore this email.",
				"This link will expire in 24 hours for security reasons.",
			},
		},
	}

	return mm.send(email, "Reset Your Password", mailBody)
}

// send renders the mail and hands it to Mailgun with a short deadline so a
// slow transport cannot hang the request.
func (mm *MailManager) send(email, subject string, mailBody hermes.Email) error {
	if mm.Environment != "production" {
		log.Info("Skipping mail in development mode")
		return nil
	}

	emailBody, err := mm.Hermes.GenerateHTML(mailBody)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(2*time.Second))
	defer cancel()

	message := mm.Mailgun.NewMessage(mm.From, subject, "", email)
	message.SetHtml(emailBody)
	_, _, err = mm.Mailgun.Send(ctx, message)
	if err != nil {
		log.Warning("Error sending mail: " + err.Error())
		return err
	}
	log.Debug("Mail sent to ", email)

	return nil
}

// NewMailManager initializes a new MailManager instance with configured Mailgun and Hermes settings.
// Outside production the manager renders but does not dispatch mail.
func NewMailManager(cfg *config.Config) MailMgr {
	log.Info("Initializing mail manager")

	if cfg.Environment != "production" {
		log.Info("Running in development mode, email will not be sent to users")
	}

	mailgunInstance := mailgun.NewMailgun(cfg.MailgunDomain, cfg.MailgunAPIKey)
	mailgunInstance.SetAPIBase(mailgun.APIBaseEU)

	mm := &MailManager{
		Hermes: &hermes.Hermes{
			Theme:         new(hermes.Default),
			TextDirection: hermes.TDLeftToRight,
			Product: hermes.Product{
				Name:        "Training Frequency Calculator",
				Link:        cfg.FrontendBaseURL,
				Copyright:   "Training Frequency Calculator Team",
				TroubleText: "If the button '{ACTION}' doesn't work, copy and paste the URL below into your web browser.",
			},
		},
		Mailgun:     mailgunInstance,
		From:        cfg.MailFrom,
		Environment: cfg.Environment,
	}
	log.Info("Initialized mail manager")
	return mm
}
