// Package managers handles the sending of transactional emails through the
// Mailgun service, with bodies formatted by the Hermes package.
package managers

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/mailgun/mailgun-go/v4"
	"github.com/matcornic/hermes/v2"
	log "github.com/sirupsen/logrus"
)

// MailMgr outlines the transactional mails the core dispatches. Callers treat
// failures as non-fatal; the triggering operation never rolls back on a mail
// error.
type MailMgr interface {
	SendWelcomeMail(email, name string) error
	SendPasswordResetMail(email, name, rawToken string) error
	SendReservationDecisionMail(email, name, origin, destination, decision string) error
	SendTripCancelledMail(email, name, origin, destination string, departureAt time.Time) error
}

// MailManager is a concrete implementation of the MailMgr interface.
type MailManager struct {
	Hermes  *hermes.Hermes
	Mailgun *mailgun.MailgunImpl
	From    string
}

var environment string

// NewMailManager initializes a new MailManager instance with configured
// Mailgun and Hermes settings. Outside production, mails are logged and
// skipped.
func NewMailManager() MailMgr {
	log.Info("Initializing mail manager")
	environment = os.Getenv("ENVIRONMENT")

	if environment != "production" {
		log.Println("Running in development mode, email will not be sent to users")
	}

	domain := os.Getenv("MAILGUN_DOMAIN")
	apiKey := os.Getenv("MAILGUN_API_KEY")
	from := os.Getenv("MAIL_FROM")
	if from == "" {
		from = "Wheels Unisabana <wheels@unisabana.edu.co>"
	}

	mm := &MailManager{
		Hermes: &hermes.Hermes{
			Theme:         new(hermes.Default),
			TextDirection: hermes.TDLeftToRight,
			Product: hermes.Product{
				Name:      "Wheels Unisabana",
				Link:      "https://wheels.unisabana.edu.co/",
				Copyright: "© Wheels Unisabana",
			},
		},
		Mailgun: mailgun.NewMailgun(domain, apiKey),
		From:    from,
	}
	log.Info("Initialized mail manager")
	return mm
}

// SendWelcomeMail greets a newly registered user.
func (mm *MailManager) SendWelcomeMail(email, name string) error {
	body := hermes.Email{
		Body: hermes.Body{
			Name: name,
			Intros: []string{
				"Welcome to Wheels Unisabana! Your account is ready.",
				"Publish trips as a driver or reserve seats as a passenger with your institutional account.",
			},
			Outros: []string{
				"If you did not create this account, please contact us.",
			},
		},
	}

	return mm.send(email, "Welcome to Wheels Unisabana", body)
}

// SendPasswordResetMail delivers the raw reset secret out-of-band. The secret
// is valid for 15 minutes and redeemable once.
func (mm *MailManager) SendPasswordResetMail(email, name, rawToken string) error {
	body := hermes.Email{
		Body: hermes.Body{
			Name: name,
			Intros: []string{
				"A password reset was requested for your account.",
			},
			Actions: []hermes.Action{
				{
					Instructions: "Use the following code within 15 minutes to set a new password:",
					InviteCode:   rawToken,
				},
			},
			Outros: []string{
				"If you did not request a reset, you can ignore this message.",
			},
		},
	}

	return mm.send(email, "Reset your password", body)
}

// SendReservationDecisionMail notifies a passenger that the driver confirmed
// or rejected their reservation.
func (mm *MailManager) SendReservationDecisionMail(email, name, origin, destination, decision string) error {
	body := hermes.Email{
		Body: hermes.Body{
			Name: name,
			Intros: []string{
				fmt.Sprintf("Your reservation for the trip %s → %s was %s by the driver.", origin, destination, decision),
			},
		},
	}

	return mm.send(email, "Reservation "+decision, body)
}

// SendTripCancelledMail notifies a passenger that the driver cancelled the trip.
func (mm *MailManager) SendTripCancelledMail(email, name, origin, destination string, departureAt time.Time) error {
	body := hermes.Email{
		Body: hermes.Body{
			Name: name,
			Intros: []string{
				fmt.Sprintf("The trip %s → %s scheduled for %s was cancelled by the driver.",
					origin, destination, departureAt.Format("2006-01-02 15:04")),
				"Your reservation was cancelled and the seats released.",
			},
		},
	}

	return mm.send(email, "Trip cancelled", body)
}

func (mm *MailManager) send(email, subject string, body hermes.Email) error {
	if environment != "production" {
		log.Infof("Skipping mail %q to %s in development mode", subject, email)
		return nil
	}

	emailBody, err := mm.Hermes.GenerateHTML(body)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(10*time.Second))
	defer cancel()

	message := mm.Mailgun.NewMessage(mm.From, subject, "", email)
	message.SetHtml(emailBody)
	_, _, err = mm.Mailgun.Send(ctx, message)
	if err != nil {
		log.Warning("Error sending mail: " + err.Error())
		return err
	}
	log.Debugf("Mail %q sent to %s", subject, email)

	return nil
}
