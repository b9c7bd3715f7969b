package service

import (
	"context"
	"fmt"
	"strings"

	"go-telehealth-booking/config"

	sendgrid "github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/sirupsen/logrus"
)

// PrescriptionSummary is the payload for the post-consultation email.
type PrescriptionSummary struct {
	PatientName string
	DoctorName  string
	Diagnosis   string
	Medications []string
	FollowUp    string
}

// Mailer sends transactional email. Signup verification is a primary effect
// (its failure rolls the signup back); the prescription summary is a
// secondary, best-effort effect dispatched through the notifier.
type Mailer interface {
	SendVerificationEmail(ctx context.Context, toEmail, toName, plainToken string) error
	SendPasswordResetEmail(ctx context.Context, toEmail, toName, plainToken string) error
	SendPrescriptionSummary(ctx context.Context, toEmail, toName string, summary PrescriptionSummary) error
}

type sendgridMailer struct {
	cfg     config.MailConfig
	baseURL string
	log     *logrus.Logger
}

func NewSendGridMailer(cfg config.MailConfig, baseURL string, log *logrus.Logger) Mailer {
	return &sendgridMailer{
		cfg:     cfg,
		baseURL: strings.TrimRight(baseURL, "/"),
		log:     log,
	}
}

func (m *sendgridMailer) send(toEmail, toName, subject, plainText string) error {
	from := mail.NewEmail(m.cfg.FromName, m.cfg.FromEmail)
	to := mail.NewEmail(toName, toEmail)
	message := mail.NewSingleEmail(from, subject, to, plainText, "")

	client := sendgrid.NewSendClient(m.cfg.SendGridAPIKey)
	resp, err := client.Send(message)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid returned status %d", resp.StatusCode)
	}
	return nil
}

func (m *sendgridMailer) SendVerificationEmail(ctx context.Context, toEmail, toName, plainToken string) error {
	link := fmt.Sprintf("%s/api/v1/auth/verify-email/%s", m.baseURL, plainToken)
	body := fmt.Sprintf(
		"Hi %s,\n\nPlease verify your email address by opening the link below within 10 minutes:\n\n%s\n\nIf you did not sign up, ignore this email.\n",
		toName, link,
	)
	return m.send(toEmail, toName, "Verify your email address", body)
}

func (m *sendgridMailer) SendPasswordResetEmail(ctx context.Context, toEmail, toName, plainToken string) error {
	link := fmt.Sprintf("%s/reset-password/%s", m.baseURL, plainToken)
	body := fmt.Sprintf(
		"Hi %s,\n\nA password reset was requested for your account. Open the link below within 10 minutes to set a new password:\n\n%s\n\nIf you did not request this, ignore this email.\n",
		toName, link,
	)
	return m.send(toEmail, toName, "Reset your password", body)
}

func (m *sendgridMailer) SendPrescriptionSummary(ctx context.Context, toEmail, toName string, summary PrescriptionSummary) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\nDr. %s has issued a prescription for your recent consultation.\n\nDiagnosis: %s\n",
		summary.PatientName, summary.DoctorName, summary.Diagnosis)
	if len(summary.Medications) > 0 {
		b.WriteString("\nMedications:\n")
		for _, med := range summary.Medications {
			fmt.Fprintf(&b, "  - %s\n", med)
		}
	} else {
		b.WriteString("\nNo medications prescribed.\n")
	}
	if summary.FollowUp != "" {
		fmt.Fprintf(&b, "\nFollow-up: %s\n", summary.FollowUp)
	}
	b.WriteString("\nThe full prescription is available in your account.\n")

	return m.send(toEmail, toName, "Your prescription is ready", b.String())
}
