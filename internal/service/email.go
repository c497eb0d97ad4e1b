package service

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"bloodbridge-backend/internal/logger"
)

type emailService struct {
	apiKey   string
	from     string
	fromName string
}

func NewEmailService(apiKey, from, fromName string) EmailService {
	return &emailService{apiKey: apiKey, from: from, fromName: fromName}
}

func (s *emailService) SendOTP(ctx context.Context, email, code string) error {
	subject := "Your BloodBridge verification code"
	plain := fmt.Sprintf("Your verification code is %s. It is valid for 10 minutes.", code)
	html := fmt.Sprintf(`<div style="font-family:Arial;padding:10px;">
		<h2>Email Verification</h2>
		<p>Your verification code is:</p>
		<h3>%s</h3>
		<p>This code is valid for 10 minutes.</p>
	</div>`, code)
	return s.send(ctx, email, subject, plain, html)
}

func (s *emailService) SendPasswordReset(ctx context.Context, email, resetLink string) error {
	subject := "Password Reset Request"
	plain := fmt.Sprintf("Reset your password using this link (valid for 10 minutes): %s", resetLink)
	html := fmt.Sprintf(`<p>Click the link below to reset your password (valid for 10 minutes):</p>
		<a href="%s">%s</a>`, resetLink, resetLink)
	return s.send(ctx, email, subject, plain, html)
}

func (s *emailService) send(_ context.Context, to, subject, plain, html string) error {
	from := mail.NewEmail(s.fromName, s.from)
	recipient := mail.NewEmail("", to)
	message := mail.NewSingleEmail(from, subject, recipient, plain, html)

	logger.ExternalServiceCall("sendgrid", "send", "to", to, "subject", subject)
	client := sendgrid.NewSendClient(s.apiKey)
	response, err := client.Send(message)
	if err != nil {
		logger.ExternalServiceResult("sendgrid", "send", err)
		return fmt.Errorf("failed to send email: %w", err)
	}
	if response.StatusCode >= 400 {
		err := fmt.Errorf("sendgrid error: status %d, body: %s", response.StatusCode, response.Body)
		logger.ExternalServiceResult("sendgrid", "send", err)
		return err
	}
	logger.ExternalServiceResult("sendgrid", "send", nil)
	return nil
}
