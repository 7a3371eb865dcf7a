package service

import (
	"context"
	"fmt"

	"kudos-backend/internal/logger"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type emailService struct {
	client *sendgrid.Client
	from   *mail.Email
}

func NewEmailService(apiKey, fromEmail, fromName string) EmailService {
	return &emailService{
		client: sendgrid.NewSendClient(apiKey),
		from:   mail.NewEmail(fromName, fromEmail),
	}
}

func (s *emailService) SendBillingFailureNotice(ctx context.Context, adminEmail, tenantName, failCode, failMessage string) error {
	subject := fmt.Sprintf("Subscription payment failed for %s", tenantName)
	body := fmt.Sprintf(
		"Hello,\n\nThe recurring subscription charge for %s did not go through.\n\nReason: %s (%s)\n\nGift redemptions are paused until billing is restored. Please update the payment method and retry from the admin console.\n",
		tenantName, failMessage, failCode)
	return s.send(ctx, adminEmail, subject, body)
}

func (s *emailService) SendRefundReconciliationAlert(ctx context.Context, adminEmail, tenantName string, orderID int32, points int64) error {
	subject := fmt.Sprintf("Manual refund needed for %s", tenantName)
	body := fmt.Sprintf(
		"Hello,\n\nGift order %d failed and the automatic refund of %d points could not be written back to the employee's wallet.\n\nThe order is flagged for reconciliation; please credit the points manually.\n",
		orderID, points)
	return s.send(ctx, adminEmail, subject, body)
}

func (s *emailService) send(ctx context.Context, toEmail, subject, body string) error {
	to := mail.NewEmail("", toEmail)
	message := mail.NewSingleEmail(s.from, subject, to, body, body)

	logger.ExternalServiceCall("sendgrid", "Send", "to", toEmail, "subject", subject)
	resp, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		logger.ExternalServiceResult("sendgrid", "Send", err, "to", toEmail)
		return fmt.Errorf("failed to send email: %w", err)
	}
	if resp.StatusCode >= 300 {
		err := fmt.Errorf("sendgrid returned status %d: %s", resp.StatusCode, resp.Body)
		logger.ExternalServiceResult("sendgrid", "Send", err, "to", toEmail)
		return err
	}
	logger.ExternalServiceResult("sendgrid", "Send", nil, "to", toEmail)
	return nil
}
