// internal/approvals/notifier/notifier.go
package notifier

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"

	"approval-console/internal/approvals/client"
	"approval-console/internal/common/logger"
	"approval-console/internal/common/metrics"
	"approval-console/internal/models"
)

const sendTimeout = 10 * time.Second

// EmailAPI is the SES surface the notifier uses.
type EmailAPI interface {
	SendEmail(ctx context.Context, input *ses.SendEmailInput) (*ses.SendEmailOutput, error)
}

// SMSAPI is the SNS surface the notifier uses.
type SMSAPI interface {
	Publish(ctx context.Context, input *sns.PublishInput) (*sns.PublishOutput, error)
}

// Notifier tells applicants about decisions on their applications: email on
// a loan resolution, SMS when a card is blocked. It runs as a decision hook
// and sends asynchronously; delivery failures are logged and counted but
// never surface to the admin who made the decision.
type Notifier struct {
	email       EmailAPI
	sms         SMSAPI
	senderEmail string
	smsSenderID string
	logger      logger.Logger
}

func New(email EmailAPI, sms SMSAPI, senderEmail, smsSenderID string, log logger.Logger) *Notifier {
	return &Notifier{
		email:       email,
		sms:         sms,
		senderEmail: senderEmail,
		smsSenderID: smsSenderID,
		logger:      log.WithFields(map[string]interface{}{"component": "notifier"}),
	}
}

func (n *Notifier) LoanDecided(_ context.Context, app models.Application, action client.LoanAction, reason string) {
	if n.email == nil || app.ApplicantEmail == "" {
		return
	}

	subject := "Your loan application has been approved"
	body := fmt.Sprintf("Dear %s,\n\nYour loan application %s has been approved.\n", displayName(app), app.ID)
	if action == client.LoanActionReject {
		subject = "Update on your loan application"
		body = fmt.Sprintf("Dear %s,\n\nYour loan application %s could not be approved.\nReason: %s\n", displayName(app), app.ID, reason)
	}

	go n.sendEmail(app.ApplicantEmail, subject, body)
}

func (n *Notifier) CardStatusChanged(_ context.Context, app models.Application, status models.CardStatus, reason string) {
	// Activation is silent; only a block warrants reaching the customer.
	if n.sms == nil || status != models.CardBlocked || app.ApplicantPhone == "" {
		return
	}

	message := fmt.Sprintf("Your card ending %s has been blocked. Reason: %s. Contact support if unexpected.", lastDigits(app.ID), reason)
	go n.sendSMS(app.ApplicantPhone, message)
}

func (n *Notifier) sendEmail(to, subject, body string) {
	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	input := &ses.SendEmailInput{
		Source: aws.String(n.senderEmail),
		Destination: &sestypes.Destination{
			ToAddresses: []string{to},
		},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{Data: aws.String(subject)},
			Body: &sestypes.Body{
				Text: &sestypes.Content{Data: aws.String(body)},
			},
		},
	}

	if _, err := n.email.SendEmail(ctx, input); err != nil {
		metrics.DecisionNotifications.WithLabelValues("email", "error").Inc()
		n.logger.WithError(err).Error("decision email failed", map[string]interface{}{"to": to})
		return
	}
	metrics.DecisionNotifications.WithLabelValues("email", "success").Inc()
}

func (n *Notifier) sendSMS(to, message string) {
	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	input := &sns.PublishInput{
		PhoneNumber: aws.String(to),
		Message:     aws.String(message),
	}
	if n.smsSenderID != "" {
		input.MessageAttributes = map[string]snstypes.MessageAttributeValue{
			"AWS.SNS.SMS.SenderID": {
				DataType:    aws.String("String"),
				StringValue: aws.String(n.smsSenderID),
			},
		}
	}

	if _, err := n.sms.Publish(ctx, input); err != nil {
		metrics.DecisionNotifications.WithLabelValues("sms", "error").Inc()
		n.logger.WithError(err).Error("decision sms failed", map[string]interface{}{"to": to})
		return
	}
	metrics.DecisionNotifications.WithLabelValues("sms", "success").Inc()
}

func displayName(app models.Application) string {
	if app.ApplicantName != "" {
		return app.ApplicantName
	}
	return "customer"
}

func lastDigits(id string) string {
	if len(id) <= 4 {
		return id
	}
	return id[len(id)-4:]
}
