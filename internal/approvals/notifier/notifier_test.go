// internal/approvals/notifier/notifier_test.go
package notifier

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"approval-console/internal/approvals/client"
	"approval-console/internal/common/logger"
	"approval-console/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

type fakeEmailAPI struct {
	mu     sync.Mutex
	inputs []*ses.SendEmailInput
}

func (f *fakeEmailAPI) SendEmail(_ context.Context, input *ses.SendEmailInput) (*ses.SendEmailOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inputs = append(f.inputs, input)
	return &ses.SendEmailOutput{}, nil
}

func (f *fakeEmailAPI) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.inputs)
}

func (f *fakeEmailAPI) last() *ses.SendEmailInput {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.inputs[len(f.inputs)-1]
}

type fakeSMSAPI struct {
	mu     sync.Mutex
	inputs []*sns.PublishInput
}

func (f *fakeSMSAPI) Publish(_ context.Context, input *sns.PublishInput) (*sns.PublishOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inputs = append(f.inputs, input)
	return &sns.PublishOutput{}, nil
}

func (f *fakeSMSAPI) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.inputs)
}

func (f *fakeSMSAPI) last() *sns.PublishInput {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.inputs[len(f.inputs)-1]
}

func newNotifier(t *testing.T) (*Notifier, *fakeEmailAPI, *fakeSMSAPI) {
	email := &fakeEmailAPI{}
	sms := &fakeSMSAPI{}
	n := New(email, sms, "decisions@bank.example", "MyBank", logger.NewTestLogger(t))
	return n, email, sms
}

func loanApplicant() models.Application {
	return models.Application{
		ID:             "L1",
		Kind:           models.KindLoan,
		ApplicantName:  "Jordan Price",
		ApplicantEmail: "jordan@example.com",
	}
}

// ==========================
// Loan decisions
// ==========================

func TestLoanDecided_ApprovalEmail(t *testing.T) {
	n, email, _ := newNotifier(t)

	n.LoanDecided(context.Background(), loanApplicant(), client.LoanActionApprove, "")

	require.Eventually(t, func() bool { return email.count() == 1 }, time.Second, 5*time.Millisecond)

	input := email.last()
	assert.Equal(t, "decisions@bank.example", *input.Source)
	assert.Equal(t, []string{"jordan@example.com"}, input.Destination.ToAddresses)
	assert.Contains(t, *input.Message.Subject.Data, "approved")
	assert.Contains(t, *input.Message.Body.Text.Data, "Jordan Price")
}

func TestLoanDecided_RejectionEmailCarriesReason(t *testing.T) {
	n, email, _ := newNotifier(t)

	n.LoanDecided(context.Background(), loanApplicant(), client.LoanActionReject, "Insufficient income")

	require.Eventually(t, func() bool { return email.count() == 1 }, time.Second, 5*time.Millisecond)

	input := email.last()
	assert.Contains(t, *input.Message.Subject.Data, "Update")
	assert.Contains(t, *input.Message.Body.Text.Data, "Insufficient income")
}

func TestLoanDecided_SkipsApplicantsWithoutEmail(t *testing.T) {
	n, email, _ := newNotifier(t)

	app := loanApplicant()
	app.ApplicantEmail = ""
	n.LoanDecided(context.Background(), app, client.LoanActionApprove, "")

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 0, email.count())
}

// ==========================
// Card status changes
// ==========================

func TestCardStatusChanged_BlockSendsSMS(t *testing.T) {
	n, _, sms := newNotifier(t)

	app := models.Application{
		ID:             "CARD-0042-9876",
		Kind:           models.KindCard,
		ApplicantPhone: "+15551234567",
	}
	n.CardStatusChanged(context.Background(), app, models.CardBlocked, "Suspected fraud")

	require.Eventually(t, func() bool { return sms.count() == 1 }, time.Second, 5*time.Millisecond)

	input := sms.last()
	assert.Equal(t, "+15551234567", *input.PhoneNumber)
	assert.Contains(t, *input.Message, "9876")
	assert.Contains(t, *input.Message, "Suspected fraud")

	sender, ok := input.MessageAttributes["AWS.SNS.SMS.SenderID"]
	require.True(t, ok)
	assert.Equal(t, "MyBank", *sender.StringValue)
}

func TestCardStatusChanged_ActivationIsSilent(t *testing.T) {
	n, _, sms := newNotifier(t)

	app := models.Application{ID: "C1", Kind: models.KindCard, ApplicantPhone: "+15551234567"}
	n.CardStatusChanged(context.Background(), app, models.CardActive, "Card activated by admin")

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 0, sms.count())
}

func TestCardStatusChanged_SkipsApplicantsWithoutPhone(t *testing.T) {
	n, _, sms := newNotifier(t)

	app := models.Application{ID: "C1", Kind: models.KindCard}
	n.CardStatusChanged(context.Background(), app, models.CardBlocked, "reason")

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 0, sms.count())
}

func TestNew_NilClientsDisableChannels(t *testing.T) {
	n := New(nil, nil, "", "", logger.NewTestLogger(t))

	assert.NotPanics(t, func() {
		n.LoanDecided(context.Background(), loanApplicant(), client.LoanActionApprove, "")
		n.CardStatusChanged(context.Background(), models.Application{ApplicantPhone: "+1555"}, models.CardBlocked, "r")
	})
}
