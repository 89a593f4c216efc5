// internal/models/application.go
package models

import "time"

// Kind discriminates the two entity variants handled by the console.
type Kind string

const (
	KindLoan Kind = "loan"
	KindCard Kind = "card"
)

// LoanStatus is the status enumeration for loan applications.
// It is deliberately a distinct type from CardStatus so a status value
// can never be used against the wrong entity kind.
type LoanStatus string

const (
	LoanPending  LoanStatus = "pending"
	LoanApproved LoanStatus = "approved"
	LoanRejected LoanStatus = "rejected"
	LoanActive   LoanStatus = "active"
	LoanClosed   LoanStatus = "closed"
)

// Valid reports whether the value is a known loan status.
func (s LoanStatus) Valid() bool {
	switch s {
	case LoanPending, LoanApproved, LoanRejected, LoanActive, LoanClosed:
		return true
	}
	return false
}

// Label returns the display label for the status. The switch is exhaustive
// over the declared constants; an unknown value falls through to the raw
// string so a bad payload is visible rather than styled.
func (s LoanStatus) Label() string {
	switch s {
	case LoanPending:
		return "Pending Review"
	case LoanApproved:
		return "Approved"
	case LoanRejected:
		return "Rejected"
	case LoanActive:
		return "Active"
	case LoanClosed:
		return "Closed"
	}
	return string(s)
}

// CardStatus is the status enumeration for card requests.
type CardStatus string

const (
	CardActive    CardStatus = "active"
	CardBlocked   CardStatus = "blocked"
	CardSuspended CardStatus = "suspended"
	CardExpired   CardStatus = "expired"
)

func (s CardStatus) Valid() bool {
	switch s {
	case CardActive, CardBlocked, CardSuspended, CardExpired:
		return true
	}
	return false
}

func (s CardStatus) Label() string {
	switch s {
	case CardActive:
		return "Active"
	case CardBlocked:
		return "Blocked"
	case CardSuspended:
		return "Suspended"
	case CardExpired:
		return "Expired"
	}
	return string(s)
}

// Priority is the tier assigned by the priority scorer.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Application is the engine's view of one loan application or card request.
// The canonical record lives in the remote approvals service; this copy is
// page-bounded and lives only for the current query session.
type Application struct {
	ID     string `json:"id"`
	Kind   Kind   `json:"kind"`
	UserID string `json:"userId,omitempty"`

	// Exactly one of the two status fields is meaningful, selected by Kind.
	LoanStatus LoanStatus `json:"loanStatus,omitempty"`
	CardStatus CardStatus `json:"cardStatus,omitempty"`

	Amount   float64 `json:"amount,omitempty"`
	LoanType string  `json:"loanType,omitempty"`
	CardType string  `json:"cardType,omitempty"`

	// Priority is computed locally when a page is fetched, never sent by
	// the approvals service.
	Priority Priority `json:"priority,omitempty"`

	CreatedAt       time.Time  `json:"createdAt,omitempty"`
	ApprovedDate    *time.Time `json:"approvedDate,omitempty"`
	RejectionReason string     `json:"rejectionReason,omitempty"`

	ApplicantName  string `json:"applicantName,omitempty"`
	ApplicantEmail string `json:"applicantEmail,omitempty"`
	ApplicantPhone string `json:"applicantPhone,omitempty"`
}

// StatusPatch is the delta applied to a cached Application view after a
// transition is sent. Nil fields are left untouched.
type StatusPatch struct {
	LoanStatus      *LoanStatus
	CardStatus      *CardStatus
	RejectionReason *string
	ApprovedDate    *time.Time
}

// Apply mutates app in place with the non-nil fields of the patch.
func (p StatusPatch) Apply(app *Application) {
	if p.LoanStatus != nil {
		app.LoanStatus = *p.LoanStatus
	}
	if p.CardStatus != nil {
		app.CardStatus = *p.CardStatus
	}
	if p.RejectionReason != nil {
		app.RejectionReason = *p.RejectionReason
	}
	if p.ApprovedDate != nil {
		app.ApprovedDate = p.ApprovedDate
	}
}

// PendingResult is the outcome of one status transition inside a bulk run.
type PendingResult struct {
	ID      string `json:"id"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}
