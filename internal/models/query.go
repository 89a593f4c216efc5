// internal/models/query.go
package models

// SortOrder is the direction applied to SortField.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// DateRange is the shorthand accepted from the console; the query engine
// resolves it to concrete bounds at fetch time.
type DateRange string

const (
	DateRangeToday DateRange = "today"
	DateRangeWeek  DateRange = "week"
	DateRangeMonth DateRange = "month"
)

const DefaultPageSize = 12

// QuerySpec describes one search/filter/sort/pagination request. It is a
// value type: every change produces a new spec via the With helpers, and any
// change other than the page number snaps the page back to 1.
type QuerySpec struct {
	Status    string    `json:"status,omitempty"`
	LoanType  string    `json:"loanType,omitempty"`
	CardType  string    `json:"cardType,omitempty"`
	MinAmount float64   `json:"minAmount,omitempty"`
	MaxAmount float64   `json:"maxAmount,omitempty"`
	DateRange DateRange `json:"dateRange,omitempty"`
	Search    string    `json:"search,omitempty"`
	SortField string    `json:"sortField,omitempty"`
	SortOrder SortOrder `json:"sortOrder,omitempty"`
	Page      int       `json:"page"`
	PageSize  int       `json:"pageSize"`
}

// NewQuerySpec returns the default spec for a fresh session.
func NewQuerySpec() QuerySpec {
	return QuerySpec{Page: 1, PageSize: DefaultPageSize}
}

// Normalize clamps pagination to legal values.
func (s QuerySpec) Normalize() QuerySpec {
	if s.Page < 1 {
		s.Page = 1
	}
	if s.PageSize < 1 {
		s.PageSize = DefaultPageSize
	}
	return s
}

func (s QuerySpec) WithStatus(status string) QuerySpec {
	s.Status = status
	s.Page = 1
	return s
}

func (s QuerySpec) WithLoanType(loanType string) QuerySpec {
	s.LoanType = loanType
	s.Page = 1
	return s
}

func (s QuerySpec) WithCardType(cardType string) QuerySpec {
	s.CardType = cardType
	s.Page = 1
	return s
}

func (s QuerySpec) WithAmountRange(min, max float64) QuerySpec {
	s.MinAmount = min
	s.MaxAmount = max
	s.Page = 1
	return s
}

func (s QuerySpec) WithDateRange(r DateRange) QuerySpec {
	s.DateRange = r
	s.Page = 1
	return s
}

func (s QuerySpec) WithSearch(search string) QuerySpec {
	s.Search = search
	s.Page = 1
	return s
}

func (s QuerySpec) WithSort(field string, order SortOrder) QuerySpec {
	s.SortField = field
	s.SortOrder = order
	s.Page = 1
	return s
}

// WithPage is the one mutation that keeps every filter intact.
func (s QuerySpec) WithPage(page int) QuerySpec {
	if page < 1 {
		page = 1
	}
	s.Page = page
	return s
}

func (s QuerySpec) WithPageSize(size int) QuerySpec {
	if size < 1 {
		size = DefaultPageSize
	}
	s.PageSize = size
	s.Page = 1
	return s
}
