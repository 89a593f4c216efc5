// internal/approvals/session/controller.go
package session

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"time"

	"approval-console/internal/approvals/bulk"
	"approval-console/internal/approvals/cache"
	"approval-console/internal/approvals/client"
	"approval-console/internal/approvals/notify"
	"approval-console/internal/approvals/query"
	"approval-console/internal/approvals/selection"
	"approval-console/internal/approvals/transition"
	"approval-console/internal/common/errors"
	"approval-console/internal/common/logger"
	"approval-console/internal/models"
)

const fetchTimeout = 15 * time.Second

// Dependencies wires a controller to its collaborators.
type Dependencies struct {
	API            client.Service
	Logger         logger.Logger
	Hooks          []transition.DecisionHook
	SearchDebounce time.Duration
}

// Loading reports the independent in-flight flags, one per operation class
// so a bulk run never blocks the page spinner and vice versa.
type Loading struct {
	Page   bool `json:"page"`
	Action bool `json:"action"`
	Bulk   bool `json:"bulk"`
}

// Controller owns all mutable state of one open console view: the current
// QuerySpec, the cached page, the selection, and the toast queue. It is the
// only writer of that state; the HTTP layer and any renderers read through
// its accessors.
type Controller struct {
	kind        models.Kind
	engine      *query.Engine
	pages       *cache.PageCache
	selected    *selection.Set
	toasts      *notify.Queue
	transitions *transition.Manager
	bulkRunner  *bulk.Coordinator
	logger      logger.Logger

	mu             sync.Mutex
	spec           models.QuerySpec
	fetchGen       uint64
	total          int
	pageCount      int
	loading        Loading
	lastFetchError string

	debounce         *time.Timer
	debounceInterval time.Duration
}

func NewController(kind models.Kind, deps Dependencies) *Controller {
	log := deps.Logger.WithFields(map[string]interface{}{"kind": string(kind)})

	pages := cache.New()
	selected := selection.NewSet()
	transitions := transition.NewManager(deps.API, pages, log, deps.Hooks...)

	c := &Controller{
		kind:             kind,
		engine:           query.NewEngine(deps.API, log),
		pages:            pages,
		selected:         selected,
		toasts:           notify.NewQueue(),
		transitions:      transitions,
		logger:           log,
		spec:             models.NewQuerySpec(),
		pageCount:        1,
		debounceInterval: deps.SearchDebounce,
	}
	if c.debounceInterval <= 0 {
		c.debounceInterval = 400 * time.Millisecond
	}
	c.bulkRunner = bulk.NewCoordinator(transitions, selected, c, log)
	return c
}

// Close releases the controller's timers. State is session memory only and
// simply dropped.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.debounce != nil {
		c.debounce.Stop()
	}
}

// ==========================
// Query state
// ==========================

// Spec returns the current query spec.
func (c *Controller) Spec() models.QuerySpec {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.spec
}

// Loading returns the current in-flight flags.
func (c *Controller) Loading() Loading {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// LastFetchError returns the message of the most recent failed fetch, empty
// once a fetch succeeds. The previously displayed data stays intact while
// this is set.
func (c *Controller) LastFetchError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastFetchError
}

// Page returns the currently displayed page built from the local cache, so
// optimistic patches are visible immediately.
func (c *Controller) Page() query.Page {
	items := c.pages.Items()
	c.mu.Lock()
	defer c.mu.Unlock()
	return query.Page{Items: items, Total: c.total, PageCount: c.pageCount}
}

// UpdateSpec applies a spec change and fetches the resulting page.
func (c *Controller) UpdateSpec(ctx context.Context, change func(models.QuerySpec) models.QuerySpec) error {
	c.mu.Lock()
	spec := change(c.spec)
	c.mu.Unlock()
	return c.fetchSpec(ctx, spec)
}

// Refetch re-issues the current spec. It also serves the bulk coordinator's
// post-run resync.
func (c *Controller) Refetch(ctx context.Context) error {
	c.mu.Lock()
	spec := c.spec
	c.mu.Unlock()
	return c.fetchSpec(ctx, spec)
}

// SetSearch updates free-text search. The fetch is debounced: it only fires
// after the configured quiescence, and another keystroke restarts the clock.
func (c *Controller) SetSearch(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.spec = c.spec.WithSearch(text)
	if c.debounce != nil {
		c.debounce.Stop()
	}
	c.debounce = time.AfterFunc(c.debounceInterval, func() {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()

		c.mu.Lock()
		spec := c.spec
		c.mu.Unlock()
		_ = c.fetchSpec(ctx, spec)
	})
}

// fetchSpec is the single commit point for page data. Every fetch takes a
// generation number; a response is discarded when a newer spec has been
// issued since, so delayed responses can never clobber a fresher page.
func (c *Controller) fetchSpec(ctx context.Context, spec models.QuerySpec) error {
	c.mu.Lock()
	c.fetchGen++
	gen := c.fetchGen
	c.spec = spec
	c.loading.Page = true
	c.mu.Unlock()

	page, err := c.engine.Fetch(ctx, c.kind, spec)

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.fetchGen {
		// Superseded while in flight; the newer fetch owns the view.
		c.logger.Debug("discarding stale fetch result", map[string]interface{}{
			"generation": gen,
			"latest":     c.fetchGen,
		})
		return nil
	}
	c.loading.Page = false

	if err != nil {
		c.lastFetchError = fetchMessage(err)
		return err
	}

	c.lastFetchError = ""
	c.total = page.Total
	c.pageCount = page.PageCount
	c.pages.Seed(page.Items)
	c.selected.Prune(c.visibleKeysLocked(page.Items))
	return nil
}

func (c *Controller) visibleKeysLocked(items []models.Application) []selection.Key {
	keys := make([]selection.Key, 0, len(items))
	for _, app := range items {
		keys = append(keys, selection.Key{Kind: c.kind, ID: app.ID})
	}
	return keys
}

// ==========================
// Selection
// ==========================

func (c *Controller) ToggleSelect(id string) bool {
	return c.selected.Toggle(selection.Key{Kind: c.kind, ID: id})
}

// ToggleSelectAll selects or deselects exactly the currently visible page.
func (c *Controller) ToggleSelectAll() {
	c.selected.ToggleAll(c.visibleKeys())
}

func (c *Controller) visibleKeys() []selection.Key {
	items := c.pages.Items()
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.visibleKeysLocked(items)
}

func (c *Controller) IsSelected(id string) bool {
	return c.selected.Contains(selection.Key{Kind: c.kind, ID: id})
}

func (c *Controller) SelectionCount() int {
	return c.selected.Len()
}

// ==========================
// Single actions
// ==========================

// ApproveLoan resolves one pending loan. The cached view is patched after
// the service acknowledges; no page refetch is issued for the single path.
func (c *Controller) ApproveLoan(ctx context.Context, id string) error {
	return c.singleAction(ctx, func() error {
		return c.transitions.ApproveLoan(ctx, id)
	}, "Loan approved")
}

// RejectLoan resolves one pending loan as rejected with the given reason.
func (c *Controller) RejectLoan(ctx context.Context, id, reason string) error {
	return c.singleAction(ctx, func() error {
		return c.transitions.RejectLoan(ctx, id, reason)
	}, "Loan rejected")
}

// SetCardStatus toggles one card between active and blocked.
func (c *Controller) SetCardStatus(ctx context.Context, id string, status models.CardStatus, reason string) error {
	message := "Card activated"
	if status == models.CardBlocked {
		message = "Card blocked"
	}
	return c.singleAction(ctx, func() error {
		return c.transitions.SetCardStatus(ctx, id, status, reason)
	}, message)
}

// singleAction runs one transition under the action loading flag and applies
// the error-to-notification policy: validation errors are returned inline,
// a stale view warns and resyncs, and server rejections surface as an error
// toast with the service's message.
func (c *Controller) singleAction(ctx context.Context, run func() error, successMessage string) error {
	c.setLoading(func(l *Loading) { l.Action = true })
	err := run()
	c.setLoading(func(l *Loading) { l.Action = false })

	if err == nil {
		c.toasts.Push(successMessage, notify.SeveritySuccess, 0)
		return nil
	}

	if errors.IsValidation(err) {
		// Inline form error; never toasted, never propagated further up.
		return err
	}

	if errors.IsInvalidTransition(err) {
		c.toasts.Push("This record changed in the meantime; the view has been refreshed", notify.SeverityWarning, 0)
		if refErr := c.Refetch(ctx); refErr != nil {
			c.logger.WithError(refErr).Warn("resync after stale view failed", nil)
		}
		return err
	}

	c.toasts.Push(errorMessage(err), notify.SeverityError, 0)
	return err
}

// ==========================
// Bulk actions
// ==========================

// RunBulk applies action to every selected record. Outcomes are aggregated
// into a single toast; the selection is cleared and the page resynced by
// the coordinator regardless of the outcome.
func (c *Controller) RunBulk(ctx context.Context, action bulk.Action, reason string) ([]models.PendingResult, error) {
	req := bulk.Request{
		Action:  action,
		Reason:  reason,
		Targets: c.selected.Keys(),
	}

	c.setLoading(func(l *Loading) { l.Bulk = true })
	results, err := c.bulkRunner.Run(ctx, req)
	c.setLoading(func(l *Loading) { l.Bulk = false })

	if err == nil {
		c.toasts.Push(fmt.Sprintf("%d records updated", len(results)), notify.SeveritySuccess, 0)
		return results, nil
	}

	if errors.IsValidation(err) {
		return nil, err
	}
	if errors.IsPartialBulkFailure(err) {
		// One aggregate toast, never one per item.
		c.toasts.Push(errorMessage(err), notify.SeverityWarning, 0)
		return results, err
	}

	c.toasts.Push(errorMessage(err), notify.SeverityError, 0)
	return results, err
}

// ==========================
// Notifications
// ==========================

func (c *Controller) Notifications() []notify.Notification {
	return c.toasts.Active()
}

func (c *Controller) DismissNotification(id string) {
	c.toasts.Dismiss(id)
}

// ==========================
// Helpers
// ==========================

func (c *Controller) setLoading(change func(*Loading)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	change(&c.loading)
}

func fetchMessage(err error) string {
	var fe *errors.FetchError
	if stderrors.As(err, &fe) {
		return fe.Message
	}
	return err.Error()
}

func errorMessage(err error) string {
	var apiErr *client.APIError
	if stderrors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}
