// internal/approvals/cache/cache.go
package cache

import (
	"errors"
	"sync"

	"approval-console/internal/models"
)

var (
	ErrNotFound        = errors.New("application not in current page")
	ErrMutationPending = errors.New("a mutation is already in flight for this application")
)

// PageCache mirrors the page of application views currently displayed.
// Apply takes a pre-mutation snapshot so an in-flight request that fails can
// be rolled back; Commit discards the snapshot once the server acknowledges.
// At most one outstanding mutation per id is tracked.
type PageCache struct {
	mu        sync.Mutex
	order     []string
	items     map[string]*models.Application
	snapshots map[string]models.Application
}

func New() *PageCache {
	return &PageCache{
		items:     make(map[string]*models.Application),
		snapshots: make(map[string]models.Application),
	}
}

// Seed replaces the cache content with a freshly fetched page. Any pending
// snapshots are dropped: a re-fetch supersedes in-flight reconciliation.
func (c *PageCache) Seed(items []models.Application) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.order = make([]string, 0, len(items))
	c.items = make(map[string]*models.Application, len(items))
	c.snapshots = make(map[string]models.Application)

	for i := range items {
		app := items[i]
		c.order = append(c.order, app.ID)
		c.items[app.ID] = &app
	}
}

// Get returns a copy of the cached view.
func (c *PageCache) Get(id string) (models.Application, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	app, ok := c.items[id]
	if !ok {
		return models.Application{}, false
	}
	return *app, true
}

// Items returns copies of all cached views in page order.
func (c *PageCache) Items() []models.Application {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]models.Application, 0, len(c.order))
	for _, id := range c.order {
		if app, ok := c.items[id]; ok {
			out = append(out, *app)
		}
	}
	return out
}

// IDs returns the ids of the current page in display order.
func (c *PageCache) IDs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Len reports the number of cached views.
func (c *PageCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Apply mutates the view immediately, keeping a snapshot for rollback.
// A second Apply for the same id while one is outstanding is refused.
func (c *PageCache) Apply(id string, patch models.StatusPatch) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	app, ok := c.items[id]
	if !ok {
		return ErrNotFound
	}
	if _, pending := c.snapshots[id]; pending {
		return ErrMutationPending
	}

	c.snapshots[id] = *app
	patch.Apply(app)
	return nil
}

// Commit confirms the outstanding mutation and drops its snapshot.
func (c *PageCache) Commit(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.snapshots, id)
}

// Rollback restores the pre-mutation snapshot after a failed request.
func (c *PageCache) Rollback(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	snapshot, ok := c.snapshots[id]
	if !ok {
		return ErrNotFound
	}
	if app, live := c.items[id]; live {
		*app = snapshot
	}
	delete(c.snapshots, id)
	return nil
}

// HasPending reports whether a mutation is outstanding for id.
func (c *PageCache) HasPending(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, pending := c.snapshots[id]
	return pending
}

// Update overwrites the cached view with the server-acknowledged state.
// Used for the non-optimistic loan path where the view is patched only
// after confirmation.
func (c *PageCache) Update(id string, patch models.StatusPatch) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	app, ok := c.items[id]
	if !ok {
		return ErrNotFound
	}
	patch.Apply(app)
	return nil
}
