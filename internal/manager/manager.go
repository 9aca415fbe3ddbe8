package manager

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/ymori/itemshelf/internal/client"
	"github.com/ymori/itemshelf/internal/form"
	"github.com/ymori/itemshelf/internal/model"
)

// Validation and dispatch errors.
var (
	ErrTitleRequired = errors.New("title is required")
	ErrInvalidID     = errors.New("item ID is required")
	ErrInvalidPoint  = errors.New("point must be an integer between 0 and 5")
	ErrUnknownField  = errors.New("unknown item field")
	ErrUnknownAction = errors.New("unknown action")
	ErrNotReady      = errors.New("manager not initialized")
)

// StoreClient is the backend surface the manager depends on. The
// production implementation is client.Client; tests substitute a fake.
type StoreClient interface {
	List(ctx context.Context) ([]model.Item, error)
	Search(ctx context.Context, keyword string) ([]model.Item, error)
	Insert(ctx context.Context, fields ItemFields) (*model.Item, error)
	UpdatePoint(ctx context.Context, id int64, point int) (*model.Item, error)
	UpdateField(ctx context.Context, id int64, field, value string) (*model.Item, error)
	Delete(ctx context.Context, id int64) error
}

// ItemFields holds the user-supplied attributes of a new item. It is
// the client type, aliased so fakes in this package stay self-contained.
type ItemFields = client.ItemFields

// Manager owns the authoritative item state and serializes actions
// against it. Exactly one action runs at a time; submissions queue
// FIFO on the action mutex. While an action is in flight the manager
// holds at most one speculative projection, published before the
// remote call and always cleared when the action settles.
type Manager struct {
	client StoreClient
	logger *zap.Logger

	// actionMu serializes whole actions (decode through settle).
	actionMu sync.Mutex

	// stateMu guards the fields below for readers that run while an
	// action is in flight.
	stateMu     sync.RWMutex
	state       ItemState
	speculative []model.Item
	pending     bool
	ready       bool
}

// New creates a Manager backed by the given store client.
func New(client StoreClient, logger *zap.Logger) *Manager {
	return &Manager{
		client: client,
		logger: logger,
	}
}

// Init performs the initial authoritative fetch. It must be called by
// the composition root before the first Apply or Display; it may be
// called again to re-fetch from scratch.
func (m *Manager) Init(ctx context.Context) error {
	m.actionMu.Lock()
	defer m.actionMu.Unlock()

	items, err := m.client.List(ctx)
	if err != nil {
		return fmt.Errorf("initial fetch: %w", err)
	}

	m.stateMu.Lock()
	m.state = ItemState{All: items}
	m.speculative = nil
	m.pending = false
	m.ready = true
	m.stateMu.Unlock()

	m.logger.Info("item state initialized", zap.Int("items", len(items)))
	return nil
}

// Apply decodes a raw form submission, dispatches it to the matching
// action handler, and commits or rolls back the resulting state.
// Actions are processed strictly one at a time in arrival order.
func (m *Manager) Apply(ctx context.Context, values map[string]string) error {
	m.actionMu.Lock()
	defer m.actionMu.Unlock()

	m.stateMu.RLock()
	prior := m.state
	ready := m.ready
	m.stateMu.RUnlock()

	if !ready {
		return ErrNotReady
	}

	req, err := form.Decode(values)
	if err != nil {
		return err
	}

	next, err := m.dispatch(ctx, prior, req)
	if err != nil {
		m.rollback()
		return err
	}

	m.commit(next)
	return nil
}

// dispatch routes a decoded request to its handler.
func (m *Manager) dispatch(ctx context.Context, prior ItemState, req form.Request) (ItemState, error) {
	switch r := req.(type) {
	case form.Add:
		return m.handleAdd(ctx, prior, r)
	case form.Search:
		return m.handleSearch(ctx, prior, r)
	case form.SearchReset:
		return m.handleSearchReset(prior)
	case form.UpdatePoint:
		return m.handleUpdatePoint(ctx, prior, r)
	case form.UpdateField:
		return m.handleUpdateField(ctx, prior, r)
	case form.Delete:
		return m.handleDelete(ctx, prior, r)
	default:
		// form.Request is a closed set; defensive only.
		return ItemState{}, fmt.Errorf("%w: %T", ErrUnknownAction, req)
	}
}

// Display returns the list the user currently sees: the speculative
// projection while an action is in flight, else the filtered list when
// a search is active, else the full list. The returned slice is a copy.
func (m *Manager) Display() []model.Item {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()

	if m.speculative != nil {
		return copyItems(m.speculative)
	}
	return copyItems(m.state.display())
}

// State returns a copy of the authoritative snapshot.
func (m *Manager) State() ItemState {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	return m.state.clone()
}

// Pending reports whether an action is currently in flight.
func (m *Manager) Pending() bool {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	return m.pending
}

// beginOptimistic publishes a speculative projection. Handlers call it
// strictly before issuing the remote operation.
func (m *Manager) beginOptimistic(projection []model.Item) {
	m.stateMu.Lock()
	m.speculative = copyItems(projection)
	m.pending = true
	m.stateMu.Unlock()
}

// commit installs the next authoritative state and clears any
// speculative projection.
func (m *Manager) commit(next ItemState) {
	m.stateMu.Lock()
	m.state = next
	m.speculative = nil
	m.pending = false
	m.stateMu.Unlock()
}

// rollback discards the speculative projection, reverting the display
// to the last authoritative state.
func (m *Manager) rollback() {
	m.stateMu.Lock()
	m.speculative = nil
	m.pending = false
	m.stateMu.Unlock()
}
