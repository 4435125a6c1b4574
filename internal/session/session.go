package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Data is the server-side state of one session. It never reaches the client;
// only the opaque session ID does.
type Data struct {
	UserID     int64               `json:"user_id"`
	ExpireTime time.Time           `json:"expire_time"`
	Flash      map[string][]string `json:"flash,omitempty"`
}

// Manager tracks one principal's session: identity, expiry and flash
// messages. It is an explicit handle passed to whoever needs identity, not
// process-wide ambient state.
type Manager struct {
	mu      sync.Mutex
	store   Store
	ttl     time.Duration
	id      string
	data    *Data
	started bool

	now func() time.Time
}

func NewManager(store Store, ttl time.Duration) *Manager {
	return &Manager{
		store: store,
		ttl:   ttl,
		now:   time.Now,
	}
}

// Start begins the underlying session exactly once. Subsequent calls are
// no-ops; every accessor starts lazily through it.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.startLocked(ctx)
}

func (m *Manager) startLocked(ctx context.Context) error {
	if m.started {
		return nil
	}
	m.id = uuid.NewString()
	m.data = &Data{}
	if err := m.store.Save(ctx, m.id, m.data, m.ttl); err != nil {
		return err
	}
	m.started = true
	return nil
}

// Resume adopts an existing session by its opaque identifier, typically read
// from a cookie. An unknown or expired identifier leaves the manager
// anonymous; ok reports whether state was found.
func (m *Manager) Resume(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id == "" {
		return false, nil
	}
	data, err := m.store.Load(ctx, id)
	if err != nil {
		return false, err
	}
	if data == nil {
		return false, nil
	}
	m.id = id
	m.data = data
	m.started = true
	return true, nil
}

// Login binds the session to userID and stamps the expiry. The session ID is
// regenerated so an identifier handed out before authentication can never be
// fixated onto the authenticated session.
func (m *Manager) Login(ctx context.Context, userID int64, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.startLocked(ctx); err != nil {
		return err
	}

	oldID := m.id
	m.id = uuid.NewString()
	m.data.UserID = userID
	m.data.ExpireTime = m.now().Add(ttl)

	if err := m.store.Save(ctx, m.id, m.data, ttl); err != nil {
		m.id = oldID
		return err
	}
	if err := m.store.Delete(ctx, oldID); err != nil {
		return err
	}
	return nil
}

// ID returns the opaque session identifier, empty before Start.
func (m *Manager) ID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.id
}

func (m *Manager) UserID() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		return 0
	}
	return m.data.UserID
}

func (m *Manager) IsLoggedIn() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data != nil && m.data.UserID != 0
}

// IsValid reports whether a principal is bound and the expiry has not passed.
// Expiry is checked lazily here; nothing evicts sessions in the background.
func (m *Manager) IsValid() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil || m.data.UserID == 0 {
		return false
	}
	return m.now().Before(m.data.ExpireTime)
}

// ExpirationTime returns the login expiry, ok=false when no login happened.
func (m *Manager) ExpirationTime() (time.Time, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil || m.data.ExpireTime.IsZero() {
		return time.Time{}, false
	}
	return m.data.ExpireTime, true
}

// Destroy clears all session state, server side included.
func (m *Manager) Destroy(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.id != "" {
		if err := m.store.Delete(ctx, m.id); err != nil {
			return err
		}
	}
	m.id = ""
	m.data = nil
	m.started = false
	return nil
}

// SetFlash appends a message to the FIFO queue for the given type.
func (m *Manager) SetFlash(ctx context.Context, flashType, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.startLocked(ctx); err != nil {
		return err
	}
	if m.data.Flash == nil {
		m.data.Flash = make(map[string][]string)
	}
	m.data.Flash[flashType] = append(m.data.Flash[flashType], message)
	return m.store.Save(ctx, m.id, m.data, m.ttl)
}

// GetFlash returns and deletes the messages queued under flashType. Each
// message is delivered at most once.
func (m *Manager) GetFlash(ctx context.Context, flashType string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.startLocked(ctx); err != nil {
		return nil, err
	}
	messages := m.data.Flash[flashType]
	if len(messages) == 0 {
		return nil, nil
	}
	delete(m.data.Flash, flashType)
	if err := m.store.Save(ctx, m.id, m.data, m.ttl); err != nil {
		return nil, err
	}
	return messages, nil
}

// ClearFlash drops every queued flash message.
func (m *Manager) ClearFlash(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.startLocked(ctx); err != nil {
		return err
	}
	m.data.Flash = nil
	return m.store.Save(ctx, m.id, m.data, m.ttl)
}

// CleanExpiredFlash drops all flash messages once the cutoff has passed.
func (m *Manager) CleanExpiredFlash(ctx context.Context, cutoff time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.startLocked(ctx); err != nil {
		return err
	}
	if m.now().After(cutoff) {
		m.data.Flash = nil
		return m.store.Save(ctx, m.id, m.data, m.ttl)
	}
	return nil
}
