package authsession

import (
	"context"
	"sync"

	"bookfinder/internal/entity"
	"bookfinder/internal/notify"
)

// State is the manager's position in its lifecycle.
type State int

const (
	StateAnonymous State = iota
	StateAuthenticating
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Manager holds the current authenticated identity for one embedding client.
// Transitions: login and signup move Anonymous or Authenticated through
// Authenticating to Authenticated, falling back to Anonymous on rejection;
// logout moves Authenticated to Anonymous but stays Authenticated if the
// backend refuses; CheckSession resolves the held token and is idempotent.
// Every transition publishes a user-facing notification.
type Manager struct {
	service  *Service
	notifier notify.Notifier

	mu    sync.Mutex
	state State
	user  entity.User
	token string
}

func NewManager(service *Service, notifier notify.Notifier) *Manager {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &Manager{service: service, notifier: notifier}
}

func (m *Manager) Login(ctx context.Context, email, password string) (entity.User, error) {
	m.setAuthenticating()

	user, token, err := m.service.Login(ctx, email, password, "")
	if err != nil {
		m.setAnonymous()
		m.publish(ctx, notify.LevelError, err.Error(), "")
		return entity.User{}, err
	}

	m.setAuthenticated(user, token)
	m.publish(ctx, notify.LevelSuccess, "Successfully logged in", user.ID)
	return user, nil
}

func (m *Manager) Signup(ctx context.Context, email, password, username string) (entity.User, error) {
	m.setAuthenticating()

	user, token, err := m.service.Register(ctx, email, password, username, "")
	if err != nil {
		m.setAnonymous()
		m.publish(ctx, notify.LevelError, err.Error(), "")
		return entity.User{}, err
	}

	m.setAuthenticated(user, token)
	m.publish(ctx, notify.LevelSuccess, "Account created successfully", user.ID)
	return user, nil
}

func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	if m.state != StateAuthenticated {
		m.mu.Unlock()
		return nil
	}
	prevUser := m.user
	prevToken := m.token
	m.state = StateAuthenticating
	m.mu.Unlock()

	if err := m.service.Logout(ctx, prevToken); err != nil {
		// Logout failure leaves the session authenticated.
		m.setAuthenticated(prevUser, prevToken)
		m.publish(ctx, notify.LevelError, "Failed to log out", prevUser.ID)
		return err
	}

	m.setAnonymous()
	m.publish(ctx, notify.LevelSuccess, "Logged out successfully", prevUser.ID)
	return nil
}

// CheckSession asks the backend whether the held token still names a valid
// session. With no session it resolves to Anonymous and never errors; this
// is how authenticated state survives a restart when the embedding client
// persists the token.
func (m *Manager) CheckSession(ctx context.Context) (entity.User, bool) {
	m.mu.Lock()
	token := m.token
	m.mu.Unlock()

	user, ok, err := m.service.Check(ctx, token)
	if err != nil || !ok {
		m.setAnonymous()
		return entity.User{}, false
	}

	m.setAuthenticated(user, token)
	return user, true
}

// Resume seeds the manager with a previously issued session token; follow
// with CheckSession to validate it.
func (m *Manager) Resume(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
}

// CurrentUser implements favorites.UserSource for the embedded case.
func (m *Manager) CurrentUser(_ context.Context) (entity.User, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateAuthenticated {
		return entity.User{}, false
	}
	return m.user, true
}

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Manager) setAuthenticating() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = StateAuthenticating
}

func (m *Manager) setAnonymous() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = StateAnonymous
	m.user = entity.User{}
	m.token = ""
}

func (m *Manager) setAuthenticated(user entity.User, token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = StateAuthenticated
	m.user = user
	m.token = token
}

func (m *Manager) publish(ctx context.Context, level notify.Level, msg, userID string) {
	m.notifier.Publish(ctx, notify.Event{Level: level, Message: msg, UserID: userID})
}
