package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	"pizza-delivery/internal/data/entity"
	"pizza-delivery/internal/data/repository"
	domainErr "pizza-delivery/internal/domain/errors"
	"pizza-delivery/pkg/events"

	"github.com/google/uuid"
)

// In-memory stores with the same contracts as the pgx repositories.

type memUsers struct {
	mu    sync.Mutex
	users map[uuid.UUID]*entity.User
}

func newMemUsers() *memUsers {
	return &memUsers{users: make(map[uuid.UUID]*entity.User)}
}

func (m *memUsers) Create(_ context.Context, user *entity.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == user.Username || u.Email == user.Email {
			return domainErr.ErrConflict
		}
	}
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *memUsers) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (m *memUsers) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	return m.find(func(u *entity.User) bool { return u.Email == email })
}

func (m *memUsers) FindByUsername(_ context.Context, username string) (*entity.User, error) {
	return m.find(func(u *entity.User) bool { return u.Username == username })
}

func (m *memUsers) find(match func(*entity.User) bool) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

// add stores a ready-made user, bypassing signup.
func (m *memUsers) add(name string, staff bool) *entity.User {
	user := &entity.User{
		Base:     entity.Base{ID: uuid.New(), CreatedAt: time.Now(), UpdatedAt: time.Now()},
		Username: name,
		Email:    name + "@example.com",
		IsStaff:  staff,
		IsActive: true,
	}
	m.mu.Lock()
	m.users[user.ID] = user
	m.mu.Unlock()
	return user
}

type memOrders struct {
	mu     sync.Mutex
	nextID int64
	orders map[int64]*entity.Order
	writes int
}

func newMemOrders() *memOrders {
	return &memOrders{orders: make(map[int64]*entity.Order)}
}

func (m *memOrders) Create(_ context.Context, order *entity.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	order.ID = m.nextID
	order.Status = entity.OrderStatusReceived
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt
	cp := *order
	m.orders[order.ID] = &cp
	m.writes++
	return nil
}

func (m *memOrders) FindByID(_ context.Context, id int64) (*entity.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o, ok := m.orders[id]; ok {
		cp := *o
		return &cp, nil
	}
	return nil, nil
}

func (m *memOrders) FindByIDAndUserID(ctx context.Context, id int64, userID uuid.UUID) (*entity.Order, error) {
	order, err := m.FindByID(ctx, id)
	if err != nil || order == nil || order.UserID != userID {
		return nil, err
	}
	return order, nil
}

func (m *memOrders) FindAll(_ context.Context) ([]*entity.Order, error) {
	return m.filter(func(*entity.Order) bool { return true }), nil
}

func (m *memOrders) FindByUserID(_ context.Context, userID uuid.UUID) ([]*entity.Order, error) {
	return m.filter(func(o *entity.Order) bool { return o.UserID == userID }), nil
}

func (m *memOrders) filter(match func(*entity.Order) bool) []*entity.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*entity.Order{}
	for _, o := range m.orders {
		if match(o) {
			cp := *o
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *memOrders) Mutate(_ context.Context, id int64, fn func(order *entity.Order) error) (*entity.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.orders[id]
	if !ok {
		return nil, domainErr.ErrOrderNotFound
	}
	cp := *stored
	if err := fn(&cp); err != nil {
		return nil, err
	}
	cp.UpdatedAt = time.Now()
	m.orders[id] = &cp
	m.writes++
	out := cp
	return &out, nil
}

func (m *memOrders) DeleteWith(_ context.Context, id int64, check func(order *entity.Order) error) (*entity.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.orders[id]
	if !ok {
		return nil, domainErr.ErrOrderNotFound
	}
	cp := *stored
	if err := check(&cp); err != nil {
		return nil, err
	}
	delete(m.orders, id)
	m.writes++
	return &cp, nil
}

type memSessions struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*entity.Session
}

func newMemSessions() *memSessions {
	return &memSessions{sessions: make(map[uuid.UUID]*entity.Session)}
}

func (m *memSessions) Create(_ context.Context, session *entity.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *session
	m.sessions[session.TokenID] = &cp
	return nil
}

func (m *memSessions) FindValidSession(_ context.Context, tokenID uuid.UUID) (*entity.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[tokenID]
	if !ok || !s.Active(time.Now()) {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (m *memSessions) Revoke(_ context.Context, tokenID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[tokenID]; ok && s.RevokedAt == nil {
		now := time.Now()
		s.RevokedAt = &now
	}
	return nil
}

func (m *memSessions) RevokeAllUserSessions(_ context.Context, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	for _, s := range m.sessions {
		if s.UserID == userID && s.RevokedAt == nil {
			s.RevokedAt = &now
		}
	}
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.OrderEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event events.OrderEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []events.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.EventType, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

type fixture struct {
	users     *memUsers
	orders    *memOrders
	sessions  *memSessions
	publisher *recordingPublisher
	repo      *repository.Repository
}

func newFixture() *fixture {
	f := &fixture{
		users:     newMemUsers(),
		orders:    newMemOrders(),
		sessions:  newMemSessions(),
		publisher: &recordingPublisher{},
	}
	f.repo = &repository.Repository{
		User:    f.users,
		Session: f.sessions,
		Order:   f.orders,
	}
	return f
}
