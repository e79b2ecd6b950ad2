package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"anoa.com/taskmanager/internal/entity"
	"anoa.com/taskmanager/pkg/apperror"
	"github.com/google/uuid"
)

type mockUserRepo struct {
	users   map[uuid.UUID]*entity.User
	deleted []uuid.UUID
}

func newMockUserRepo(users ...*entity.User) *mockUserRepo {
	m := &mockUserRepo{users: map[uuid.UUID]*entity.User{}}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

func (m *mockUserRepo) Create(ctx context.Context, user *entity.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	if u, ok := m.users[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, apperror.ErrNotFound
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperror.ErrNotFound
}

func (m *mockUserRepo) FindAll(ctx context.Context, roles ...entity.Role) ([]*entity.User, error) {
	var out []*entity.User
	for _, u := range m.users {
		if len(roles) == 0 || containsRole(roles, u.Role) {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return strings.Compare(out[i].Name, out[j].Name) < 0 })
	return out, nil
}

func containsRole(roles []entity.Role, r entity.Role) bool {
	for _, x := range roles {
		if x == r {
			return true
		}
	}
	return false
}

func (m *mockUserRepo) EmailTaken(ctx context.Context, email string, exceptID uuid.UUID) (bool, error) {
	for _, u := range m.users {
		if u.Email == email && u.ID != exceptID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockUserRepo) Update(ctx context.Context, user *entity.User) error {
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(m.users, id)
	m.deleted = append(m.deleted, id)
	return nil
}

type mockTokenRepo struct {
	revoked map[string]time.Duration
}

func (m *mockTokenRepo) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	m.revoked[jti] = ttl
	return nil
}

func (m *mockTokenRepo) IsRevoked(ctx context.Context, jti string) (bool, error) {
	_, ok := m.revoked[jti]
	return ok, nil
}
