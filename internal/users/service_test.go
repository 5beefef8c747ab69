package users

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/meridian-erp/meridian-erp/internal/authz"
	"github.com/meridian-erp/meridian-erp/internal/collection"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

type memoryRepo struct {
	rows   map[int64]User
	nextID int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{rows: make(map[int64]User)}
}

func (r *memoryRepo) List(ctx context.Context, q collection.Query) ([]User, int, error) {
	matched := []User{}
	for _, u := range r.rows {
		if q.Search != "" && !strings.Contains(strings.ToLower(u.Name), q.Search) &&
			!strings.Contains(strings.ToLower(u.Email), q.Search) {
			continue
		}
		matched = append(matched, u)
	}
	return matched, len(matched), nil
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (User, error) {
	u, ok := r.rows[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (r *memoryRepo) FindByEmail(ctx context.Context, email string) (User, error) {
	for _, u := range r.rows {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

func (r *memoryRepo) Create(ctx context.Context, u User) (User, error) {
	for _, existing := range r.rows {
		if strings.EqualFold(existing.Email, u.Email) {
			return User{}, fmt.Errorf("users: email %q: %w", u.Email, shared.ErrDuplicate)
		}
	}
	r.nextID++
	u.ID = r.nextID
	u.CreatedAt = time.Now().UTC()
	u.UpdatedAt = u.CreatedAt
	r.rows[u.ID] = u
	return u, nil
}

func (r *memoryRepo) Update(ctx context.Context, u User) (User, error) {
	if _, ok := r.rows[u.ID]; !ok {
		return User{}, ErrNotFound
	}
	r.rows[u.ID] = u
	return u, nil
}

func (r *memoryRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.rows[id]; !ok {
		return ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

func TestCreateHashesPasswordAndGrants(t *testing.T) {
	svc := NewService(newMemoryRepo())

	created, err := svc.Create(context.Background(), CreateRequest{
		Email:        "clerk@meridian.test",
		Name:         "Warehouse clerk",
		Password:     "correct horse",
		Role:         "Clerk",
		Capabilities: []string{"Materials.View", "Materials.Reserve"},
	})
	require.NoError(t, err)
	require.True(t, created.IsActive)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(created.PasswordHash), []byte("correct horse")))
	require.Equal(t, []authz.Capability{authz.CapMaterialsView, authz.CapMaterialsReserve}, created.Capabilities)
}

func TestCreateRejectsUnknownCapability(t *testing.T) {
	svc := NewService(newMemoryRepo())

	_, err := svc.Create(context.Background(), CreateRequest{
		Email:        "clerk@meridian.test",
		Name:         "Warehouse clerk",
		Password:     "correct horse",
		Role:         "Clerk",
		Capabilities: []string{"Materials.Yeet"},
	})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestUpdateReplacesGrants(t *testing.T) {
	svc := NewService(newMemoryRepo())

	created, err := svc.Create(context.Background(), CreateRequest{
		Email:        "clerk@meridian.test",
		Name:         "Warehouse clerk",
		Password:     "correct horse",
		Role:         "Clerk",
		Capabilities: []string{"Materials.View"},
	})
	require.NoError(t, err)

	grants := []string{"Orders.View", "Orders.Submit"}
	updated, err := svc.Update(context.Background(), created.ID, UpdateRequest{Capabilities: &grants})
	require.NoError(t, err)
	require.Equal(t, []authz.Capability{authz.CapOrdersView, authz.CapOrdersSubmit}, updated.Capabilities)
}

func TestActorSnapshot(t *testing.T) {
	u := User{ID: 7, Role: "Clerk", Capabilities: []authz.Capability{authz.CapOrdersView}}
	actor := u.Actor()
	require.Equal(t, int64(7), actor.UserID)
	require.Equal(t, "Clerk", actor.Role)
	require.Equal(t, []authz.Capability{authz.CapOrdersView}, actor.Capabilities)
}
