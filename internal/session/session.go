// Package session resolves the signed-in user.
package session

import (
	"context"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/snapshot"
)

// Accessor returns nil without an error when nobody is signed in.
type Accessor interface {
	CurrentUser(ctx context.Context) (*models.User, error)
}

type ctxKey struct{}

func WithUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

func UserFromContext(ctx context.Context) *models.User {
	u, _ := ctx.Value(ctxKey{}).(*models.User)
	return u
}

// ContextAccessor reads the user the HTTP auth middleware put in the request context.
type ContextAccessor struct{}

func (ContextAccessor) CurrentUser(ctx context.Context) (*models.User, error) {
	return UserFromContext(ctx), nil
}

// SnapshotAccessor keeps one signed-in user under the currentUser snapshot key,
// for single-user tools.
type SnapshotAccessor struct {
	Store snapshot.Store
}

func (a SnapshotAccessor) CurrentUser(ctx context.Context) (*models.User, error) {
	return snapshot.LoadValue[models.User](ctx, a.Store, snapshot.KeyCurrentUser)
}

// SignIn stores u without its password hash.
func (a SnapshotAccessor) SignIn(ctx context.Context, u models.User) error {
	u.PasswordHash = ""
	u.Password = ""
	return snapshot.SaveValue(ctx, a.Store, snapshot.KeyCurrentUser, &u)
}

func (a SnapshotAccessor) SignOut(ctx context.Context) error {
	return a.Store.Remove(ctx, snapshot.KeyCurrentUser)
}
