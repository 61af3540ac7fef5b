// Package migration copies the legacy snapshot arrays into the document store.
package migration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Skotchmaster/storefront/internal/docstore"
	"github.com/Skotchmaster/storefront/internal/domain"
	"github.com/Skotchmaster/storefront/internal/hash"
	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repository"
	"github.com/Skotchmaster/storefront/internal/snapshot"
)

type Counts struct {
	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}

func (c Counts) Total() int { return c.Inserted + c.Updated + c.Skipped + c.Failed }

type Report struct {
	Users    Counts `json:"users"`
	Products Counts `json:"products"`
	Orders   Counts `json:"orders"`
	// Rehashed counts snapshot users whose clear-text password was replaced by a hash.
	Rehashed int `json:"rehashed"`
}

// Migrator is safe to run any number of times: records already present are
// skipped, except products, which are overwritten with the snapshot copy.
type Migrator struct {
	Snapshot snapshot.Store
	Store    *docstore.Store
}

func (m *Migrator) Run(ctx context.Context) (Report, error) {
	l := logging.FromContext(ctx).With("component", "migration")
	var rep Report

	users, err := docstore.Collect[models.User](m.Store, repository.CollUsers)
	if err != nil {
		return rep, err
	}
	products, err := docstore.Collect[models.Product](m.Store, repository.CollProducts)
	if err != nil {
		return rep, err
	}
	orders, err := docstore.Collect[models.Order](m.Store, repository.CollOrders)
	if err != nil {
		return rep, err
	}

	rep.Rehashed, err = RehashUsers(ctx, m.Snapshot)
	if err != nil {
		return rep, err
	}
	legacyUsers, err := snapshot.LoadList[models.User](ctx, m.Snapshot, snapshot.KeyUsers)
	if err != nil {
		return rep, fmt.Errorf("migration: load users: %w", err)
	}
	for i := range legacyUsers {
		rep.Users.add(copyRecord(ctx, l, users, legacyUsers[i].ID, &legacyUsers[i], false))
	}

	legacyProducts, err := snapshot.LoadList[models.Product](ctx, m.Snapshot, snapshot.KeyProducts)
	if err != nil {
		return rep, fmt.Errorf("migration: load products: %w", err)
	}
	for i := range legacyProducts {
		rep.Products.add(copyRecord(ctx, l, products, legacyProducts[i].ID, &legacyProducts[i], true))
	}

	legacyOrders, err := snapshot.LoadList[models.Order](ctx, m.Snapshot, snapshot.KeyOrders)
	if err != nil {
		return rep, fmt.Errorf("migration: load orders: %w", err)
	}
	for i := range legacyOrders {
		rep.Orders.add(copyRecord(ctx, l, orders, legacyOrders[i].ID, &legacyOrders[i], false))
	}

	l.Info("migration_finished",
		"users", rep.Users, "products", rep.Products, "orders", rep.Orders, "rehashed", rep.Rehashed)
	return rep, nil
}

// RehashUsers replaces legacy clear-text passwords in the snapshot users with
// bcrypt hashes and rewrites the list when anything changed. A legacy password
// sits either in the password field or, unhashed, in passwordHash.
func RehashUsers(ctx context.Context, s snapshot.Store) (int, error) {
	users, err := snapshot.LoadList[models.User](ctx, s, snapshot.KeyUsers)
	if err != nil {
		return 0, fmt.Errorf("migration: load users: %w", err)
	}
	n := 0
	for i := range users {
		changed, err := upgradePassword(&users[i])
		if err != nil {
			return 0, err
		}
		if changed {
			n++
		}
	}
	if n == 0 {
		return 0, nil
	}
	if err := snapshot.SaveList(ctx, s, snapshot.KeyUsers, users); err != nil {
		return 0, fmt.Errorf("migration: rewrite users: %w", err)
	}
	return n, nil
}

func upgradePassword(u *models.User) (bool, error) {
	plain := u.Password
	if plain == "" && u.PasswordHash != "" && !hash.IsHash(u.PasswordHash) {
		plain = u.PasswordHash
	}
	if plain == "" {
		return false, nil
	}
	if !hash.IsHash(u.PasswordHash) {
		h, err := hash.HashPassword(plain)
		if err != nil {
			return false, fmt.Errorf("migration: hash password of %s: %w", u.ID, err)
		}
		u.PasswordHash = h
	}
	u.Password = ""
	return true, nil
}

type outcome int

const (
	inserted outcome = iota
	updated
	skipped
	failed
)

func (c *Counts) add(o outcome) {
	switch o {
	case inserted:
		c.Inserted++
	case updated:
		c.Updated++
	case skipped:
		c.Skipped++
	default:
		c.Failed++
	}
}

func copyRecord[T any](ctx context.Context, l *slog.Logger, c *docstore.Collection[T], key string, rec *T, overwrite bool) outcome {
	err := c.Insert(ctx, rec)
	switch {
	case err == nil:
		return inserted
	case !errors.Is(err, domain.ErrDuplicateKey):
		l.Warn("migration_record_failed", "collection", c.Name(), "key", key, "error", err)
		return failed
	case !overwrite:
		return skipped
	}

	patch, err := docstore.Patch(rec)
	if err == nil {
		_, err = c.Update(ctx, key, patch)
	}
	if err != nil {
		l.Warn("migration_record_failed", "collection", c.Name(), "key", key, "error", err)
		return failed
	}
	return updated
}
