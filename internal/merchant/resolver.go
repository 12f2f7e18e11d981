package merchant

import (
	"context"
	"errors"
	"fmt"

	"spendbook/internal/database"
)

// Store is the transaction-scoped merchant storage. *database.Tx implements it.
type Store interface {
	FindMerchantByName(ctx context.Context, name string) (int64, error)
	CreateMerchant(ctx context.Context, name string) (int64, error)
}

// GetOrCreate returns the id of the merchant with exactly this name, inserting it if absent.
// The lookup is case-sensitive and the name is stored as given.
func GetOrCreate(ctx context.Context, store Store, name string) (int64, error) {
	id, err := store.FindMerchantByName(ctx, name)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return 0, fmt.Errorf("find merchant %q: %w", name, err)
	}

	id, err = store.CreateMerchant(ctx, name)
	if err != nil {
		return 0, fmt.Errorf("create merchant %q: %w", name, err)
	}
	return id, nil
}

// Resolver memoizes GetOrCreate for the lifetime of one transaction scope.
type Resolver struct {
	store Store
	ids   map[string]int64
}

func NewResolver(store Store) *Resolver {
	return &Resolver{store: store, ids: make(map[string]int64)}
}

func (r *Resolver) Resolve(ctx context.Context, name string) (int64, error) {
	if id, ok := r.ids[name]; ok {
		return id, nil
	}
	id, err := GetOrCreate(ctx, r.store, name)
	if err != nil {
		return 0, err
	}
	r.ids[name] = id
	return id, nil
}
