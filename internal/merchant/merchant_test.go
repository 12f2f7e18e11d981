package merchant

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spendbook/internal/database"
)

func TestRefineName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"AMAZON.COM*AB12C", "Amazon"},
		{"PURCHASE AUTHORIZED ON 03/13 STARBUCKS", "Starbucks"},
		{"UBER EATS HELP.UBER.COM", "Uber Eats"},
		{"UBER *TRIP", "Uber"},
		{"TRADER JOE S #552 QPS", "Trader Joe's"},
		{"SQ *BLUE BOTTLE COFFEE", "Blue Bottle Coffee"},
		{"LOCAL HARDWARE 00123 PORTLAND OR", "Local Hardware"},
		{"CORNER DELI NEW YORK NY", "Corner Deli New York"},
		{"POS DEBIT GREEN GROCER", "Green Grocer"},
		{"", ""},
		{"   ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, RefineName(tt.in))
		})
	}
}

func TestRefineName_TruncatesLongNames(t *testing.T) {
	got := RefineName("EXTREMELY LONG MERCHANT DESCRIPTION THAT KEEPS GOING WELL PAST ANY REASONABLE LENGTH")
	assert.LessOrEqual(t, len([]rune(got)), maxNameLength)
	assert.NotEmpty(t, got)
}

// memStore is an in-memory Store that counts calls.
type memStore struct {
	names   map[string]int64
	next    int64
	creates int
	finds   int
	findErr error
}

func newMemStore() *memStore {
	return &memStore{names: map[string]int64{}, next: 1}
}

func (m *memStore) FindMerchantByName(_ context.Context, name string) (int64, error) {
	m.finds++
	if m.findErr != nil {
		return 0, m.findErr
	}
	id, ok := m.names[name]
	if !ok {
		return 0, database.ErrNotFound
	}
	return id, nil
}

func (m *memStore) CreateMerchant(_ context.Context, name string) (int64, error) {
	m.creates++
	id := m.next
	m.next++
	m.names[name] = id
	return id, nil
}

func TestGetOrCreate(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()

	id, err := GetOrCreate(ctx, store, "Starbucks")
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	again, err := GetOrCreate(ctx, store, "Starbucks")
	require.NoError(t, err)
	assert.Equal(t, id, again)
	assert.Equal(t, 1, store.creates)

	other, err := GetOrCreate(ctx, store, "STARBUCKS")
	require.NoError(t, err)
	assert.NotEqual(t, id, other, "lookup is case-sensitive")
}

func TestGetOrCreate_PropagatesLookupErrors(t *testing.T) {
	store := newMemStore()
	store.findErr = errors.New("disk on fire")

	_, err := GetOrCreate(context.Background(), store, "Starbucks")
	require.Error(t, err)
	assert.Equal(t, 0, store.creates)
}

func TestResolver_Memoizes(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	r := NewResolver(store)

	a, err := r.Resolve(ctx, "Costco")
	require.NoError(t, err)
	b, err := r.Resolve(ctx, "Costco")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, 1, store.finds)
}

func TestGetOrCreate_WithDatabase(t *testing.T) {
	db, err := database.Open(t.TempDir() + "/m.db")
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.Init())

	ctx := context.Background()
	var first, second int64
	err = db.WithTx(ctx, func(tx *database.Tx) error {
		var err error
		first, err = GetOrCreate(ctx, tx, "Whole Foods")
		if err != nil {
			return err
		}
		second, err = GetOrCreate(ctx, tx, "Whole Foods")
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, first, second)

	merchants, err := db.ListMerchants(ctx)
	require.NoError(t, err)
	assert.Len(t, merchants, 1)
}
