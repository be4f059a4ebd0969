package repository

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"batterella/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_WritesJSONArrays(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir, time.Minute, zerolog.Nop())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, s.CreateOrder(ctx, testOrder(1, "555-0100", model.StatusPending)))
	require.NoError(t, s.SaveCustomer(ctx, &model.Customer{Phone: "555-0100", CustomerToken: "CUST_1"}))
	require.NoError(t, s.AddPendingApproval(ctx, model.PendingApproval{Phone: "555-0100", OrderID: "o1"}))

	for _, name := range []string{OrdersFile, CustomersFile, ApprovalsFile} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err, name)

		var items []map[string]any
		require.NoError(t, json.Unmarshal(data, &items), name)
		assert.Len(t, items, 1, name)
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 3, "temporary files must not be left behind")
}

func TestFileStore_ReadsExistingData(t *testing.T) {
	dir := t.TempDir()
	first, err := NewFileStore(dir, time.Minute, zerolog.Nop())
	require.NoError(t, err)

	ctx := context.Background()
	order := testOrder(1, "555-0100", model.StatusDelivered)
	require.NoError(t, first.CreateOrder(ctx, order))

	second, err := NewFileStore(dir, time.Minute, zerolog.Nop())
	require.NoError(t, err)

	out, err := second.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, model.StatusDelivered, out.Status)
}

func TestFileStore_CacheExpiry(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	reader, err := NewFileStore(dir, 30*time.Second, zerolog.Nop())
	require.NoError(t, err)
	clock := baseTime
	reader.(*fileStore).now = func() time.Time { return clock }

	writer, err := NewFileStore(dir, 30*time.Second, zerolog.Nop())
	require.NoError(t, err)

	// Prime the reader's cache with an empty collection.
	orders, err := reader.ListOrders(ctx, model.OrderFilter{})
	require.NoError(t, err)
	assert.Empty(t, orders)

	require.NoError(t, writer.CreateOrder(ctx, testOrder(1, "555-0100", model.StatusPending)))

	clock = clock.Add(10 * time.Second)
	orders, err = reader.ListOrders(ctx, model.OrderFilter{})
	require.NoError(t, err)
	assert.Empty(t, orders, "cached read within ttl")

	clock = clock.Add(30 * time.Second)
	orders, err = reader.ListOrders(ctx, model.OrderFilter{})
	require.NoError(t, err)
	assert.Len(t, orders, 1, "reload after ttl")
}

func TestFileStore_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, OrdersFile), []byte("{not json"), 0o644))

	s, err := NewFileStore(dir, time.Minute, zerolog.Nop())
	require.NoError(t, err)

	_, err = s.ListOrders(context.Background(), model.OrderFilter{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode")
}
