//go:build integration

package mongodb

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcmongo "github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/xenking/restaurant-pos/internal/domain/menu"
	"github.com/xenking/restaurant-pos/internal/domain/order"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()

	container, err := tcmongo.Run(ctx, "mongo:7")
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, testcontainers.TerminateContainer(container))
	})

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	store, err := Open(ctx, uri, "pos_test", 10*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close(context.Background()) })
	require.NoError(t, store.Ping(ctx))
	return store
}

func TestStore(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	t.Run("menu create and list", func(t *testing.T) {
		repo := store.Menu()
		for _, name := range []string{"Soup", "Salad"} {
			item := &menu.Item{Name: name, Price: decimal.RequireFromString("4.50"), IsAvailable: true}
			require.NoError(t, repo.Create(ctx, item))
			assert.Len(t, item.ID, 24)
			assert.False(t, item.CreatedAt.IsZero())
		}

		items, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, "Soup", items[0].Name)
		assert.Equal(t, "Salad", items[1].Name)
	})

	t.Run("order create get list", func(t *testing.T) {
		repo := store.Orders()
		o := &order.Order{
			Items:    []order.LineItem{{ItemID: "m1", Name: "Burger", Quantity: 2, UnitPrice: decimal.RequireFromString("6.00")}},
			Subtotal: decimal.RequireFromString("12.00"),
			Tax:      decimal.RequireFromString("1.20"),
			Total:    decimal.RequireFromString("13.20"),
			Status:   order.StatusOpen,
		}
		require.NoError(t, repo.Create(ctx, o))

		got, err := repo.Get(ctx, o.ID)
		require.NoError(t, err)
		assert.Equal(t, "13.20", order.FormatMoney(got.Total))
		assert.Equal(t, "Burger", got.Items[0].Name)

		_, err = repo.Get(ctx, primitive.NewObjectID().Hex())
		assert.ErrorIs(t, err, order.ErrNotFound)

		orders, err := repo.List(ctx)
		require.NoError(t, err)
		assert.Len(t, orders, 1)
	})

	t.Run("collections", func(t *testing.T) {
		names, err := store.Collections(ctx)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{MenuCollection, OrderCollection}, names)
	})
}
