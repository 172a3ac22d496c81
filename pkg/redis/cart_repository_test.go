package redis

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	redisclient "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"julianmorley.ca/con-plar/storefront/pkg/gateway"
	"julianmorley.ca/con-plar/storefront/pkg/models"
)

type fakeVariants map[string]models.RawProduct

func (f fakeVariants) VariantByID(_ context.Context, variantID string) (models.RawProduct, models.RawVariant, error) {
	for _, p := range f {
		for _, v := range p.Variants {
			if v.ID == variantID {
				return p, v, nil
			}
		}
	}
	return models.RawProduct{}, models.RawVariant{}, gateway.ErrProductNotFound
}

func catalogFixture() fakeVariants {
	return fakeVariants{
		"dice": {
			ID: "p-dice", Handle: "dice-set", Title: "Dice Set",
			FeaturedImage: &models.Image{URL: "https://cdn.example/dice.png"},
			Variants: []models.RawVariant{
				{ID: "v-dice", Title: "Red", AvailableForSale: true, Price: models.RawMoney{Amount: "12.50", CurrencyCode: "CAD"}},
				{ID: "v-dice-gone", Title: "Blue", AvailableForSale: false, Price: models.RawMoney{Amount: "12.50", CurrencyCode: "CAD"}},
			},
		},
		"mat": {
			ID: "p-mat", Handle: "play-mat", Title: "Play Mat",
			Variants: []models.RawVariant{
				{ID: "v-mat", Title: "Default", AvailableForSale: true, Price: models.RawMoney{Amount: "30.00", CurrencyCode: "CAD"}},
			},
		},
	}
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("line-%d", n)
	}
}

func newTestRepository() *CartRepository {
	r := NewCartRepository(nil, catalogFixture(), time.Hour, "https://shop.example/checkout/")
	r.newID = sequentialIDs()
	return r
}

func TestResolveRejectsBadLines(t *testing.T) {
	r := newTestRepository()

	_, err := r.resolve(context.Background(), []models.LineInput{
		{MerchandiseID: "v-dice", Quantity: 0},
		{MerchandiseID: "v-missing", Quantity: 1},
		{MerchandiseID: "v-dice-gone", Quantity: 1},
	})
	ue, ok := gateway.AsUserErrors(err)
	require.True(t, ok)
	require.Len(t, ue, 3)
	assert.Equal(t, []string{"lines", "0", "quantity"}, ue[0].Field)
	assert.Equal(t, []string{"lines", "1", "merchandiseId"}, ue[1].Field)
	assert.Equal(t, "MERCHANDISE_NOT_AVAILABLE", ue[2].Code)
}

func TestMergeLinesCombinesSameVariant(t *testing.T) {
	r := newTestRepository()
	resolved, err := r.resolve(context.Background(), []models.LineInput{
		{MerchandiseID: "v-dice", Quantity: 2},
		{MerchandiseID: "v-mat", Quantity: 1},
		{MerchandiseID: "v-dice", Quantity: 1},
	})
	require.NoError(t, err)

	sc := storedCart{ID: "c1"}
	mergeLines(&sc, resolved, r.newID)

	require.Len(t, sc.Lines, 2)
	assert.Equal(t, "line-1", sc.Lines[0].ID)
	assert.Equal(t, 3, sc.Lines[0].Quantity)
	assert.Equal(t, "dice-set", sc.Lines[0].Merchandise.Product.Handle)
	assert.Equal(t, "line-2", sc.Lines[1].ID)
}

func TestViewComputesTotals(t *testing.T) {
	r := newTestRepository()
	sc := storedCart{ID: "c1", Lines: []storedLine{
		{ID: "a", Quantity: 3, UnitPrice: models.RawMoney{Amount: "12.50", CurrencyCode: "CAD"}},
		{ID: "b", Quantity: 1, UnitPrice: models.RawMoney{Amount: "30.00", CurrencyCode: "CAD"}},
	}}

	c := r.view(sc)
	assert.Equal(t, "https://shop.example/checkout/c1", c.CheckoutURL)
	assert.Equal(t, 4, c.TotalQuantity)
	assert.Equal(t, c.TotalQuantity, c.LineQuantitySum())
	assert.Equal(t, "37.50", c.Lines[0].TotalAmount.Display())
	assert.Equal(t, "67.50", c.Cost.Subtotal.Display())
	assert.Equal(t, "67.50", c.Cost.Total.Display())
	assert.Nil(t, c.Cost.Tax)
}

func TestViewOfEmptyCart(t *testing.T) {
	r := NewCartRepository(nil, catalogFixture(), time.Hour, "https://shop.example/checkout", WithCurrency("USD"))

	c := r.view(storedCart{ID: "empty"})
	assert.Equal(t, 0, c.TotalQuantity)
	assert.NotNil(t, c.Lines)
	assert.Equal(t, "USD", c.Cost.Total.CurrencyCode)
	assert.Equal(t, "0.00", c.Cost.Total.Display())
}

func TestApplyUpdates(t *testing.T) {
	sc := storedCart{Lines: []storedLine{{ID: "a", Quantity: 1}, {ID: "b", Quantity: 2}}}

	require.NoError(t, applyUpdates(&sc, []models.LineUpdate{{ID: "a", Quantity: 5}, {ID: "b", Quantity: 0}}))
	require.Len(t, sc.Lines, 1)
	assert.Equal(t, 5, sc.Lines[0].Quantity)

	err := applyUpdates(&sc, []models.LineUpdate{{ID: "zzz", Quantity: 1}})
	ue, ok := gateway.AsUserErrors(err)
	require.True(t, ok)
	assert.Equal(t, []string{"lines", "0", "id"}, ue[0].Field)
}

func TestRemoveLines(t *testing.T) {
	sc := storedCart{Lines: []storedLine{{ID: "a"}, {ID: "b"}, {ID: "c"}}}

	require.NoError(t, removeLines(&sc, []string{"a", "c"}))
	require.Len(t, sc.Lines, 1)
	assert.Equal(t, "b", sc.Lines[0].ID)

	err := removeLines(&sc, []string{"a"})
	_, ok := gateway.AsUserErrors(err)
	assert.True(t, ok)
	assert.Len(t, sc.Lines, 1)
}

func TestUpdateCartLinesRejectsNegativeQuantity(t *testing.T) {
	r := newTestRepository()

	_, err := r.UpdateCartLines(context.Background(), "c1", []models.LineUpdate{{ID: "a", Quantity: -1}})
	_, ok := gateway.AsUserErrors(err)
	assert.True(t, ok)
}

// integrationClient connects to the server in STOREFRONT_TEST_REDIS, or skips.
func integrationClient(t *testing.T) *redisclient.Client {
	t.Helper()
	addr := os.Getenv("STOREFRONT_TEST_REDIS")
	if addr == "" {
		t.Skip("STOREFRONT_TEST_REDIS not set")
	}
	client := redisclient.NewClient(&redisclient.Options{Addr: addr, DB: 15})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, Ping(context.Background(), client))
	return client
}

func TestCartRepositoryRoundTrip(t *testing.T) {
	client := integrationClient(t)
	ctx := context.Background()
	r := NewCartRepository(client, catalogFixture(), time.Minute, "https://shop.example/checkout")

	c, err := r.CreateCart(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { client.Del(ctx, storedCartKey(c.ID)) })

	c, err = r.AddCartLines(ctx, c.ID, []models.LineInput{{MerchandiseID: "v-dice", Quantity: 2}})
	require.NoError(t, err)
	require.Len(t, c.Lines, 1)

	c, err = r.UpdateCartLines(ctx, c.ID, []models.LineUpdate{{ID: c.Lines[0].ID, Quantity: 4}})
	require.NoError(t, err)
	assert.Equal(t, "50.00", c.Cost.Total.Display())

	fetched, err := r.CartByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c, fetched)

	c, err = r.RemoveCartLines(ctx, c.ID, []string{c.Lines[0].ID})
	require.NoError(t, err)
	assert.Empty(t, c.Lines)

	_, err = r.CartByID(ctx, "does-not-exist")
	assert.ErrorIs(t, err, gateway.ErrCartNotFound)
}

func TestSessionSlot(t *testing.T) {
	client := integrationClient(t)
	ctx := context.Background()
	slot := NewCartIDStore(client, time.Minute).ForSession("test-session")
	t.Cleanup(func() { client.Del(ctx, sessionCartKey("test-session")) })

	_, ok, err := slot.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, slot.Save(ctx, "cart-1"))
	id, ok, err := slot.Load(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "cart-1", id)
}
