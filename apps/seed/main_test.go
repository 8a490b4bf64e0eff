package main

import (
	"context"
	"testing"

	"go-storefront/apps/product"
	"go-storefront/apps/schema"
	"go-storefront/pkg/dbtest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedCatalogIsIdempotent(t *testing.T) {
	db := dbtest.New(t, schema.Models()...)
	svc := product.NewService(db, nil, nil)
	ctx := context.Background()

	want := 0
	for _, c := range catalog {
		want += len(c.products)
	}

	n, err := seedCatalog(ctx, svc)
	require.NoError(t, err)
	assert.Equal(t, want, n)

	n, err = seedCatalog(ctx, svc)
	require.NoError(t, err)
	assert.Zero(t, n)

	cats, err := svc.ListCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, cats, 4)

	p, err := svc.GetProduct(ctx, "smart-led-desk-lamp", false)
	require.NoError(t, err)
	assert.Equal(t, "69.99", p.Price.StringFixed(2))
	require.NotNil(t, p.Category)
	assert.Equal(t, "home-living", p.Category.Slug)

	require.NoError(t, clearCatalog(ctx, db))
	cats, err = svc.ListCategories(ctx)
	require.NoError(t, err)
	assert.Empty(t, cats)
}
