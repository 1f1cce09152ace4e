package service

import (
	"testing"

	"github.com/GabrielAlexander97/neverpayforads/internal/membership/domain"
	"github.com/stretchr/testify/require"
)

func TestClassifier(t *testing.T) {
	t.Parallel()
	c := NewClassifier(testSKU, "membership")

	t.Run("sku match qualifies", func(t *testing.T) {
		got := c.Classify(domain.Order{LineItems: []domain.LineItem{
			{SKU: "OTHER", Title: "Sticker"},
			{SKU: testSKU, Title: "30 day pass"},
		}})
		require.True(t, got.Qualifies())
		require.Equal(t, testSKU, got.MatchedSKU)
		require.Equal(t, "sku: "+testSKU, got.Reason)
		require.Empty(t, got.Advisories)
	})

	t.Run("title alone is advisory only", func(t *testing.T) {
		got := c.Classify(domain.Order{LineItems: []domain.LineItem{{SKU: "MUG", Title: "Membership Mug"}}})
		require.False(t, got.Qualifies())
		require.Equal(t, domain.NotQualified, got.Outcome)
		require.Equal(t, []string{"title: Membership Mug"}, got.Advisories)
	})

	t.Run("tag alone is advisory only", func(t *testing.T) {
		got := c.Classify(domain.Order{Tags: "vip, Membership", LineItems: []domain.LineItem{{SKU: "MUG"}}})
		require.False(t, got.Qualifies())
		require.Equal(t, []string{"order_tag: Membership"}, got.Advisories)
	})

	t.Run("advisories are reported alongside a sku match", func(t *testing.T) {
		got := c.Classify(domain.Order{Tags: "membership", LineItems: []domain.LineItem{{SKU: testSKU, Title: "NPFA Membership"}}})
		require.True(t, got.Qualifies())
		require.Len(t, got.Advisories, 2)
	})

	t.Run("sku comparison is exact", func(t *testing.T) {
		got := c.Classify(domain.Order{LineItems: []domain.LineItem{{SKU: "npfa-membership-30d"}}})
		require.False(t, got.Qualifies())
	})

	t.Run("empty configured sku never matches", func(t *testing.T) {
		got := NewClassifier("", "").Classify(domain.Order{LineItems: []domain.LineItem{{SKU: ""}}})
		require.False(t, got.Qualifies())
	})
}
