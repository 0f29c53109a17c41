package truelayer

import (
	"testing"

	"finsight/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestMapCategory(t *testing.T) {
	tests := []struct {
		name             string
		providerCategory string
		description      string
		merchantName     string
		want             string
	}{
		{"direct debit enum", "DIRECT_DEBIT", "BRITISH GAS", "", models.CategoryBills},
		{"enum is case and space tolerant", " atm ", "", "", models.CategoryCash},
		{"interest enum", "INTEREST", "", "", models.CategoryIncome},
		{"transfer enum", "TRANSFER", "TO SAVINGS", "", models.CategoryTransfer},
		{"purchase falls through to keywords", "PURCHASE", "TESCO STORES 1234", "", models.CategoryGroceries},
		{"merchant name feeds the scan", "PURCHASE", "CARD PAYMENT", "Deliveroo", models.CategoryDining},
		{"no signal at all", "PURCHASE", "REF 0099182", "", models.CategoryOther},
		{"unknown enum falls through", "WEIRD_ENUM", "NETFLIX.COM", "", models.CategoryEntertainment},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := MapCategory(tc.providerCategory, tc.description, tc.merchantName)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestHasProviderMapping(t *testing.T) {
	assert.True(t, HasProviderMapping("DIRECT_DEBIT"))
	assert.True(t, HasProviderMapping("credit"))
	assert.False(t, HasProviderMapping("PURCHASE"))
	assert.False(t, HasProviderMapping("DEBIT"))
	assert.False(t, HasProviderMapping(""))
}
