package truelayer

import (
	"strings"

	"finsight/internal/models"
)

// providerCategories maps TrueLayer's transaction_category enum to the
// internal vocabulary. PURCHASE and DEBIT are deliberately absent: they
// carry no signal about what was bought, so they fall through to the
// keyword scan.
var providerCategories = map[string]string{
	"CREDIT":         models.CategoryIncome,
	"DIVIDEND":       models.CategoryIncome,
	"INTEREST":       models.CategoryIncome,
	"ATM":            models.CategoryCash,
	"CASH":           models.CategoryCash,
	"CASHBACK":       models.CategoryCash,
	"BILL_PAYMENT":   models.CategoryBills,
	"DIRECT_DEBIT":   models.CategoryBills,
	"STANDING_ORDER": models.CategoryBills,
	"FEE_CHARGE":     models.CategoryBankFees,
	"TRANSFER":       models.CategoryTransfer,
}

// Scanned in order so the same description always resolves the same way.
var categoryKeywords = []struct {
	category string
	keywords []string
}{
	{models.CategoryGroceries, []string{"tesco", "sainsbury", "asda", "aldi", "lidl", "morrisons", "waitrose", "grocery", "supermarket"}},
	{models.CategoryTransport, []string{"uber", "tfl", "trainline", "rail", "petrol", "fuel", "parking"}},
	{models.CategoryDining, []string{"restaurant", "cafe", "coffee", "deliveroo", "takeaway", "pizza"}},
	{models.CategoryEntertainment, []string{"netflix", "spotify", "cinema", "steam"}},
	{models.CategoryShopping, []string{"amazon", "ebay", "argos", "asos"}},
	{models.CategoryBills, []string{"insurance", "vodafone", "broadband", "council tax"}},
}

// MapCategory resolves TrueLayer's own category signal into the internal
// vocabulary: fixed enum lookup first, then a keyword scan over the
// description and merchant name, then the "Other" sentinel. It never
// fails; absence of signal is a default, not an error.
func MapCategory(providerCategory, description, merchantName string) string {
	if mapped, ok := providerCategories[strings.ToUpper(strings.TrimSpace(providerCategory))]; ok {
		return mapped
	}

	text := strings.ToLower(description + " " + merchantName)
	for _, entry := range categoryKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(text, kw) {
				return entry.category
			}
		}
	}

	return models.CategoryOther
}

// HasProviderMapping reports whether the enum value has a direct entry in
// the fixed lookup table.
func HasProviderMapping(providerCategory string) bool {
	_, ok := providerCategories[strings.ToUpper(strings.TrimSpace(providerCategory))]
	return ok
}
