package service

import (
	"testing"

	"finsight/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestCategorizer() *CategorizerService {
	return NewCategorizerService(zap.NewNop())
}

func TestCategorize(t *testing.T) {
	tests := []struct {
		name         string
		description  string
		amount       float64
		wantCategory string
		minConf      float64
	}{
		{
			name:         "grocery merchant",
			description:  "TESCO EXPRESS LONDON",
			amount:       -34.20,
			wantCategory: models.CategoryGroceries,
			minConf:      0.05,
		},
		{
			name:         "transport merchant",
			description:  "UBER TRIP HELP.UBER.COM",
			amount:       -12.50,
			wantCategory: models.CategoryTransport,
			minConf:      0.05,
		},
		{
			name:         "streaming subscription",
			description:  "NETFLIX.COM",
			amount:       -8.99,
			wantCategory: models.CategoryEntertainment,
			minConf:      0.05,
		},
		{
			name:         "salary keyword",
			description:  "ACME LTD SALARY",
			amount:       1500,
			wantCategory: models.CategoryIncome,
			minConf:      0.05,
		},
		{
			name:         "no keyword match",
			description:  "XQZ 0017 REF",
			amount:       -10,
			wantCategory: models.CategoryUncategorized,
			minConf:      0,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := newTestCategorizer()
			category, confidence := svc.Categorize(tc.description, tc.amount)
			assert.Equal(t, tc.wantCategory, category)
			assert.GreaterOrEqual(t, confidence, tc.minConf)
			assert.LessOrEqual(t, confidence, 1.0)
		})
	}
}

func TestCategorizeIsDeterministic(t *testing.T) {
	svc := newTestCategorizer()

	firstCat, firstConf := svc.Categorize("TESCO EXPRESS LONDON", -34.20)
	for i := 0; i < 50; i++ {
		category, confidence := svc.Categorize("TESCO EXPRESS LONDON", -34.20)
		require.Equal(t, firstCat, category)
		require.Equal(t, firstConf, confidence)
	}
}

func TestCategorizeLargeDepositReadsAsIncome(t *testing.T) {
	svc := newTestCategorizer()

	category, confidence := svc.Categorize("UNKNOWN COUNTERPARTY REF 99", 5000)
	assert.Equal(t, models.CategoryIncome, category)
	assert.GreaterOrEqual(t, confidence, 0.8)

	// At or below the threshold the heuristic stays out of it.
	category, _ = svc.Categorize("UNKNOWN COUNTERPARTY REF 99", 2000)
	assert.Equal(t, models.CategoryUncategorized, category)
}

func TestCategorizeLargeDepositNeverLowersConfidence(t *testing.T) {
	svc := newTestCategorizer()
	svc.LearnFromOverride("Monthly Payroll Acme", models.CategoryIncome)

	category, confidence := svc.Categorize("Monthly Payroll Acme", 5000)
	assert.Equal(t, models.CategoryIncome, category)
	assert.Equal(t, 1.0, confidence)
}

func TestLearnFromOverride(t *testing.T) {
	svc := newTestCategorizer()

	before, _ := svc.Categorize("TESCO EXPRESS LONDON", -34.20)
	require.Equal(t, models.CategoryGroceries, before)

	svc.LearnFromOverride("TESCO EXPRESS LONDON", models.CategoryShopping)

	category, confidence := svc.Categorize("TESCO EXPRESS LONDON", -34.20)
	assert.Equal(t, models.CategoryShopping, category)
	assert.Equal(t, 1.0, confidence)
}

func TestOverrideMatchesByNormalizedPrefix(t *testing.T) {
	svc := newTestCategorizer()

	// Learned from a shorter description, matched by a longer one sharing
	// the leading tokens.
	svc.LearnFromOverride("Tesco Express", models.CategoryShopping)

	category, confidence := svc.Categorize("TESCO EXPRESS LONDON #1234", -12)
	assert.Equal(t, models.CategoryShopping, category)
	assert.Equal(t, 1.0, confidence)
}

func TestLearnFromOverrideFeedsKeywordRules(t *testing.T) {
	svc := newTestCategorizer()

	svc.LearnFromOverride("ZIGGURAT BOOKS LTD", models.CategoryShopping)

	// A different description reusing the learned token should now lean
	// toward the corrected category even without an override hit.
	category, confidence := svc.Categorize("PAYMENT TO ZIGGURAT ONLINE", -25)
	assert.Equal(t, models.CategoryShopping, category)
	assert.Greater(t, confidence, 0.0)
	assert.Less(t, confidence, 1.0)
}

func TestLearnFromOverrideNovelCategoryCreatesRule(t *testing.T) {
	svc := newTestCategorizer()

	svc.LearnFromOverride("CHARITY DONATION OXFAM", "Giving")

	category, confidence := svc.Categorize("OXFAM MONTHLY GIFT", -10)
	assert.Equal(t, "Giving", category)
	assert.Greater(t, confidence, 0.0)
}

func TestLearnFromOverrideIgnoresEmptyDescription(t *testing.T) {
	svc := newTestCategorizer()
	svc.LearnFromOverride("  --- ", models.CategoryShopping)

	category, _ := svc.Categorize("", -5)
	assert.Equal(t, models.CategoryUncategorized, category)
}
