package service

import (
	"strings"
	"sync"

	"finsight/internal/models"

	"go.uber.org/zap"
)

// Deposits above this are assumed salary-like regardless of description.
const largeDepositThreshold = 2000.0

// newRuleWeight is the weight given to rules learned from user overrides.
const newRuleWeight = 0.6

type categoryRule struct {
	category string
	keywords []string
	weight   float64
}

func defaultRules() []*categoryRule {
	return []*categoryRule{
		{models.CategoryIncome, []string{"salary", "payroll", "wages", "bonus", "dividend", "refund", "hmrc"}, 0.9},
		{models.CategoryGroceries, []string{"tesco", "sainsbury", "asda", "aldi", "lidl", "morrisons", "waitrose", "iceland", "coop", "grocery", "supermarket"}, 0.9},
		{models.CategoryTransport, []string{"uber", "bolt", "tfl", "trainline", "rail", "bus", "taxi", "fuel", "petrol", "shell", "esso", "parking"}, 0.85},
		{models.CategoryEntertainment, []string{"netflix", "spotify", "disney", "cinema", "odeon", "vue", "steam", "playstation", "xbox"}, 0.85},
		{models.CategoryDining, []string{"restaurant", "cafe", "coffee", "starbucks", "costa", "pret", "mcdonalds", "kfc", "nandos", "deliveroo", "takeaway", "pizza"}, 0.85},
		{models.CategoryShopping, []string{"amazon", "ebay", "argos", "asos", "primark", "currys", "ikea", "etsy"}, 0.8},
		{models.CategoryBills, []string{"rent", "mortgage", "electricity", "water", "council", "broadband", "vodafone", "giffgaff", "sky", "insurance"}, 0.85},
		{models.CategoryHealthcare, []string{"pharmacy", "boots", "dentist", "doctor", "optician", "gym", "specsavers"}, 0.8},
		{models.CategoryBankFees, []string{"fee", "charge", "overdraft", "atm", "withdrawal"}, 0.75},
	}
}

// CategorizerService assigns a best-guess category and confidence to a
// transaction description and improves over time from user corrections.
//
// Learned overrides are process-local and lost on restart: the table is a
// soft cache, the durable truth is the override flag and category stored
// on the transaction row itself.
type CategorizerService struct {
	mu        sync.RWMutex
	rules     []*categoryRule
	overrides map[string]string
	logger    *zap.Logger
}

func NewCategorizerService(logger *zap.Logger) *CategorizerService {
	return &CategorizerService{
		rules:     defaultRules(),
		overrides: make(map[string]string),
		logger:    logger,
	}
}

// Categorize returns the category and a confidence in [0,1]. The override
// table is checked first and short-circuits everything else at full
// confidence.
func (s *CategorizerService) Categorize(description string, amount float64) (string, float64) {
	desc := strings.ToLower(strings.TrimSpace(description))

	s.mu.RLock()
	defer s.mu.RUnlock()

	if category, ok := s.lookupOverride(desc); ok {
		return category, 1.0
	}

	category := models.CategoryUncategorized
	confidence := 0.0

	tokens := strings.Fields(desc)
	tokenSet := make(map[string]bool, len(tokens))
	for _, tok := range tokens {
		tokenSet[tok] = true
	}

	for _, rule := range s.rules {
		score := 0.0
		for _, kw := range rule.keywords {
			if !strings.Contains(desc, kw) {
				continue
			}
			// An exact-word match is worth the full weight, a substring
			// match 70% of it.
			if tokenSet[kw] {
				score += rule.weight
			} else {
				score += rule.weight * 0.7
			}
		}
		score /= float64(len(rule.keywords))
		if score > 1.0 {
			score = 1.0
		}
		if score > confidence {
			confidence = score
			category = rule.category
		}
	}

	// Large positive amounts read as salary-like income; raise the
	// result, never lower it.
	if amount > largeDepositThreshold {
		if category != models.CategoryIncome {
			category = models.CategoryIncome
			if confidence < 0.8 {
				confidence = 0.8
			}
		} else if confidence < 0.8 {
			confidence = 0.8
		}
	}

	return category, confidence
}

// LearnFromOverride records a user correction: the normalized description
// maps straight to the category from now on, and the description's tokens
// feed back into the keyword rules for that category.
func (s *CategorizerService) LearnFromOverride(description, category string) {
	key := normalizationKey(description)
	if key == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.overrides[key] = category

	var novel []string
	for _, tok := range alnumTokens(description) {
		if len(tok) <= 2 {
			continue
		}
		novel = append(novel, tok)
	}
	if len(novel) == 0 {
		return
	}

	for _, rule := range s.rules {
		if rule.category != category {
			continue
		}
		for _, tok := range novel {
			if !containsString(rule.keywords, tok) {
				rule.keywords = append(rule.keywords, tok)
			}
		}
		return
	}

	s.rules = append(s.rules, &categoryRule{category: category, keywords: novel, weight: newRuleWeight})
	s.logger.Debug("Learned new categorization rule",
		zap.String("category", category),
		zap.Strings("keywords", novel),
	)
}

// lookupOverride matches on the first three normalized tokens, falling
// back to shorter prefixes so "tesco express london" still hits an
// override learned from "Tesco Express". Caller holds at least the read
// lock.
func (s *CategorizerService) lookupOverride(desc string) (string, bool) {
	tokens := alnumTokens(desc)
	if len(tokens) > 3 {
		tokens = tokens[:3]
	}
	for n := len(tokens); n > 0; n-- {
		if category, ok := s.overrides[strings.Join(tokens[:n], " ")]; ok {
			return category, true
		}
	}
	return "", false
}

// normalizationKey lowercases, strips non-alphanumerics and joins the
// first three tokens.
func normalizationKey(description string) string {
	tokens := alnumTokens(description)
	if len(tokens) > 3 {
		tokens = tokens[:3]
	}
	return strings.Join(tokens, " ")
}

func alnumTokens(text string) []string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == ' ':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return ' '
		}
	}, text)
	return strings.Fields(cleaned)
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
