package models

// Internal category vocabulary. Both the aggregator-category mapping and
// the keyword categorizer resolve into these labels.
const (
	CategoryIncome        = "Income"
	CategoryGroceries     = "Groceries"
	CategoryTransport     = "Transport"
	CategoryEntertainment = "Entertainment"
	CategoryDining        = "Dining"
	CategoryShopping      = "Shopping"
	CategoryBills         = "Bills & Utilities"
	CategoryHealthcare    = "Healthcare"
	CategoryBankFees      = "Banking & Fees"
	CategoryTransfer      = "Transfer"
	CategoryCash          = "Cash & ATM"
	CategoryOther         = "Other"
	CategoryUncategorized = "Uncategorized"
)
