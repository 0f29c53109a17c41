package dto

type NetWorthResponse struct {
	TotalAssets      float64 `json:"totalAssets"`
	TotalLiabilities float64 `json:"totalLiabilities"`
	NetWorth         float64 `json:"netWorth"`
	SnapshotDate     string  `json:"snapshotDate"`
}

type NetWorthPointResponse struct {
	Date     string  `json:"date"`
	NetWorth float64 `json:"netWorth"`
}
