package debt

import "time"

// Debt is a running-balance record for one person. Amounts are minor units.
// CurrentAmount changes only through recorded payments and never exceeds
// BaseAmount or drops below zero.
type Debt struct {
	ID            int64     `json:"id"`
	PersonName    string    `json:"personName"`
	BaseAmount    int64     `json:"baseAmount"`
	CurrentAmount int64     `json:"currentAmount"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Payment is one entry of the append-only audit log.
type Payment struct {
	ID     int64     `json:"id"`
	DebtID int64     `json:"debtId"`
	Amount int64     `json:"amount"`
	PaidAt time.Time `json:"paidAt"`
}

type PaymentInput struct {
	PersonName string `json:"personName"`
	Amount     int64  `json:"amount"`
	// BaseAmount seeds a new debt when the person has none yet.
	BaseAmount *int64 `json:"baseAmount,omitempty"`
}
