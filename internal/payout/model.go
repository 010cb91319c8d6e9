package payout

import (
	"time"

	"printlab-be/internal/order"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// Completed and cancelled are terminal.
var transitions = map[Status][]Status{
	StatusPending:    {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusCompleted, StatusCancelled},
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

func (s Status) CanTransitionTo(target Status) bool {
	for _, t := range transitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// TypeStat aggregates the orders of one print category inside a payout.
// Amounts are minor units.
type TypeStat struct {
	Count  int   `json:"count"`
	Amount int64 `json:"amount"`
}

// Payout is a snapshot aggregation of a seller's orders at build time.
// Later order edits never retroactively alter it; only Status mutates.
type Payout struct {
	ID               uuid.UUID                      `json:"id"`
	Date             time.Time                      `json:"date"`
	Seller           string                         `json:"seller"`
	Amount           int64                          `json:"amount"`
	OrderNumbers     []string                       `json:"orderNumbers"`
	OrderCount       int                            `json:"orderCount"`
	AverageCheck     int64                          `json:"averageCheck"`
	ProductTypeStats map[order.ProductType]TypeStat `json:"productTypeStats"`
	Status           Status                         `json:"status"`
	ProcessedBy      string                         `json:"processedBy"`
	Comment          string                         `json:"comment,omitempty"`
}

type BuildInput struct {
	Seller       string   `json:"seller"`
	OrderNumbers []string `json:"orderNumbers"`
	Comment      string   `json:"comment"`
}
