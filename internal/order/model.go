package order

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusAdded     Status = "added"
	StatusReady     Status = "ready"
	StatusShipped   Status = "shipped"
	StatusFulfilled Status = "fulfilled"
	StatusCancelled Status = "cancelled"
	StatusReturned  Status = "returned"
)

// transitions lists every legal move of the order state machine.
// Cancelled and returned are terminal.
var transitions = map[Status][]Status{
	StatusAdded:     {StatusReady, StatusCancelled},
	StatusReady:     {StatusShipped, StatusCancelled},
	StatusShipped:   {StatusFulfilled, StatusCancelled},
	StatusFulfilled: {StatusReturned},
}

func (s Status) Valid() bool {
	switch s {
	case StatusAdded, StatusReady, StatusShipped, StatusFulfilled, StatusCancelled, StatusReturned:
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

type ProductType string

// Closed set of print categories.
const (
	ProductTypeTShirtWhite ProductType = "фб"
	ProductTypeTShirtBlack ProductType = "фч"
	ProductTypeHoodieWhite ProductType = "хб"
	ProductTypeHoodieBlack ProductType = "хч"
	ProductTypeSweatshirt  ProductType = "св"
)

func (p ProductType) Valid() bool {
	switch p {
	case ProductTypeTShirtWhite, ProductTypeTShirtBlack, ProductTypeHoodieWhite, ProductTypeHoodieBlack, ProductTypeSweatshirt:
		return true
	}
	return false
}

type Size string

const (
	SizeS  Size = "S"
	SizeM  Size = "M"
	SizeL  Size = "L"
	SizeXL Size = "XL"
)

func (s Size) Valid() bool {
	switch s {
	case SizeS, SizeM, SizeL, SizeXL:
		return true
	}
	return false
}

// Order is the authoritative record of a custom-print production order.
// All monetary fields are in minor units (kopecks).
type Order struct {
	ID             uuid.UUID   `json:"id"`
	OrderDate      time.Time   `json:"orderDate"`
	OrderNumber    string      `json:"orderNumber"`
	ShipmentNumber string      `json:"shipmentNumber"`
	Status         Status      `json:"status"`
	ProductType    ProductType `json:"productType"`
	Size           Size        `json:"size"`
	Seller         string      `json:"seller"`
	Price          int64       `json:"price"`
	Cost           *int64      `json:"cost,omitempty"`
	Photos         []string    `json:"photos,omitempty"`
	Comment        string      `json:"comment,omitempty"`
	ReadyAt        *time.Time  `json:"readyAt,omitempty"`
	OnWarehouse    bool        `json:"onWarehouse"`
	PrinterChecked bool        `json:"printerChecked"`
	UpdatedAt      time.Time   `json:"updatedAt"`
}

// RedactCost strips the cost field for roles not allowed to see it.
func (o *Order) RedactCost() {
	o.Cost = nil
}

type CreateInput struct {
	OrderNumber    string      `json:"orderNumber"`
	ShipmentNumber string      `json:"shipmentNumber"`
	ProductType    ProductType `json:"productType"`
	Size           Size        `json:"size"`
	Seller         string      `json:"seller"`
	Price          int64       `json:"price"`
	Cost           *int64      `json:"cost"`
	Photos         []string    `json:"photos"`
	Comment        string      `json:"comment"`
}

type ListFilter struct {
	Seller *string
	Status *Status
}
