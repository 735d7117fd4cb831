package models

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Back-office rows. They carry no derived logic; the admin screens list,
// filter, sort and edit them.

type Customer struct {
	gorm.Model
	Ref      string `gorm:"size:36;uniqueIndex" json:"ref"`
	Email    string `gorm:"index;not null" json:"email" validate:"required,email"`
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
	Country  string `gorm:"size:2" json:"country"`
	Status   string `gorm:"size:16;default:active" json:"status"` // active | blocked
}

type Product struct {
	gorm.Model
	Ref         string `gorm:"size:36;uniqueIndex" json:"ref"`
	SKU         string `gorm:"size:64;uniqueIndex" json:"sku" validate:"required"`
	Name        string `gorm:"not null" json:"name" validate:"required"`
	Description string `gorm:"type:text" json:"description"`
	PriceCents  int64  `json:"price_cents" validate:"gte=0"`
	Currency    string `gorm:"size:3;default:EUR" json:"currency"`
	Stock       int    `json:"stock"`
	Status      string `gorm:"size:16;default:active" json:"status"` // active | archived
}

// OrderItem is one line of Order.Items.
type OrderItem struct {
	SKU        string `json:"sku"`
	Quantity   int    `json:"quantity"`
	PriceCents int64  `json:"price_cents"`
}

type Order struct {
	gorm.Model
	Ref        string                         `gorm:"size:36;uniqueIndex" json:"ref"`
	CustomerID uint                           `gorm:"index" json:"customer_id"`
	Email      string                         `gorm:"index" json:"email" validate:"omitempty,email"`
	Items      datatypes.JSONSlice[OrderItem] `json:"items"`
	TotalCents int64                          `json:"total_cents"`
	Currency   string                         `gorm:"size:3;default:EUR" json:"currency"`
	Status     string                         `gorm:"size:16;default:pending" json:"status"` // pending | paid | shipped | cancelled | refunded
	Meta       datatypes.JSONMap              `json:"meta,omitempty"`
}

// Total sums the line items.
func (o Order) Total() int64 {
	var sum int64
	for _, it := range o.Items {
		sum += int64(it.Quantity) * it.PriceCents
	}
	return sum
}

type Subscription struct {
	gorm.Model
	Ref          string         `gorm:"size:36;uniqueIndex" json:"ref"`
	CustomerID   uint           `gorm:"index" json:"customer_id"`
	Email        string         `gorm:"index" json:"email"`
	ProductSKU   string         `gorm:"size:64" json:"product_sku"`
	Interval     string         `gorm:"size:16;default:monthly" json:"interval"` // monthly | quarterly
	Status       string         `gorm:"size:16;default:active" json:"status"`    // active | paused | cancelled
	NextDelivery datatypes.Date `json:"next_delivery"`
}

type SupportTicket struct {
	gorm.Model
	Ref      string `gorm:"size:36;uniqueIndex" json:"ref"`
	Email    string `gorm:"index;not null" json:"email" validate:"required,email"`
	Subject  string `gorm:"not null" json:"subject" validate:"required"`
	Body     string `gorm:"type:text" json:"body"`
	Priority string `gorm:"size:8;default:normal" json:"priority"` // low | normal | high
	Status   string `gorm:"size:16;default:open" json:"status"`    // open | pending | closed
}

func newRef() string { return uuid.NewString() }

func (c *Customer) BeforeCreate(*gorm.DB) error {
	if c.Ref == "" {
		c.Ref = newRef()
	}
	return nil
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	if p.Ref == "" {
		p.Ref = newRef()
	}
	return nil
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.Ref == "" {
		o.Ref = newRef()
	}
	if o.TotalCents == 0 {
		o.TotalCents = o.Total()
	}
	return nil
}

func (s *Subscription) BeforeCreate(*gorm.DB) error {
	if s.Ref == "" {
		s.Ref = newRef()
	}
	return nil
}

func (t *SupportTicket) BeforeCreate(*gorm.DB) error {
	if t.Ref == "" {
		t.Ref = newRef()
	}
	return nil
}
