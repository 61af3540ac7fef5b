package models

import "time"

type OrderStatus string

const (
	StatusPending    OrderStatus = "PENDING"
	StatusProcessing OrderStatus = "PROCESSING"
	StatusShipped    OrderStatus = "SHIPPED"
	StatusDelivered  OrderStatus = "DELIVERED"
	StatusCancelled  OrderStatus = "CANCELLED"
)

func (s OrderStatus) String() string { return string(s) }

func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

type PaymentMethod string

const (
	PaymentPix    PaymentMethod = "pix"
	PaymentCredit PaymentMethod = "credit"
	PaymentDebit  PaymentMethod = "debit"
	PaymentBoleto PaymentMethod = "boleto"
	PaymentCash   PaymentMethod = "cash"
)

var paymentNames = map[PaymentMethod]string{
	PaymentPix:    "PIX",
	PaymentCredit: "Credit card",
	PaymentDebit:  "Debit card",
	PaymentBoleto: "Bank slip",
	PaymentCash:   "Cash on delivery",
}

// DisplayName falls back to the raw method for unknown values.
func (m PaymentMethod) DisplayName() string {
	if name, ok := paymentNames[m]; ok {
		return name
	}
	return string(m)
}

// DiscountRate is the flat discount granted for paying with m.
func (m PaymentMethod) DiscountRate() float64 {
	switch m {
	case PaymentPix:
		return 0.05
	case PaymentDebit:
		return 0.03
	default:
		return 0
	}
}

// OrderLine is copied from the catalog when the order is placed so later product
// edits never change a historical order.
type OrderLine struct {
	ProductID   string  `json:"productId"`
	ProductName string  `json:"productName"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price"`
}

type Order struct {
	ID                string        `gorm:"primaryKey;size:64"                     json:"id"`
	UserID            string        `gorm:"not null;index:idx_orders_user_id"      json:"userId"`
	Items             []OrderLine   `gorm:"serializer:json;type:text"              json:"items"`
	Subtotal          float64       `json:"subtotal"`
	Discount          float64       `json:"discount"`
	Total             float64       `json:"total"`
	PaymentMethod     PaymentMethod `json:"paymentMethod"`
	PaymentMethodName string        `json:"paymentMethodName"`
	Status            OrderStatus   `gorm:"not null;index:idx_orders_status"       json:"status"`
	ShippingAddress   string        `json:"shippingAddress"`
	CreatedAt         time.Time     `gorm:"index:idx_orders_created_at"            json:"createdAt"`
}
