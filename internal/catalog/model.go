package catalog

import "time"

// DefaultOrderStatus is applied when an order is created without a status.
const DefaultOrderStatus = "pendiente"

type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type CategoryPatch struct {
	Name *string `json:"name"`
}

type Supplier struct {
	ID    int64   `json:"id"`
	Name  string  `json:"name"`
	Phone *string `json:"phone"`
	Email *string `json:"email"`
}

type SupplierPatch struct {
	Name  *string `json:"name"`
	Phone *string `json:"phone"`
	Email *string `json:"email"`
}

type Customer struct {
	ID    int64   `json:"id"`
	Name  string  `json:"name"`
	Email string  `json:"email"`
	Phone *string `json:"phone"`
}

type CustomerPatch struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
	Phone *string `json:"phone"`
}

type Product struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
	CategoryID int64   `json:"category_id"`
	SupplierID int64   `json:"supplier_id"`
}

type ProductPatch struct {
	Name       *string  `json:"name"`
	Price      *float64 `json:"price"`
	CategoryID *int64   `json:"category_id"`
	SupplierID *int64   `json:"supplier_id"`
}

type ProductFilter struct {
	// Query matches product names case-insensitively.
	Query string
}

type Order struct {
	ID         int64     `json:"id"`
	CustomerID int64     `json:"customer_id"`
	ProductID  int64     `json:"product_id"`
	Quantity   int       `json:"quantity"`
	Status     string    `json:"status"`
	Notes      *string   `json:"notes"`
	CreatedAt  time.Time `json:"created_at"`
	Customer   Customer  `json:"customer"`
	Product    Product   `json:"product"`
}

type OrderInput struct {
	CustomerID int64   `json:"customer_id"`
	ProductID  int64   `json:"product_id"`
	Quantity   int     `json:"quantity"`
	Status     string  `json:"status"`
	Notes      *string `json:"notes"`
}

type OrderPatch struct {
	CustomerID *int64  `json:"customer_id"`
	ProductID  *int64  `json:"product_id"`
	Quantity   *int    `json:"quantity"`
	Status     *string `json:"status"`
	Notes      *string `json:"notes"`
}

type OrderFilter struct {
	CustomerID int64
	Status     string
}
