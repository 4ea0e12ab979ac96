package catalog

import "time"

type Product struct {
	ID            int64     `json:"id"`
	Brand         string    `json:"brand"`
	Name          string    `json:"name"`
	Price         float64   `json:"price"`
	DiscountPrice *float64  `json:"discountPrice,omitempty"`
	Description   string    `json:"description"`
	Quantity      int       `json:"quantity"`
	IsSet         bool      `json:"isSet"`
	UpdatedAt     time.Time `json:"updatedAt"`
	ImageURL      string    `json:"imageUrl,omitempty"`
}

// ProductQuantity is the slim shape for the stock overview endpoint.
type ProductQuantity struct {
	ID       int64  `json:"id"`
	Brand    string `json:"brand"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// SetOption is a purchasable component of a set product. Only options with
// stock left are ever returned.
type SetOption struct {
	OptionID int64   `json:"optionId"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}
