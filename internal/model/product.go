package model

import "github.com/shopspring/decimal"

// Product is one entry of the upstream product list.
type Product struct {
	Filename  string          `json:"filename"`
	Price     decimal.Decimal `json:"price"`
	Available decimal.Decimal `json:"available"`
}

// ProductListResponse is the body of GET /products. Products is a pointer so
// that a missing or null field can be told apart from an empty list, and the
// entries are pointers so that a null entry stays visible.
type ProductListResponse struct {
	Products *[]*Product `json:"products"`
}
