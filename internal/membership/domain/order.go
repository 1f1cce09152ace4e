package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

// Order is the subset of a commerce "order paid" payload this service reads.
type Order struct {
	ID           OrderID    `json:"id"`
	Email        string     `json:"email"`
	ContactEmail string     `json:"contact_email"`
	Tags         string     `json:"tags"`
	Customer     *Customer  `json:"customer"`
	LineItems    []LineItem `json:"line_items"`
}

type Customer struct {
	ID    OrderID `json:"id"`
	Email string  `json:"email"`
}

type LineItem struct {
	SKU       string `json:"sku"`
	Title     string `json:"title"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	ProductID int64  `json:"product_id"`
	VariantID int64  `json:"variant_id"`
}

// OrderID accepts both numeric and string ids in JSON and keeps the exact
// digits (order ids exceed float64 precision). Any other JSON value is an
// error.
type OrderID string

var ErrInvalidOrderID = errors.New("order id must be a number or a string")

func (id *OrderID) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return err
	}
	switch v := v.(type) {
	case nil:
		*id = ""
	case json.Number:
		*id = OrderID(v.String())
	case string:
		*id = OrderID(strings.TrimSpace(v))
	default:
		return ErrInvalidOrderID
	}
	return nil
}

func (id OrderID) String() string { return string(id) }

// CustomerEmail picks the best email on the order, normalized.
func (o Order) CustomerEmail() string {
	for _, e := range []string{o.Email, o.ContactEmail, o.customerEmail()} {
		if n := NormalizeEmail(e); n != "" {
			return n
		}
	}
	return ""
}

// CustomerRef is the commerce customer id, empty when the order has none.
func (o Order) CustomerRef() string {
	if o.Customer == nil {
		return ""
	}
	return o.Customer.ID.String()
}

// TagList splits the comma separated tags field.
func (o Order) TagList() []string {
	var tags []string
	for _, t := range strings.Split(o.Tags, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func (o Order) customerEmail() string {
	if o.Customer == nil {
		return ""
	}
	return o.Customer.Email
}
