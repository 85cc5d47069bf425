package orderlifecycle

import (
	"fmt"
	"strings"
)

func validateCreateOrderRequest(req CreateOrderRequest) error {
	err := validateShippingAddress(req.ShippingAddress)
	if err != nil {
		return err
	}

	if len(req.LineItems) == 0 {
		return &ValidationError{Field: "lineItems", Message: "cart is empty"}
	}
	for i, li := range req.LineItems {
		if strings.TrimSpace(li.ProductLocator) == "" {
			return &ValidationError{Field: fmt.Sprintf("lineItems[%d].productLocator", i), Message: "is required"}
		}
		if li.Quantity < 1 {
			return &ValidationError{Field: fmt.Sprintf("lineItems[%d].quantity", i), Message: "must be at least 1"}
		}
		if !li.Total().IsPositive() {
			return &ValidationError{Field: fmt.Sprintf("lineItems[%d].price", i), Message: "must be positive"}
		}
	}

	if !req.Currency.IsValid() {
		return &ValidationError{Field: "currency", Message: fmt.Sprintf("unsupported currency %q", req.Currency)}
	}

	if strings.TrimSpace(req.Email) == "" {
		return &ValidationError{Field: "email", Message: "is required"}
	}

	return nil
}

func validateShippingAddress(addr ShippingAddress) error {
	required := []struct {
		field string
		value string
	}{
		{"shippingAddress.name", addr.Name},
		{"shippingAddress.line1", addr.Line1},
		{"shippingAddress.city", addr.City},
		{"shippingAddress.postalCode", addr.PostalCode},
		{"shippingAddress.country", addr.Country},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return &ValidationError{Field: r.field, Message: "is required"}
		}
	}
	return nil
}
