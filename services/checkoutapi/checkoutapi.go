package checkoutapi

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	formcodec "github.com/go-playground/form/v4"
	"github.com/shopspring/decimal"

	"github.com/MarcGrol/cryptocheckout/lib/myerrors"
	"github.com/MarcGrol/cryptocheckout/services/orderlifecycle"
)

// OrderForm is the form a shop posts to start paying a basket with crypto.
type OrderForm struct {
	Email           string          `form:"email"`
	ShippingAddress ShippingAddress `form:"shippingAddress"`
	LineItems       []LineItem      `form:"lineItems"`
	Currency        string          `form:"currency"`
	PayerAddress    string          `form:"payerAddress"`
}

type ShippingAddress struct {
	Name       string `form:"name"`
	Line1      string `form:"line1"`
	Line2      string `form:"line2"`
	City       string `form:"city"`
	State      string `form:"state"`
	PostalCode string `form:"postalCode"`
	Country    string `form:"country"`
}

type LineItem struct {
	ProductLocator string          `form:"productLocator"`
	Quantity       int             `form:"quantity"`
	UnitPrice      decimal.Decimal `form:"unitPrice"`
	TotalPrice     decimal.Decimal `form:"totalPrice"`
}

type PayerForm struct {
	PayerAddress string `form:"payerAddress"`
}

func NewFromRequest(r *http.Request) (OrderForm, error) {
	err := r.ParseForm()
	if err != nil {
		return OrderForm{}, myerrors.NewInvalidInputError(err)
	}
	return NewFromValues(r.Form)
}

func NewFromValues(values url.Values) (OrderForm, error) {
	form := OrderForm{}
	err := newDecoder().Decode(&form, values)
	if err != nil {
		return form, myerrors.NewInvalidInputError(fmt.Errorf("error decoding form: %s", err))
	}

	return form, nil
}

func PayerFromRequest(r *http.Request) (PayerForm, error) {
	err := r.ParseForm()
	if err != nil {
		return PayerForm{}, myerrors.NewInvalidInputError(err)
	}

	form := PayerForm{}
	err = newDecoder().Decode(&form, r.Form)
	if err != nil {
		return form, myerrors.NewInvalidInputError(fmt.Errorf("error decoding form: %s", err))
	}
	return form, nil
}

func (f OrderForm) ToForm() (url.Values, error) {
	encoder := formcodec.NewEncoder()
	encoder.RegisterCustomTypeFunc(func(x interface{}) ([]string, error) {
		d := x.(decimal.Decimal)
		if d.IsZero() {
			return nil, nil
		}
		return []string{d.String()}, nil
	}, decimal.Decimal{})

	values, err := encoder.Encode(f)
	if err != nil {
		return nil, fmt.Errorf("error encoding form: %s", err)
	}

	return values, nil
}

func (f OrderForm) ToCreateOrderRequest() orderlifecycle.CreateOrderRequest {
	lineItems := make([]orderlifecycle.LineItem, 0, len(f.LineItems))
	for _, li := range f.LineItems {
		lineItems = append(lineItems, orderlifecycle.LineItem{
			ProductLocator: li.ProductLocator,
			Quantity:       li.Quantity,
			UnitPrice:      li.UnitPrice,
			TotalPrice:     li.TotalPrice,
		})
	}

	return orderlifecycle.CreateOrderRequest{
		Email: f.Email,
		ShippingAddress: orderlifecycle.ShippingAddress{
			Name:       f.ShippingAddress.Name,
			Line1:      f.ShippingAddress.Line1,
			Line2:      f.ShippingAddress.Line2,
			City:       f.ShippingAddress.City,
			State:      f.ShippingAddress.State,
			PostalCode: f.ShippingAddress.PostalCode,
			Country:    f.ShippingAddress.Country,
		},
		LineItems:    lineItems,
		Currency:     orderlifecycle.Currency(strings.ToLower(f.Currency)),
		PayerAddress: f.PayerAddress,
	}
}

func newDecoder() *formcodec.Decoder {
	decoder := formcodec.NewDecoder()
	decoder.RegisterCustomTypeFunc(func(vals []string) (interface{}, error) {
		if len(vals) == 0 || vals[0] == "" {
			return decimal.Decimal{}, nil
		}
		return decimal.NewFromString(vals[0])
	}, decimal.Decimal{})
	return decoder
}
