package checkoutapi

import (
	"net/url"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/MarcGrol/cryptocheckout/services/orderlifecycle"
)

func TestEncodeDecodeSame(t *testing.T) {
	//  encode followed by decode must end up same

	values, err := order.ToForm()
	assert.NoError(t, err)
	orderAgain, err := NewFromValues(values)
	assert.NoError(t, err)

	assert.Equal(t, order.ToCreateOrderRequest(), orderAgain.ToCreateOrderRequest())
}

func TestDecode(t *testing.T) {
	form := url.Values{
		"email":                       []string{"marc.grol@gmail.com"},
		"currency":                    []string{"USDC"},
		"payerAddress":                []string{"BrEi8R4Mmg5ib4fkBfTp8c3Q8bJvTkRiYzWZzAMnwK5n"},
		"shippingAddress.name":        []string{"Marc Grol"},
		"shippingAddress.line1":       []string{"Heemdstrakwartier 79"},
		"shippingAddress.city":        []string{"De Bilt"},
		"shippingAddress.state":       []string{"Utrecht"},
		"shippingAddress.postalCode":  []string{"3731TB"},
		"shippingAddress.country":     []string{"NL"},
		"lineItems[0].productLocator": []string{"amazon:B01DFKC2SO"},
		"lineItems[0].quantity":       []string{"1"},
		"lineItems[0].unitPrice":      []string{"0.5"},
		"lineItems[1].productLocator": []string{"amazon:B07L5GDTYY"},
		"lineItems[1].quantity":       []string{"2"},
		"lineItems[1].unitPrice":      []string{"1.25"},
		"lineItems[1].totalPrice":     []string{"2.5"},
	}

	orderAgain, err := NewFromValues(form)
	assert.NoError(t, err)
	assert.Equal(t, order.ToCreateOrderRequest(), orderAgain.ToCreateOrderRequest())
	assert.True(t, decimal.RequireFromString("3").Equal(orderAgain.ToCreateOrderRequest().LineItems[0].Total().Add(orderAgain.ToCreateOrderRequest().LineItems[1].Total())))
}

func TestDecodeInvalidPrice(t *testing.T) {
	_, err := NewFromValues(url.Values{
		"lineItems[0].unitPrice": []string{"cheap"},
	})
	assert.Error(t, err)
}

func TestToCreateOrderRequest(t *testing.T) {
	req := order.ToCreateOrderRequest()
	assert.Equal(t, orderlifecycle.CurrencyUSDC, req.Currency)
	assert.Equal(t, "3731TB", req.ShippingAddress.PostalCode)
	assert.Len(t, req.LineItems, 2)
	assert.Empty(t, req.CollectionID)
}

var order = OrderForm{
	Email:        "marc.grol@gmail.com",
	Currency:     "USDC",
	PayerAddress: "BrEi8R4Mmg5ib4fkBfTp8c3Q8bJvTkRiYzWZzAMnwK5n",
	ShippingAddress: ShippingAddress{
		Name:       "Marc Grol",
		Line1:      "Heemdstrakwartier 79",
		City:       "De Bilt",
		State:      "Utrecht",
		PostalCode: "3731TB",
		Country:    "NL",
	},
	LineItems: []LineItem{
		{
			ProductLocator: "amazon:B01DFKC2SO",
			Quantity:       1,
			UnitPrice:      decimal.RequireFromString("0.5"),
		},
		{
			ProductLocator: "amazon:B07L5GDTYY",
			Quantity:       2,
			UnitPrice:      decimal.RequireFromString("1.25"),
			TotalPrice:     decimal.RequireFromString("2.5"),
		},
	},
}
