package crossmint

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/mr-tron/base58"
	"github.com/shopspring/decimal"

	"github.com/MarcGrol/cryptocheckout/lib/myhttpclient"
	"github.com/MarcGrol/cryptocheckout/lib/mylog"
	"github.com/MarcGrol/cryptocheckout/services/orderlifecycle"
)

const (
	StagingURL    = "https://staging.crossmint.com/api/2022-06-09"
	ProductionURL = "https://www.crossmint.com/api/2022-06-09"

	defaultChain  = "solana"
	defaultLocale = "en-US"
)

type Config struct {
	BaseURL    string
	UseTestnet bool
	ServerKey  string
	ClientKey  string
	Chain      string
	Locale     string
}

// Client talks to the checkout provider. It implements orderlifecycle.Provider.
type Client struct {
	baseURL   string
	serverKey string
	clientKey string
	chain     string
	locale    string
	sender    myhttpclient.HTTPSender
	logger    mylog.Logger
}

// Use dependency injection to isolate the infrastructure and easy testing
func NewClient(cfg Config, sender myhttpclient.HTTPSender, logger mylog.Logger) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = ProductionURL
		if cfg.UseTestnet {
			baseURL = StagingURL
		}
	}
	chain := cfg.Chain
	if chain == "" {
		chain = defaultChain
	}
	locale := cfg.Locale
	if locale == "" {
		locale = defaultLocale
	}

	return &Client{
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		serverKey: cfg.ServerKey,
		clientKey: cfg.ClientKey,
		chain:     chain,
		locale:    locale,
		sender:    sender,
		logger:    logger,
	}
}

func (cl *Client) CreateCollection(c context.Context) (string, error) {
	const operation = "create collection"

	resp := collectionResponse{}
	err := cl.do(c, operation, http.MethodPost, cl.baseURL+"/collections/", map[string]string{
		"X-API-KEY": cl.serverKey,
	}, collectionRequest{
		Chain: cl.chain,
		Metadata: collectionMetadata{
			Name:        "Crypto checkout products",
			ImageURL:    "https://www.crossmint.com/assets/crossmint/logo.png",
			Description: "Products that can be bought with crypto",
			Symbol:      "CHECKOUT",
		},
		Fungibility:  "non-fungible",
		Transferable: true,
		SupplyLimit:  1000,
		Payments: collectionPayments{
			Price:            "0.01",
			RecipientAddress: "11111111111111111111111111111111",
			Currency:         "sol",
		},
		Subscription:        subscription{Enabled: false},
		ReuploadLinkedFiles: true,
	}, &resp)
	if err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", malformed(operation, "collection without id")
	}

	cl.logger.Log(c, "", mylog.SeverityInfo, "Created collection %s", resp.ID)

	return resp.ID, nil
}

func (cl *Client) CreateOrder(c context.Context, req orderlifecycle.CreateOrderRequest) (orderlifecycle.CreatedOrder, error) {
	const operation = "create order"

	lineItems := make([]lineItem, 0, len(req.LineItems))
	for _, li := range req.LineItems {
		lineItems = append(lineItems, lineItem{
			CollectionLocator: "crossmint:" + req.CollectionID,
			ProductLocator:    li.ProductLocator,
			CallData: callData{
				TotalPrice: li.Total().String(),
			},
		})
	}

	addr := req.ShippingAddress
	resp := createOrderResponse{}
	err := cl.do(c, operation, http.MethodPost, cl.baseURL+"/orders", map[string]string{
		"X-API-KEY": cl.clientKey,
	}, orderRequest{
		Recipient: recipient{
			Email: req.Email,
			PhysicalAddress: physicalAddress{
				Name:       addr.Name,
				Line1:      addr.Line1,
				Line2:      addr.Line2,
				City:       addr.City,
				State:      addr.State,
				PostalCode: addr.PostalCode,
				Country:    addr.Country,
			},
		},
		Locale: cl.locale,
		Payment: paymentMethod{
			Method:       cl.chain,
			Currency:     string(req.Currency),
			PayerAddress: req.PayerAddress,
			ReceiptEmail: req.Email,
		},
		LineItems: lineItems,
	}, &resp)
	if err != nil {
		return orderlifecycle.CreatedOrder{}, err
	}

	orderUID := firstNonEmpty(resp.Order.OrderID, resp.ID)
	clientSecret := firstNonEmpty(resp.ClientSecret, resp.Order.ClientSecret)
	if orderUID == "" || clientSecret == "" {
		return orderlifecycle.CreatedOrder{}, malformed(operation, "order without id or client secret")
	}

	snapshot, err := toSnapshot(operation, resp.Order)
	if err != nil {
		return orderlifecycle.CreatedOrder{}, err
	}

	cl.logger.Log(c, orderUID, mylog.SeverityInfo, "Created order %s in phase %s", orderUID, snapshot.Phase)

	return orderlifecycle.CreatedOrder{
		OrderUID:     orderUID,
		ClientSecret: clientSecret,
		Snapshot:     snapshot,
	}, nil
}

func (cl *Client) GetOrderStatus(c context.Context, orderUID string, clientSecret string) (orderlifecycle.OrderSnapshot, error) {
	const operation = "get order status"

	resp := orderPayload{}
	err := cl.do(c, operation, http.MethodGet, cl.baseURL+"/orders/"+orderUID, map[string]string{
		"x-api-key":     cl.serverKey,
		"authorization": clientSecret,
	}, nil, &resp)
	if err != nil {
		return orderlifecycle.OrderSnapshot{}, err
	}

	return toSnapshot(operation, resp)
}

func (cl *Client) UpdatePayerAddress(c context.Context, orderUID string, payerAddress string) (orderlifecycle.OrderSnapshot, error) {
	const operation = "update payer address"

	resp := orderPayload{}
	err := cl.do(c, operation, http.MethodPatch, cl.baseURL+"/orders/"+orderUID, map[string]string{
		"X-API-KEY": cl.serverKey,
	}, updateOrderRequest{
		Payment: paymentMethod{
			PayerAddress: payerAddress,
		},
	}, &resp)
	if err != nil {
		return orderlifecycle.OrderSnapshot{}, err
	}

	return toSnapshot(operation, resp)
}

func (cl *Client) do(c context.Context, operation string, method string, url string, headers map[string]string, request any, response any) error {
	var body []byte
	if request != nil {
		var err error
		body, err = json.Marshal(request)
		if err != nil {
			return fmt.Errorf("error marshalling %s request: %s", operation, err)
		}
	}

	httpStatus, respBody, err := cl.sender.Send(c, method, url, headers, body)
	if err != nil {
		return &orderlifecycle.ProviderError{Operation: operation, Message: err.Error()}
	}

	if httpStatus < 200 || httpStatus >= 300 {
		providerErr := &orderlifecycle.ProviderError{
			Operation:  operation,
			HTTPStatus: httpStatus,
			Message:    errorMessage(httpStatus, respBody),
		}
		cl.logger.Log(c, "", mylog.SeverityWarn, "%s", providerErr)
		return providerErr
	}

	err = json.Unmarshal(respBody, response)
	if err != nil {
		return malformed(operation, fmt.Sprintf("error parsing response: %s", err))
	}

	return nil
}

func toSnapshot(operation string, payload orderPayload) (orderlifecycle.OrderSnapshot, error) {
	snapshot := orderlifecycle.OrderSnapshot{
		Phase:         payload.Phase,
		PaymentStatus: paymentStatus(payload),
	}

	if payload.Quote != nil && payload.Quote.ExpiresAt != nil {
		quote := &orderlifecycle.Quote{
			ExpiresAt: *payload.Quote.ExpiresAt,
		}
		if payload.Quote.TotalPrice != nil {
			amount, err := decimal.NewFromString(payload.Quote.TotalPrice.Amount)
			if err != nil {
				return orderlifecycle.OrderSnapshot{}, malformed(operation, fmt.Sprintf("invalid quote amount %q", payload.Quote.TotalPrice.Amount))
			}
			quote.Amount = amount
			quote.Currency = payload.Quote.TotalPrice.Currency
		}
		snapshot.Quote = quote
	}

	if payload.Payment != nil {
		if prep := payload.Payment.Preparation; prep != nil && prep.SerializedTransaction != "" {
			transaction, err := base58.Decode(prep.SerializedTransaction)
			if err != nil {
				return orderlifecycle.OrderSnapshot{}, malformed(operation, fmt.Sprintf("invalid serialized transaction: %s", err))
			}
			snapshot.Preparation = &orderlifecycle.PaymentPreparation{
				SerializedTransaction: transaction,
				Chain:                 prep.Chain,
				PayerAddress:          prep.PayerAddress,
			}
		}
		if payload.Payment.FailureReason != nil {
			snapshot.FailureReason = firstNonEmpty(payload.Payment.FailureReason.Message, payload.Payment.FailureReason.Code)
		}
	}

	return snapshot, nil
}

// paymentStatus prefers the payment status and falls back on the status or phase of the order.
func paymentStatus(payload orderPayload) string {
	if payload.Payment != nil && payload.Payment.Status != "" {
		return payload.Payment.Status
	}
	if payload.Status != "" {
		return payload.Status
	}
	if payload.Phase == orderlifecycle.PaymentStatusCompleted {
		return orderlifecycle.PaymentStatusCompleted
	}
	return ""
}

func errorMessage(httpStatus int, body []byte) string {
	resp := errorResponse{}
	err := json.Unmarshal(body, &resp)
	if err == nil {
		if msg := firstNonEmpty(resp.Message, resp.Error); msg != "" {
			return msg
		}
	}
	return http.StatusText(httpStatus)
}

func malformed(operation string, msg string) *orderlifecycle.ProviderError {
	return &orderlifecycle.ProviderError{
		Operation:  operation,
		HTTPStatus: http.StatusBadGateway,
		Message:    msg,
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
