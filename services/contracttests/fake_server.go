package contracttests

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/mr-tron/base58"
	"github.com/shopspring/decimal"

	"github.com/MarcGrol/cryptocheckout/services/orderlifecycle"
)

type serverOrderRequest struct {
	Recipient struct {
		Email string `json:"email"`
	} `json:"recipient"`
	Payment struct {
		Currency     string `json:"currency"`
		PayerAddress string `json:"payerAddress"`
	} `json:"payment"`
	LineItems []struct {
		CollectionLocator string `json:"collectionLocator"`
		ProductLocator    string `json:"productLocator"`
		CallData          struct {
			TotalPrice string `json:"totalPrice"`
		} `json:"callData"`
	} `json:"lineItems"`
}

type serverUpdateRequest struct {
	Payment struct {
		PayerAddress string `json:"payerAddress"`
	} `json:"payment"`
}

// NewFakeServer exposes the provider over HTTP, speaking the wire format of the real checkout provider.
func NewFakeServer(provider *FakeProvider) http.Handler {
	router := mux.NewRouter()

	router.HandleFunc("/collections/", func(w http.ResponseWriter, r *http.Request) {
		id, err := provider.CreateCollection(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"id": id})
	}).Methods("POST")

	router.HandleFunc("/orders", func(w http.ResponseWriter, r *http.Request) {
		req := serverOrderRequest{}
		err := json.NewDecoder(r.Body).Decode(&req)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Bad Request", "message": err.Error()})
			return
		}

		createReq := orderlifecycle.CreateOrderRequest{
			Email:        req.Recipient.Email,
			Currency:     orderlifecycle.Currency(req.Payment.Currency),
			PayerAddress: req.Payment.PayerAddress,
		}
		for _, li := range req.LineItems {
			total, err := decimal.NewFromString(li.CallData.TotalPrice)
			if err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Bad Request", "message": "callData.totalPrice is invalid"})
				return
			}
			createReq.CollectionID = strings.TrimPrefix(li.CollectionLocator, "crossmint:")
			createReq.LineItems = append(createReq.LineItems, orderlifecycle.LineItem{
				ProductLocator: li.ProductLocator,
				Quantity:       1,
				TotalPrice:     total,
			})
		}

		created, err := provider.CreateOrder(r.Context(), createReq)
		if err != nil {
			writeError(w, err)
			return
		}
		order := orderPayload(created.OrderUID, created.Snapshot)
		order["clientSecret"] = created.ClientSecret
		writeJSON(w, http.StatusOK, map[string]any{
			"clientSecret": created.ClientSecret,
			"order":        order,
		})
	}).Methods("POST")

	router.HandleFunc("/orders/{orderUID}", func(w http.ResponseWriter, r *http.Request) {
		orderUID := mux.Vars(r)["orderUID"]
		snapshot, err := provider.GetOrderStatus(r.Context(), orderUID, r.Header.Get("authorization"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, orderPayload(orderUID, snapshot))
	}).Methods("GET")

	router.HandleFunc("/orders/{orderUID}", func(w http.ResponseWriter, r *http.Request) {
		orderUID := mux.Vars(r)["orderUID"]
		req := serverUpdateRequest{}
		err := json.NewDecoder(r.Body).Decode(&req)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Bad Request", "message": err.Error()})
			return
		}
		snapshot, err := provider.UpdatePayerAddress(r.Context(), orderUID, req.Payment.PayerAddress)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, orderPayload(orderUID, snapshot))
	}).Methods("PATCH")

	return router
}

func orderPayload(orderUID string, snapshot orderlifecycle.OrderSnapshot) map[string]any {
	order := map[string]any{
		"orderId": orderUID,
		"phase":   snapshot.Phase,
	}
	if snapshot.Quote != nil {
		order["quote"] = map[string]any{
			"status":    "valid",
			"expiresAt": snapshot.Quote.ExpiresAt.Format(time.RFC3339Nano),
			"totalPrice": map[string]any{
				"amount":   snapshot.Quote.Amount.String(),
				"currency": snapshot.Quote.Currency,
			},
		}
	}
	payment := map[string]any{
		"status": snapshot.PaymentStatus,
		"method": "solana",
	}
	if snapshot.Preparation != nil {
		payment["preparation"] = map[string]any{
			"chain":                 snapshot.Preparation.Chain,
			"payerAddress":          snapshot.Preparation.PayerAddress,
			"serializedTransaction": base58.Encode(snapshot.Preparation.SerializedTransaction),
		}
	}
	order["payment"] = payment
	return order
}

func writeError(w http.ResponseWriter, err error) {
	var providerErr *orderlifecycle.ProviderError
	if errors.As(err, &providerErr) && providerErr.HTTPStatus != 0 {
		writeJSON(w, providerErr.HTTPStatus, map[string]any{"error": http.StatusText(providerErr.HTTPStatus), "message": providerErr.Message})
		return
	}
	writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "Internal Server Error", "message": err.Error()})
}

func writeJSON(w http.ResponseWriter, httpStatus int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	_ = json.NewEncoder(w).Encode(body)
}
