package crossmint

import "time"

// Wire types of the provider API. Only the fields we act upon are mapped.

type collectionRequest struct {
	Chain               string             `json:"chain"`
	Metadata            collectionMetadata `json:"metadata"`
	Fungibility         string             `json:"fungibility"`
	Transferable        bool               `json:"transferable"`
	SupplyLimit         int                `json:"supplyLimit"`
	Payments            collectionPayments `json:"payments"`
	Subscription        subscription       `json:"subscription"`
	ReuploadLinkedFiles bool               `json:"reuploadLinkedFiles"`
}

type collectionMetadata struct {
	Name        string `json:"name"`
	ImageURL    string `json:"imageUrl"`
	Description string `json:"description"`
	Symbol      string `json:"symbol"`
}

type collectionPayments struct {
	Price            string `json:"price"`
	RecipientAddress string `json:"recipientAddress"`
	Currency         string `json:"currency"`
}

type subscription struct {
	Enabled bool `json:"enabled"`
}

type collectionResponse struct {
	ID string `json:"id"`
}

type orderRequest struct {
	Recipient recipient     `json:"recipient"`
	Locale    string        `json:"locale"`
	Payment   paymentMethod `json:"payment"`
	LineItems []lineItem    `json:"lineItems"`
}

type recipient struct {
	Email           string          `json:"email"`
	PhysicalAddress physicalAddress `json:"physicalAddress"`
}

type physicalAddress struct {
	Name       string `json:"name"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

type paymentMethod struct {
	Method       string `json:"method,omitempty"`
	Currency     string `json:"currency,omitempty"`
	PayerAddress string `json:"payerAddress,omitempty"`
	ReceiptEmail string `json:"receiptEmail,omitempty"`
}

type lineItem struct {
	CollectionLocator string   `json:"collectionLocator"`
	ProductLocator    string   `json:"productLocator"`
	CallData          callData `json:"callData"`
}

type callData struct {
	TotalPrice string `json:"totalPrice"`
}

type updateOrderRequest struct {
	Payment paymentMethod `json:"payment"`
}

type createOrderResponse struct {
	ID           string       `json:"id"`
	ClientSecret string       `json:"clientSecret"`
	Order        orderPayload `json:"order"`
}

type orderPayload struct {
	OrderID      string          `json:"orderId"`
	ClientSecret string          `json:"clientSecret"`
	Phase        string          `json:"phase"`
	Status       string          `json:"status"`
	Quote        *quotePayload   `json:"quote"`
	Payment      *paymentPayload `json:"payment"`
}

type quotePayload struct {
	Status     string        `json:"status"`
	QuotedAt   *time.Time    `json:"quotedAt"`
	ExpiresAt  *time.Time    `json:"expiresAt"`
	TotalPrice *pricePayload `json:"totalPrice"`
}

type pricePayload struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

type paymentPayload struct {
	Status        string              `json:"status"`
	Method        string              `json:"method"`
	Currency      string              `json:"currency"`
	Preparation   *preparationPayload `json:"preparation"`
	FailureReason *failureReason      `json:"failureReason"`
}

type preparationPayload struct {
	Chain                 string `json:"chain"`
	PayerAddress          string `json:"payerAddress"`
	SerializedTransaction string `json:"serializedTransaction"`
}

type failureReason struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}
