package myhttpclient

import (
	"context"
	"time"
)

//go:generate mockgen -source=api.go -package myhttpclient -destination sender_mock.go HTTPSender
type HTTPSender interface {
	Send(c context.Context, method string, url string, headers map[string]string, body []byte) (int, []byte, error)
}

func New(timeout time.Duration) HTTPSender {
	return newJSONHTTPClient(timeout)
}
