package myhttpclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/MarcGrol/cryptocheckout/lib/mylog"
)

const (
	defaultTimeout = 5 * time.Second
)

type jsonHTTPClient struct {
	client *http.Client
	logger mylog.Logger
}

func newJSONHTTPClient(timeout time.Duration) HTTPSender {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &jsonHTTPClient{
		client: &http.Client{
			Timeout: timeout,
		},
		logger: mylog.New("myhttpclient"),
	}
}

func (c jsonHTTPClient) Send(ctx context.Context, method string, url string, headers map[string]string, body []byte) (int, []byte, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return 0, []byte{}, fmt.Errorf("error creating http request for %s %s: %s", method, url, err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	for key, value := range headers {
		httpReq.Header.Set(key, value)
	}

	c.logger.Log(ctx, "", mylog.SeverityDebug, "HTTP request: %s %s", method, url)

	httpResp, err := c.client.Do(httpReq)
	if err != nil {
		return 0, []byte{}, fmt.Errorf("error sending %s %s: %w", method, url, err)
	}
	defer httpResp.Body.Close()

	respPayload, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return 0, []byte{}, fmt.Errorf("error reading response %s %s: %w", method, url, err)
	}

	c.logger.Log(ctx, "", mylog.SeverityDebug, "HTTP response: %s %s -> %d", method, url, httpResp.StatusCode)

	return httpResp.StatusCode, respPayload, nil
}
