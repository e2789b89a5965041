// Package forwarder issues the outbound call to an endpoint's target.
package forwarder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/emRival/GASHub/internal/payload"
	"github.com/sirupsen/logrus"
)

// Metadata carries the caller's real intent to the target. The wire
// call is always a POST, so the original verb and headers travel inside
// the body under reserved keys.
type Metadata struct {
	Method  string
	Headers map[string]string
}

// Result is the normalized upstream response. Body is decoded JSON when
// the target returned JSON, otherwise a {result, status} wrapper around
// the raw text.
type Result struct {
	Status int
	Body   any
}

type Forwarder struct {
	httpClient *http.Client
	maxBody    int64
	log        *logrus.Entry
}

type loggingTransport struct {
	log *logrus.Entry
}

func New(logger *logrus.Logger, timeout time.Duration, maxBody int64) *Forwarder {
	return &Forwarder{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: &loggingTransport{log: logger.WithField("component", "forward_transport")},
		},
		maxBody: maxBody,
		log:     logger.WithField("component", "forwarder"),
	}
}

// Forward POSTs body to targetURL with _method and _headers merged in,
// then normalizes the response. A returned error means the target was
// unreachable (DNS, connect, TLS, timeout); an upstream 4xx/5xx is not
// an error here, the caller relays it verbatim. No retries.
func (f *Forwarder) Forward(ctx context.Context, targetURL string, body payload.Object, meta Metadata) (*Result, error) {
	outbound := body.Clone()
	if err := outbound.SetValue("_method", meta.Method); err != nil {
		return nil, fmt.Errorf("encoding method metadata: %w", err)
	}
	if err := outbound.SetValue("_headers", meta.Headers); err != nil {
		return nil, fmt.Errorf("encoding header metadata: %w", err)
	}

	encoded, err := json.Marshal(outbound)
	if err != nil {
		return nil, fmt.Errorf("encoding payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, targetURL, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("forward failed: %w", err)
	}
	defer resp.Body.Close()

	text, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	return &Result{
		Status: resp.StatusCode,
		Body:   normalizeBody(text, resp.StatusCode),
	}, nil
}

// normalizeBody tries a JSON parse and falls back to wrapping the raw
// text, flagged success or error by the upstream status class.
func normalizeBody(text []byte, status int) any {
	var parsed any
	if len(text) > 0 && json.Unmarshal(text, &parsed) == nil {
		return parsed
	}

	state := "error"
	if status >= 200 && status < 300 {
		state = "success"
	}
	return map[string]any{
		"result": string(text),
		"status": state,
	}
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	log := t.log.WithFields(logrus.Fields{
		"method": req.Method,
		"url":    req.URL.String(),
	})

	resp, err := http.DefaultTransport.RoundTrip(req)
	if err != nil {
		log.WithError(err).Error("HTTP request failed")
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"status_code": resp.StatusCode,
		"duration":    time.Since(start),
	}).Debug("HTTP request completed")
	return resp, nil
}
