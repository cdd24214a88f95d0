package server

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/aws/aws-lambda-go/events"
)

// HandleAPIGateway runs an API Gateway proxy event through the same router
// as the HTTP server.
func (s *Server) HandleAPIGateway(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	req, err := toHTTPRequest(ctx, event)
	if err != nil {
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusBadRequest,
			Headers:    map[string]string{"Content-Type": "application/json; charset=utf-8"},
			Body:       `{"error":"` + msgInvalidBody + `"}`,
		}, nil
	}

	w := newBufferedWriter()
	s.engine.ServeHTTP(w, req)

	headers := make(map[string]string, len(w.header))
	for k, v := range w.header {
		headers[k] = strings.Join(v, ",")
	}
	return events.APIGatewayProxyResponse{
		StatusCode: w.status,
		Headers:    headers,
		Body:       w.body.String(),
	}, nil
}

func toHTTPRequest(ctx context.Context, event events.APIGatewayProxyRequest) (*http.Request, error) {
	body := event.Body
	if event.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(body)
		if err != nil {
			return nil, fmt.Errorf("failed to decode body: %w", err)
		}
		body = string(decoded)
	}

	path := event.Path
	if path == "" {
		path = "/"
	}
	u := &url.URL{Path: path}
	if len(event.MultiValueQueryStringParameters) > 0 {
		u.RawQuery = url.Values(event.MultiValueQueryStringParameters).Encode()
	} else if len(event.QueryStringParameters) > 0 {
		q := url.Values{}
		for k, v := range event.QueryStringParameters {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
	}

	method := event.HTTPMethod
	if method == "" {
		method = http.MethodPost
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), strings.NewReader(body))
	if err != nil {
		return nil, err
	}
	for k, v := range event.Headers {
		req.Header.Set(k, v)
	}
	for k, vs := range event.MultiValueHeaders {
		req.Header.Del(k)
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if req.Header.Get(RequestIDHeader) == "" && event.RequestContext.RequestID != "" {
		req.Header.Set(RequestIDHeader, event.RequestContext.RequestID)
	}
	return req, nil
}

// bufferedWriter collects a response in memory.
type bufferedWriter struct {
	header http.Header
	body   strings.Builder
	status int
}

func newBufferedWriter() *bufferedWriter {
	return &bufferedWriter{header: http.Header{}, status: http.StatusOK}
}

func (w *bufferedWriter) Header() http.Header { return w.header }

func (w *bufferedWriter) Write(b []byte) (int, error) {
	return w.body.Write(b)
}

func (w *bufferedWriter) WriteHeader(status int) {
	w.status = status
}
