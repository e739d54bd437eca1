package submission

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mbolis/rpe-survey/log"
	"github.com/mbolis/rpe-survey/model"
)

// Client posts payloads to the collection endpoint. It keeps no state between
// calls; serializing attempts is up to the caller.
type Client struct {
	endpoint   string
	httpClient *http.Client
	now        func() time.Time
}

// NewClient returns a client that never follows redirects: a 3xx answer is
// classified like any other non-2xx status.
func NewClient(endpoint string) *Client {
	return &Client{
		endpoint: endpoint,
		httpClient: &http.Client{
			CheckRedirect: noRedirect,
		},
		now: time.Now,
	}
}

func noRedirect(*http.Request, []*http.Request) error {
	return http.ErrUseLastResponse
}

// WithHTTPClient swaps the transport, mostly for tests. Redirects stay
// disabled unless hc sets its own CheckRedirect.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	if hc.CheckRedirect == nil {
		copied := *hc
		copied.CheckRedirect = noRedirect
		hc = &copied
	}
	c.httpClient = hc
	return c
}

func (c *Client) Endpoint() string {
	return c.endpoint
}

// Submit performs exactly one POST of payload and classifies the result.
func (c *Client) Submit(ctx context.Context, payload model.SubmissionPayload) Outcome {
	body, err := json.Marshal(payload)
	if err != nil {
		// not reachable with the current payload shape
		return NetworkError{Err: fmt.Errorf("marshaling payload: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		log.WithFields(log.Fields{"endpoint": c.endpoint}).Warn("submission.new_request: ", err)
		return NetworkError{Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.WithFields(log.Fields{"endpoint": c.endpoint}).Warn("submission.transport: ", err)
		return NetworkError{Err: fmt.Errorf("performing request: %w", err)}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.WithFields(log.Fields{"endpoint": c.endpoint, "status": resp.StatusCode}).Debug("submission.rejected")
		return Rejected{StatusCode: resp.StatusCode}
	}

	ts := c.now()
	if date := resp.Header.Get("Date"); date != "" {
		if parsed, err := http.ParseTime(date); err == nil {
			ts = parsed
		}
	}
	return Success{Timestamp: ts}
}
