package rowstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/JonMunkholm/signup/internal/core"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// DefaultRESTTimeout bounds a single REST call when no client is supplied.
const DefaultRESTTimeout = 10 * time.Second

// maxErrorBody caps how much of an error response is read.
const maxErrorBody = 64 << 10

// REST writes rows through a PostgREST endpoint (e.g. Supabase).
//
// A REST value is immutable. WithAccessToken returns a copy bound to a
// user's session, so one base client can be shared across requests.
type REST struct {
	baseURL     string
	apiKey      string
	accessToken string
	client      *http.Client
}

// RESTOption configures a REST store.
type RESTOption func(*REST)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(c *http.Client) RESTOption {
	return func(r *REST) {
		if c != nil {
			r.client = c
		}
	}
}

// NewREST creates a REST store for the project at baseURL, authenticating
// with apiKey. Requests go to {baseURL}/rest/v1/{table}.
func NewREST(baseURL, apiKey string, opts ...RESTOption) *REST {
	r := &REST{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: DefaultRESTTimeout},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// WithAccessToken returns a copy of r that sends token as the bearer
// credential. An empty token falls back to the API key.
func (r *REST) WithAccessToken(token string) *REST {
	cp := *r
	cp.accessToken = token
	return &cp
}

// restError is the PostgREST error body.
type restError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

// Insert posts row to table with Prefer: return=representation.
func (r *REST) Insert(ctx context.Context, table string, row core.Row) (core.StoreResponse, error) {
	body, err := json.Marshal([]core.Row{row})
	if err != nil {
		return core.StoreResponse{}, fmt.Errorf("encode row: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.tableURL(table), bytes.NewReader(body))
	if err != nil {
		return core.StoreResponse{}, err
	}
	r.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=representation")

	resp, err := r.client.Do(req)
	if err != nil {
		return core.StoreResponse{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return core.StoreResponse{}, fmt.Errorf("read inserted rows: %w", err)
		}
		// An empty body means the representation was not returned, e.g.
		// a proxy dropped the Prefer header. The insert still succeeded.
		if len(bytes.TrimSpace(raw)) == 0 {
			return core.StoreResponse{Data: []core.Row{}}, nil
		}

		var data []core.Row
		if err := json.Unmarshal(raw, &data); err != nil {
			return core.StoreResponse{}, fmt.Errorf("decode inserted rows: %w", err)
		}
		if data == nil {
			data = []core.Row{}
		}
		return core.StoreResponse{Data: data}, nil
	}

	return core.StoreResponse{Error: decodeRESTError(resp)}, nil
}

// Ping checks that the REST endpoint answers. Any status below 500 counts.
func (r *REST) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, r.baseURL+"/rest/v1/", nil)
	if err != nil {
		return err
	}
	r.setHeaders(req)

	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("rest endpoint unhealthy: %s", resp.Status)
	}
	return nil
}

func (r *REST) tableURL(table string) string {
	return r.baseURL + "/rest/v1/" + url.PathEscape(table)
}

func (r *REST) setHeaders(req *http.Request) {
	token := r.accessToken
	if token == "" {
		token = r.apiKey
	}
	req.Header.Set("apikey", r.apiKey)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	reqID := middleware.GetReqID(req.Context())
	if reqID == "" {
		reqID = uuid.NewString()
	}
	req.Header.Set("X-Request-Id", reqID)
}

// decodeRESTError turns a non-2xx response into a StoreError. Bodies that
// are not PostgREST JSON are kept verbatim as the message.
func decodeRESTError(resp *http.Response) *core.StoreError {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var re restError
	if err := json.Unmarshal(raw, &re); err == nil && (re.Message != "" || re.Code != "") {
		return &core.StoreError{
			Code:    re.Code,
			Message: re.Message,
			Details: re.Details,
			Hint:    re.Hint,
			Status:  resp.StatusCode,
		}
	}

	msg := strings.TrimSpace(string(raw))
	if msg == "" {
		msg = resp.Status
	}
	return &core.StoreError{Message: msg, Status: resp.StatusCode}
}
