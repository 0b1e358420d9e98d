package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"

	"github.com/campusops/sisync/internal/transport"
	"github.com/campusops/sisync/pkg/errors"
	"github.com/campusops/sisync/pkg/logging"
)

// listPageSize is forced onto every bulk-read query so a full extract's
// worth of records arrives in few pages.
const listPageSize = 5000

// HTTPStore talks to the remote record API. The API publishes a resource
// directory at its root (resource name to collection URL); collections
// paginate with "results" and "next"; each record carries its own "url"
// used for updates and deletes.
type HTTPStore struct {
	root   string
	client *transport.Client

	mu     sync.Mutex
	urlMap map[string]string
}

// NewHTTPStore creates a store for the API rooted at root.
func NewHTTPStore(root string, client *transport.Client) *HTTPStore {
	return &HTTPStore{
		root:   root,
		client: client,
	}
}

// collectionURL resolves a resource name through the API's root directory.
// The directory is fetched once per run and cached.
func (s *HTTPStore) collectionURL(ctx context.Context, resource string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.urlMap == nil {
		resp, err := s.client.Get(ctx, s.root)
		if err != nil {
			return "", &errors.APIError{Resource: resource, Message: "fetching API root directory", Err: err}
		}
		var urlMap map[string]string
		if err := transport.DecodeResponse(resp, resource, &urlMap); err != nil {
			return "", err
		}
		s.urlMap = urlMap
	}

	collection, ok := s.urlMap[resource]
	if !ok {
		return "", errors.NewAPIError(resource, 0,
			fmt.Sprintf("API root directory has no entry for resource %q", resource))
	}
	return collection, nil
}

// listPage is one page of a paginated collection response.
type listPage struct {
	Next    *string          `json:"next"`
	Results []map[string]any `json:"results"`
}

// List implements Store.
func (s *HTTPStore) List(ctx context.Context, resource, keyField string) (Records, error) {
	collection, err := s.collectionURL(ctx, resource)
	if err != nil {
		return nil, err
	}

	next, err := withPageSize(collection, listPageSize)
	if err != nil {
		return nil, err
	}

	records := make(Records)
	for next != "" {
		logging.Debug().
			Str("resource", resource).
			Str("url", next).
			Int("loaded", len(records)).
			Msg("Loading remote page")

		resp, err := s.client.Get(ctx, next)
		if err != nil {
			return nil, &errors.APIError{Resource: resource, Message: "bulk read failed", Err: err}
		}

		var page listPage
		if err := transport.DecodeResponse(resp, resource, &page); err != nil {
			return nil, err
		}

		for _, raw := range page.Results {
			record := coerceRecord(raw)
			key := record.Fields[keyField]
			if key == "" {
				logging.Warn().
					Str("resource", resource).
					Str("url", record.URL).
					Msg("Remote record missing key field, ignoring")
				continue
			}
			records[key] = record
		}

		if page.Next == nil {
			break
		}
		next = *page.Next
	}

	logging.Info().
		Str("resource", resource).
		Int("records", len(records)).
		Msg("Finished loading remote records")

	return records, nil
}

// Create implements Store.
func (s *HTTPStore) Create(ctx context.Context, resource string, fields map[string]string) error {
	collection, err := s.collectionURL(ctx, resource)
	if err != nil {
		return err
	}

	resp, err := s.client.Send(ctx, http.MethodPost, collection, fields)
	if err != nil {
		return &errors.APIError{Resource: resource, Message: "create failed", Err: err}
	}
	return decodeWriteResponse(resp, resource)
}

// Update implements Store.
func (s *HTTPStore) Update(ctx context.Context, resource string, record Record, fields map[string]string) error {
	resp, err := s.client.Send(ctx, http.MethodPut, record.URL, fields)
	if err != nil {
		return &errors.APIError{Resource: resource, Message: "update failed", Err: err}
	}
	return decodeWriteResponse(resp, resource)
}

// Delete implements Store.
func (s *HTTPStore) Delete(ctx context.Context, resource string, record Record) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, record.URL, nil)
	if err != nil {
		return err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return &errors.APIError{Resource: resource, Message: "delete failed", Err: err}
	}
	return decodeWriteResponse(resp, resource)
}

// decodeWriteResponse turns a non-2xx write response into an APIError,
// pulling per-field rejection details out of 4xx bodies so the run summary
// can name the offending field and value.
func decodeWriteResponse(resp *http.Response, resource string) error {
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logging.Warn().Err(err).Msg("Failed to close response body")
		}
	}()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	apiErr := &errors.APIError{Resource: resource, StatusCode: resp.StatusCode}

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil {
		apiErr.Fields = make(map[string][]string)
		for attr, val := range body {
			switch v := val.(type) {
			case string:
				if attr == "detail" {
					apiErr.Message = v
					continue
				}
				apiErr.Fields[attr] = []string{v}
			case []any:
				for _, item := range v {
					apiErr.Fields[attr] = append(apiErr.Fields[attr], fmt.Sprint(item))
				}
			}
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}

	return apiErr
}

// coerceRecord flattens a decoded remote record into comparison fields.
// Nested values never participate in comparison and are dropped.
func coerceRecord(raw map[string]any) Record {
	record := Record{Fields: make(map[string]string, len(raw))}
	for attr, val := range raw {
		var str string
		switch v := val.(type) {
		case nil:
			str = ""
		case string:
			str = v
		case bool:
			str = strconv.FormatBool(v)
		case float64:
			str = strconv.FormatFloat(v, 'f', -1, 64)
		default:
			continue
		}
		if attr == "url" {
			record.URL = str
			continue
		}
		record.Fields[attr] = str
	}
	return record
}

// withPageSize forces the bulk-read page size onto a collection URL,
// preserving any query parameters the directory included.
func withPageSize(collection string, size int) (string, error) {
	parsed, err := url.Parse(collection)
	if err != nil {
		return "", err
	}
	query := parsed.Query()
	query.Set("page_size", strconv.Itoa(size))
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}
