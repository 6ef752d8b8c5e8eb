package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// AirtableStore is the hosted RecordStore backend, speaking the Airtable v0
// REST API.
type AirtableStore struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewAirtableStore creates a client for the given base. apiURL defaults to
// the public Airtable endpoint.
func NewAirtableStore(apiKey, baseID, apiURL string) *AirtableStore {
	if apiURL == "" {
		apiURL = "https://api.airtable.com/v0"
	}
	return &AirtableStore{
		apiKey:  apiKey,
		baseURL: strings.TrimSuffix(apiURL, "/") + "/" + baseID,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (a *AirtableStore) Close() error { return nil }

// airtableRecord mirrors the wire shape of a single record.
type airtableRecord struct {
	ID          string         `json:"id"`
	Fields      map[string]any `json:"fields"`
	CreatedTime time.Time      `json:"createdTime"`
}

func (r airtableRecord) toRecord() Record {
	fields := r.Fields
	if fields == nil {
		fields = map[string]any{}
	}
	return Record{ID: r.ID, Fields: fields, CreatedAt: r.CreatedTime}
}

func (a *AirtableStore) Query(ctx context.Context, table string, opts QueryOptions) ([]Record, error) {
	params := url.Values{}
	if opts.MaxRecords > 0 {
		params.Set("maxRecords", strconv.Itoa(opts.MaxRecords))
	}
	if opts.Filter != "" {
		params.Set("filterByFormula", opts.Filter)
	}
	for i, sf := range opts.Sort {
		params.Set(fmt.Sprintf("sort[%d][field]", i), sf.Field)
		params.Set(fmt.Sprintf("sort[%d][direction]", i), sf.Direction)
	}

	endpoint := a.baseURL + "/" + url.PathEscape(table)
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	var resp struct {
		Records []airtableRecord `json:"records"`
	}
	if err := a.do(ctx, http.MethodGet, endpoint, nil, &resp); err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}

	out := make([]Record, 0, len(resp.Records))
	for _, r := range resp.Records {
		out = append(out, r.toRecord())
	}
	return out, nil
}

func (a *AirtableStore) Insert(ctx context.Context, table string, fields map[string]any) (*Record, error) {
	body := map[string]any{"fields": fields}
	var resp airtableRecord
	if err := a.do(ctx, http.MethodPost, a.baseURL+"/"+url.PathEscape(table), body, &resp); err != nil {
		return nil, fmt.Errorf("insert into %s: %w", table, err)
	}
	rec := resp.toRecord()
	return &rec, nil
}

func (a *AirtableStore) InsertMany(ctx context.Context, table string, fieldsList []map[string]any) ([]Record, error) {
	records := make([]map[string]any, 0, len(fieldsList))
	for _, fields := range fieldsList {
		records = append(records, map[string]any{"fields": fields})
	}

	var resp struct {
		Records []airtableRecord `json:"records"`
	}
	if err := a.do(ctx, http.MethodPost, a.baseURL+"/"+url.PathEscape(table), map[string]any{"records": records}, &resp); err != nil {
		return nil, fmt.Errorf("insert many into %s: %w", table, err)
	}

	out := make([]Record, 0, len(resp.Records))
	for _, r := range resp.Records {
		out = append(out, r.toRecord())
	}
	return out, nil
}

func (a *AirtableStore) Update(ctx context.Context, table string, id string, fields map[string]any) (*Record, error) {
	body := map[string]any{"fields": fields}
	var resp airtableRecord
	endpoint := a.baseURL + "/" + url.PathEscape(table) + "/" + url.PathEscape(id)
	if err := a.do(ctx, http.MethodPatch, endpoint, body, &resp); err != nil {
		return nil, fmt.Errorf("update %s/%s: %w", table, id, err)
	}
	rec := resp.toRecord()
	return &rec, nil
}

func (a *AirtableStore) Delete(ctx context.Context, table string, id string) error {
	endpoint := a.baseURL + "/" + url.PathEscape(table) + "/" + url.PathEscape(id)
	if err := a.do(ctx, http.MethodDelete, endpoint, nil, nil); err != nil {
		return fmt.Errorf("delete %s/%s: %w", table, id, err)
	}
	return nil
}

// do executes one API call and decodes the response into out (if non-nil).
func (a *AirtableStore) do(ctx context.Context, method, endpoint string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+a.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("parse response: %w", err)
		}
	}
	return nil
}
