package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	treeboard "github.com/ideamans/go-treeboard"
	"golang.org/x/oauth2"
)

// Backend implements treeboard.Backend over the dashboard's REST API
type Backend struct {
	baseURL  *url.URL
	client   *http.Client
	keyField string
	now      func() time.Time
}

// New creates a REST backend from config
func New(config *Config) (*Backend, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	base, err := url.Parse(strings.TrimRight(config.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	client := config.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	if config.Token != "" {
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, client)
		client = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: config.Token,
			TokenType:   "Bearer",
		}))
	}
	if config.Timeout > 0 {
		copied := *client
		copied.Timeout = config.Timeout
		client = &copied
	}

	keyField := config.KeyField
	if keyField == "" {
		keyField = treeboard.DefaultKeyField
	}

	return &Backend{
		baseURL:  base,
		client:   client,
		keyField: keyField,
		now:      time.Now,
	}, nil
}

type envelope struct {
	Success          *bool                    `json:"success"`
	Error            string                   `json:"error"`
	Message          string                   `json:"message"`
	ProcessingTimeMs json.Number              `json:"processingTimeMs"`
	SearchMethod     string                   `json:"searchMethod"`
	Results          []map[string]interface{} `json:"results"`
	Data             json.RawMessage          `json:"data"`
	TreeType         string                   `json:"treeType"`
}

type tablePayload struct {
	Rows             []map[string]interface{} `json:"rows"`
	Columns          []string                 `json:"columns"`
	ProcessingTimeMs json.Number              `json:"processingTimeMs"`
}

// FetchTable loads the full table snapshot
func (b *Backend) FetchTable(ctx context.Context) (*treeboard.Snapshot, error) {
	const op = "fetch table"

	query := url.Values{"ts": {strconv.FormatInt(b.now().UnixMilli(), 10)}}
	env, err := b.call(ctx, op, http.MethodGet, "/api/display/table", query, nil, "")
	if err != nil {
		return nil, err
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil, &treeboard.TransportError{Op: op, Err: treeboard.ErrMissingData}
	}

	var table tablePayload
	if err := decode(bytes.NewReader(env.Data), &table); err != nil {
		return nil, &treeboard.TransportError{Op: op, Err: fmt.Errorf("failed to decode table: %w", err)}
	}

	return &treeboard.Snapshot{
		Rows:             b.rows(table.Rows),
		Columns:          treeboard.ColumnSet(table.Columns),
		ProcessingTimeMs: millis(table.ProcessingTimeMs),
	}, nil
}

// FetchStructure returns the backend's structure mode; unknown or absent is None
func (b *Backend) FetchStructure(ctx context.Context) (treeboard.StructureMode, error) {
	env, err := b.call(ctx, "fetch structure", http.MethodGet, "/api/tree/current", nil, nil, "")
	if err != nil {
		return treeboard.StructureNone, err
	}
	mode, err := treeboard.ParseStructureMode(env.TreeType)
	if err != nil {
		return treeboard.StructureNone, nil
	}
	return mode, nil
}

// Search runs a key-or-substring search on the backend
func (b *Backend) Search(ctx context.Context, query string) (*treeboard.SearchResult, error) {
	const op = "search"

	env, err := b.call(ctx, op, http.MethodGet, "/api/data/search", url.Values{"query": {query}}, nil, "")
	if err != nil {
		return nil, err
	}
	if err := checkSuccess(op, env); err != nil {
		return nil, err
	}

	results := make([]map[string]interface{}, 0, len(env.Results))
	for _, r := range env.Results {
		if meta, ok := r["isMetadata"].(bool); ok && meta {
			continue
		}
		results = append(results, r)
	}

	return &treeboard.SearchResult{
		Rows:             b.rows(results),
		ProcessingTimeMs: millis(env.ProcessingTimeMs),
		SearchMethod:     env.SearchMethod,
	}, nil
}

// Sort returns every row ordered by column using the chosen algorithm's endpoint
func (b *Backend) Sort(ctx context.Context, alg treeboard.Algorithm, column string, dir treeboard.Direction) (*treeboard.SortResult, error) {
	const op = "sort"

	var path string
	switch alg {
	case treeboard.AlgorithmMergeSort:
		path = "/api/mergeSort/sortByProperty"
	case treeboard.AlgorithmHeapSort:
		path = "/api/sorting/sort-by-property"
	case treeboard.AlgorithmBuiltinSort:
		path = "/api/data/sort"
	default:
		return nil, fmt.Errorf("%w: %s", treeboard.ErrInvalidAlgorithm, alg)
	}

	query := url.Values{"property": {column}, "direction": {string(dir)}}
	env, err := b.call(ctx, op, http.MethodGet, path, query, nil, "")
	if err != nil {
		return nil, err
	}
	if err := checkSuccess(op, env); err != nil {
		return nil, err
	}

	var rows []map[string]interface{}
	if len(env.Data) > 0 && string(env.Data) != "null" {
		if err := decode(bytes.NewReader(env.Data), &rows); err != nil {
			return nil, &treeboard.TransportError{Op: op, Err: fmt.Errorf("failed to decode rows: %w", err)}
		}
	}

	return &treeboard.SortResult{
		Rows:             b.rows(rows),
		ProcessingTimeMs: millis(env.ProcessingTimeMs),
	}, nil
}

// Convert switches the backend storage structure
func (b *Backend) Convert(ctx context.Context, target treeboard.StructureMode) (string, error) {
	const op = "convert"

	query := url.Values{"targetTree": {string(target)}}
	env, err := b.call(ctx, op, http.MethodPost, "/api/tree/convert", query, nil, "")
	if err != nil {
		return "", err
	}
	if err := checkSuccess(op, env); err != nil {
		return "", err
	}
	return env.Message, nil
}

// Import uploads a CSV file as multipart field "file"
func (b *Backend) Import(ctx context.Context, filename string, r io.Reader) (string, error) {
	const op = "import"

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", &treeboard.TransportError{Op: op, Err: err}
	}
	if _, err := io.Copy(part, r); err != nil {
		return "", &treeboard.TransportError{Op: op, Err: fmt.Errorf("failed to read %s: %w", filename, err)}
	}
	if err := mw.Close(); err != nil {
		return "", &treeboard.TransportError{Op: op, Err: err}
	}

	env, err := b.call(ctx, op, http.MethodPost, "/api/data/import-csv", nil, &body, mw.FormDataContentType())
	if err != nil {
		return "", err
	}
	if err := checkSuccess(op, env); err != nil {
		return "", err
	}
	return env.Message, nil
}

// AddRow posts the row as a JSON object
func (b *Backend) AddRow(ctx context.Context, row treeboard.Row) error {
	const op = "add"

	values := make(map[string]interface{}, len(row.Values)+1)
	for k, v := range row.Values {
		values[k] = v
	}
	if _, ok := values[b.keyField]; !ok && row.Key != "" {
		values[b.keyField] = row.Key
	}

	payload, err := json.Marshal(values)
	if err != nil {
		return &treeboard.TransportError{Op: op, Err: fmt.Errorf("failed to encode row: %w", err)}
	}

	_, err = b.call(ctx, op, http.MethodPost, "/api/data/add", nil, bytes.NewReader(payload), "application/json")
	return err
}

// DeleteRow removes the row addressed by key
func (b *Backend) DeleteRow(ctx context.Context, key string) error {
	const op = "delete"

	env, err := b.call(ctx, op, http.MethodDelete, "/api/data/delete/"+url.PathEscape(key), nil, nil, "")
	if err != nil {
		return err
	}
	return checkSuccess(op, env)
}

// call performs one request and decodes the JSON envelope. Transport
// failures, non-2xx statuses and undecodable bodies are TransportErrors.
func (b *Backend) call(ctx context.Context, op, method, path string, query url.Values, body io.Reader, contentType string) (*envelope, error) {
	u := *b.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	if query != nil {
		u.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, &treeboard.TransportError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, &treeboard.TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &treeboard.TransportError{Op: op, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// the server reports rejected commands as 400 with a JSON envelope
		var env envelope
		if err := json.Unmarshal(raw, &env); err == nil {
			if aerr := checkSuccess(op, &env); aerr != nil {
				return nil, aerr
			}
		}
		return nil, &treeboard.TransportError{Op: op, Err: statusError(resp.StatusCode, raw)}
	}

	env := &envelope{}
	if len(bytes.TrimSpace(raw)) == 0 {
		return env, nil
	}
	if err := decode(bytes.NewReader(raw), env); err != nil {
		return nil, &treeboard.TransportError{Op: op, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return env, nil
}

// statusError prefers the server's error field, then the raw body text
func statusError(code int, raw []byte) error {
	var env envelope
	if err := json.Unmarshal(raw, &env); err == nil && env.Error != "" {
		return fmt.Errorf("status %d: %s", code, env.Error)
	}
	text := strings.TrimSpace(string(raw))
	if text == "" {
		text = http.StatusText(code)
	}
	return fmt.Errorf("status %d: %s", code, text)
}

func checkSuccess(op string, env *envelope) error {
	if env.Success != nil && !*env.Success {
		return &treeboard.ApplicationError{Op: op, Message: env.Error}
	}
	return nil
}

func decode(r io.Reader, v interface{}) error {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	return dec.Decode(v)
}

func (b *Backend) rows(maps []map[string]interface{}) []treeboard.Row {
	rows := make([]treeboard.Row, 0, len(maps))
	for _, m := range maps {
		for k, v := range m {
			m[k] = normalize(v)
		}
		rows = append(rows, treeboard.NewRow(m, b.keyField))
	}
	return rows
}

// normalize turns json.Number into int64 or float64 so large identifiers
// keep their digits
func normalize(v interface{}) interface{} {
	n, ok := v.(json.Number)
	if !ok {
		return v
	}
	if i, err := n.Int64(); err == nil {
		return i
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return n.String()
}

func millis(n json.Number) int64 {
	if n == "" {
		return 0
	}
	if i, err := n.Int64(); err == nil {
		return i
	}
	if f, err := n.Float64(); err == nil {
		return int64(f)
	}
	return 0
}
