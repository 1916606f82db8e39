// Package client queries one or more capture backends and merges the results.
package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/fastjson"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/coffersTech/nanoaudit/internal/model"
)

// maxBodySize caps a single backend response.
const maxBodySize = 64 << 20

// StatusError is returned for non-2xx backend responses.
type StatusError struct {
	Backend    string
	Path       string
	StatusCode int
	Detail     string // the backend's {"detail": ...} message, if any
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s%s: status %d: %s", e.Backend, e.Path, e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("%s%s: status %d", e.Backend, e.Path, e.StatusCode)
}

// Option configures a Client.
type Option func(*Client)

// WithToken sends a bearer token on every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithTimeout bounds each request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the client logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithDecoder sets the record decoder (for lenient decoding).
func WithDecoder(d *model.Decoder) Option {
	return func(c *Client) { c.decoder = d }
}

// WithPartialResults keeps going when a backend fails, logging the error.
func WithPartialResults() Option {
	return func(c *Client) { c.partial = true }
}

// Client fans out read-only queries across backends.
type Client struct {
	backends []string
	token    string
	http     *http.Client
	decoder  *model.Decoder
	logger   *zap.Logger
	partial  bool
}

// New creates a Client for base URLs such as http://host:8080/api/v1.
func New(backends []string, opts ...Option) *Client {
	c := &Client{
		http: &http.Client{Timeout: 10 * time.Second},
	}
	for _, b := range backends {
		if b = strings.TrimRight(strings.TrimSpace(b), "/"); b != "" {
			c.backends = append(c.backends, b)
		}
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	if c.decoder == nil {
		c.decoder = &model.Decoder{Logger: c.logger}
	}
	return c
}

// Backends returns the configured base URLs.
func (c *Client) Backends() []string { return c.backends }

// Logs fetches every record.
func (c *Client) Logs(ctx context.Context) ([]model.LogRecord, error) {
	return c.records(ctx, "/logs")
}

// LogsByKind fetches http or tcp records.
func (c *Client) LogsByKind(ctx context.Context, kind model.ProtocolKind) ([]model.LogRecord, error) {
	switch kind {
	case model.KindHTTP, model.KindTCP:
		return c.records(ctx, "/logs/"+string(kind))
	}
	return nil, fmt.Errorf("no backend endpoint for %q records", kind)
}

// StreamLogs fetches the records of one stream ordered by stream index.
func (c *Client) StreamLogs(ctx context.Context, streamID string) ([]model.LogRecord, error) {
	recs, err := c.records(ctx, "/streams/"+url.PathEscape(streamID)+"/logs")
	if err != nil {
		return nil, err
	}
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].StreamIndex < recs[j].StreamIndex
	})
	return recs, nil
}

// Log fetches one record. When several backends know the id, the later
// backend wins, as in the list merge.
func (c *Client) Log(ctx context.Context, id string) (model.LogRecord, error) {
	path := "/logs/" + url.PathEscape(id)
	bodies, err := c.fanOut(ctx, path, true)
	if err != nil {
		return model.LogRecord{}, err
	}

	var (
		found   bool
		rec     model.LogRecord
		lastErr error
	)
	for _, b := range bodies {
		if b.err != nil {
			lastErr = b.err
			continue
		}
		r, err := c.decoder.DecodeRecord(b.body)
		if err != nil {
			return model.LogRecord{}, fmt.Errorf("%s%s: %w", b.backend, path, err)
		}
		rec, found = r, true
	}
	if !found {
		if lastErr == nil {
			lastErr = fmt.Errorf("record %s not found", id)
		}
		return model.LogRecord{}, lastErr
	}
	return rec, nil
}

// MethodStats sums the per-method counters of every backend.
func (c *Client) MethodStats(ctx context.Context) (model.MethodStatistics, error) {
	bodies, err := c.fanOut(ctx, "/logs/methods-stats", c.partial)
	if err != nil {
		return model.MethodStatistics{}, err
	}
	var total model.MethodStatistics
	for _, b := range bodies {
		if b.err != nil {
			continue
		}
		stats, err := c.decoder.DecodeMethodStatistics(b.body)
		if err != nil {
			return model.MethodStatistics{}, fmt.Errorf("%s: %w", b.backend, err)
		}
		for _, m := range model.Methods {
			total.Add(m, stats.Count(m))
		}
	}
	return total, nil
}

// Agents lists agents across backends, deduplicated by UUID.
func (c *Client) Agents(ctx context.Context) ([]model.Agent, error) {
	bodies, err := c.fanOut(ctx, "/agents", c.partial)
	if err != nil {
		return nil, err
	}
	index := make(map[string]int)
	agents := []model.Agent{}
	for _, b := range bodies {
		if b.err != nil {
			continue
		}
		batch, err := c.decoder.DecodeAgents(b.body)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", b.backend, err)
		}
		for _, a := range batch {
			if i, ok := index[a.UUID]; ok {
				agents[i] = a
				continue
			}
			index[a.UUID] = len(agents)
			agents = append(agents, a)
		}
	}
	return agents, nil
}

func (c *Client) records(ctx context.Context, path string) ([]model.LogRecord, error) {
	bodies, err := c.fanOut(ctx, path, c.partial)
	if err != nil {
		return nil, err
	}
	batches := make([][]model.LogRecord, 0, len(bodies))
	for _, b := range bodies {
		if b.err != nil {
			continue
		}
		recs, err := c.decoder.DecodeRecords(b.body)
		if err != nil {
			if !c.partial {
				return nil, fmt.Errorf("%s%s: %w", b.backend, path, err)
			}
			c.logger.Warn("backend returned undecodable records", zap.String("backend", b.backend), zap.Error(err))
			continue
		}
		batches = append(batches, recs)
	}
	return MergeRecords(batches...), nil
}

// MergeRecords merges backend batches: a later batch replaces records with
// the same id, then records are ordered newest first.
func MergeRecords(batches ...[]model.LogRecord) []model.LogRecord {
	index := make(map[string]int)
	out := []model.LogRecord{}
	for _, batch := range batches {
		for _, r := range batch {
			if i, ok := index[r.ID]; ok {
				out[i] = r
				continue
			}
			index[r.ID] = len(out)
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp > out[j].Timestamp
	})
	return out
}

type response struct {
	backend string
	body    []byte
	err     error
}

// fanOut performs one GET per backend. Results keep backend order.
// With tolerate set, per-backend failures are returned in the slice
// instead of cancelling the others.
func (c *Client) fanOut(ctx context.Context, path string, tolerate bool) ([]response, error) {
	if len(c.backends) == 0 {
		return nil, fmt.Errorf("no backends configured")
	}

	results := make([]response, len(c.backends))
	g, gctx := errgroup.WithContext(ctx)
	for i, backend := range c.backends {
		g.Go(func() error {
			body, err := c.get(gctx, backend, path)
			results[i] = response{backend: backend, body: body, err: err}
			if err != nil {
				if tolerate {
					c.logger.Warn("backend request failed", zap.String("backend", backend), zap.String("path", path), zap.Error(err))
					return nil
				}
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if tolerate {
		for _, r := range results {
			if r.err == nil {
				return results, nil
			}
		}
		return nil, results[len(results)-1].err
	}
	return results, nil
}

func (c *Client) get(ctx context.Context, backend, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, backend+path, nil)
	if err != nil {
		return nil, err
	}
	reqID := uuid.New().String()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s%s: %w", backend, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%s%s: read body: %w", backend, path, err)
	}
	c.logger.Debug("backend response",
		zap.String("backend", backend),
		zap.String("path", path),
		zap.String("request_id", reqID),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{
			Backend:    backend,
			Path:       path,
			StatusCode: resp.StatusCode,
			Detail:     fastjson.GetString(body, "detail"),
		}
	}
	return body, nil
}
