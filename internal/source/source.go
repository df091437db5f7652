// Package source loads relationship graphs from the model inventory backend
// or from local files.
package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/msalah0e/depviz/internal/cache"
	"github.com/msalah0e/depviz/internal/graph"
	"github.com/msalah0e/depviz/internal/parallel"
)

// ErrUnavailable wraps transport failures and unexpected status codes.
var ErrUnavailable = errors.New("relationships backend unavailable")

// ErrEmptyID is returned when Fetch is called without a model id.
var ErrEmptyID = errors.New("model id is empty")

const (
	DefaultPath    = "/api/models/{id}/relationships"
	DefaultTimeout = 10 * time.Second
	maxBody        = 32 << 20
)

type Options struct {
	BaseURL string
	// RelationshipsPath must contain an {id} placeholder.
	RelationshipsPath string
	// Token is sent as a bearer token when set.
	Token   string
	Timeout time.Duration
	// Cache, when set, serves fresh payloads without a request and stores
	// every successful response.
	Cache      *cache.Store
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Client fetches relationship payloads over HTTP. It never retries.
type Client struct {
	base  string
	path  string
	token string
	http  *http.Client
	cache *cache.Store
	log   *zap.Logger
}

func New(opts Options) *Client {
	if opts.RelationshipsPath == "" {
		opts.RelationshipsPath = DefaultPath
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Timeout}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Client{
		base:  strings.TrimRight(opts.BaseURL, "/"),
		path:  opts.RelationshipsPath,
		token: opts.Token,
		http:  opts.HTTPClient,
		cache: opts.Cache,
		log:   opts.Logger,
	}
}

// URL returns the relationships endpoint for a model id.
func (c *Client) URL(id string) string {
	return c.base + strings.ReplaceAll(c.path, "{id}", url.PathEscape(id))
}

// Fetch loads the relationship graph for a model. The graph is never nil.
// A 404 yields an empty graph and no error. Any other failure yields an
// empty graph and an error; decode errors come from graph.DecodeResponse,
// everything else wraps ErrUnavailable.
func (c *Client) Fetch(ctx context.Context, id string) (*graph.Graph, error) {
	if id == "" {
		return graph.Empty(), ErrEmptyID
	}
	log := c.log.With(zap.String("model", id))

	if c.cache != nil {
		if data, ok := c.cache.Get(id); ok {
			g, err := graph.DecodeResponse(data)
			if err == nil {
				log.Debug("relationships served from cache", zap.Int("nodes", g.Len()))
				return g, nil
			}
			log.Debug("ignoring unreadable cache entry", zap.Error(err))
		}
	}

	endpoint := c.URL(id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return graph.Empty(), fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		log.Warn("relationships request failed", zap.Error(err))
		return graph.Empty(), fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	log = log.With(zap.Int("status", resp.StatusCode), zap.Duration("elapsed", time.Since(start)))
	switch {
	case resp.StatusCode == http.StatusNotFound:
		log.Info("model has no relationships")
		return graph.Empty(), nil
	case resp.StatusCode != http.StatusOK:
		log.Warn("unexpected relationships status")
		return graph.Empty(), fmt.Errorf("%w: GET %s: status %d", ErrUnavailable, endpoint, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return graph.Empty(), fmt.Errorf("%w: read body: %v", ErrUnavailable, err)
	}

	g, err := graph.DecodeResponse(data)
	if err != nil {
		log.Warn("relationships payload rejected", zap.Error(err))
		return g, err
	}
	log.Debug("relationships loaded", zap.Int("nodes", g.Len()), zap.Int("edges", len(g.Edges)))

	if c.cache != nil {
		if err := c.cache.Put(id, data); err != nil {
			log.Debug("cache write failed", zap.Error(err))
		}
	}
	return g, nil
}

// Result is the outcome of one fetch in FetchAll.
type Result struct {
	ID    string
	Graph *graph.Graph
	Err   error
}

// FetchAll fetches several models with at most concurrency requests in
// flight. Results keep the order of ids.
func (c *Client) FetchAll(ctx context.Context, ids []string, concurrency int) []Result {
	out := make([]Result, len(ids))
	tasks := make([]parallel.Task, len(ids))
	for i, id := range ids {
		out[i] = Result{ID: id, Graph: graph.Empty()}
		tasks[i] = parallel.Task{
			Name: id,
			Fn: func() (string, error) {
				g, err := c.Fetch(ctx, id)
				out[i].Graph = g
				return "", err
			},
		}
	}
	for i, r := range parallel.Collect(ctx, tasks, concurrency) {
		out[i].Err = r.Err
	}
	return out
}

// LoadFile reads a graph from disk ("-" reads stdin). It accepts either a
// relationships response or a {nodes, edges} export.
func LoadFile(path string) (*graph.Graph, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return graph.Empty(), fmt.Errorf("read %s: %w", path, err)
	}
	return Decode(data)
}

// Decode parses either payload shape LoadFile accepts.
func Decode(data []byte) (*graph.Graph, error) {
	var probe struct {
		Nodes json.RawMessage `json:"nodes"`
	}
	if json.Unmarshal(data, &probe) == nil && probe.Nodes != nil {
		var export struct {
			Nodes []graph.Node `json:"nodes"`
			Edges []graph.Edge `json:"edges"`
		}
		if err := json.Unmarshal(data, &export); err != nil {
			return graph.Empty(), fmt.Errorf("decode export: %w", err)
		}
		return graph.New(export.Nodes, export.Edges), nil
	}
	return graph.DecodeResponse(data)
}
