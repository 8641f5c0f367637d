package provider

import (
	"bufio"
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cleared-dev/savings/internal/buildinfo"
	"github.com/cleared-dev/savings/internal/log"
	"github.com/cleared-dev/savings/internal/rates"
)

// diskCache keeps raw HTTP responses on disk for the current day. It only
// saves repeated downloads across runs; it is not the run's rate cache.
type diskCache struct {
	base http.RoundTripper
	dir  string
	log  *log.Logger
	now  func() time.Time
}

// RoundTrip returns today's stored response for the request when present,
// otherwise performs it and stores successful responses.
func (c *diskCache) RoundTrip(req *http.Request) (*http.Response, error) {
	day := c.now().UTC().Format(time.DateOnly)
	key := fmt.Sprintf("%x", sha1.Sum([]byte(day+" "+req.Method+" "+req.URL.String())))

	if resp, err := c.get(key, req); err == nil {
		return resp, nil
	}

	resp, err := c.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	c.log.Debug("http", log.FieldURL, req.URL.Host+req.URL.Path, log.FieldStatus, resp.Status)
	if resp.StatusCode >= 300 {
		return resp, nil
	}
	if err := c.put(key, resp); err != nil {
		c.log.Warn("http cache write failed", log.FieldError, err)
	}
	return resp, nil
}

func (c *diskCache) get(key string, req *http.Request) (*http.Response, error) {
	content, err := os.ReadFile(filepath.Join(c.dir, key))
	if err != nil {
		return nil, err
	}
	return http.ReadResponse(bufio.NewReader(bytes.NewReader(content)), req)
}

// put stores the dumped response. DumpResponse replaces resp.Body with an
// in-memory copy so the caller can still read it.
func (c *diskCache) put(key string, resp *http.Response) error {
	content, err := httputil.DumpResponse(resp, true)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(c.dir, key), content, 0o644)
}

// NewClient returns the HTTP client shared by the HTTP providers. When
// cacheDir is set, responses are cached on disk for the day.
func NewClient(cacheDir string, logger *log.Logger) *http.Client {
	if logger == nil {
		logger = log.Discard()
	}
	client := new(http.Client)
	if cacheDir != "" {
		client.Transport = &diskCache{
			base: http.DefaultTransport,
			dir:  cacheDir,
			log:  logger,
			now:  time.Now,
		}
	}
	return client
}

// jwget performs a GET request and unmarshals the JSON body into data.
// Any transport or status failure is reported as rates.ErrProviderUnavailable.
func jwget(ctx context.Context, client *http.Client, addr string, data any) error {
	body, err := wget(ctx, client, addr)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(data); err != nil {
		return fmt.Errorf("%w: decoding %s: %v", rates.ErrProviderUnavailable, redact(addr), err)
	}
	return nil
}

// wget performs a GET request and returns the body.
func wget(ctx context.Context, client *http.Client, addr string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", rates.ErrProviderUnavailable, err)
	}
	req.Header.Set("User-Agent", buildinfo.UserAgent())
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", rates.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: GET %s%s: %s", rates.ErrProviderUnavailable, resp.Request.URL.Host, resp.Request.URL.Path, resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", rates.ErrProviderUnavailable, redact(addr), err)
	}
	return body, nil
}

// redact drops the query string, which may carry an API token.
func redact(addr string) string {
	before, _, _ := strings.Cut(addr, "?")
	return before
}

// dateParam formats asOf for URL templates; a zero date means "latest".
func dateParam(asOf time.Time) string {
	if asOf.IsZero() {
		return "latest"
	}
	return asOf.UTC().Format(time.DateOnly)
}
