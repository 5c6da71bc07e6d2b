package spec

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// DefaultSwaggerHubURL is the registry API root used for SwaggerHub sources.
const DefaultSwaggerHubURL = "https://api.swaggerhub.com/apis"

// Source names where a document comes from: either Input (a path or an
// http/https URL) or SwaggerHub coordinates.
type Source struct {
	Input         string
	Owner         string
	API           string
	Version       string
	Authorization string
}

// IsSwaggerHub reports whether the source uses registry coordinates.
func (s Source) IsSwaggerHub() bool {
	return strings.TrimSpace(s.Input) == "" && (s.Owner != "" || s.API != "" || s.Version != "")
}

func (s Source) String() string {
	if s.IsSwaggerHub() {
		return fmt.Sprintf("swaggerhub:%s/%s/%s", s.Owner, s.API, s.Version)
	}
	return s.Input
}

// Settings configures loader behavior.
type Settings struct {
	// HTTPTimeout bounds each HTTP request.
	HTTPTimeout time.Duration
	// MaxRetries for transient HTTP failures (>=500, 429, or network errors).
	MaxRetries int
	// BackoffBase is the initial delay for exponential backoff.
	BackoffBase time.Duration
	// SwaggerHubURL overrides DefaultSwaggerHubURL.
	SwaggerHubURL string
	// Client overrides the HTTP client; HTTPTimeout is ignored when set.
	Client *http.Client
}

// DefaultSettings returns recommended defaults.
func DefaultSettings() Settings {
	return Settings{
		HTTPTimeout:   10 * time.Second,
		MaxRetries:    3,
		BackoffBase:   200 * time.Millisecond,
		SwaggerHubURL: DefaultSwaggerHubURL,
	}
}

// Option mutates Settings.
type Option func(*Settings)

func WithHTTPTimeout(d time.Duration) Option { return func(s *Settings) { s.HTTPTimeout = d } }
func WithMaxRetries(n int) Option { return func(s *Settings) { s.MaxRetries = n } }
func WithBackoffBase(d time.Duration) Option { return func(s *Settings) { s.BackoffBase = d } }
func WithSwaggerHubURL(u string) Option { return func(s *Settings) { s.SwaggerHubURL = u } }
func WithHTTPClient(c *http.Client) Option { return func(s *Settings) { s.Client = c } }

// Load returns the raw bytes of the document named by src.
//
// Input may be a filesystem path or an http/https URL; file:// URLs and other
// schemes are rejected. SwaggerHub sources are fetched from
// {SwaggerHubURL}/{owner}/{api}/{version} as YAML.
func Load(ctx context.Context, src Source, opts ...Option) ([]byte, error) {
	settings := DefaultSettings()
	for _, opt := range opts {
		opt(&settings)
	}

	if src.IsSwaggerHub() {
		return loadSwaggerHub(ctx, src, settings)
	}

	input := strings.TrimSpace(src.Input)
	if input == "" {
		return nil, &SpecError{Code: InputError, Message: "spec: input is empty"}
	}

	u, uerr := url.Parse(input)
	isURL := uerr == nil && u.Scheme != "" && (u.Host != "" || strings.EqualFold(u.Scheme, "file"))
	if isURL {
		scheme := strings.ToLower(u.Scheme)
		if scheme == "file" {
			return nil, &SpecError{Code: InputError, Message: "spec: file:// URLs are not supported, pass a path", Location: input}
		}
		if scheme != "http" && scheme != "https" {
			return nil, &SpecError{Code: InputError, Message: fmt.Sprintf("spec: unsupported URL scheme %q (only http/https allowed)", scheme), Location: input}
		}
		raw, err := fetchWithRetry(ctx, input, nil, settings)
		if err != nil {
			return nil, &SpecError{Code: NetworkError, Message: fmt.Sprintf("fetch %s: %v", input, err), Location: input, Cause: err}
		}
		return raw, nil
	}

	abs, err := filepath.Abs(input)
	if err != nil {
		return nil, &SpecError{Code: InputError, Message: fmt.Sprintf("resolve path: %v", err), Location: input, Cause: err}
	}
	raw, err := os.ReadFile(abs)
	if err != nil {
		return nil, &SpecError{Code: InputError, Message: fmt.Sprintf("read file %s: %v", abs, err), Location: abs, Cause: err}
	}
	return raw, nil
}

func loadSwaggerHub(ctx context.Context, src Source, settings Settings) ([]byte, error) {
	if src.Owner == "" || src.API == "" || src.Version == "" {
		return nil, &SpecError{Code: InputError, Message: "spec: swaggerhub source needs owner, api and version", Location: src.String()}
	}
	base := strings.TrimRight(settings.SwaggerHubURL, "/")
	if base == "" {
		base = DefaultSwaggerHubURL
	}
	target := base + "/" + url.PathEscape(src.Owner) + "/" + url.PathEscape(src.API) + "/" + url.PathEscape(src.Version)

	header := http.Header{}
	header.Set("Accept", "application/yaml")
	if src.Authorization != "" {
		header.Set("Authorization", src.Authorization)
	}
	raw, err := fetchWithRetry(ctx, target, header, settings)
	if err != nil {
		return nil, &SpecError{Code: NetworkError, Message: fmt.Sprintf("fetch %s: %v", target, err), Location: target, Cause: err}
	}
	return raw, nil
}

// errTransient marks responses worth retrying.
var errTransient = errors.New("transient http error")

func fetchWithRetry(ctx context.Context, rawURL string, header http.Header, settings Settings) ([]byte, error) {
	client := settings.Client
	if client == nil {
		client = &http.Client{Timeout: settings.HTTPTimeout}
	}

	policy := backoff.NewExponentialBackOff()
	if settings.BackoffBase > 0 {
		policy.InitialInterval = settings.BackoffBase
	}
	policy.MaxElapsedTime = 0
	retries := settings.MaxRetries - 1
	if retries < 0 {
		retries = 0
	}

	var body []byte
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		for k, vs := range header {
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}
		resp, err := client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return fmt.Errorf("%w %d", errTransient, resp.StatusCode)
		}
		if resp.StatusCode >= 300 {
			snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
			return backoff.Permanent(fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet))))
		}
		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		body = b
		return nil
	}

	err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(policy, uint64(retries)), ctx))
	if err != nil {
		return nil, err
	}
	return body, nil
}
