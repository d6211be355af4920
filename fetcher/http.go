package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/fastnear/nearflat/internal/coretypes"
)

// MaxRedirects bounds the number of manually-followed redirects before a
// fetch gives up with RedirectError.
const MaxRedirects = 5

// DefaultTimeout is the HTTP request timeout used when a Config leaves
// TimeoutDuration unset.
const DefaultTimeout = 10 * time.Second

// DefaultRetryDuration is the pause between transport-error retries used
// when a Config leaves RetryDuration unset.
const DefaultRetryDuration = time.Second

// HTTPClient is the transport abstraction the fetcher depends on. The
// production implementation wraps *http.Client with auto-redirect
// disabled; tests substitute a mock (see httpclient_mock.go).
type HTTPClient interface {
	// Do issues a single GET against url with the given timeout and
	// optional bearer token (empty string means no Authorization
	// header), manually following up to MaxRedirects redirects. It
	// returns the final status code and response body, or an error for
	// any transport failure or exceeding the redirect cap.
	Do(ctx context.Context, url, bearerToken string, timeout time.Duration) (status int, body []byte, err error)
}

//go:generate mockgen -source http.go -destination httpclient_mock.go -package fetcher

// httpClient is the production HTTPClient, built once and shared (cheaply
// cloned, since *http.Client is safe for concurrent use) across every
// fetcher worker.
type httpClient struct {
	client *http.Client
}

// NewHTTPClient builds the production HTTPClient with auto-redirect
// following disabled, so Do can apply the manual cap.
func NewHTTPClient() HTTPClient {
	return &httpClient{
		client: &http.Client{
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (c *httpClient) Do(ctx context.Context, target, bearerToken string, timeout time.Duration) (int, []byte, error) {
	current := target
	for redirects := 0; ; redirects++ {
		if redirects > MaxRedirects {
			return 0, nil, RedirectError
		}

		reqCtx, cancel := context.WithTimeout(ctx, timeout)
		req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, current, nil)
		if err != nil {
			cancel()
			return 0, nil, err
		}
		if bearerToken != "" {
			req.Header.Set("Authorization", "Bearer "+bearerToken)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			cancel()
			return 0, nil, err
		}

		if resp.StatusCode >= 300 && resp.StatusCode < 400 {
			loc := resp.Header.Get("Location")
			resp.Body.Close()
			cancel()
			if loc == "" {
				return 0, nil, fmt.Errorf("redirect response missing Location header")
			}
			next, err := resolveRedirect(current, loc)
			if err != nil {
				return 0, nil, err
			}
			current = next
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		cancel()
		if err != nil {
			return 0, nil, err
		}
		return resp.StatusCode, body, nil
	}
}

func resolveRedirect(base, location string) (string, error) {
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	locURL, err := url.Parse(location)
	if err != nil {
		return "", err
	}
	return baseURL.ResolveReference(locURL).String(), nil
}

// FetchJSON issues a single GET and, on a 2xx response, decodes the body
// as JSON into a new T. It never retries; callers needing retry-until-
// cancelled semantics use the *UntilSuccess helpers in fetcher.go.
func FetchJSON[T any](ctx context.Context, client HTTPClient, url, bearerToken string, timeout time.Duration) (*T, error) {
	status, body, err := client.Do(ctx, url, bearerToken, timeout)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, fmt.Errorf("unexpected status %d from %s", status, url)
	}
	var v T
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, fmt.Errorf("decoding response from %s: %w", url, err)
	}
	return &v, nil
}

// FetchBlockOrNil issues a single GET for a single block. A 404 response
// is reported as (nil, nil): the height does not exist yet (or no longer
// exists), matching the live-mode "missing height" case. Any other
// non-2xx status, or a transport failure, is returned as an error for the
// caller to retry.
func FetchBlockOrNil(ctx context.Context, client HTTPClient, url, bearerToken string, timeout time.Duration) (*coretypes.BlockWithTxHashes, error) {
	status, body, err := client.Do(ctx, url, bearerToken, timeout)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, nil
	}
	if status < 200 || status >= 300 {
		return nil, fmt.Errorf("unexpected status %d from %s", status, url)
	}
	var block coretypes.BlockWithTxHashes
	if err := json.Unmarshal(body, &block); err != nil {
		return nil, fmt.Errorf("decoding block json from %s: %w", url, err)
	}
	return &block, nil
}

// FetchArchiveBytes issues a single GET for an archive bundle. A 404
// response is reported as (nil, nil): "bundle absent", not an error.
func FetchArchiveBytes(ctx context.Context, client HTTPClient, url, bearerToken string, timeout time.Duration) ([]byte, error) {
	status, body, err := client.Do(ctx, url, bearerToken, timeout)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, nil
	}
	if status < 200 || status >= 300 {
		return nil, fmt.Errorf("unexpected status %d from %s", status, url)
	}
	return body, nil
}
