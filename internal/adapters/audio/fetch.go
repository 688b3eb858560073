package audio

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// DefaultMaxBytes caps how much of a source is read into memory.
const DefaultMaxBytes int64 = 64 << 20

// Fetcher reads a whole audio source into memory. Locators are http(s) URLs,
// s3://bucket/key objects, file:// URLs or plain paths.
type Fetcher struct {
	client   *http.Client
	store    *minio.Client
	maxBytes int64
}

// FetchOption configures a Fetcher.
type FetchOption func(*Fetcher)

// WithHTTPClient sets the client used for http(s) locators.
func WithHTTPClient(c *http.Client) FetchOption {
	return func(f *Fetcher) {
		if c != nil {
			f.client = c
		}
	}
}

// WithObjectStore enables s3:// locators.
func WithObjectStore(c *minio.Client) FetchOption {
	return func(f *Fetcher) {
		f.store = c
	}
}

// WithMaxBytes sets the size cap of a single source.
func WithMaxBytes(n int64) FetchOption {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxBytes = n
		}
	}
}

// NewFetcher creates a fetcher with the given options.
func NewFetcher(opts ...FetchOption) *Fetcher {
	f := &Fetcher{
		client:   http.DefaultClient,
		maxBytes: DefaultMaxBytes,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// NewObjectStore connects a minio client for s3:// locators.
func NewObjectStore(endpoint, accessKey, secretKey string, useSSL bool) (*minio.Client, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create object store client: %w", err)
	}
	return client, nil
}

// Fetch returns the source bytes and the file extension of the locator.
func (f *Fetcher) Fetch(ctx context.Context, locator string) ([]byte, string, error) {
	u, err := url.Parse(locator)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %q", ErrUnsupportedSource, locator)
	}
	ext := strings.ToLower(path.Ext(u.Path))

	var data []byte
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		data, err = f.fetchHTTP(ctx, u.String())
	case "s3":
		data, err = f.fetchObject(ctx, u.Host, strings.TrimPrefix(u.Path, "/"))
	case "file":
		data, err = f.fetchFile(u.Path)
	case "":
		data, err = f.fetchFile(locator)
	default:
		return nil, "", fmt.Errorf("%w: scheme %q", ErrUnsupportedSource, u.Scheme)
	}
	if err != nil {
		return nil, "", err
	}
	return data, ext, nil
}

func (f *Fetcher) fetchHTTP(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s returned %d", ErrFetchFailed, target, resp.StatusCode)
	}
	if resp.ContentLength > f.maxBytes {
		return nil, fmt.Errorf("%w: %d bytes", ErrSourceTooLarge, resp.ContentLength)
	}
	return f.readCapped(resp.Body)
}

func (f *Fetcher) fetchObject(ctx context.Context, bucket, key string) ([]byte, error) {
	if f.store == nil {
		return nil, ErrNoObjectStore
	}
	if bucket == "" || key == "" {
		return nil, fmt.Errorf("%w: missing bucket or key", ErrUnsupportedSource)
	}
	obj, err := f.store.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	defer obj.Close()
	return f.readCapped(obj)
}

func (f *Fetcher) fetchFile(name string) ([]byte, error) {
	file, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	defer file.Close()
	return f.readCapped(file)
}

func (f *Fetcher) readCapped(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	if int64(len(data)) > f.maxBytes {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrSourceTooLarge, f.maxBytes)
	}
	return data, nil
}
