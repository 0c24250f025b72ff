package audio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/wav"
	"github.com/h2non/filetype"
	"github.com/hashicorp/go-retryablehttp"
	herrors "github.com/tessro/hollow/internal/errors"
)

const (
	fetchHTTPClientTimeout         = 60 * time.Second
	fetchHTTPDialTimeout           = 5 * time.Second
	fetchHTTPKeepAlive             = 30 * time.Second
	fetchHTTPTLSHandshakeTimeout   = 5 * time.Second
	fetchHTTPResponseHeaderTimeout = 10 * time.Second
	fetchHTTPIdleConnTimeout       = 90 * time.Second

	// sniffLen is how many leading bytes filetype needs to classify a file.
	sniffLen = 262

	// DefaultMaxSourceSize caps how much of a source is read into memory.
	DefaultMaxSourceSize int64 = 256 << 20
)

var fetchHTTPTransport = &http.Transport{
	Proxy: http.ProxyFromEnvironment,
	DialContext: (&net.Dialer{
		Timeout:   fetchHTTPDialTimeout,
		KeepAlive: fetchHTTPKeepAlive,
	}).DialContext,
	TLSHandshakeTimeout:   fetchHTTPTLSHandshakeTimeout,
	ResponseHeaderTimeout: fetchHTTPResponseHeaderTimeout,
	IdleConnTimeout:       fetchHTTPIdleConnTimeout,
}

// NewHTTPClient returns a client that retries transient failures up to
// retryMax times.
func NewHTTPClient(retryMax int) *http.Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = retryMax
	retryClient.Logger = nil
	retryClient.HTTPClient = &http.Client{
		Timeout:   fetchHTTPClientTimeout,
		Transport: fetchHTTPTransport,
	}

	return retryClient.StandardClient()
}

// Media is a fetched, sniffed audio resource.
type Media struct {
	URI  string
	MIME string
	Data []byte
}

// Size returns the resource size in bytes.
func (m *Media) Size() int {
	return len(m.Data)
}

// Fetch reads uri into memory and checks that it holds a supported audio
// format. uri may be a local path, a file:// URL or an http(s) URL. Sources
// larger than maxSize bytes are rejected; maxSize <= 0 means
// DefaultMaxSourceSize.
func Fetch(ctx context.Context, client *http.Client, uri string, maxSize int64) (*Media, error) {
	if maxSize <= 0 {
		maxSize = DefaultMaxSourceSize
	}
	data, err := readURI(ctx, client, uri, maxSize)
	if err != nil {
		return nil, err
	}

	mime, err := Sniff(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", uri, err)
	}

	return &Media{URI: uri, MIME: mime, Data: data}, nil
}

func readURI(ctx context.Context, client *http.Client, uri string, maxSize int64) ([]byte, error) {
	u, err := url.Parse(uri)
	if err != nil || u.Scheme == "" || len(u.Scheme) == 1 {
		// Bare paths, including Windows drive letters.
		return readFile(uri, maxSize)
	}

	switch strings.ToLower(u.Scheme) {
	case "file":
		return readFile(u.Path, maxSize)
	case "http", "https":
		return readHTTP(ctx, client, uri, maxSize)
	default:
		return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
}

func readFile(path string, maxSize int64) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.Size() > maxSize {
		return nil, tooLarge(path, maxSize)
	}
	return os.ReadFile(path)
}

func readHTTP(ctx context.Context, client *http.Client, uri string, maxSize int64) ([]byte, error) {
	if client == nil {
		client = NewHTTPClient(3)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch failed to build request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", herrors.ErrNetworkError, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%w: %s returned %s", herrors.ErrNetworkError, uri, resp.Status)
	}

	if resp.ContentLength > maxSize {
		return nil, tooLarge(uri, maxSize)
	}

	// One byte past the cap tells a full-size body from a truncated one.
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", herrors.ErrNetworkError, err)
	}
	if int64(len(data)) > maxSize {
		return nil, tooLarge(uri, maxSize)
	}
	return data, nil
}

func tooLarge(uri string, maxSize int64) error {
	return fmt.Errorf("%w: %s is larger than %s", herrors.ErrUnsupportedMedia, uri, humanize.Bytes(uint64(maxSize)))
}

// Sniff returns the MIME type of data if it is a supported audio format.
func Sniff(data []byte) (string, error) {
	head := data
	if len(head) > sniffLen {
		head = head[:sniffLen]
	}

	kind, err := filetype.Match(head)
	if err != nil {
		return "", fmt.Errorf("sniff: %w", err)
	}

	switch kind.Extension {
	case "wav", "mp3":
		return kind.MIME.Value, nil
	case filetype.Unknown.Extension:
		return "", fmt.Errorf("%w: unrecognised content", herrors.ErrUnsupportedMedia)
	default:
		return "", fmt.Errorf("%w: %s", herrors.ErrUnsupportedMedia, kind.MIME.Value)
	}
}

// readSeekNopCloser lets the mp3 decoder seek within an in-memory buffer.
type readSeekNopCloser struct {
	*bytes.Reader
}

func (readSeekNopCloser) Close() error { return nil }

// Decode opens a seekable sample stream over m.
func Decode(m *Media) (beep.StreamSeekCloser, beep.Format, error) {
	r := bytes.NewReader(m.Data)

	var (
		s      beep.StreamSeekCloser
		format beep.Format
		err    error
	)
	switch m.MIME {
	case "audio/x-wav", "audio/wav":
		s, format, err = wav.Decode(r)
	case "audio/mpeg":
		s, format, err = mp3.Decode(readSeekNopCloser{r})
	default:
		return nil, beep.Format{}, fmt.Errorf("%w: %s", herrors.ErrUnsupportedMedia, m.MIME)
	}
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("decode %s: %w", m.MIME, err)
	}
	return s, format, nil
}
