package mcpserver

import (
	"encoding/base64"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/starford/namohub/internal/decode"
)

const maxDocumentSize = 10 << 20 // 10 MB

// fetchDocument loads an import document from a data: URI or an http(s)
// URL. The returned format comes from the media type when it names one.
func fetchDocument(source string) ([]byte, decode.Format, error) {
	if strings.HasPrefix(source, "data:") {
		return decodeDataURI(source)
	}
	return fetchHTTP(source)
}

// decodeDataURI parses a data:[<mediatype>][;base64],<data> URI. Plain
// (non-base64) payloads are percent-decoded.
func decodeDataURI(uri string) ([]byte, decode.Format, error) {
	rest := strings.TrimPrefix(uri, "data:")
	commaIdx := strings.Index(rest, ",")
	if commaIdx < 0 {
		return nil, "", fmt.Errorf("invalid data URI: missing comma separator")
	}

	meta := rest[:commaIdx]
	encoded := rest[commaIdx+1:]
	mime := strings.Split(strings.TrimSuffix(meta, ";base64"), ";")[0]

	var data []byte
	if strings.HasSuffix(meta, ";base64") {
		var err error
		data, err = base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			data, err = base64.RawStdEncoding.DecodeString(encoded)
			if err != nil {
				return nil, "", fmt.Errorf("invalid base64 data: %w", err)
			}
		}
	} else {
		s, err := url.PathUnescape(encoded)
		if err != nil {
			return nil, "", fmt.Errorf("invalid data URI payload: %w", err)
		}
		data = []byte(s)
	}
	if len(data) > maxDocumentSize {
		return nil, "", fmt.Errorf("document too large: %d bytes (max %d)", len(data), maxDocumentSize)
	}
	return data, decode.FormatFromName(mime), nil
}

// fetchHTTP downloads a document from an HTTP/HTTPS URL with security checks.
func fetchHTTP(rawURL string) ([]byte, decode.Format, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, "", fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, "", fmt.Errorf("unsupported scheme: %s (only http/https or data:)", parsed.Scheme)
	}

	if err := checkBlockedHost(parsed.Hostname()); err != nil {
		return nil, "", err
	}

	client := &http.Client{
		Timeout: 30 * time.Second,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 5 {
				return fmt.Errorf("too many redirects (max 5)")
			}
			return checkBlockedHost(req.URL.Hostname())
		},
	}

	resp, err := client.Get(rawURL) //nolint:noctx
	if err != nil {
		return nil, "", fmt.Errorf("download failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("download failed: HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize+1))
	if err != nil {
		return nil, "", fmt.Errorf("read body failed: %w", err)
	}
	if len(data) > maxDocumentSize {
		return nil, "", fmt.Errorf("document too large: exceeds %d bytes", maxDocumentSize)
	}

	format := decode.FormatFromName(strings.Split(resp.Header.Get("Content-Type"), ";")[0])
	if format == decode.FormatAuto {
		format = decode.FormatFromName(parsed.Path)
	}
	return data, format, nil
}

// checkBlockedHost rejects loopback and cloud metadata addresses.
func checkBlockedHost(host string) error {
	if host == "metadata.google.internal" {
		return fmt.Errorf("blocked host: %s", host)
	}

	ip := net.ParseIP(host)
	if ip == nil {
		ips, lookupErr := net.LookupIP(host)
		if lookupErr != nil || len(ips) == 0 {
			return nil //nolint:nilerr // let http.Client handle DNS failures
		}
		ip = ips[0]
	}

	if ip.IsLoopback() {
		return fmt.Errorf("blocked host: loopback address %s", host)
	}
	// AWS/GCP/Azure metadata endpoint.
	if ip.Equal(net.ParseIP("169.254.169.254")) {
		return fmt.Errorf("blocked host: cloud metadata address %s", host)
	}
	return nil
}
