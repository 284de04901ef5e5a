package config

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	remotePinKey   = "sha256"
	maxRemoteBytes = 1 << 20
)

var remoteHTTPClient = &http.Client{Timeout: 10 * time.Second}

// Remote bases are only accepted with a content pin: #sha256=<hex>.

func parseRemoteURL(raw string) (*url.URL, bool) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, false
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, false
	}
	if strings.TrimSpace(parsed.Host) == "" {
		return nil, false
	}
	return parsed, true
}

func resolveRemoteRef(parent *url.URL, ref string) (string, error) {
	base := *parent
	base.Fragment = ""
	relative, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("invalid remote extends reference %q: %w", ref, err)
	}
	return canonicalRemoteURL(base.ResolveReference(relative).String())
}

func canonicalRemoteURL(raw string) (string, error) {
	parsed, ok := parseRemoteURL(raw)
	if !ok {
		return "", fmt.Errorf("invalid remote config URL: %s", raw)
	}
	pin, err := extractRemotePin(parsed.Fragment)
	if err != nil {
		return "", err
	}
	parsed.Fragment = remotePinKey + "=" + pin
	return parsed.String(), nil
}

func extractRemotePin(fragment string) (string, error) {
	trimmed := strings.TrimSpace(fragment)
	if trimmed == "" {
		return "", fmt.Errorf("remote config files must include a sha256 pin (example: #sha256=<hex>)")
	}
	key, value, ok := strings.Cut(trimmed, "=")
	if !ok {
		return "", fmt.Errorf("invalid remote config pin %q; expected sha256=<hex>", fragment)
	}
	if strings.ToLower(strings.TrimSpace(key)) != remotePinKey {
		return "", fmt.Errorf("unsupported remote config pin key %q; expected sha256", key)
	}
	normalized := strings.ToLower(strings.TrimSpace(value))
	if len(normalized) != 64 {
		return "", fmt.Errorf("invalid remote config sha256 pin length: got %d, expected 64", len(normalized))
	}
	if _, err := hex.DecodeString(normalized); err != nil {
		return "", fmt.Errorf("invalid remote config sha256 pin: %w", err)
	}
	return normalized, nil
}

func readRemoteFile(location string) ([]byte, error) {
	parsed, err := url.Parse(location)
	if err != nil {
		return nil, fmt.Errorf("parse remote config URL: %w", err)
	}
	expected, err := extractRemotePin(parsed.Fragment)
	if err != nil {
		return nil, err
	}
	parsed.Fragment = ""

	response, err := remoteHTTPClient.Get(parsed.String())
	if err != nil {
		return nil, fmt.Errorf("fetch remote config: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode > 299 {
		return nil, fmt.Errorf("fetch remote config: unexpected status %d", response.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(response.Body, maxRemoteBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read remote config response: %w", err)
	}
	if len(data) > maxRemoteBytes {
		return nil, fmt.Errorf("remote config exceeded size limit of %d bytes", maxRemoteBytes)
	}

	sum := sha256.Sum256(data)
	if got := hex.EncodeToString(sum[:]); got != expected {
		return nil, fmt.Errorf("remote config sha256 mismatch: expected %s, got %s", expected, got)
	}
	return data, nil
}
