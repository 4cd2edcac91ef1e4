package scraper

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var (
	ErrSiteUnreachable = errors.New("no index page could be fetched")
	ErrInvalidBaseURL  = errors.New("invalid base URL")
)

// PageURL builds the address of index page n from a template. A template
// without a %d verb gets the page number appended.
func PageURL(template string, n int) string {
	if strings.Contains(template, "%d") {
		return fmt.Sprintf(template, n)
	}
	return fmt.Sprintf("%s%d", template, n)
}

// Origin returns scheme://host of rawURL.
func Origin(rawURL string) (*url.URL, error) {
	u, err := url.Parse(strings.ReplaceAll(rawURL, "%d", "1"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidBaseURL, u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: missing host", ErrInvalidBaseURL)
	}
	return &url.URL{Scheme: u.Scheme, Host: u.Host}, nil
}
