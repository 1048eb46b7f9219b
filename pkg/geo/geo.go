// Package geo resolves session IPs to a coarse "City, Country" label
// for the session-list endpoint. Lookups are best effort: any failure
// yields an empty location, never an error for the caller.
package geo

import (
	"encoding/json"
	"net"
	"net/http"
	"net/url"
	"time"
)

const defaultBaseURL = "http://ip-api.com/json"

type Client struct {
	baseURL string
	http    *http.Client
}

func New() *Client {
	return &Client{
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 2 * time.Second},
	}
}

// NewWithBaseURL exists for tests pointing at a local server.
func NewWithBaseURL(baseURL string) *Client {
	c := New()
	c.baseURL = baseURL
	return c
}

type lookupResponse struct {
	Status  string `json:"status"`
	City    string `json:"city"`
	Country string `json:"country"`
}

func (c *Client) Lookup(ip string) string {
	if parsed := net.ParseIP(ip); parsed == nil || parsed.IsLoopback() || parsed.IsPrivate() {
		return ""
	}

	resp, err := c.http.Get(c.baseURL + "/" + url.PathEscape(ip) + "?fields=status,city,country")
	if err != nil {
		return ""
	}
	defer resp.Body.Close()

	var body lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.Status != "success" {
		return ""
	}

	if body.City == "" {
		return body.Country
	}
	if body.Country == "" {
		return body.City
	}
	return body.City + ", " + body.Country
}
