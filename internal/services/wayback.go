package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// WaybackName keys wayback results in the archive log.
const WaybackName = "wayback_machine"

// DefaultWaybackEndpoint is the Internet Archive's save service.
const DefaultWaybackEndpoint = "https://web.archive.org"

// Wayback submits URLs to the Internet Archive's Wayback Machine.
type Wayback struct {
	endpoint string
	client   *http.Client
	agents   *AgentPool
}

// NewWayback builds the adapter. endpoint is overridable for tests.
func NewWayback(endpoint string, client *http.Client, agents *AgentPool) *Wayback {
	if endpoint == "" {
		endpoint = DefaultWaybackEndpoint
	}
	return &Wayback{
		endpoint: strings.TrimRight(endpoint, "/"),
		client:   client,
		agents:   agents,
	}
}

// Name implements archive.Service.
func (w *Wayback) Name() string { return WaybackName }

// Submit requests a save and resolves the snapshot URL. The save endpoint
// normally redirects to the playback URL; when it does not, the snapshot
// link is scraped from the response body.
func (w *Wayback) Submit(ctx context.Context, target string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.endpoint+"/save/"+target, nil)
	if err != nil {
		return "", fmt.Errorf("wayback request: %w", err)
	}
	req.Header.Set("User-Agent", w.agents.Pick())

	resp, err := w.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("wayback save: %w", err)
	}
	defer resp.Body.Close()

	if err := classifyStatus(w.Name(), resp); err != nil {
		return "", err
	}

	final := resp.Request.URL.String()
	if strings.Contains(final, "/web/") {
		return final, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("wayback response: %w", err)
	}
	if href := w.findSnapshotLink(body, target); href != "" {
		return href, nil
	}

	// Saved but no snapshot link surfaced; the wildcard playback URL
	// always resolves to the newest capture.
	return w.endpoint + "/web/*/" + target, nil
}

func (w *Wayback) findSnapshotLink(body []byte, target string) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}
	var found string
	doc.Find("a").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, ok := sel.Attr("href")
		if !ok {
			return true
		}
		if strings.Contains(href, "/web/") && strings.Contains(href, target) {
			found = href
			return false
		}
		return true
	})
	if found == "" {
		return ""
	}
	if strings.HasPrefix(found, "/") {
		return w.endpoint + found
	}
	return found
}
