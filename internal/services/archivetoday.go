package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ArchiveTodayName keys archive.today results in the archive log.
const ArchiveTodayName = "archive_today"

// DefaultArchiveTodayEndpoint is the archive.today submission frontend.
const DefaultArchiveTodayEndpoint = "https://archive.today"

// ArchiveToday submits URLs to archive.today. Submission is a two-step
// dance: fetch the front page for a session cookie, then POST the target
// to /submit/.
type ArchiveToday struct {
	endpoint string
	client   *http.Client
	agents   *AgentPool
}

// NewArchiveToday builds the adapter with its own cookie jar so the
// session cookie from the front page carries into the submit request.
func NewArchiveToday(endpoint string, client *http.Client, agents *AgentPool) (*ArchiveToday, error) {
	if endpoint == "" {
		endpoint = DefaultArchiveTodayEndpoint
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("archive.today cookie jar: %w", err)
	}
	sessionClient := *client
	sessionClient.Jar = jar
	return &ArchiveToday{
		endpoint: strings.TrimRight(endpoint, "/"),
		client:   &sessionClient,
		agents:   agents,
	}, nil
}

// Name implements archive.Service.
func (a *ArchiveToday) Name() string { return ArchiveTodayName }

// Submit posts the target and resolves the snapshot URL from the redirect
// target, the response anchors, or the existing-snapshot notice.
func (a *ArchiveToday) Submit(ctx context.Context, target string) (string, error) {
	agent := a.agents.Pick()

	if err := a.openSession(ctx, agent); err != nil {
		return "", err
	}

	form := url.Values{"url": {target}}
	submitURL := a.endpoint + "/submit/"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, submitURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("archive.today request: %w", err)
	}
	req.Header.Set("User-Agent", agent)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("archive.today submit: %w", err)
	}
	defer resp.Body.Close()

	if err := classifyStatus(a.Name(), resp); err != nil {
		return "", err
	}

	if final := resp.Request.URL; final.String() != submitURL && a.isArchiveHost(final.Hostname()) {
		return final.String(), nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("archive.today response: %w", err)
	}
	if href := a.findSnapshotLink(body, target); href != "" {
		return href, nil
	}

	return a.endpoint + "/" + target, nil
}

// openSession fetches the front page so the jar holds a session cookie.
func (a *ArchiveToday) openSession(ctx context.Context, agent string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.endpoint+"/", nil)
	if err != nil {
		return fmt.Errorf("archive.today session request: %w", err)
	}
	req.Header.Set("User-Agent", agent)

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("archive.today session: %w", err)
	}
	io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
	resp.Body.Close()
	return nil
}

// isArchiveHost recognizes the mirror hostnames snapshots redirect to,
// plus the configured endpoint itself so tests can stub the service.
func (a *ArchiveToday) isArchiveHost(host string) bool {
	if strings.Contains(host, "archive.today") || strings.Contains(host, "archive.is") || strings.Contains(host, "archive.ph") {
		return true
	}
	if u, err := url.Parse(a.endpoint); err == nil && u.Host != "" {
		return host == u.Hostname()
	}
	return false
}

func (a *ArchiveToday) findSnapshotLink(body []byte, target string) string {
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
		if (strings.Contains(href, "archive.today") || strings.Contains(href, "archive.is")) && strings.Contains(href, target) {
			found = href
			return false
		}
		return true
	})
	if found != "" {
		return found
	}

	// The submit page answers with the existing snapshot when the URL
	// has already been saved recently.
	if bytes.Contains(body, []byte("already been saved")) {
		doc.Find("a").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			href, ok := sel.Attr("href")
			if !ok {
				return true
			}
			if strings.HasPrefix(href, "/") && len(href) > 2 {
				found = a.endpoint + href
				return false
			}
			return true
		})
	}
	return found
}
