package offline

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/shopsignal/steadfast/resilience"
)

// conflictBody is the expected shape of a 409 response body. Servers
// honoring the conditional-update contract report the winning version
// as either field.
type conflictBody struct {
	Version string `json:"version"`
	Etag    string `json:"etag"`
}

// execute performs one queued action's HTTP call and classifies the
// outcome. It never returns an error to the sync loop; failures become
// SyncError results.
func (m *Manager) execute(ctx context.Context, a Action) SyncResult {
	// An action past the freshness ceiling is a conflict, not a retry
	// candidate: the data underneath has likely diverged.
	if m.config.StaleAfter > 0 && a.Age(time.Now()) > m.config.StaleAfter {
		return SyncResult{Status: SyncConflict, Action: a}
	}

	var body io.Reader
	if len(a.Body) > 0 {
		body = bytes.NewReader(a.Body)
	}

	req, err := http.NewRequestWithContext(ctx, a.Method, a.URL, body)
	if err != nil {
		return SyncResult{Status: SyncError, Action: a, Err: err}
	}

	for k, v := range a.Headers {
		req.Header.Set(k, v)
	}
	if len(a.Body) > 0 && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	// Optimistic concurrency: the server compares this against the
	// resource's current version and answers 409 on divergence.
	if a.EntityVersion != "" {
		req.Header.Set("If-Match", a.EntityVersion)
	}

	resp, err := m.config.HTTPClient.Do(req)
	if err != nil {
		return SyncResult{Status: SyncError, Action: a, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusConflict:
		return SyncResult{
			Status:        SyncConflict,
			Action:        a,
			ServerVersion: parseConflictVersion(resp.Body),
		}

	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return SyncResult{Status: SyncSuccess, Action: a}

	default:
		return SyncResult{
			Status: SyncError,
			Action: a,
			Err: &resilience.HTTPError{
				Status:  resp.StatusCode,
				Message: a.Method + " " + a.URL + ": " + resp.Status,
			},
		}
	}
}

// parseConflictVersion extracts the server-side version from a 409
// body. An unparseable body just yields an empty version.
func parseConflictVersion(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 1<<16))
	if err != nil {
		return ""
	}
	var cb conflictBody
	if err := json.Unmarshal(data, &cb); err != nil {
		return ""
	}
	if cb.Version != "" {
		return cb.Version
	}
	return cb.Etag
}
