// Package ci reads continuous integration history of a submission.
package ci

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

type WorkflowRun struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	HeadBranch string    `json:"head_branch"`
	Status     string    `json:"status"`
	Conclusion string    `json:"conclusion"`
	HTMLURL    string    `json:"html_url"`
	CreatedAt  time.Time `json:"created_at"`
}

func (r WorkflowRun) Completed() bool { return r.Status == "completed" }

func (r WorkflowRun) Succeeded() bool { return r.Conclusion == "success" }

type RunLister interface {
	// ListRuns returns workflow runs of slug (owner/name), newest first.
	ListRuns(ctx context.Context, slug string) ([]WorkflowRun, error)
}

type GitHub struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

var _ RunLister = (*GitHub)(nil)

func NewGitHub(token string) *GitHub {
	return &GitHub{
		BaseURL: "https://api.github.com",
		Token:   token,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

type runsResponse struct {
	TotalCount   int           `json:"total_count"`
	WorkflowRuns []WorkflowRun `json:"workflow_runs"`
}

func (g *GitHub) ListRuns(ctx context.Context, slug string) ([]WorkflowRun, error) {
	endpoint := fmt.Sprintf("%s/repos/%s/actions/runs?per_page=50", g.BaseURL, slug)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	if g.Token != "" {
		req.Header.Set("Authorization", "Bearer "+g.Token)
	}

	hc := g.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}
	res, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch workflow runs: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	switch res.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, fmt.Errorf("repository %s not found", slug)
	default:
		return nil, fmt.Errorf("HTTP %d - %s", res.StatusCode, body)
	}

	var runs runsResponse
	if err := json.Unmarshal(body, &runs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal workflow runs: %w", err)
	}
	return runs.WorkflowRuns, nil
}

func ActionsURL(slug string) string {
	return "https://github.com/" + slug + "/actions"
}
