// Package github files a GitHub issue for each escalation notice, giving
// escalations a durable, linkable record outside the task store.
package github

import (
	"context"
	"fmt"

	"github.com/callboard/callboard/internal/notify"
	gh "github.com/google/go-github/v68/github"
	"golang.org/x/oauth2"
)

// issueCreator abstracts the GitHub issues API, enabling test mocks.
type issueCreator interface {
	Create(ctx context.Context, owner, repo string, issue *gh.IssueRequest) (*gh.Issue, *gh.Response, error)
}

// Adapter implements notify.Notifier by opening one issue per notice.
type Adapter struct {
	issues issueCreator
	owner  string
	repo   string
}

// AdapterOpts holds parameters for creating a GitHub Adapter.
type AdapterOpts struct {
	Token string
	Owner string
	Repo  string
	// For testing: inject a mock issues service instead of the real API.
	Issues issueCreator
}

// New creates a GitHub Adapter.
func New(opts AdapterOpts) (*Adapter, error) {
	if opts.Owner == "" || opts.Repo == "" {
		return nil, fmt.Errorf("github: owner and repo are required")
	}
	issues := opts.Issues
	if issues == nil {
		if opts.Token == "" {
			return nil, fmt.Errorf("github: token is required")
		}
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token})
		httpClient := oauth2.NewClient(context.Background(), ts)
		issues = gh.NewClient(httpClient).Issues
	}
	return &Adapter{issues: issues, owner: opts.Owner, repo: opts.Repo}, nil
}

// escalationLabel marks issues filed by Callboard escalations.
const escalationLabel = "escalation"

// Notify opens an issue titled with the notice subject.
func (a *Adapter) Notify(ctx context.Context, n notify.Notice) error {
	req := &gh.IssueRequest{
		Title:  gh.String(n.Subject()),
		Body:   gh.String(n.Body()),
		Labels: &[]string{escalationLabel},
	}
	_, _, err := a.issues.Create(ctx, a.owner, a.repo, req)
	if err != nil {
		return fmt.Errorf("github: create issue in %s/%s: %w", a.owner, a.repo, err)
	}
	return nil
}
