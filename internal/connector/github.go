package connector

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/go-github/v82/github"
)

// GitHubDriver resolves repositories through the GitHub REST API. Every
// successful commit or tag lookup is followed by a rate-limit probe; an
// exhausted quota discards the resolved value.
type GitHubDriver struct{}

func init() {
	RegisterDriver(&GitHubDriver{})
}

func (d *GitHubDriver) Kind() Kind {
	return GitHub
}

func (d *GitHubDriver) DisplayName() string {
	return "GitHub.com"
}

func (d *GitHubDriver) URL(c *Connector, repository string) string {
	return c.environment().Endpoints.GitHubWeb + "/" + c.Owner + "/" + repository
}

func (d *GitHubDriver) Headers(c *Connector) map[string]string {
	headers := map[string]string{
		"Accept": "application/vnd.github.v3.full+json",
	}
	if c.Token != "" {
		headers["Authorization"] = "token " + c.Token
	}
	return headers
}

func (d *GitHubDriver) LatestCommit(ctx context.Context, c *Connector, repository, branch string) (string, bool) {
	u := fmt.Sprintf("%s/repos/%s/%s/commits?sha=%s",
		c.environment().Endpoints.GitHubAPI,
		url.PathEscape(c.Owner), url.PathEscape(repository), url.QueryEscape(branch))

	var commits []*github.RepositoryCommit
	if err := c.get(ctx, u, d.Headers(c), &commits); err != nil {
		c.fail(err)
		return "", false
	}

	if len(commits) == 0 || d.rateLimitReached(ctx, c) {
		return "", false
	}
	sha := commits[0].GetSHA()
	return sha, sha != ""
}

func (d *GitHubDriver) LatestTag(ctx context.Context, c *Connector, repository string) (string, bool) {
	u := fmt.Sprintf("%s/repos/%s/%s/tags",
		c.environment().Endpoints.GitHubAPI,
		url.PathEscape(c.Owner), url.PathEscape(repository))

	var tags []*github.RepositoryTag
	if err := c.get(ctx, u, d.Headers(c), &tags); err != nil {
		c.fail(err)
		return "", false
	}

	if len(tags) == 0 || d.rateLimitReached(ctx, c) {
		return "", false
	}
	name := tags[0].GetName()
	return name, name != ""
}

// DownloadReference sends a HEAD to the zipball endpoint before handing it
// out, so a bad ref or exhausted quota is caught here rather than by the
// installer.
func (d *GitHubDriver) DownloadReference(ctx context.Context, c *Connector, repository, ref string) (string, bool) {
	u := fmt.Sprintf("%s/repos/%s/%s/zipball/%s",
		c.environment().Endpoints.GitHubAPI,
		url.PathEscape(c.Owner), url.PathEscape(repository), strings.TrimLeft(ref, "/"))

	if err := c.head(ctx, u, d.Headers(c)); err != nil {
		c.fail(err)
		return "", false
	}

	if d.rateLimitReached(ctx, c) {
		return "", false
	}
	return u, true
}

// rateLimitReached queries /rate_limit. With quota left it records a
// warning; with the quota exhausted it records an error and reports true.
func (d *GitHubDriver) rateLimitReached(ctx context.Context, c *Connector) bool {
	var body struct {
		Resources *github.RateLimits `json:"resources"`
	}
	u := c.environment().Endpoints.GitHubAPI + "/rate_limit"
	if err := c.get(ctx, u, d.Headers(c), &body); err != nil {
		c.fail(err)
		return false
	}

	core := body.Resources.GetCore()
	if core == nil {
		return false
	}

	now := c.environment().Now()
	if core.Remaining > 1 {
		c.warning = fmt.Sprintf("GitHub API Rate Limit: %d (%d left). It'll be reset %s.",
			core.Limit, core.Remaining, humanizeUntil(now, core.Reset.Time))
		return false
	}

	if !core.Reset.Time.IsZero() {
		c.err = fmt.Sprintf("GitHub API Rate Limit is reached! It'll be available %s.",
			humanizeUntil(now, core.Reset.Time))
		return true
	}
	return false
}

// humanizeUntil renders the distance to t as "in 2 minutes"
func humanizeUntil(now, t time.Time) string {
	if t.Sub(now) < time.Second {
		return "now"
	}
	return "in " + strings.TrimSpace(humanize.RelTime(now, t, "", ""))
}
