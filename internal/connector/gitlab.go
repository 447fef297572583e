package connector

import (
	"context"
	"fmt"
	"net/url"
)

// GitLabDriver resolves repositories on the GitLab instance. Authentication
// travels as a private_token query parameter.
type GitLabDriver struct{}

func init() {
	RegisterDriver(&GitLabDriver{})
}

func (d *GitLabDriver) Kind() Kind {
	return GitLab
}

func (d *GitLabDriver) DisplayName() string {
	return "RRZE GitLab"
}

func (d *GitLabDriver) URL(c *Connector, repository string) string {
	return c.environment().Endpoints.GitLab + "/" + c.Owner + "/" + repository
}

func (d *GitLabDriver) Headers(c *Connector) map[string]string {
	return nil
}

func (d *GitLabDriver) LatestCommit(ctx context.Context, c *Connector, repository, branch string) (string, bool) {
	u := d.projectURL(c, repository) + "/repository/commits?ref_name=" + url.QueryEscape(branch) + d.token(c, "&")

	var commits []struct {
		ID string `json:"id"`
	}
	if err := c.get(ctx, u, nil, &commits); err != nil {
		c.fail(err)
		return "", false
	}
	if len(commits) == 0 || commits[0].ID == "" {
		return "", false
	}
	return commits[0].ID, true
}

func (d *GitLabDriver) LatestTag(ctx context.Context, c *Connector, repository string) (string, bool) {
	u := d.projectURL(c, repository) + "/repository/tags" + d.token(c, "?")

	var tags []struct {
		Name string `json:"name"`
	}
	if err := c.get(ctx, u, nil, &tags); err != nil {
		c.fail(err)
		return "", false
	}
	if len(tags) == 0 || tags[0].Name == "" {
		return "", false
	}
	return tags[0].Name, true
}

func (d *GitLabDriver) DownloadReference(ctx context.Context, c *Connector, repository, ref string) (string, bool) {
	u := d.projectURL(c, repository) + "/repository/archive.zip?sha=" + url.QueryEscape(ref) + d.token(c, "&")

	if err := c.head(ctx, u, nil); err != nil {
		c.fail(err)
		return "", false
	}
	return u, true
}

// projectURL addresses a project by its URL-encoded namespace path
func (d *GitLabDriver) projectURL(c *Connector, repository string) string {
	return fmt.Sprintf("%s/api/v4/projects/%s",
		c.environment().Endpoints.GitLab, url.QueryEscape(c.Owner+"/"+repository))
}

func (d *GitLabDriver) token(c *Connector, sep string) string {
	if c.Token == "" {
		return ""
	}
	return sep + "private_token=" + url.QueryEscape(c.Token)
}
