package repo

import (
	"net/url"
	"regexp"
	"strings"
)

var remoteURLRegex = regexp.MustCompile(`^(?:[a-z+]+://)?(?:[^@/]+@)?([^/:]+)(?::\d+)?[:/](.+?)(?:\.git)?/?$`)

// PullRequestURL returns the web page that opens a pull (or merge) request
// from branch into base for GitHub and GitLab remotes, or "" for other
// hosts.
func PullRequestURL(remoteURL, base, branch string) string {
	host, repoPath, ok := parseRemote(remoteURL)
	if !ok || branch == "" || branch == "HEAD" {
		return ""
	}
	web := "https://" + host + "/" + repoPath
	switch {
	case strings.Contains(host, "github"):
		return web + "/compare/" + escapeRef(base) + "..." + escapeRef(branch) + "?expand=1"
	case strings.Contains(host, "gitlab"):
		q := url.Values{}
		q.Set("merge_request[source_branch]", branch)
		q.Set("merge_request[target_branch]", base)
		return web + "/-/merge_requests/new?" + q.Encode()
	default:
		return ""
	}
}

func parseRemote(remoteURL string) (host, repoPath string, ok bool) {
	m := remoteURLRegex.FindStringSubmatch(strings.TrimSpace(remoteURL))
	if m == nil {
		return "", "", false
	}
	return strings.ToLower(m[1]), m[2], true
}

func escapeRef(ref string) string {
	parts := strings.Split(ref, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
