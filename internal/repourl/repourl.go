// Package repourl validates and normalizes public source-repository URLs
// and extracts their hosting identity (provider, owner, repo).
package repourl

import (
	"regexp"
	"strings"

	"golang.org/x/net/idna"
)

// Provider is the classified hosting service of a repository URL.
type Provider string

const (
	ProviderGitHub    Provider = "github"
	ProviderGitLab    Provider = "gitlab"
	ProviderBitbucket Provider = "bitbucket"
	ProviderOther     Provider = "other"
)

// Location is the normalized identity of a repository URL. NormalizedURL
// always carries a ".git" suffix so equal repositories compare equal.
type Location struct {
	NormalizedURL string   `json:"normalizedUrl"`
	Provider      Provider `json:"provider"`
	Owner         string   `json:"owner"`
	Repo          string   `json:"repo"`
}

var (
	httpsRe = regexp.MustCompile(`^https://(github\.com|gitlab\.com|bitbucket\.org)/([\w.-]+)/([\w.-]+?)(\.git)?/?$`)
	sshRe   = regexp.MustCompile(`^git@(github\.com|gitlab\.com|bitbucket\.org):([\w.-]+)/([\w.-]+?)(\.git)?$`)

	// Loose fallbacks used by Parse for best-effort extraction.
	anyHTTPRe = regexp.MustCompile(`^(?:https?://)([^/]+)/([^/]+)/([^/]+?)(\.git)?/?$`)
	anySSHRe  = regexp.MustCompile(`^(?:\w+@)([^:]+):([^/]+)/([^/]+?)(\.git)?$`)
)

// IsValid reports whether raw is an acceptable public repository URL:
// the HTTPS or SSH form of a github.com, gitlab.com or bitbucket.org repo.
func IsValid(raw string) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false
	}
	return httpsRe.MatchString(raw) || sshRe.MatchString(raw)
}

// Parse extracts a best-effort Location from raw. It never fails: unknown
// hosts classify as ProviderOther and missing segments stay empty. The
// normalized URL is always the HTTPS form with a ".git" suffix, so Parse is
// idempotent over its own output.
func Parse(raw string) Location {
	raw = strings.TrimSpace(raw)

	host, owner, repo := "", "", ""
	if m := httpsRe.FindStringSubmatch(raw); m != nil {
		host, owner, repo = m[1], m[2], m[3]
	} else if m := sshRe.FindStringSubmatch(raw); m != nil {
		host, owner, repo = m[1], m[2], m[3]
	} else if m := anyHTTPRe.FindStringSubmatch(raw); m != nil {
		host, owner, repo = m[1], m[2], m[3]
	} else if m := anySSHRe.FindStringSubmatch(raw); m != nil {
		host, owner, repo = m[1], m[2], m[3]
	}

	host = normalizeHost(host)

	loc := Location{
		Provider: classify(host),
		Owner:    owner,
		Repo:     strings.TrimSuffix(repo, ".git"),
	}

	if host != "" && loc.Owner != "" && loc.Repo != "" {
		loc.NormalizedURL = "https://" + host + "/" + loc.Owner + "/" + loc.Repo + ".git"
	} else {
		// Nothing to extract; keep the input so callers can still report it.
		loc.NormalizedURL = raw
	}
	return loc
}

// normalizeHost lowercases and IDNA-folds a host name. Invalid hosts pass
// through lowercased so classification still gets a chance.
func normalizeHost(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	if host == "" {
		return ""
	}
	if ascii, err := idna.Lookup.ToASCII(host); err == nil {
		return ascii
	}
	return host
}

func classify(host string) Provider {
	switch host {
	case "github.com":
		return ProviderGitHub
	case "gitlab.com":
		return ProviderGitLab
	case "bitbucket.org":
		return ProviderBitbucket
	default:
		return ProviderOther
	}
}
