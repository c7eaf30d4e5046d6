package ci

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var ErrNoGitHubRemote = errors.New("no GitHub remote")

var githubURL = regexp.MustCompile(`github\.com[:/]([^/\s]+)/([^/\s]+?)(?:\.git)?/?$`)

// SlugFromRemote reads the origin remote of the git checkout in dir and
// returns its owner/name on GitHub.
func SlugFromRemote(dir string) (string, error) {
	f, err := os.Open(filepath.Join(dir, ".git", "config"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrNoGitHubRemote
		}
		return "", fmt.Errorf("failed to open git config: %w", err)
	}
	defer f.Close()

	inOrigin := false
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if strings.HasPrefix(line, "[") {
			inOrigin = line == `[remote "origin"]`
			continue
		}
		if !inOrigin {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok || strings.TrimSpace(key) != "url" {
			continue
		}
		return SlugFromURL(strings.TrimSpace(value))
	}
	if err := sc.Err(); err != nil {
		return "", fmt.Errorf("failed to read git config: %w", err)
	}
	return "", ErrNoGitHubRemote
}

// SlugFromURL accepts https and ssh GitHub remote urls.
func SlugFromURL(url string) (string, error) {
	m := githubURL.FindStringSubmatch(url)
	if m == nil {
		return "", fmt.Errorf("%w: %s", ErrNoGitHubRemote, url)
	}
	return m[1] + "/" + m[2], nil
}
