package updater

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/JosephMelesse/anki-vert/pkg/logger"
	"github.com/JosephMelesse/anki-vert/pkg/version"
)

const (
	githubVersionURL = "https://api.github.com/repos/JosephMelesse/anki-vert/releases/latest"
	userAgent        = "ankivert-updater"
	checkInterval    = time.Hour
)

type Checker struct {
	client      *http.Client
	logger      *logger.Logger
	endpoint    string
	lastChecked time.Time
}

type Option func(*Checker)

// WithEndpoint overrides the release endpoint, used by tests.
func WithEndpoint(url string) Option {
	return func(c *Checker) {
		c.endpoint = url
	}
}

func NewChecker(log *logger.Logger, options ...Option) *Checker {
	c := &Checker{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger:   log,
		endpoint: githubVersionURL,
	}

	for _, opt := range options {
		opt(c)
	}

	return c
}

func (c *Checker) CheckForUpdates() (*UpdateInfo, error) {
	// Rate limit checks
	if time.Since(c.lastChecked) < checkInterval {
		return nil, nil
	}
	c.lastChecked = time.Now()

	c.logger.Debug("Checking for updates...")

	req, err := http.NewRequest(http.MethodGet, c.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch latest release: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GitHub API returned status %d", resp.StatusCode)
	}

	var release GitHubRelease
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return nil, fmt.Errorf("failed to decode release: %w", err)
	}

	currentVersion := strings.TrimPrefix(version.Version, "v")
	latestVersion := strings.TrimPrefix(release.TagName, "v")

	info := &UpdateInfo{
		CurrentVersion: currentVersion,
		LatestVersion:  latestVersion,
		ReleaseNotes:   release.Body,
		ReleaseURL:     release.HTMLURL,
	}

	// Drafts and prereleases never count as an available update.
	if !release.Draft && !release.Prerelease {
		info.IsAvailable = compareVersions(currentVersion, latestVersion) < 0
	}

	return info, nil
}

// compareVersions returns:
//
//	-1 if v1 < v2
//	 0 if v1 == v2
//	 1 if v1 > v2
//
// Dotted segments compare numerically when both sides parse as integers,
// lexically otherwise.
func compareVersions(v1, v2 string) int {
	parts1 := strings.Split(v1, ".")
	parts2 := strings.Split(v2, ".")

	for i := 0; i < len(parts1) && i < len(parts2); i++ {
		n1, err1 := strconv.Atoi(parts1[i])
		n2, err2 := strconv.Atoi(parts2[i])

		if err1 == nil && err2 == nil {
			if n1 != n2 {
				if n1 < n2 {
					return -1
				}
				return 1
			}
			continue
		}

		if parts1[i] != parts2[i] {
			if parts1[i] < parts2[i] {
				return -1
			}
			return 1
		}
	}

	switch {
	case len(parts1) < len(parts2):
		return -1
	case len(parts1) > len(parts2):
		return 1
	}
	return 0
}
