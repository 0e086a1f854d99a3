package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/go-version"

	"github.com/poolchaos/personalfit-api/internal/cli"
)

var AppVersion = "v0.1.0"

const releaseEndpoint = "https://api.github.com/repos/poolchaos/personalfit-api/releases/latest"

// CheckForUpdates prints a notice when a newer release exists. It runs
// off the startup path and stays silent on any failure; an unreachable
// GitHub must never delay or noise up a boot.
func CheckForUpdates() {
	client := &http.Client{Timeout: 2 * time.Second}

	latest, err := latestReleaseTag(client)
	if err != nil {
		return
	}

	outdated, err := isOutdated(AppVersion, latest)
	if err != nil || !outdated {
		return
	}

	fmt.Printf("%s %s is available (running %s); pull the latest image\n",
		cli.WarningSign(),
		cli.Style(latest, cli.Bold),
		cli.Style(AppVersion, cli.Dim),
	)
}

// latestReleaseTag asks the GitHub API for the newest release tag.
func latestReleaseTag(client *http.Client) (string, error) {
	req, err := http.NewRequest(http.MethodGet, releaseEndpoint, nil)
	if err != nil {
		return "", err
	}
	// GitHub rejects anonymous requests without a User-Agent.
	req.Header.Set("User-Agent", "personalfit-api/"+AppVersion)

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("release lookup: unexpected status %d", resp.StatusCode)
	}

	var release struct {
		TagName string `json:"tag_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return "", err
	}
	return release.TagName, nil
}

// isOutdated reports whether running is strictly older than latest.
// Tags with a leading "v" and bare semvers compare equal.
func isOutdated(running, latest string) (bool, error) {
	current, err := version.NewVersion(running)
	if err != nil {
		return false, err
	}
	candidate, err := version.NewVersion(latest)
	if err != nil {
		return false, err
	}
	return current.LessThan(candidate), nil
}
