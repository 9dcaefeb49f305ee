package version

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

var (
	// Current is the version of the binary, set at build time via ldflags.
	Current = "dev"

	// Repo is the GitHub repository name.
	Repo = "Vashnak/Franz-manager"

	// releasesURL is the endpoint queried by CheckUpdate, %s being Repo.
	releasesURL = "https://api.github.com/repos/%s/releases/latest"
)

// Release represents a GitHub release.
type Release struct {
	TagName string `json:"tag_name"`
}

// CheckUpdate returns the latest release tag if it is newer than Current, an
// empty string otherwise. Development builds never check.
func CheckUpdate(ctx context.Context) (string, error) {
	if Current == "dev" {
		return "", nil
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf(releasesURL, Repo), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("GitHub API returned status %d", resp.StatusCode)
	}

	var release Release
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return "", err
	}

	if isNewer(strings.TrimPrefix(release.TagName, "v"), strings.TrimPrefix(Current, "v")) {
		return release.TagName, nil
	}
	return "", nil
}

// isNewer compares dotted versions numerically, falling back to string
// comparison for non-numeric parts.
func isNewer(latest, current string) bool {
	if latest == current {
		return false
	}

	lParts := strings.Split(latest, ".")
	cParts := strings.Split(current, ".")

	for i := 0; i < len(lParts) && i < len(cParts); i++ {
		lNum, errL := strconv.Atoi(lParts[i])
		cNum, errC := strconv.Atoi(cParts[i])

		if errL == nil && errC == nil {
			if lNum != cNum {
				return lNum > cNum
			}
			continue
		}
		if lParts[i] != cParts[i] {
			return lParts[i] > cParts[i]
		}
	}

	return len(lParts) > len(cParts)
}
