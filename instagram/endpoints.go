package instagram

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	// profileEndpoint serves full profile info including recent media edges.
	profileEndpoint = "/api/v1/users/web_profile_info/"

	// engagementSampleSize is the number of recent posts used for the
	// engagement rate.
	engagementSampleSize = 12
)

// profileURL constructs the URL for fetching a user's profile.
func profileURL(baseURL, username string) string {
	params := url.Values{}
	params.Set("username", username)
	return fmt.Sprintf("%s%s?%s", strings.TrimSuffix(baseURL, "/"), profileEndpoint, params.Encode())
}

// cleanProfilePicURL converts Instagram's CDN URL into a clean direct image
// URL: query parameters stripped, thumbnail size upgraded.
func cleanProfilePicURL(original string) string {
	if original == "" || !strings.Contains(original, "instagram.com") {
		return original
	}
	clean, _, _ := strings.Cut(original, "?")
	return strings.Replace(clean, "s150x150", "s1080x1080", 1)
}
