package instagram

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	// BaseURL is the base URL for Instagram
	BaseURL = "https://www.instagram.com"

	// AppID is the web client's application id, sent as x-ig-app-id
	AppID = "936619743392459"

	loginEndpoint     = "/api/v1/web/accounts/login/ajax/"
	twoFactorEndpoint = "/api/v1/web/accounts/login/ajax/two_factor/"
	profileEndpoint   = "/api/v1/users/web_profile_info/"

	// PageSize is the number of entries requested per listing page
	PageSize = 50
	// FeedPageSize is the number of posts requested per feed page
	FeedPageSize = 12
)

func profileURL(base, username string) string {
	params := url.Values{}
	params.Set("username", username)
	return fmt.Sprintf("%s%s?%s", base, profileEndpoint, params.Encode())
}

func userInfoURL(base, userID string) string {
	return fmt.Sprintf("%s/api/v1/users/%s/info/", base, url.PathEscape(userID))
}

func friendshipsURL(base, userID, direction, cursor string) string {
	params := url.Values{}
	params.Set("count", fmt.Sprint(PageSize))
	if cursor != "" {
		params.Set("max_id", cursor)
	}
	return fmt.Sprintf("%s/api/v1/friendships/%s/%s/?%s", base, url.PathEscape(userID), direction, params.Encode())
}

func feedURL(base, userID, cursor string) string {
	params := url.Values{}
	params.Set("count", fmt.Sprint(FeedPageSize))
	if cursor != "" {
		params.Set("max_id", cursor)
	}
	return fmt.Sprintf("%s/api/v1/feed/user/%s/?%s", base, url.PathEscape(userID), params.Encode())
}

func likersURL(base, mediaID string) string {
	return fmt.Sprintf("%s/api/v1/media/%s/likers/", base, url.PathEscape(mediaID))
}

// IsValidUsername checks if a username is valid according to Instagram rules
func IsValidUsername(username string) bool {
	if username == "" || len(username) > 30 {
		return false
	}

	for _, char := range username {
		if !((char >= 'a' && char <= 'z') ||
			(char >= 'A' && char <= 'Z') ||
			(char >= '0' && char <= '9') ||
			char == '.' || char == '_') {
			return false
		}
	}

	return true
}

// SanitizeUsername strips a leading @ and trailing slashes or spaces
func SanitizeUsername(username string) string {
	username = strings.TrimPrefix(username, "@")
	return strings.TrimRight(username, "/ ")
}
