package source

import (
	"net/url"
	"strings"
)

// M3UURL builds the provider's playlist download URL.
func M3UURL(server, username, password, output string) string {
	if output == "" {
		output = "ts"
	}
	q := url.Values{}
	q.Set("username", username)
	q.Set("password", password)
	q.Set("type", "m3u_plus")
	q.Set("output", output)
	return strings.TrimSuffix(server, "/") + "/get.php?" + q.Encode()
}
