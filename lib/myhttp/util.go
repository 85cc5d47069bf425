package myhttp

import (
	"fmt"
	"net/http"
	"os"
	"strings"
)

func HostnameWithScheme(r *http.Request) string {
	scheme := "https"
	if r.TLS == nil && r.Header.Get("X-Forwarded-Proto") != "https" {
		scheme = "http"
	}

	return fmt.Sprintf("%s://%s", scheme, r.Host)
}

// GuessHostnameWithScheme returns the public base url of this service when there is no request to derive it from,
// such as when registering push endpoints at startup.
func GuessHostnameWithScheme() string {
	baseURL := os.Getenv("BASE_URL")
	if baseURL != "" {
		return strings.TrimSuffix(baseURL, "/")
	}

	project := os.Getenv("GOOGLE_CLOUD_PROJECT")
	if project != "" {
		return fmt.Sprintf("https://%s.appspot.com", project)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	return fmt.Sprintf("http://localhost:%s", port)
}
