package database

import (
	"fmt"
	"strings"
)

// ConstructDatabaseURL joins a server URL and a database name.
// Query parameters on baseURL are kept, and sslmode=disable is added when no sslmode is given.
// An empty databaseName returns baseURL unchanged.
func ConstructDatabaseURL(baseURL, databaseName string) string {
	if databaseName == "" {
		return baseURL
	}

	base, query, hasQuery := strings.Cut(baseURL, "?")
	base = strings.TrimRight(base, "/")

	url := fmt.Sprintf("%s/%s", base, databaseName)
	if hasQuery && query != "" {
		url = fmt.Sprintf("%s?%s", url, query)
	}

	if !strings.Contains(url, "sslmode=") {
		separator := "&"
		if !strings.Contains(url, "?") {
			separator = "?"
		}
		url = fmt.Sprintf("%s%ssslmode=disable", url, separator)
	}

	return url
}
