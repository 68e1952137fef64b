package cache

import (
	"net/url"
	"sort"
	"strings"
)

// KeyPrefix namespaces every cache key in Redis.
const KeyPrefix = "pulsepass"

// Key identifies one cached request.
type Key struct {
	// Endpoint is the API path, e.g. "/api/conciertos"
	Endpoint string

	// Query holds the request's query parameters, page and limit included
	Query url.Values
}

// String builds a deterministic Redis key.
//
//	pulsepass:api/conciertos:artista_id=7:limit=50:page=1
func (k Key) String() string {
	parts := []string{KeyPrefix}

	if endpoint := strings.Trim(k.Endpoint, "/"); endpoint != "" {
		parts = append(parts, endpoint)
	}

	names := make([]string, 0, len(k.Query))
	for name := range k.Query {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		parts = append(parts, name+"="+strings.Join(k.Query[name], ","))
	}

	return strings.Join(parts, ":")
}
