package shared

import (
	"net/http"
	"net/url"
	"strconv"
)

// Page is a limit/offset window over a list endpoint.
type Page struct {
	Limit  int
	Offset int
}

// ParsePage reads limit and offset. Malformed or out of range values fall
// back to the defaults rather than failing the request.
func ParsePage(query url.Values, defaultLimit, maxLimit int) Page {
	page := Page{
		Limit:  intParam(query, "limit", defaultLimit, 1),
		Offset: intParam(query, "offset", 0, 0),
	}
	if maxLimit > 0 {
		page.Limit = min(page.Limit, maxLimit)
	}
	return page
}

// SetTotal exposes the unpaged row count to list clients.
func SetTotal(w http.ResponseWriter, total int) {
	w.Header().Set("X-Total-Count", strconv.Itoa(total))
}

func intParam(query url.Values, name string, fallback, floor int) int {
	v, err := strconv.Atoi(query.Get(name))
	if err != nil || v < floor {
		return fallback
	}
	return v
}
