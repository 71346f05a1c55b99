package handlers

import (
	"net/http"
	"strconv"

	"github.com/clipstream/backend/internal/repositories"
)

const defaultMaxPageSize = 100

// parsePage reads page and limit query parameters, applying defaults and the
// configured upper bound on page size. Malformed values fall back to defaults.
func parsePage(r *http.Request, maxSize int) repositories.Page {
	if maxSize <= 0 {
		maxSize = defaultMaxPageSize
	}

	page := repositories.Page{}
	if raw := r.URL.Query().Get("page"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			page.Number = v
		}
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			page.Size = v
		}
	}
	if page.Size > maxSize {
		page.Size = maxSize
	}
	return page.Normalize()
}

func parseSort(r *http.Request) repositories.Sort {
	return repositories.Sort{
		Field:      r.URL.Query().Get("sortBy"),
		Descending: r.URL.Query().Get("sortDir") != "asc",
	}
}
