package domain

import (
	"path"
	"strings"
)

// MaxImages bounds every image list in the system
const MaxImages = 5

// MediaRef is a durable reference returned by the media store
type MediaRef struct {
	URL      string `json:"url"`
	PublicID string `json:"publicId,omitempty"`
}

// DeleteID returns the identifier used to delete the object. Refs written
// before ids were persisted fall back to the last URL path segment without
// its extension.
func (m MediaRef) DeleteID() string {
	if m.PublicID != "" {
		return m.PublicID
	}
	u := m.URL
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		u = u[:i]
	}
	base := path.Base(u)
	if base == "." || base == "/" {
		return ""
	}
	return strings.TrimSuffix(base, path.Ext(base))
}

// IndexOfURL returns the index of the ref with the given URL, or -1
func IndexOfURL(refs []MediaRef, url string) int {
	for i, r := range refs {
		if r.URL == url {
			return i
		}
	}
	return -1
}
