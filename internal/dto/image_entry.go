package dto

// ImageEntry is one element of an image listing.
type ImageEntry struct {
	Name string `json:"name"`
	Path string `json:"path"`
}
