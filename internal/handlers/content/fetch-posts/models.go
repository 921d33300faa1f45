// internal/handlers/content/fetch-posts/models.go
package fetchposts

import "infinz-leadgen/internal/models"

type Input struct {
	Kind models.ContentKind
	Page int
}

type Output struct {
	models.PostPage
	Kind   models.ContentKind `json:"kind"`
	Cached bool               `json:"cached"`
}
