// internal/models/content.go
package models

type ContentKind string

const (
	ContentBlogs ContentKind = "blogs"
	ContentNews  ContentKind = "news"
)

func (k ContentKind) Valid() bool {
	return k == ContentBlogs || k == ContentNews
}

type Post struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Slug        string `json:"slug"`
	Excerpt     string `json:"excerpt,omitempty"`
	ImageURL    string `json:"imageUrl,omitempty"`
	Author      string `json:"author,omitempty"`
	Category    string `json:"category,omitempty"`
	PublishedAt string `json:"publishedAt,omitempty"`
}

type PostPage struct {
	Items    []Post `json:"items"`
	Page     int    `json:"page"`
	PageSize int    `json:"pageSize"`
	Total    int    `json:"total"`
}
