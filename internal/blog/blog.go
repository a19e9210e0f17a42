// Package blog serves the storefront's editorial posts.
package blog

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

var ErrNotFound = errors.New("post not found")

// CategoryAll selects every post.
const CategoryAll = "all"

// Categories in display order.
var categoryOrder = []string{"reviews", "author-interviews", "reading-tips", "new-releases"}

type Post struct {
	ID          string `json:"id" yaml:"id"`
	Title       string `json:"title" yaml:"title"`
	Excerpt     string `json:"excerpt" yaml:"excerpt"`
	Content     string `json:"content" yaml:"content"`
	Author      string `json:"author" yaml:"author"`
	PublishDate string `json:"publish_date" yaml:"publish_date"`
	Category    string `json:"category" yaml:"category"`
	Image       string `json:"image" yaml:"image"`
	Likes       int    `json:"likes" yaml:"likes"`
	Comments    int    `json:"comments" yaml:"comments"`
	ReadTime    string `json:"read_time" yaml:"read_time"`
}

type Category struct {
	Slug string `json:"slug"`
	Name string `json:"name"`
}

//go:embed data/posts.yaml
var postsYAML []byte

type Blog struct {
	posts []Post
	byID  map[string]int
}

func New(posts []Post) *Blog {
	b := &Blog{posts: posts, byID: make(map[string]int, len(posts))}
	for i, p := range posts {
		b.byID[p.ID] = i
	}
	return b
}

// Load builds a Blog from the bundled posts.
func Load() (*Blog, error) {
	var doc struct {
		Posts []Post `yaml:"posts"`
	}
	if err := yaml.Unmarshal(postsYAML, &doc); err != nil {
		return nil, fmt.Errorf("decode posts: %w", err)
	}
	return New(doc.Posts), nil
}

// List returns posts in the given category, newest first. An empty category
// or CategoryAll returns every post.
func (b *Blog) List(category string) []Post {
	out := []Post{}
	for _, p := range b.posts {
		if category == "" || category == CategoryAll || p.Category == category {
			out = append(out, p)
		}
	}
	return out
}

func (b *Blog) Get(id string) (Post, error) {
	i, ok := b.byID[id]
	if !ok {
		return Post{}, fmt.Errorf("post %q: %w", id, ErrNotFound)
	}
	return b.posts[i], nil
}

// Categories lists the filter options, starting with CategoryAll.
func (b *Blog) Categories() []Category {
	out := make([]Category, 0, len(categoryOrder)+1)
	out = append(out, Category{Slug: CategoryAll, Name: DisplayName(CategoryAll)})
	for _, slug := range categoryOrder {
		out = append(out, Category{Slug: slug, Name: DisplayName(slug)})
	}
	return out
}

// ValidCategory reports whether slug is a known filter.
func ValidCategory(slug string) bool {
	if slug == "" || slug == CategoryAll {
		return true
	}
	for _, c := range categoryOrder {
		if c == slug {
			return true
		}
	}
	return false
}

// DisplayName title-cases a hyphenated slug: "author-interviews" becomes
// "Author Interviews".
func DisplayName(slug string) string {
	words := strings.Split(slug, "-")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
