package components

import (
	"context"
	"net/url"
	"strconv"

	"github.com/a-h/templ"
	"github.com/hexblog/hexblog/internal/blog"
)

// PageURL returns path with the page parameter set, keeping the other query values.
func PageURL(path string, query url.Values, page int) string {
	q := url.Values{}
	for k, v := range query {
		q[k] = v
	}
	if page <= 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(page))
	}
	if len(q) == 0 {
		return path
	}
	return path + "?" + q.Encode()
}

// Pagination renders previous/next links for a listing page.
func Pagination(path string, query url.Values, p blog.Page) templ.Component {
	return Component(func(_ context.Context, h *HTML) {
		if p.TotalPages() <= 1 {
			return
		}
		h.Raw(`<nav class="pagination">`)
		if p.HasPrev() {
			h.Printf(`<a href="%s">&laquo; Newer</a>`, PageURL(path, query, p.Number-1))
		}
		h.Printf(`<span>Page %d of %d</span>`, p.Number, p.TotalPages())
		if p.HasNext() {
			h.Printf(`<a href="%s">Older &raquo;</a>`, PageURL(path, query, p.Number+1))
		}
		h.Raw(`</nav>`)
	})
}
