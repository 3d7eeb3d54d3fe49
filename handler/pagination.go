package handler

import "bulletinboard/domain"

// DefaultPerPage is the number of posts per page of the board menu.
const DefaultPerPage = 4

type PageResult struct {
	Items      []domain.Post
	Page       int
	TotalPages int
	HasPrev    bool
	HasNext    bool
}

// Paginate returns page (zero based) of posts. Out of range pages are
// clamped; perPage below one means DefaultPerPage.
func Paginate(posts []domain.Post, page, perPage int) PageResult {
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	total := (len(posts) + perPage - 1) / perPage
	if total == 0 {
		return PageResult{Items: []domain.Post{}, TotalPages: 0}
	}

	page = max(0, min(page, total-1))
	start := page * perPage
	end := min(start+perPage, len(posts))

	return PageResult{
		Items:      posts[start:end],
		Page:       page,
		TotalPages: total,
		HasPrev:    page > 0,
		HasNext:    page < total-1,
	}
}
