package respond

// Page wraps a collection result with pagination metadata.
type Page struct {
	Items      interface{} `json:"items"`
	Page       int         `json:"page"`
	PerPage    int         `json:"per_page"`
	Total      int         `json:"total"`
	TotalPages int         `json:"total_pages"`
}

// NewPage builds a Page. Pages are 1-based.
func NewPage(items interface{}, page, perPage, total int) Page {
	totalPages := 0
	if perPage > 0 {
		totalPages = (total + perPage - 1) / perPage
	}
	return Page{
		Items:      items,
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages,
	}
}
