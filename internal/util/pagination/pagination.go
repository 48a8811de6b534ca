package pagination

// TotalPages returns how many pages of perPage records are needed to hold
// count records. It returns zero when either value is not positive.
func TotalPages(count, perPage int) int {
	if count <= 0 || perPage <= 0 {
		return 0
	}
	return (count + perPage - 1) / perPage
}

// Remaining lists the page numbers still to be fetched once page 1 has been
// read. Pages are 1-based, so the result is 2..totalPages inclusive.
func Remaining(totalPages int) []int {
	if totalPages < 2 {
		return nil
	}
	pages := make([]int, 0, totalPages-1)
	for p := 2; p <= totalPages; p++ {
		pages = append(pages, p)
	}
	return pages
}
