package position

// PageSize is the number of positions shown per listing page.
const PageSize = 2

type Position struct {
	ID           int64
	Slug         string
	Title        string
	Content      string
	Lead         string
	ImgSrc       string
	ImgAlt       string
	CategoryName string
	IsActive     bool
}

type Tag struct {
	ID   int64
	Name string
}

// TotalPages returns how many pages of size PageSize are needed for count
// items.
func TotalPages(count int) int {
	if count <= 0 {
		return 0
	}
	return (count + PageSize - 1) / PageSize
}
