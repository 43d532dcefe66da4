package storefront

// Money is an amount in minor units with its ISO currency code.
type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// Image is a product or category image.
type Image struct {
	URL string `json:"url"`
	Alt string `json:"alt"`
}

// Product is the full product detail returned by GetProduct.
type Product struct {
	ID          string  `json:"id"`
	Slug        string  `json:"slug"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       Money   `json:"price"`
	Brand       string  `json:"brand"`
	Images      []Image `json:"images"`
	InStock     bool    `json:"inStock"`
}

// ProductSummary is the reduced product shape used in listings.
type ProductSummary struct {
	ID    string `json:"id"`
	Slug  string `json:"slug"`
	Name  string `json:"name"`
	Price Money  `json:"price"`
	Image *Image `json:"image"`
}

// Category is a category with its listed products.
type Category struct {
	ID       string           `json:"id"`
	Slug     string           `json:"slug"`
	Name     string           `json:"name"`
	Products []ProductSummary `json:"products"`
}

// Collection is a curated product collection.
type Collection struct {
	ID       string           `json:"id"`
	Slug     string           `json:"slug"`
	Title    string           `json:"title"`
	Products []ProductSummary `json:"products"`
}

// NavigationItem is one entry of the storefront navigation tree.
type NavigationItem struct {
	Title    string           `json:"title"`
	Path     string           `json:"path"`
	Children []NavigationItem `json:"children"`
}

// SearchParams describes a product search request.
type SearchParams struct {
	Query    string            `json:"query"`
	Page     int               `json:"page"`
	PageSize int               `json:"pageSize"`
	Filters  map[string]string `json:"filters"`
}

// SearchResult is one page of search hits.
type SearchResult struct {
	Items []ProductSummary `json:"items"`
	Total int              `json:"total"`
	Page  int              `json:"page"`
}
