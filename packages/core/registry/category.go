package registry

import "fmt"

// Category is the coarse classification of a test unit's purpose.
type Category string

const (
	CategoryRegression    Category = "regression"
	CategoryIntegration   Category = "integration"
	CategoryDevelopment   Category = "development"
	CategoryUncategorized Category = "uncategorized"
)

// Categories lists every concrete category in display order.
var Categories = []Category{
	CategoryRegression,
	CategoryIntegration,
	CategoryDevelopment,
	CategoryUncategorized,
}

// ParseCategory validates a user-supplied category name. The empty string
// and "all" both mean "no category filter" and return the empty Category.
func ParseCategory(s string) (Category, error) {
	switch s {
	case "", "all":
		return "", nil
	case string(CategoryRegression):
		return CategoryRegression, nil
	case string(CategoryIntegration):
		return CategoryIntegration, nil
	case string(CategoryDevelopment):
		return CategoryDevelopment, nil
	case string(CategoryUncategorized):
		return CategoryUncategorized, nil
	}
	return "", fmt.Errorf("unknown category %q (want regression, integration, development or all)", s)
}
