package enums

import "fmt"

// ProductCategory represents the catalog categories that carry a built-in uplift rate.
// Categories outside this list are still priced, using the global flat rate.
type ProductCategory string

const (
	ProductCategoryFragile     ProductCategory = "fragile"
	ProductCategoryJewelry     ProductCategory = "jewelry"
	ProductCategoryBeauty      ProductCategory = "beauty"
	ProductCategoryFashion     ProductCategory = "fashion"
	ProductCategoryHomeDecor   ProductCategory = "home_decor"
	ProductCategoryHandicrafts ProductCategory = "handicrafts"
	ProductCategoryFood        ProductCategory = "food"
	ProductCategoryElectronics ProductCategory = "electronics"
)

var validProductCategories = []ProductCategory{
	ProductCategoryFragile,
	ProductCategoryJewelry,
	ProductCategoryBeauty,
	ProductCategoryFashion,
	ProductCategoryHomeDecor,
	ProductCategoryHandicrafts,
	ProductCategoryFood,
	ProductCategoryElectronics,
}

// String implements fmt.Stringer.
func (c ProductCategory) String() string {
	return string(c)
}

// IsValid reports whether the value is a known ProductCategory.
func (c ProductCategory) IsValid() bool {
	for _, candidate := range validProductCategories {
		if candidate == c {
			return true
		}
	}
	return false
}

// ProductCategories returns the built-in categories in declaration order.
func ProductCategories() []ProductCategory {
	out := make([]ProductCategory, len(validProductCategories))
	copy(out, validProductCategories)
	return out
}

// ParseProductCategory converts raw input into a ProductCategory.
func ParseProductCategory(value string) (ProductCategory, error) {
	for _, candidate := range validProductCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product category %q", value)
}
