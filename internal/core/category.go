package core

// Category is the closed enumeration shared by transactions and budgets.
// Color and icon are presentation metadata only; no business rule reads them.
type Category string

const (
	CategorySalary        Category = "Salary"
	CategoryFood          Category = "Food"
	CategoryTransport     Category = "Transport"
	CategoryShopping      Category = "Shopping"
	CategoryHousing       Category = "Housing"
	CategoryUtilities     Category = "Utilities"
	CategoryEntertainment Category = "Entertainment"
	CategoryHealth        Category = "Health"
	CategoryTransfer      Category = "Transfer"
	CategoryOther         Category = "Other"
)

// Categories lists every category in display order.
func Categories() []Category {
	return []Category{
		CategorySalary,
		CategoryFood,
		CategoryTransport,
		CategoryShopping,
		CategoryHousing,
		CategoryUtilities,
		CategoryEntertainment,
		CategoryHealth,
		CategoryTransfer,
		CategoryOther,
	}
}

func (c Category) Valid() bool {
	switch c {
	case CategorySalary, CategoryFood, CategoryTransport, CategoryShopping,
		CategoryHousing, CategoryUtilities, CategoryEntertainment,
		CategoryHealth, CategoryTransfer, CategoryOther:
		return true
	}
	return false
}

// Color returns the display color as a hex string. Unknown categories fall
// back to the Other color.
func (c Category) Color() string {
	switch c {
	case CategorySalary:
		return "#10b981"
	case CategoryFood:
		return "#ef4444"
	case CategoryTransport:
		return "#f59e0b"
	case CategoryShopping:
		return "#eab308"
	case CategoryHousing:
		return "#3b82f6"
	case CategoryUtilities:
		return "#6366f1"
	case CategoryEntertainment:
		return "#8b5cf6"
	case CategoryHealth:
		return "#ec4899"
	case CategoryTransfer:
		return "#a855f7"
	default:
		return "#64748b"
	}
}

// Icon returns the display icon name. Unknown categories fall back to the
// Other icon.
func (c Category) Icon() string {
	switch c {
	case CategorySalary:
		return "banknote"
	case CategoryFood:
		return "utensils"
	case CategoryTransport:
		return "car"
	case CategoryShopping:
		return "shopping-bag"
	case CategoryHousing:
		return "home"
	case CategoryUtilities:
		return "zap"
	case CategoryEntertainment:
		return "film"
	case CategoryHealth:
		return "heart-pulse"
	case CategoryTransfer:
		return "arrow-right-left"
	default:
		return "more-horizontal"
	}
}
