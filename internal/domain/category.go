package domain

// Category identifies which company attribute a change event concerns.
type Category string

const (
	CategoryManagement Category = "management"
	CategoryBoard      Category = "board"
	CategoryOwnership  Category = "ownership"
	CategoryAddress    Category = "address"
	CategoryName       Category = "name"
	CategoryIndustry   Category = "industry"
	CategoryStatus     Category = "status"
	CategoryLegal      Category = "legal"
	CategoryCapital    Category = "capital"
	CategoryPurpose    Category = "purpose"
	CategoryContact    Category = "contact"
	CategoryFinancial  Category = "financial"
)

// Severity ranks how important a change event is for display and filtering.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// EventKind distinguishes value substitutions from role appearances and
// departures, which have no prior value to diff against.
type EventKind string

const (
	KindChanged   EventKind = "changed"
	KindAppointed EventKind = "appointed"
	KindDeparted  EventKind = "departed"
)

// AllCategories lists every tracked category, alphabetically. Filter
// construction iterates it to seed a complete category set.
var AllCategories = []Category{
	CategoryAddress,
	CategoryBoard,
	CategoryCapital,
	CategoryContact,
	CategoryFinancial,
	CategoryIndustry,
	CategoryLegal,
	CategoryManagement,
	CategoryName,
	CategoryOwnership,
	CategoryPurpose,
	CategoryStatus,
}

var categorySeverity = map[Category]Severity{
	CategoryStatus:     SeverityHigh,
	CategoryOwnership:  SeverityHigh,
	CategoryManagement: SeverityMedium,
	CategoryBoard:      SeverityMedium,
	CategoryCapital:    SeverityMedium,
	CategoryName:       SeverityMedium,
	CategoryFinancial:  SeverityMedium,
	CategoryIndustry:   SeverityLow,
	CategoryAddress:    SeverityLow,
	CategoryContact:    SeverityLow,
	CategoryLegal:      SeverityLow,
	CategoryPurpose:    SeverityLow,
}

var categoryLabel = map[Category]string{
	CategoryManagement: "Direktion",
	CategoryBoard:      "Bestyrelse",
	CategoryOwnership:  "Ejerforhold",
	CategoryAddress:    "Adresse",
	CategoryName:       "Navn",
	CategoryIndustry:   "Branche",
	CategoryStatus:     "Status",
	CategoryLegal:      "Virksomhedsform",
	CategoryCapital:    "Kapital",
	CategoryPurpose:    "Formål",
	CategoryContact:    "Kontaktoplysninger",
	CategoryFinancial:  "Regnskab",
}

// SeverityFor returns the fixed severity tier for a category. Unknown
// categories rank low rather than failing.
func SeverityFor(category Category) Severity {
	if severity, ok := categorySeverity[category]; ok {
		return severity
	}
	return SeverityLow
}

// LabelFor returns the human readable Danish label for a category.
func LabelFor(category Category) string {
	if label, ok := categoryLabel[category]; ok {
		return label
	}
	return string(category)
}

// IsValidCategory reports whether the string names a tracked category.
func IsValidCategory(category Category) bool {
	_, ok := categorySeverity[category]
	return ok
}
