package response

import "strings"

// Category is a failure class extracted from the reply reason.
type Category string

// Known reason categories.
const (
	CategoryUnknown                       Category = ""
	CategoryMissingSignature              Category = "MissingSignature"
	CategoryEmptySignature                Category = "EmptySignature"
	CategoryInvalidSignatureFormat        Category = "InvalidSignatureFormat"
	CategoryInsufficientCorrectSignatures Category = "InsufficientCorrectSignatures"
	CategoryCouldNotAuthenticate          Category = "CouldNotAuthenticate"
	CategoryInvalidIdentifier             Category = "InvalidIdentifier"
	CategoryUnknownIdentifier             Category = "UnknownIdentifier"
	CategoryInvalidClientRequest          Category = "InvalidClientRequest"
	CategoryUnauthorizedClientRequest     Category = "UnauthorizedClientRequest"
)

// categories are matched in order, so more specific names go first.
var categories = []Category{
	CategoryMissingSignature,
	CategoryEmptySignature,
	CategoryInvalidSignatureFormat,
	CategoryInsufficientCorrectSignatures,
	CategoryCouldNotAuthenticate,
	CategoryInvalidIdentifier,
	CategoryUnknownIdentifier,
	CategoryUnauthorizedClientRequest,
	CategoryInvalidClientRequest,
}

// Classify finds a known "Name(" token in the reason, falling back to a bare
// Name when there is no such token.
func Classify(reason string) Category {
	for _, c := range categories {
		if strings.Contains(reason, string(c)+"(") {
			return c
		}
	}
	for _, c := range categories {
		if strings.Contains(reason, string(c)) {
			return c
		}
	}
	return CategoryUnknown
}

// String implements the fmt.Stringer interface.
func (c Category) String() string {
	if c == CategoryUnknown {
		return "Unknown"
	}
	return string(c)
}

// Reason formats a reason string the way validator nodes do, it's the inverse
// of Classify.
func (c Category) Reason(details string) string {
	return "client request invalid: " + string(c) + "(" + details + ")"
}

func (c Category) fixable() bool {
	switch c {
	case CategoryMissingSignature, CategoryEmptySignature, CategoryInvalidSignatureFormat,
		CategoryInsufficientCorrectSignatures, CategoryInvalidIdentifier, CategoryInvalidClientRequest:
		return true
	}
	return false
}
