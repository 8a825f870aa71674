package errors

import (
	"context"
	"strings"
)

// ErrorCategory groups errors by how callers should react to them.
type ErrorCategory string

// CategorizedError lets foreign error types declare their own category.
type CategorizedError interface {
	error
	ErrorCategory() ErrorCategory
}

const (
	CategoryValidation     ErrorCategory = "validation"
	CategoryNotFound       ErrorCategory = "not-found"
	CategoryConflict       ErrorCategory = "conflict"
	CategoryLimit          ErrorCategory = "limit"
	CategoryTimeout        ErrorCategory = "timeout"
	CategoryCancellation   ErrorCategory = "cancellation"
	CategoryConfiguration  ErrorCategory = "configuration"
	CategoryDatabase       ErrorCategory = "database"
	CategoryNetwork        ErrorCategory = "network"
	CategoryHTTP           ErrorCategory = "http-request"
	CategoryFileIO         ErrorCategory = "file-io"
	CategoryFileParsing    ErrorCategory = "file-parsing"
	CategoryMQTTConnection ErrorCategory = "mqtt-connection"
	CategoryMQTTPublish    ErrorCategory = "mqtt-publish"
	CategoryKafkaPublish   ErrorCategory = "kafka-publish"
	CategoryIntegration    ErrorCategory = "integration"
	CategoryGeneric        ErrorCategory = "generic"

	// CategoryMalformedRecord marks a single sighting that cannot be aggregated.
	CategoryMalformedRecord ErrorCategory = "malformed-record"
)

// messageHints are checked in order against the lowercased message.
var messageHints = []struct {
	fragment string
	category ErrorCategory
}{
	{"timeout", CategoryTimeout},
	{"deadline", CategoryTimeout},
	{"connection", CategoryNetwork},
	{"dial", CategoryNetwork},
	{"parse", CategoryFileParsing},
	{"unmarshal", CategoryFileParsing},
	{"invalid", CategoryValidation},
	{"not found", CategoryNotFound},
}

var componentCategories = map[string]ErrorCategory{
	"datastore": CategoryDatabase,
	"ebird":     CategoryNetwork,
	"feed":      CategoryNetwork,
	"events":    CategoryIntegration,
	"api":       CategoryHTTP,
}

// inferCategory picks a category for an error built without one. A
// category already present in the chain wins, then context errors, then
// message hints, then the component default.
func inferCategory(err error, component string) ErrorCategory {
	if err == nil {
		return CategoryGeneric
	}

	var declared CategorizedError
	if As(err, &declared) {
		return declared.ErrorCategory()
	}
	var inner *EnhancedError
	if As(err, &inner) && inner.Category != "" {
		return inner.Category
	}

	switch {
	case Is(err, context.Canceled):
		return CategoryCancellation
	case Is(err, context.DeadlineExceeded):
		return CategoryTimeout
	}

	msg := strings.ToLower(err.Error())
	for _, hint := range messageHints {
		if strings.Contains(msg, hint.fragment) {
			return hint.category
		}
	}

	if category, ok := componentCategories[component]; ok {
		return category
	}
	return CategoryGeneric
}

// IsCategory reports whether the outermost EnhancedError in err's chain
// has the given category.
func IsCategory(err error, category ErrorCategory) bool {
	var ee *EnhancedError
	return As(err, &ee) && ee.Category == category
}

func IsNotFound(err error) bool {
	return IsCategory(err, CategoryNotFound)
}

func IsValidation(err error) bool {
	return IsCategory(err, CategoryValidation)
}
