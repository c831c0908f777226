// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	KeyValidationInvalid = "validation.invalid"
	KeyValidationDate    = "validation.date"
	KeyValidationID      = "validation.id"

	KeyNotFound         = "error.not_found"
	KeyUserNotFound     = "user.not_found"
	KeyOrderNotFound    = "order.not_found"
	KeyProductNotFound  = "product.not_found"
	KeyCategoryNotFound = "category.not_found"

	KeyReferenceMissing  = "reference.missing"
	KeyRateLimitExceeded = "rate_limit.exceeded"
	KeyInternalError     = "error.internal"
)

var notFoundKeys = map[string]string{
	"user":     KeyUserNotFound,
	"order":    KeyOrderNotFound,
	"product":  KeyProductNotFound,
	"category": KeyCategoryNotFound,
}

// NotFoundKey returns the message key for a missing resource. Resources
// without their own entry use KeyNotFound, which takes the resource name.
func NotFoundKey(resource string) (string, bool) {
	key, ok := notFoundKeys[resource]
	if !ok {
		return KeyNotFound, false
	}
	return key, true
}
