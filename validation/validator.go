// Package validation provides input validation for the inventory API.
package validation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/codice/inventory-api/interfaces"
	"github.com/codice/inventory-api/inventory/entities"
)

// Pre-compiled regex patterns for performance optimization
// Compiled once at package initialization and reused for all validations
var (
	// Input validation: alphanumeric + Spanish accents + safe punctuation
	inputRegex = regexp.MustCompile(`^[a-zA-Z0-9\s\-\.\+'áéíóúüñÁÉÍÓÚÜÑ]+$`)

	// SKU format: letters, digits and dashes, 3-32 characters
	skuRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9\-]{2,31}$`)

	// Dangerous patterns as strings (faster than regex for simple substring matching)
	dangerousPatterns = []string{
		"<script", "</script>", "javascript:", "vbscript:", "onload=", "onerror=",
		"onclick=", "onmouseover=", "onfocus=", "onblur=", "onchange=", "onsubmit=",
		"eval(", "expression(", "url(", "import ", "@import", "binding(", "behavior(",
		// SQL injection patterns
		"' or ", "\" or ", "union select", "drop table", "delete from", "insert into",
		"update set", "--", "/*", "*/", "xp_", "sp_", "exec(", "execute(",
		// Command injection patterns
		"; ", "| ", "& ", "`", "$(", "${",
		// Path traversal patterns
		"../", "..\\", "%2e%2e", "file://",
	}
)

// MaxDispenseQuantity caps one dispense request. Larger movements go
// through the receiving workflow as corrections.
const MaxDispenseQuantity = 100000

// Validator implements the interfaces.InputValidator interface
type Validator struct{}

// Compile-time check to ensure Validator implements InputValidator
var _ interfaces.InputValidator = (*Validator)(nil)

// New creates a new input validator
func New() *Validator {
	return &Validator{}
}

// ValidateInput validates a user-supplied search or path string
func (v *Validator) ValidateInput(input string) error {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return fmt.Errorf("%w: input cannot be empty", entities.ErrInvalidInput)
	}

	if len(trimmed) > 100 {
		return fmt.Errorf("%w: input too long (%d characters)", entities.ErrInvalidInput, len(trimmed))
	}

	lowered := strings.ToLower(trimmed)
	for _, pattern := range dangerousPatterns {
		if strings.Contains(lowered, pattern) {
			return fmt.Errorf("%w: input contains invalid characters", entities.ErrInvalidInput)
		}
	}

	if !inputRegex.MatchString(trimmed) {
		return fmt.Errorf("%w: input contains invalid characters", entities.ErrInvalidInput)
	}

	return nil
}

// ValidateSKU validates and canonicalizes a SKU path parameter
func (v *Validator) ValidateSKU(input string) (string, error) {
	trimmed := strings.TrimSpace(input)
	if !skuRegex.MatchString(trimmed) {
		return "", fmt.Errorf("%w: malformed sku %q", entities.ErrInvalidInput, input)
	}
	return strings.ToUpper(trimmed), nil
}

// ValidateBranchID parses and validates a branch ID path parameter
func (v *Validator) ValidateBranchID(input string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil {
		return 0, fmt.Errorf("%w: branch id must be a number", entities.ErrInvalidInput)
	}
	if id <= 0 {
		return 0, fmt.Errorf("%w: branch id must be positive", entities.ErrInvalidInput)
	}
	return id, nil
}

// ValidateQuantity validates a dispense or receipt quantity
func (v *Validator) ValidateQuantity(quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive, got %d", entities.ErrInvalidInput, quantity)
	}
	if quantity > MaxDispenseQuantity {
		return fmt.Errorf("%w: quantity %d exceeds maximum %d", entities.ErrInvalidInput, quantity, MaxDispenseQuantity)
	}
	return nil
}
