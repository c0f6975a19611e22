package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// ValidationError describes a single invalid mapping entry with enough
// context to print a useful startup error (configuration errors are fatal,
// §7).
type ValidationError struct {
	Interface string
	Message   string
}

// ValidationErrors collects every problem found across the mapping so a
// misconfigured deployment sees the whole list in one run, rather than
// fixing and re-running one error at a time.
type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("invalid network mapping: %d error(s):\n", len(ve)))
	for i, e := range ve {
		sb.WriteString(fmt.Sprintf("  %d. [%s] %s\n", i+1, e.Interface, e.Message))
	}
	return sb.String()
}

// NewMapping validates raw entries and, if they are all valid, builds an
// immutable Mapping. Duplicate interface names and duplicate table ids are a
// configuration error (§3: "Keys are unique; duplicates are a configuration
// error"), as is any table id equal to RTTableMain (§3's disjointness
// invariant).
func NewMapping(entries []NetworkMapping) (*Mapping, error) {
	var errs ValidationErrors

	seenNames := make(map[string]bool, len(entries))
	seenTables := make(map[uint32]bool, len(entries))

	for _, e := range entries {
		name := e.Interface
		if name == "" {
			name = "<empty>"
		}

		if err := validate.Struct(e); err != nil {
			errs = append(errs, convertValidatorErrors(name, err)...)
		}

		if e.Table == RTTableMain {
			errs = append(errs, ValidationError{
				Interface: name,
				Message:   fmt.Sprintf("table %d collides with RT_TABLE_MAIN", e.Table),
			})
		}

		if seenNames[e.Interface] {
			errs = append(errs, ValidationError{
				Interface: name,
				Message:   fmt.Sprintf("duplicate interface %q", e.Interface),
			})
		}
		seenNames[e.Interface] = true

		if seenTables[e.Table] {
			errs = append(errs, ValidationError{
				Interface: name,
				Message:   fmt.Sprintf("duplicate table %d", e.Table),
			})
		}
		seenTables[e.Table] = true
	}

	if len(errs) > 0 {
		return nil, errs
	}

	m := &Mapping{
		entries: entries,
		byName:  make(map[string]uint32, len(entries)),
		tables:  make(map[uint32]struct{}, len(entries)),
	}
	for _, e := range entries {
		m.byName[e.Interface] = e.Table
		m.tables[e.Table] = struct{}{}
	}
	return m, nil
}

func convertValidatorErrors(itemName string, err error) ValidationErrors {
	var out ValidationErrors

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, e := range verrs {
			out = append(out, ValidationError{
				Interface: itemName,
				Message:   validationMessage(e),
			})
		}
	}
	return out
}

func validationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "field is required"
	case "max":
		return fmt.Sprintf("must be at most %s characters", e.Param())
	case "gte":
		return fmt.Sprintf("must be >= %s", e.Param())
	case "lt":
		return fmt.Sprintf("must be < %s", e.Param())
	default:
		return fmt.Sprintf("validation failed: %s", e.Tag())
	}
}
