package credentials

import "fmt"

// FieldState is whether a field accepts input.
type FieldState int

const (
	Disabled FieldState = iota
	Enabled
)

func (s FieldState) String() string {
	if s == Enabled {
		return "enabled"
	}
	return "disabled"
}

// Validation is the gating result for one snapshot of the form.
type Validation struct {
	FieldStates map[Field]FieldState
	// Errors holds inline messages for fields that have input but fail their
	// predicate. It never blocks editing.
	Errors    map[Field]string
	CanSubmit bool
}

// Enabled reports whether a field accepts input.
func (v Validation) Enabled(field Field) bool {
	return v.FieldStates[field] == Enabled
}

// Validate recomputes field states from raw values. The first field is always
// enabled; each later field is enabled only while every earlier field is
// enabled and filled. Disabled fields keep their values.
func Validate(f Form) Validation {
	v := Validation{
		FieldStates: make(map[Field]FieldState, len(Fields)),
		Errors:      make(map[Field]string),
	}

	open := true
	for _, field := range Fields {
		if open {
			v.FieldStates[field] = Enabled
		} else {
			v.FieldStates[field] = Disabled
		}
		open = open && f.Filled(field)

		if msg := inlineError(&f, field); msg != "" {
			v.Errors[field] = msg
		}
	}

	v.CanSubmit = f.WellFormed(FieldAccountID) &&
		f.Filled(FieldAccessKey) &&
		f.Filled(FieldAccessSecret)
	return v
}

func inlineError(f *Form, field Field) string {
	if f.Get(field) == "" {
		return ""
	}
	switch field {
	case FieldAccountID:
		if !f.WellFormed(field) {
			return fmt.Sprintf("Account ID must be exactly %d digits.", AccountIDLength)
		}
	case FieldAccessKey:
		if !f.WellFormed(field) {
			return fmt.Sprintf("Access keys usually start with %q. Check you copied the whole key.", AccessKeyPrefix)
		}
	case FieldAccessSecret:
		if !f.Filled(field) {
			return fmt.Sprintf("Access secret must be at least %d characters.", MinSecretLength)
		}
	}
	return ""
}
