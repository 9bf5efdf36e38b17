// Package credentials holds the broker credential form and its progressive,
// left-to-right validation.
package credentials

import (
	"fmt"
	"regexp"
	"strings"
)

// Fixed credential formats.
const (
	AccountIDLength = 7
	AccessKeyPrefix = "AKLW"
	MinSecretLength = 20
)

var accountIDPattern = regexp.MustCompile(`^[0-9]{7}$`)

// Field identifies a form field. Fields are ordered: each one depends on
// the one before it.
type Field int

const (
	FieldAccountID Field = iota
	FieldAccessKey
	FieldAccessSecret
	FieldDisplayName
)

// Fields lists every field in dependency order.
var Fields = []Field{FieldAccountID, FieldAccessKey, FieldAccessSecret, FieldDisplayName}

func (f Field) String() string {
	switch f {
	case FieldAccountID:
		return "accountId"
	case FieldAccessKey:
		return "accessKey"
	case FieldAccessSecret:
		return "accessSecret"
	case FieldDisplayName:
		return "displayName"
	default:
		return fmt.Sprintf("Field(%d)", int(f))
	}
}

// Label is the human-readable field name.
func (f Field) Label() string {
	switch f {
	case FieldAccountID:
		return "Account ID"
	case FieldAccessKey:
		return "Access key"
	case FieldAccessSecret:
		return "Access secret"
	case FieldDisplayName:
		return "Display name (optional)"
	default:
		return f.String()
	}
}

// Form is the raw content of the four credential fields.
type Form struct {
	AccountID    string
	AccessKey    string
	AccessSecret string
	DisplayName  string
}

// Get returns the value of a field.
func (f *Form) Get(field Field) string {
	switch field {
	case FieldAccountID:
		return f.AccountID
	case FieldAccessKey:
		return f.AccessKey
	case FieldAccessSecret:
		return f.AccessSecret
	case FieldDisplayName:
		return f.DisplayName
	}
	return ""
}

// Set assigns a typed value to a field, unchanged.
func (f *Form) Set(field Field, value string) {
	switch field {
	case FieldAccountID:
		f.AccountID = value
	case FieldAccessKey:
		f.AccessKey = value
	case FieldAccessSecret:
		f.AccessSecret = value
	case FieldDisplayName:
		f.DisplayName = value
	}
}

// Paste assigns pasted text to a field after CleanPaste and returns the
// stored value.
func (f *Form) Paste(field Field, text string) string {
	v := CleanPaste(field, text)
	f.Set(field, v)
	return v
}

// Filled reports the minimal predicate that unlocks the next field.
//   - accountId: exactly 7 digits (its only predicate)
//   - accessKey: non-empty
//   - accessSecret: at least 20 characters
//   - displayName: non-empty
func (f *Form) Filled(field Field) bool {
	switch field {
	case FieldAccountID:
		return accountIDPattern.MatchString(f.AccountID)
	case FieldAccessKey:
		return f.AccessKey != ""
	case FieldAccessSecret:
		return len(f.AccessSecret) >= MinSecretLength
	case FieldDisplayName:
		return strings.TrimSpace(f.DisplayName) != ""
	}
	return false
}

// WellFormed reports the strict format predicate of a field.
func (f *Form) WellFormed(field Field) bool {
	switch field {
	case FieldAccessKey:
		return strings.HasPrefix(f.AccessKey, AccessKeyPrefix)
	case FieldDisplayName:
		return true
	default:
		return f.Filled(field)
	}
}
