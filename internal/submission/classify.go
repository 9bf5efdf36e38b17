package submission

import "strings"

// Category is the user-facing class of a failed submission.
type Category string

const (
	CategoryAccount Category = "account"
	CategoryAuth    Category = "auth"
	CategoryNetwork Category = "network"
	CategoryGeneric Category = "generic"
)

type rule struct {
	category Category
	needles  []string
}

// rules are tested in order and the first match wins, so a message naming
// both an auth and a network problem is reported as auth.
var rules = []rule{
	{CategoryAccount, []string{"customer", "account id", "account_id", "accountid", "account not found"}},
	{CategoryAuth, []string{"401", "403", "auth", "unauthorized", "forbidden", "invalid key", "signature"}},
	{CategoryNetwork, []string{"network", "timeout", "timed out", "connection", "fetch", "unreachable", "dns"}},
}

var messages = map[Category]string{
	CategoryAccount: "We couldn't find that account. Check the 7-digit account ID in your broker dashboard.",
	CategoryAuth:    "Your access key or secret was rejected. Generate a new key pair and paste both again.",
	CategoryNetwork: "We couldn't reach the broker. Check your connection and try again.",
	CategoryGeneric: "Something went wrong while linking your account. Please try again.",
}

// Classify maps a raw error message to a category by case-insensitive
// substring search.
func Classify(raw string) Category {
	lower := strings.ToLower(raw)
	for _, r := range rules {
		for _, needle := range r.needles {
			if strings.Contains(lower, needle) {
				return r.category
			}
		}
	}
	return CategoryGeneric
}

// Message returns the user-facing text for a category.
func Message(c Category) string {
	if m, ok := messages[c]; ok {
		return m
	}
	return messages[CategoryGeneric]
}

// Failure is a classified submission error. Error returns the user-facing
// message; the raw cause stays reachable through Unwrap for logs.
type Failure struct {
	Category Category
	Message  string
	Err      error
}

func (f *Failure) Error() string {
	return f.Message
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// classify wraps a raw error in a Failure.
func classify(err error) *Failure {
	c := Classify(err.Error())
	return &Failure{Category: c, Message: Message(c), Err: err}
}
