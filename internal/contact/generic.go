package contact

import (
	"regexp"
	"strings"
)

// GenericPrefixes are local parts that denote a role mailbox.
var GenericPrefixes = []string{"info", "admin", "support", "contact", "noreply", "no-reply"}

// IsGeneric reports whether email is a role address such as info@ or
// support.team@. The local part must equal a generic prefix or continue it
// with a separator.
func IsGeneric(email string) bool {
	at := strings.LastIndexByte(email, '@')
	if at <= 0 {
		return false
	}
	local := strings.ToLower(email[:at])
	for _, p := range GenericPrefixes {
		if local == p {
			return true
		}
		if strings.HasPrefix(local, p) {
			switch local[len(p)] {
			case '.', '-', '_', '+':
				return true
			}
		}
	}
	return false
}

// Prefer orders personal addresses before generic ones, keeping relative
// order within each group. When dropGeneric is set and at least one personal
// address exists, generic addresses are removed.
func Prefer(emails []string, dropGeneric bool) []string {
	personal := make([]string, 0, len(emails))
	var generic []string
	for _, e := range emails {
		if IsGeneric(e) {
			generic = append(generic, e)
			continue
		}
		personal = append(personal, e)
	}
	if dropGeneric && len(personal) > 0 {
		return personal
	}
	return append(personal, generic...)
}

var fullEmailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// ValidEmail reports whether s is a syntactically plausible address.
func ValidEmail(s string) bool {
	return fullEmailRegex.MatchString(strings.TrimSpace(s))
}
