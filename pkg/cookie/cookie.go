// Package cookie normalizes a raw browser cookie string into the fixed
// identity-cookie set the primary platform requires. Browsers reorder
// cookies unpredictably, so the output is always the required fields in
// one canonical order, making two normalized cookies comparable.
package cookie

import "strings"

// Placeholder substitutes for any required field missing from the input.
const Placeholder = "xxx"

// requiredFields is the fixed ordered set of identity cookies the
// platform's API checks. The order is part of the contract: output
// strings list these names in exactly this sequence.
var requiredFields = []string{
	"odin_tt", "passport_fe_beating_status", "sid_guard", "uid_tt", "uid_tt_ss",
	"sid_tt", "sessionid", "sessionid_ss", "sid_ucp_v1", "ssid_ucp_v1",
	"passport_assist_user", "ttwid",
}

// criticalFields are the cookies without which API calls are guaranteed
// to fail authentication. The rest merely degrade result quality.
var criticalFields = []string{"sessionid", "uid_tt", "ttwid", "sid_guard"}

// RequiredFields returns the ordered list of required cookie names.
func RequiredFields() []string {
	out := make([]string, len(requiredFields))
	copy(out, requiredFields)
	return out
}

// Normalize parses a raw browser cookie string and rebuilds it as the
// canonical required-field set. It returns the formatted cookie string,
// whether every critical field resolved to a real value, and a map of
// all required fields to their extracted values (Placeholder marks a
// field that was absent or empty).
func Normalize(raw string) (string, bool, map[string]string) {
	parsed := parsePairs(raw)

	extracted := make(map[string]string, len(requiredFields))
	for _, name := range requiredFields {
		value := parsed[name]
		if value == "" {
			value = Placeholder
		}
		extracted[name] = value
	}

	valid := true
	for _, name := range criticalFields {
		if extracted[name] == Placeholder {
			valid = false
			break
		}
	}

	var b strings.Builder
	for _, name := range requiredFields {
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(extracted[name])
		b.WriteByte(';')
	}

	return b.String(), valid, extracted
}

// Format returns only the formatted cookie string, for callers that do
// not need validity introspection.
func Format(raw string) string {
	formatted, _, _ := Normalize(raw)
	return formatted
}

// Sanitize strips any byte outside the printable ASCII range. Header
// encoders fail hard on non-ASCII, and pasted browser cookies routinely
// carry stray multibyte characters.
func Sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 0x20 && c <= 0x7e {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// HeaderValue normalizes a raw cookie and strips anything a transport
// would reject. This is the form that goes into a Cookie header.
func HeaderValue(raw string) string {
	if raw == "" {
		return ""
	}
	return Sanitize(Format(raw))
}

// parsePairs splits a raw cookie string into name/value pairs,
// tolerating surrounding whitespace. Pairs without '=' are ignored.
func parsePairs(raw string) map[string]string {
	parsed := make(map[string]string)
	for _, pair := range strings.Split(raw, ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		value = strings.TrimSpace(value)
		if name == "" {
			continue
		}
		parsed[name] = value
	}
	return parsed
}
