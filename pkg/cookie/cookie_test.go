package cookie

import (
	"strings"
	"testing"
)

func TestNormalizeFullCookie(t *testing.T) {
	raw := "odin_tt=a1; passport_fe_beating_status=a2; sid_guard=a3; uid_tt=a4; uid_tt_ss=a5; " +
		"sid_tt=a6; sessionid=a7; sessionid_ss=a8; sid_ucp_v1=a9; ssid_ucp_v1=a10; " +
		"passport_assist_user=a11; ttwid=a12"

	formatted, valid, fields := Normalize(raw)

	if !valid {
		t.Error("Expected cookie with all critical fields to be valid")
	}
	if len(fields) != 12 {
		t.Errorf("Expected 12 extracted fields, got %d", len(fields))
	}
	want := "odin_tt=a1;passport_fe_beating_status=a2;sid_guard=a3;uid_tt=a4;uid_tt_ss=a5;" +
		"sid_tt=a6;sessionid=a7;sessionid_ss=a8;sid_ucp_v1=a9;ssid_ucp_v1=a10;" +
		"passport_assist_user=a11;ttwid=a12;"
	if formatted != want {
		t.Errorf("Formatted cookie mismatch:\ngot  %s\nwant %s", formatted, want)
	}
}

func TestNormalizeStableOrder(t *testing.T) {
	// Same fields, scrambled input order; output must not change
	forward := "sessionid=s; uid_tt=u; ttwid=t; sid_guard=g"
	scrambled := "ttwid=t; sid_guard=g; sessionid=s; uid_tt=u"

	a, _, _ := Normalize(forward)
	b, _, _ := Normalize(scrambled)

	if a != b {
		t.Errorf("Normalize is order-sensitive:\n%s\n%s", a, b)
	}
}

func TestNormalizeOutputShape(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty input", ""},
		{"garbage input", "this is not a cookie"},
		{"partial cookie", "sessionid=abc; extraneous=1"},
		{"pairs without equals ignored", "sessionid=abc; brokenpair; ttwid=t"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			formatted, _, fields := Normalize(tt.raw)

			if len(fields) != 12 {
				t.Fatalf("Expected 12 fields, got %d", len(fields))
			}
			// Every required name present, in order, terminated by ';'
			rest := formatted
			for _, name := range RequiredFields() {
				prefix := name + "="
				if !strings.HasPrefix(rest, prefix) {
					t.Fatalf("Expected %q at %q", prefix, rest)
				}
				semi := strings.Index(rest, ";")
				if semi < 0 {
					t.Fatalf("Missing terminator after %q", name)
				}
				rest = rest[semi+1:]
			}
			if rest != "" {
				t.Errorf("Trailing content after required fields: %q", rest)
			}
		})
	}
}

func TestValidityCriticalFieldsOnly(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		valid bool
	}{
		{
			name:  "all critical present, others missing",
			raw:   "sessionid=s; uid_tt=u; ttwid=t; sid_guard=g",
			valid: true,
		},
		{
			name:  "one critical missing",
			raw:   "sessionid=s; uid_tt=u; ttwid=t",
			valid: false,
		},
		{
			name:  "critical field empty value",
			raw:   "sessionid=; uid_tt=u; ttwid=t; sid_guard=g",
			valid: false,
		},
		{
			name:  "non-critical fields alone",
			raw:   "odin_tt=o; sid_tt=x; passport_assist_user=p",
			valid: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, valid, _ := Normalize(tt.raw)
			if valid != tt.valid {
				t.Errorf("Expected valid=%v, got %v", tt.valid, valid)
			}
		})
	}
}

func TestNormalizeUsableButIncomplete(t *testing.T) {
	// Critical fields present but others missing: usable, and the gaps
	// are still independently visible in the field map
	raw := "sessionid=s; uid_tt=u; ttwid=t; sid_guard=g"
	_, valid, fields := Normalize(raw)

	if !valid {
		t.Fatal("Expected cookie to be usable")
	}
	if fields["odin_tt"] != Placeholder {
		t.Errorf("Expected odin_tt placeholder, got %q", fields["odin_tt"])
	}
	if fields["sessionid"] != "s" {
		t.Errorf("Expected sessionid value, got %q", fields["sessionid"])
	}
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"ascii passthrough", "sessionid=abc123;", "sessionid=abc123;"},
		{"multibyte stripped", "sessionid=ab中c;", "sessionid=abc;"},
		{"control bytes stripped", "a\x00b\x1fc\td", "abcd"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sanitize(tt.in); got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestHeaderValue(t *testing.T) {
	if got := HeaderValue(""); got != "" {
		t.Errorf("Expected empty header value for empty cookie, got %q", got)
	}

	got := HeaderValue("sessionid=s中; uid_tt=u; ttwid=t; sid_guard=g")
	for i := 0; i < len(got); i++ {
		if got[i] < 0x20 || got[i] > 0x7e {
			t.Fatalf("Header value carries non-printable byte 0x%02x", got[i])
		}
	}
	if !strings.Contains(got, "sessionid=s;") {
		t.Errorf("Expected sanitized sessionid in %q", got)
	}
}
