package urlutil

import "testing"

func TestValidate(t *testing.T) {
	valid := []string{
		"http://example.com",
		"https://example.com/path",
	}
	for _, u := range valid {
		if err := ValidateURL(u); err != nil {
			t.Fatalf("expected valid, got error: %v", err)
		}
	}

	invalid := []string{"ftp://example.com", "//example.com", "http:///"}
	for _, u := range invalid {
		if err := ValidateURL(u); err == nil {
			t.Fatalf("expected invalid for %s", u)
		}
	}
}

func TestResolveURL(t *testing.T) {
	base := "https://www.wikiparfum.com/fr/fragrances/"
	if got := ResolveURL(base, "/fr/fragrances/ck-one"); got != "https://www.wikiparfum.com/fr/fragrances/ck-one" {
		t.Errorf("unexpected resolved URL %s", got)
	}
	if got := ResolveURL(base, "https://other.example/x"); got != "https://other.example/x" {
		t.Errorf("absolute URL should be kept, got %s", got)
	}
}

func TestItemPath(t *testing.T) {
	const base = "https://www.wikiparfum.com"
	const prefix = "/fr/fragrances/"

	tests := []struct {
		href string
		want string
		ok   bool
	}{
		{"/fr/fragrances/ck-one", "/fr/fragrances/ck-one", true},
		{"https://www.wikiparfum.com/fr/fragrances/ck-one", "/fr/fragrances/ck-one", true},
		{"/fr/fragrances/", "", false},
		{"/fr/fragrances", "", false},
		{"/fr/brands/calvin-klein", "", false},
		{"https://evil.example/fr/fragrances/ck-one", "", false},
	}
	for _, tt := range tests {
		got, ok := ItemPath(base, tt.href, prefix)
		if ok != tt.ok || got != tt.want {
			t.Errorf("ItemPath(%q) = %q, %v; want %q, %v", tt.href, got, ok, tt.want, tt.ok)
		}
	}
}

func TestLastPathSegment(t *testing.T) {
	tests := map[string]string{
		"https://www.wikiparfum.com/fr/fragrances/ck-one-essence": "ck-one-essence",
		"https://www.wikiparfum.com/fr/fragrances/ck-one/":        "ck-one",
		"https://www.wikiparfum.com":                              "https://www.wikiparfum.com",
	}
	for in, want := range tests {
		if got := LastPathSegment(in); got != want {
			t.Errorf("LastPathSegment(%q) = %q, want %q", in, got, want)
		}
	}
}
