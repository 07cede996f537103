package urlutil

import (
	"reflect"
	"testing"
)

func TestValidate(t *testing.T) {
	valid := []string{
		"http://example.com",
		"https://www.google.com/maps/place/Some+Cafe/@40.7,-74.0,17z",
	}
	for _, u := range valid {
		if err := ValidateURL(u); err != nil {
			t.Fatalf("expected valid, got error: %v", err)
		}
	}

	invalid := []string{"ftp://example.com", "//example.com", "http:///", "not a url", ""}
	for _, u := range invalid {
		if err := ValidateURL(u); err == nil {
			t.Fatalf("expected invalid for %q", u)
		}
	}
}

func TestClean(t *testing.T) {
	in := []string{" https://a.example ", "", "https://b.example", "https://a.example", "   "}
	want := []string{"https://a.example", "https://b.example"}
	if got := Clean(in); !reflect.DeepEqual(got, want) {
		t.Fatalf("Clean() = %#v, want %#v", got, want)
	}
}
