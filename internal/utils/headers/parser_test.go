package headers

import (
	"reflect"
	"testing"
)

func TestParseHeaders(t *testing.T) {
	in := []string{"Accept-Language: en-US,en;q=0.9", "Referer: https://www.google.com/"}
	out, err := ParseHeaders(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := map[string]string{"Accept-Language": "en-US,en;q=0.9", "Referer": "https://www.google.com/"}
	if !reflect.DeepEqual(out, expected) {
		t.Fatalf("unexpected parse result: %#v", out)
	}
}

func TestParseHeadersInvalid(t *testing.T) {
	for _, in := range [][]string{{"BadHeader"}, {": value"}} {
		if _, err := ParseHeaders(in); err == nil {
			t.Errorf("expected error for %q", in)
		}
	}
}

func TestParseHeadersEmpty(t *testing.T) {
	out, err := ParseHeaders(nil)
	if err != nil || len(out) != 0 {
		t.Fatalf("expected empty map, got %#v, %v", out, err)
	}
}
