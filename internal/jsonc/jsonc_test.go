package jsonc

import "testing"

func TestStripCommentsPreservesStringContent(t *testing.T) {
	in := []byte(`{
  // a line comment
  "url": "http://example.com", // trailing comment
  /* block
     comment */
  "note": "contains // not a comment and /* not a block */ inside a string"
}`)
	out := StripComments(in)

	var v struct {
		URL  string `json:"url"`
		Note string `json:"note"`
	}
	if err := Parse(out, &v); err != nil {
		t.Fatalf("Parse after strip: %v\n%s", err, out)
	}
	if v.URL != "http://example.com" {
		t.Errorf("url = %q", v.URL)
	}
	want := "contains // not a comment and /* not a block */ inside a string"
	if v.Note != want {
		t.Errorf("note = %q, want %q", v.Note, want)
	}
}

func TestParsePlainJSONStillWorks(t *testing.T) {
	var v map[string]int
	if err := Parse([]byte(`{"a":1,"b":2}`), &v); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if v["a"] != 1 || v["b"] != 2 {
		t.Fatalf("unexpected: %+v", v)
	}
}
