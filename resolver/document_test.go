package resolver

import "testing"

func TestDocumentTitle(t *testing.T) {
	doc, err := ParseDocumentString("<html><head><title>\n  Episode 4 </title></head><body><svg><title>icon</title></svg></body></html>")
	if err != nil {
		t.Fatal(err)
	}
	if got := DocumentTitle(doc); got != "Episode 4" {
		t.Errorf("DocumentTitle = %q, want %q", got, "Episode 4")
	}
	if got := DocumentTitle(nil); got != "" {
		t.Errorf("DocumentTitle(nil) = %q", got)
	}
}
