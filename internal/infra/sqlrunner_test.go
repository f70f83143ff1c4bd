package infra

import "testing"

func TestExtractMarker(t *testing.T) {
	query := `--sql 9f2b1c3d-4e5f-6071-8293-a4b5c6d7e8f9
select 1;`
	marker, trimmed, err := extractMarker(query)
	if err != nil {
		t.Fatalf("extractMarker returned error: %v", err)
	}
	if marker != "9f2b1c3d-4e5f-6071-8293-a4b5c6d7e8f9" {
		t.Fatalf("marker = %q", marker)
	}
	if trimmed != "select 1;" {
		t.Fatalf("trimmed = %q", trimmed)
	}
}

func TestExtractMarkerRejectsUntagged(t *testing.T) {
	if _, _, err := extractMarker("select 1;"); err == nil {
		t.Fatalf("extractMarker expected error for untagged query")
	}
	if _, _, err := extractMarker("--sql not-a-uuid\nselect 1;"); err == nil {
		t.Fatalf("extractMarker expected error for malformed marker")
	}
}
