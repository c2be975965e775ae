package logfields

import (
	"log/slog"
	"testing"
)

// TestHelperKeyNames verifies string-based helper key/value stability.
func TestHelperKeyNames(t *testing.T) {
	cases := []struct {
		name    string
		attrKey string
		attrVal string
		attr    slog.Attr
	}{
		{"Task", KeyTask, "styles", Task("styles")},
		{"RunID", KeyRunID, "r-1", RunID("r-1")},
		{"Mode", KeyMode, "prod", Mode("prod")},
		{"Stage", KeyStage, "minify", Stage("minify")},
		{"Path", KeyPath, "/tmp/x", Path("/tmp/x")},
		{"File", KeyFile, "index.html", File("index.html")},
		{"Dest", KeyDest, "build/css", Dest("build/css")},
		{"Tool", KeyTool, "sass", Tool("sass")},
		{"Rule", KeyRule, "html", Rule("html")},
		{"Event", KeyEvent, "WRITE", Event("WRITE")},
		{"Addr", KeyAddr, ":3000", Addr(":3000")},
		{"URL", KeyURL, "http://localhost", URL("http://localhost")},
		{"Method", KeyMethod, "GET", Method("GET")},
		{"RemoteAddr", KeyRemoteAddr, "1.2.3.4", RemoteAddr("1.2.3.4")},
		{"Subject", KeySubject, "sitepipe.tasks", Subject("sitepipe.tasks")},
		{"Name", KeyName, "n", Name("n")},
	}

	for _, tc := range cases {
		if tc.attr.Key != tc.attrKey {
			// Key drift would break log ingestion schemas.
			t.Fatalf("%s: expected key %s, got %s", tc.name, tc.attrKey, tc.attr.Key)
		}
		if got := tc.attr.Value.String(); got != tc.attrVal {
			t.Fatalf("%s: expected value %s, got %v", tc.name, tc.attrVal, got)
		}
	}
}

// TestNumericHelpers verifies keys for numeric & float helpers.
func TestNumericHelpers(t *testing.T) {
	checks := map[string]slog.Attr{
		KeyStatus:     Status(200),
		KeyDurationMS: DurationMS(12.5),
		KeyWritten:    Written(3),
		KeySkipped:    Skipped(1),
		KeyFailed:     Failed(0),
		KeyCount:      Count(7),
		KeyClients:    Clients(2),
	}
	for key, attr := range checks {
		if attr.Key != key {
			t.Fatalf("key mismatch: want %s, got %s", key, attr.Key)
		}
	}
}

// TestErrorHelper ensures Error() handles nil and non-nil errors predictably.
func TestErrorHelper(t *testing.T) {
	attr := Error(nil)
	if attr.Key != KeyError {
		t.Fatalf("Error key mismatch: %s", attr.Key)
	}
	if attr.Value.String() != "" {
		t.Fatalf("Expected empty error string, got %s", attr.Value.String())
	}
	attr = Error(errTest{})
	if attr.Value.String() != "err-test" {
		t.Fatalf("Expected 'err-test', got %s", attr.Value.String())
	}
}

type errTest struct{}

func (e errTest) Error() string { return "err-test" }
