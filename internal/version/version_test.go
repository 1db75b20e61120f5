package version

import (
	"strings"
	"testing"
)

func TestString(t *testing.T) {
	oldCommit, oldDate := Commit, Date
	defer func() { Commit, Date = oldCommit, oldDate }()

	Commit, Date = "unknown", "unknown"
	if got := String(); !strings.HasPrefix(got, "iconform version dev (protocol ") {
		t.Errorf("String() = %q", got)
	}

	Commit, Date = "0123456789abcdef", "2026-01-02T03:04:05Z"
	got := String()
	if !strings.Contains(got, "commit: 01234567,") {
		t.Errorf("String() = %q, want shortened commit", got)
	}

	Commit = "abc"
	if got := String(); !strings.Contains(got, "commit: abc,") {
		t.Errorf("String() = %q, want short commit unchanged", got)
	}
}

func TestGetInfo(t *testing.T) {
	info := GetInfo()
	if info.GoVersion == "" || info.Platform == "" || info.ProtocolVersion == "" {
		t.Errorf("GetInfo() has empty fields: %+v", info)
	}
}
