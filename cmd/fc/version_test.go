package main

import "testing"

func TestVersionString(t *testing.T) {
	originalVersion := buildVersion
	originalCommit := buildCommitID
	t.Cleanup(func() {
		buildVersion = originalVersion
		buildCommitID = originalCommit
	})

	buildVersion = "1.2.0"
	buildCommitID = "abc123"

	want := "version 1.2.0\ncommit_id abc123"
	if got := versionString(); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}
