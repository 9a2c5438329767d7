package gcp

import "testing"

func TestNewJobStore_RequiresProject(t *testing.T) {
	if _, err := NewJobStore(t.Context(), "", "chunk_jobs"); err == nil {
		t.Fatal("expected error without project ID")
	}
}
