package main

import "testing"

func TestRunExitsWithConfigCodeWithoutSecret(t *testing.T) {
	t.Setenv("BOARD_JWT_SECRET", "")

	if code := run(); code != exitConfig {
		t.Fatalf("expected exit code %d, got %d", exitConfig, code)
	}
}
