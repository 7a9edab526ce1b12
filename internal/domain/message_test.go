package domain

import "testing"

func TestStatusRank(t *testing.T) {
	tests := []struct {
		status string
		want   int
	}{
		{StatusPending, 1},
		{StatusRunning, 2},
		{StatusCompleted, 3},
		{StatusError, 3},
		{"", 0},
		{"streaming", 0},
	}
	for _, tt := range tests {
		if got := StatusRank(tt.status); got != tt.want {
			t.Errorf("StatusRank(%q) = %d, want %d", tt.status, got, tt.want)
		}
	}
}

func TestIsTextual(t *testing.T) {
	for _, textual := range []string{PartTypeText, PartTypeReasoning} {
		if !IsTextual(textual) {
			t.Errorf("IsTextual(%q) = false", textual)
		}
	}
	for _, other := range []string{PartTypeTool, PartTypeStepStart, PartTypeStepFinish, "file"} {
		if IsTextual(other) {
			t.Errorf("IsTextual(%q) = true", other)
		}
	}
}
