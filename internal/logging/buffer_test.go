package logging

import (
	"fmt"
	"testing"
)

func TestRingBuffer(t *testing.T) {
	rb := NewRingBuffer(3)
	if rb.ReadAll() != nil {
		t.Error("empty buffer should read nil")
	}

	for i := 0; i < 5; i++ {
		rb.Write(LogEntry{Message: fmt.Sprint(i)})
	}

	if rb.Count() != 3 {
		t.Fatalf("Count() = %d, want 3", rb.Count())
	}

	tests := []struct {
		n    int
		want []string
	}{
		{0, []string{"2", "3", "4"}},
		{2, []string{"3", "4"}},
		{10, []string{"2", "3", "4"}},
	}
	for _, tt := range tests {
		got := rb.Tail(tt.n)
		if len(got) != len(tt.want) {
			t.Errorf("Tail(%d) len = %d, want %d", tt.n, len(got), len(tt.want))
			continue
		}
		for i := range got {
			if got[i].Message != tt.want[i] {
				t.Errorf("Tail(%d)[%d] = %s, want %s", tt.n, i, got[i].Message, tt.want[i])
			}
		}
	}
}

func TestRingBuffer_PartiallyFilled(t *testing.T) {
	rb := NewRingBuffer(4)
	rb.Write(LogEntry{Message: "a"})
	rb.Write(LogEntry{Message: "b"})

	got := rb.Tail(1)
	if len(got) != 1 || got[0].Message != "b" {
		t.Errorf("Tail(1) = %+v", got)
	}
	if all := rb.ReadAll(); len(all) != 2 || all[0].Message != "a" {
		t.Errorf("ReadAll() = %+v", all)
	}
}
