package services

import (
	"testing"

	"github.com/google/uuid"
)

func TestLockOrder(t *testing.T) {
	a := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	b := uuid.MustParse("22222222-2222-2222-2222-222222222222")

	tests := []struct {
		name string
		from *uuid.UUID
		to   *uuid.UUID
		want []uuid.UUID
	}{
		{"both nil", nil, nil, nil},
		{"only from", &a, nil, []uuid.UUID{a}},
		{"only to", nil, &b, []uuid.UUID{b}},
		{"same account", &a, &a, []uuid.UUID{a}},
		{"already ordered", &a, &b, []uuid.UUID{a, b}},
		{"reversed", &b, &a, []uuid.UUID{a, b}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := lockOrder(tt.from, tt.to)
			if len(got) != len(tt.want) {
				t.Fatalf("lockOrder returned %d ids, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("lockOrder[%d] = %s, want %s", i, got[i], tt.want[i])
				}
			}
		})
	}
}
