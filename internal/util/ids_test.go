package util

import (
	"testing"

	"github.com/google/uuid"
)

func TestParseID(t *testing.T) {
	valid := uuid.New()

	tests := []struct {
		name    string
		input   string
		want    uuid.UUID
		wantErr bool
	}{
		{name: "valid", input: valid.String(), want: valid},
		{name: "surrounding whitespace", input: "  " + valid.String() + "\n", want: valid},
		{name: "empty", input: "", wantErr: true},
		{name: "garbage", input: "not-a-uuid", wantErr: true},
		{name: "nil uuid", input: uuid.Nil.String(), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseID("node_id", tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestIDStrings(t *testing.T) {
	a := uuid.New()
	got := IDStrings([]uuid.UUID{a})
	if len(got) != 1 || got[0] != a.String() {
		t.Fatalf("unexpected strings %v", got)
	}
}
