package idgen

import (
	"strings"
	"testing"
)

func TestGenerateSecureID(t *testing.T) {
	tests := []struct {
		name    string
		prefix  string
		length  int
		wantErr bool
	}{
		{name: "conversation id", prefix: "conv", length: 16},
		{name: "message id", prefix: "msg", length: 16},
		{name: "agent id", prefix: "agent", length: 16},
		{name: "delivery id", prefix: "dlv", length: 16},
		{name: "empty prefix", prefix: "", length: 16, wantErr: true},
		{name: "zero length", prefix: "conv", length: 0, wantErr: true},
		{name: "negative length", prefix: "conv", length: -1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := GenerateSecureID(tt.prefix, tt.length)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got id %q", id)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !strings.HasPrefix(id, tt.prefix+"_") {
				t.Errorf("id %q missing prefix %q", id, tt.prefix)
			}
			if got := len(id); got != len(tt.prefix)+1+tt.length {
				t.Errorf("id %q has length %d, want %d", id, got, len(tt.prefix)+1+tt.length)
			}
			for _, c := range id[len(tt.prefix)+1:] {
				if !strings.ContainsRune(idAlphabet, c) {
					t.Errorf("id %q contains %q outside the alphabet", id, c)
				}
			}
		})
	}
}

func TestGenerateSecureIDUniqueness(t *testing.T) {
	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		id, err := GenerateSecureID("conv", 16)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id generated: %q", id)
		}
		seen[id] = struct{}{}
	}
}
