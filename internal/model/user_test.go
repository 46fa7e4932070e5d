package model

import "testing"

func TestSplitDisplayName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		input     string
		wantFirst string
		wantLast  string
	}{
		{"first and last", "Ada Lovelace", "Ada", "Lovelace"},
		{"single word", "Plato", "Plato", ""},
		{"three words keeps second", "Ada King Lovelace", "Ada", "King"},
		{"double space", "Ada  Lovelace", "Ada", ""},
		{"empty", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			first, last := SplitDisplayName(tt.input)
			if first != tt.wantFirst || last != tt.wantLast {
				t.Errorf("SplitDisplayName(%q) = (%q, %q), want (%q, %q)",
					tt.input, first, last, tt.wantFirst, tt.wantLast)
			}
		})
	}
}

func TestDisplayNameFor(t *testing.T) {
	t.Parallel()

	if got := DisplayNameFor("Grace", "Hopper"); got != "Grace Hopper" {
		t.Errorf("DisplayNameFor = %q, want %q", got, "Grace Hopper")
	}
}

func TestPrincipal_AvatarInitial(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		p    *Principal
		want string
	}{
		{"nil principal", nil, ""},
		{"empty name", &Principal{}, ""},
		{"lowercase name", &Principal{DisplayName: "grace hopper"}, "G"},
		{"non-ascii name", &Principal{DisplayName: "émile"}, "É"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := tt.p.AvatarInitial(); got != tt.want {
				t.Errorf("AvatarInitial() = %q, want %q", got, tt.want)
			}
		})
	}
}
