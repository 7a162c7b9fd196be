package title

import "testing"

func TestCleanTitle(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"The Matrix", "matrix"},
		{"A Beautiful Mind", "beautiful mind"},
		{"An American Werewolf", "american werewolf"},
		{"Fast & Furious", "fast and furious"},
		{"Léon: The Professional", "leon professional"},
		{"Spider-Man: No Way Home", "spider man no way home"},
		{"Rocky II", "rocky 2"},
		{"  Extra   Spaces  ", "extra spaces"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := CleanTitle(tt.input)
			if got != tt.want {
				t.Errorf("CleanTitle(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestTokenSort(t *testing.T) {
	if TokenSort("Matrix Reloaded") != TokenSort("Reloaded: The Matrix") {
		t.Errorf("token order should not matter: %q vs %q", TokenSort("Matrix Reloaded"), TokenSort("Reloaded: The Matrix"))
	}
}

func TestIsBareYear(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"1925", true},
		{"(1925)", true},
		{" 1925 ", true},
		{"1925 Movie", false},
		{"192", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := IsBareYear(tt.input); got != tt.want {
				t.Errorf("IsBareYear(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestTransliterate(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Amélie", "Amelie"},
		{"Straße", "Strasse"},
		{"Ærø", "AEro"},
		{"Pokémon – The Movie", "Pokemon - The Movie"},
		{"日本 Movie", " Movie"},
		{"plain", "plain"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Transliterate(tt.input); got != tt.want {
				t.Errorf("Transliterate(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
