package communities

import "testing"

func TestSlugify(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Perro", "perro"},
		{"  Pastor Alemán  ", "pastor-aleman"},
		{"Xoloitzcuintle", "xoloitzcuintle"},
		{"Cocker Spaniel Inglés", "cocker-spaniel-ingles"},
		{"NIÑO/ÑA", "nino-na"},
		{"gatos!!de--la  roma", "gatos-de-la-roma"},
		{"", ""},
		{"---", ""},
	}
	for _, tc := range cases {
		if got := Slugify(tc.in); got != tc.want {
			t.Fatalf("Slugify(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSlugifyCollapsesEquivalentNames(t *testing.T) {
	// concurrent get-or-create depends on equivalent names colliding
	if Slugify("Pastor Alemán") != Slugify("pastor aleman") {
		t.Fatal("expected accent and case variants to share a slug")
	}
}

func TestIsMixedBreed(t *testing.T) {
	for _, breed := range []string{"mestizo", "Mestiza", "  CRIOLLO  ", "criolla"} {
		if !IsMixedBreed(breed) {
			t.Fatalf("expected %q to be mixed breed", breed)
		}
	}
	for _, breed := range []string{"labrador", "mestizo labrador", ""} {
		if IsMixedBreed(breed) {
			t.Fatalf("did not expect %q to be mixed breed", breed)
		}
	}
}
