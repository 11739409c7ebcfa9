package communities

import (
	"strings"
)

// Registry data is Spanish-first, so slug folding only needs the Latin
// accents that actually occur in species and breed names.
var accentFolding = strings.NewReplacer(
	"á", "a", "à", "a", "ä", "a", "â", "a",
	"é", "e", "è", "e", "ë", "e", "ê", "e",
	"í", "i", "ì", "i", "ï", "i", "î", "i",
	"ó", "o", "ò", "o", "ö", "o", "ô", "o",
	"ú", "u", "ù", "u", "ü", "u", "û", "u",
	"ñ", "n", "ç", "c",
)

// Slugify normalizes a display name into the unique community slug. Concurrent
// community creation relies on two names producing the same slug exactly when
// they refer to the same community.
func Slugify(value string) string {
	value = accentFolding.Replace(strings.ToLower(strings.TrimSpace(value)))

	var b strings.Builder
	lastHyphen := true
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// mixedBreedSentinels are breed values that mean "no breed" and must never
// spawn a breed community.
var mixedBreedSentinels = map[string]struct{}{
	"mestizo": {},
	"mestiza": {},
	"criollo": {},
	"criolla": {},
}

// IsMixedBreed reports whether the breed value is a mixed-breed sentinel.
func IsMixedBreed(breed string) bool {
	_, ok := mixedBreedSentinels[accentFolding.Replace(strings.ToLower(strings.TrimSpace(breed)))]
	return ok
}
