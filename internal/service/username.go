package service

import (
	"strings"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const maxUsernameBase = 40

// NormalizeUsername folds a display name to [a-z0-9_]: diacritics are
// stripped, whitespace dropped, anything else removed.
func NormalizeUsername(name string) string {
	// transform chains hold buffers, so each call builds its own.
	stripMarks := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(stripMarks, name)
	if err != nil {
		folded = name
	}
	folded = strings.ToLower(folded)

	var b strings.Builder
	for _, r := range folded {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "user" + randomSuffix()
	}
	return b.String()
}

func randomSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
}

func usernameCandidates(name, sub string, extra int) []string {
	base := "gg_" + sub
	if strings.TrimSpace(name) != "" {
		base = NormalizeUsername(name)
	}
	if len(base) > maxUsernameBase {
		base = base[:maxUsernameBase]
	}

	idSuffix := randomSuffix()
	if len(sub) > 6 {
		idSuffix = sub[len(sub)-6:]
	}

	out := []string{base, base + "_" + idSuffix}
	for i := 0; i < extra; i++ {
		out = append(out, base+"_"+randomSuffix())
	}
	return out
}
