package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"

	"realty_backoffice/models"
)

var (
	streetAbbreviations = map[string]string{
		"street":    "st",
		"avenue":    "ave",
		"drive":     "dr",
		"road":      "rd",
		"boulevard": "blvd",
		"lane":      "ln",
		"court":     "ct",
		"place":     "pl",
		"circle":    "cir",
		"trail":     "trl",
		"terrace":   "ter",
		"highway":   "hwy",
		"parkway":   "pkwy",
		"point":     "pt",
		"square":    "sq",
		"north":     "n",
		"south":     "s",
		"east":      "e",
		"west":      "w",
		"northeast": "ne",
		"northwest": "nw",
		"southeast": "se",
		"southwest": "sw",
		"apartment": "apt",
		"suite":     "ste",
		"number":    "",
		"floor":     "fl",
		"building":  "bldg",
	}
	nonAlnumRegex = regexp.MustCompile(`[^a-z0-9\s]`)
)

// NormalizeAddress lowercases addr, drops punctuation and abbreviates street words so that
// "123 Main Street" and "123 main st." compare equal.
func NormalizeAddress(addr string) string {
	addr = strings.ToLower(strings.TrimSpace(addr))
	addr = nonAlnumRegex.ReplaceAllString(addr, " ")

	words := strings.Fields(addr)
	out := words[:0]
	for _, w := range words {
		if abbrev, ok := streetAbbreviations[w]; ok {
			if abbrev == "" {
				continue
			}
			w = abbrev
		}
		out = append(out, w)
	}
	return strings.Join(out, " ")
}

// Fingerprint identifies a property by its location, independent of formatting.
// Returns "" when there is no street address to identify.
func Fingerprint(street, city, state, zip string) string {
	normalized := NormalizeAddress(street)
	if normalized == "" {
		return ""
	}
	if len(zip) > 5 {
		zip = zip[:5]
	}

	input := strings.Join([]string{
		normalized,
		NormalizeAddress(city),
		strings.ToLower(strings.TrimSpace(state)),
		strings.TrimSpace(zip),
	}, "|")
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:16])
}

// ListingFingerprint fingerprints a stored listing.
func ListingFingerprint(l *models.Listing) string {
	return Fingerprint(l.Address, l.City, l.State, l.ZipCode)
}

// ScrapedFingerprint fingerprints a scraped record.
func ScrapedFingerprint(s *models.ScrapedListing) string {
	return Fingerprint(s.Address.Value, s.City.Value, s.State.Value, s.ZipCode.Value)
}
