package scraper

import (
	"errors"
	"regexp"
	"strings"
)

var ErrUnparseableAddress = errors.New("unparseable address")

// Address is a combined listing address split into its parts.
type Address struct {
	Street  string
	City    string
	State   string
	ZipCode string
}

var (
	stateRegex = regexp.MustCompile(`^[A-Za-z]{2}$`)
	zipRegex   = regexp.MustCompile(`^\d{5}(-\d{4})?$`)
)

// ParseAddress splits "123 Main St, Colorado Springs CO 80920" style strings. The last
// comma segment must end with a two-letter state and a zip code; the city is whatever
// precedes them in that segment, or the previous segment when the last one holds only
// "ST ZIP".
func ParseAddress(raw string) (Address, error) {
	var segments []string
	for _, seg := range strings.Split(raw, ",") {
		if seg = strings.Join(strings.Fields(seg), " "); seg != "" {
			segments = append(segments, seg)
		}
	}
	if len(segments) < 2 {
		return Address{}, ErrUnparseableAddress
	}

	locality := strings.Fields(segments[len(segments)-1])
	n := len(locality)
	if n < 2 || !stateRegex.MatchString(locality[n-2]) || !zipRegex.MatchString(locality[n-1]) {
		return Address{}, ErrUnparseableAddress
	}

	addr := Address{
		State:   strings.ToUpper(locality[n-2]),
		ZipCode: locality[n-1],
	}

	streetEnd := len(segments) - 1
	if n > 2 {
		addr.City = strings.Join(locality[:n-2], " ")
	} else {
		// "Street, City, ST ZIP"
		if len(segments) < 3 {
			return Address{}, ErrUnparseableAddress
		}
		addr.City = segments[len(segments)-2]
		streetEnd--
	}
	addr.Street = strings.Join(segments[:streetEnd], ", ")

	return addr, nil
}
