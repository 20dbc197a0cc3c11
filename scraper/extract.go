package scraper

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"realty_backoffice/models"
)

var (
	numberRegex   = regexp.MustCompile(`\d[\d,]*(\.\d+)?`)
	nonDigitRegex = regexp.MustCompile(`\D`)
	mlsLabelRegex = regexp.MustCompile(`(?i)^\s*mls\s*(#|no\.?|number)?\s*:?\s*`)
)

// extractField returns the collapsed text of the first element matching selector.
func extractField(doc *goquery.Document, selector string) models.Field {
	if selector == "" {
		return models.Field{}
	}
	sel := doc.Find(selector)
	if sel.Length() == 0 {
		return models.Field{}
	}
	return models.Found(collapseSpace(sel.First().Text()))
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// firstNumber returns the first numeric token in s with thousands separators removed.
func firstNumber(s string) string {
	return strings.ReplaceAll(numberRegex.FindString(s), ",", "")
}

func digitsOnly(s string) string {
	return nonDigitRegex.ReplaceAllString(s, "")
}

func stripMLSLabel(s string) string {
	return strings.TrimSpace(mlsLabelRegex.ReplaceAllString(s, ""))
}

// ParseNumber reads the first number out of scraped text such as "$449,900" or "2.5 baths".
func ParseNumber(s string) (float64, bool) {
	num := firstNumber(s)
	if num == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// extractImages collects image URLs from the matched elements, resolving relative
// references against base and skipping placeholders and duplicates.
func extractImages(doc *goquery.Document, selector string, attrs []string, placeholder string, base *url.URL) ([]string, bool) {
	sel := doc.Find(selector)
	if selector == "" || sel.Length() == 0 {
		return nil, false
	}

	placeholder = strings.ToLower(placeholder)
	seen := map[string]bool{}
	var images []string

	sel.Each(func(i int, s *goquery.Selection) {
		for _, attr := range attrs {
			val, exists := s.Attr(attr)
			val = strings.TrimSpace(val)
			if !exists || val == "" || strings.HasPrefix(val, "data:") {
				continue
			}
			if placeholder != "" && strings.Contains(strings.ToLower(val), placeholder) {
				continue
			}

			resolved := resolveURL(base, val)
			if resolved == "" || seen[resolved] {
				return
			}
			seen[resolved] = true
			images = append(images, resolved)
			return
		}
	})

	return images, true
}

func resolveURL(base *url.URL, ref string) string {
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	if base != nil {
		u = base.ResolveReference(u)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return u.String()
}
