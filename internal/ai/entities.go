// internal/ai/entities.go
package ai

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/logisa/automation-service/internal/models"
)

// Entities is the partial record a single message yields. A nil field
// means "not yet known", never "known to be empty"; no field is ever set
// to an empty string. Built fresh per message — accumulation across turns
// is the caller's job via Merge.
type Entities struct {
	Origin       *string
	Destination  *string
	Weight       *float64
	PackageType  *models.PackageType
	CustomerName *string
}

// Merge overlays fresh on top of known: any field the new message filled
// wins, fields it left empty keep the previously known value.
func Merge(known, fresh Entities) Entities {
	out := known
	if fresh.Origin != nil {
		out.Origin = fresh.Origin
	}
	if fresh.Destination != nil {
		out.Destination = fresh.Destination
	}
	if fresh.Weight != nil {
		out.Weight = fresh.Weight
	}
	if fresh.PackageType != nil {
		out.PackageType = fresh.PackageType
	}
	if fresh.CustomerName != nil {
		out.CustomerName = fresh.CustomerName
	}
	return out
}

// Extraction patterns. Clause boundaries are comma, period, line break and
// sentence-ending punctuation in either language. Prepositional captures
// also stop before the opposite preposition so "from Riyadh to Jeddah"
// splits into two fields instead of one long tail.
var (
	// First numeric token, integer or decimal with either separator,
	// optionally followed by a weight-unit word.
	weightRe = regexp.MustCompile(`(?i)([0-9]+(?:[.,][0-9]+)?)\s*(kg|kgs|kilo|kilos|kilogram|kilograms|كجم|كغ|كيلو)?`)

	originRe = regexp.MustCompile(`(?i)(?:^|\s)(?:from|من)\s+([^,.!?\n؟،؛]+?)\s*(?:[,.!?\n؟،؛]|\s+(?:to|إلى|الى)(?:\s|$)|$)`)

	destinationRe = regexp.MustCompile(`(?i)(?:^|\s)(?:to|إلى|الى)\s+([^,.!?\n؟،؛]+?)\s*(?:[,.!?\n؟،؛]|\s+(?:from|من)(?:\s|$)|$)`)

	customerNameRe = regexp.MustCompile(`(?i)(?:^|\s)(?:my name is|اسمي)\s+([^,.!?\n؟،؛]+?)\s*(?:[,.!?\n؟،؛]|$)`)

	arabicDigits = strings.NewReplacer(
		"٠", "0", "١", "1", "٢", "2", "٣", "3", "٤", "4",
		"٥", "5", "٦", "6", "٧", "7", "٨", "8", "٩", "9",
		"۰", "0", "۱", "1", "۲", "2", "۳", "3", "۴", "4",
		"۵", "5", "۶", "6", "۷", "7", "۸", "8", "۹", "9",
	)
)

// packageCategory maps category keywords to one package type. First
// matching category wins; absence leaves the field unset.
type packageCategory struct {
	pkg      models.PackageType
	keywords []string
}

var packageCategories = []packageCategory{
	{models.PackageGift, []string{"gift", "هدية", "هديه"}},
	{models.PackageDocuments, []string{"document", "papers", "مستند", "وثائق", "اوراق", "أوراق"}},
	{models.PackageParcel, []string{"parcel", "package", "box", "طرد", "صندوق"}},
}

// Extractor maps raw message text to a bag of typed candidate fields.
// Stateless; extraction never fails — worst case is an empty result.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract applies every rule independently; a message may populate
// multiple fields. Arabic-Indic digits are normalized first so "٢ كيلو"
// parses the same as "2 kg".
func (e *Extractor) Extract(message string) Entities {
	var out Entities
	text := arabicDigits.Replace(message)

	if m := weightRe.FindStringSubmatch(text); m != nil {
		raw := strings.ReplaceAll(m[1], ",", ".")
		if w, err := strconv.ParseFloat(raw, 64); err == nil {
			out.Weight = &w
		}
	}

	// First "from" capture is the origin.
	if m := originRe.FindStringSubmatch(text); m != nil {
		if v := strings.TrimSpace(m[1]); v != "" {
			out.Origin = &v
		}
	}

	// Last "to" capture is the destination: in phrasings like
	// "I want to ship ... to Jeddah" the final one is the place.
	if ms := destinationRe.FindAllStringSubmatch(text, -1); len(ms) > 0 {
		if v := strings.TrimSpace(ms[len(ms)-1][1]); v != "" {
			out.Destination = &v
		}
	}

	lower := strings.ToLower(text)
	for _, cat := range packageCategories {
		for _, kw := range cat.keywords {
			if strings.Contains(lower, kw) {
				p := cat.pkg
				out.PackageType = &p
				break
			}
		}
		if out.PackageType != nil {
			break
		}
	}

	if m := customerNameRe.FindStringSubmatch(text); m != nil {
		if v := strings.TrimSpace(m[1]); v != "" {
			out.CustomerName = &v
		}
	}

	return out
}
