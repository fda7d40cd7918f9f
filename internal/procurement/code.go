package procurement

import (
	"fmt"
	"math/rand"
	"regexp"
	"strconv"
	"strings"
	"time"

	"facility-asset-backend/internal/model"
)

var codeRe = regexp.MustCompile(`^(FA|TE)(\d{2})([0-9A-Z]{6})$`)

// codePrefix maps a procurement category to its two-letter code prefix.
func codePrefix(c model.Category) string {
	if c == model.CategoryFixedAssets {
		return "FA"
	}
	return "TE"
}

// GenerateCode builds a device code from the category prefix, the last two
// digits of the budget year and a short time-derived suffix. The suffix is
// unique with overwhelming probability, not guaranteed collision-free; the
// provisioner verifies against the device store and regenerates on a hit.
func GenerateCode(category model.Category, budgetYear int, now time.Time) string {
	stamp := strings.ToUpper(strconv.FormatInt(now.UnixMilli(), 36))
	entropy := strings.ToUpper(strconv.FormatInt(rand.Int63n(36*36), 36))
	raw := stamp + entropy
	if len(raw) > 6 {
		raw = raw[len(raw)-6:]
	}
	for len(raw) < 6 {
		raw = "0" + raw
	}
	return fmt.Sprintf("%s%02d%s", codePrefix(category), budgetYear%100, raw)
}

// ParsedCode holds the structured data parsed from a device code.
type ParsedCode struct {
	Category model.Category
	YearTwo  int
}

// ParseCode extracts the category and two-digit year from a device code.
func ParseCode(code string) (ParsedCode, error) {
	m := codeRe.FindStringSubmatch(strings.TrimSpace(code))
	if m == nil {
		return ParsedCode{}, fmt.Errorf("unable to parse device code: %q", code)
	}
	year, err := strconv.Atoi(m[2])
	if err != nil {
		return ParsedCode{}, fmt.Errorf("unable to parse device code year: %q", code)
	}
	category := model.CategoryToolsEquipment
	if m[1] == "FA" {
		category = model.CategoryFixedAssets
	}
	return ParsedCode{Category: category, YearTwo: year}, nil
}
