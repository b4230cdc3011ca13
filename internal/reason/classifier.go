package reason

import "regexp"

// codeCategories is the exact-lookup table from canonical code to category.
// Every code emitted anywhere in the pipeline must appear here; the regex
// classifier below exists only as a compatibility shim for legacy free-text
// reasons from older exports.
var codeCategories = map[string]Category{
	CodeLowLiquidity:      CategoryLowLiquidity,
	CodeMissingMid:        CategoryMissingMid,
	CodeMissingLegData:    CategoryMissingMid,
	CodeMissingStrikes:    CategoryMissingStrikes,
	CodeWideSpread:        CategoryWideSpread,
	CodeOneSidedQuote:     CategoryWideSpread,
	CodeNegativeCredit:    CategoryRulesFilter,
	CodeNoMargin:          CategoryRulesFilter,
	CodeNegativeScore:     CategoryRulesFilter,
	CodeNegativeEV:        CategoryRulesFilter,
	CodeRiskReward:        CategoryRulesFilter,
	CodeFallbackShortLeg:  CategoryRulesFilter,
	CodeFallbackQuota:     CategoryRulesFilter,
	CodeCalendarModelLong: CategoryRulesFilter,
	CodeCloseFallback:     CategoryMissingMid,
	CodeUnknownStrategy:   CategoryRulesFilter,
}

// Legacy messages were free-form sentences (some Dutch) later reclassified
// by pattern. The patterns are ordered; first match wins.
var legacyPatterns = []struct {
	re       *regexp.Regexp
	category Category
}{
	{regexp.MustCompile(`(?i)liquidit|volume|open.?interest`), CategoryLowLiquidity},
	{regexp.MustCompile(`(?i)spread|one.?sided|wide`), CategoryWideSpread},
	{regexp.MustCompile(`(?i)geen strikes|no strikes|strike.*(missing|not found)`), CategoryMissingStrikes},
	{regexp.MustCompile(`(?i)geen (mid|prijs)|no mid|mid.*(missing|unresolved)|unpriced`), CategoryMissingMid},
	{regexp.MustCompile(`(?i)credit|margin|score|\bev\b|risk.?reward|fallback|quota|ratio`), CategoryRulesFilter},
}

// CategoryForCode resolves a canonical code to its category
func CategoryForCode(code string) (Category, bool) {
	category, ok := codeCategories[code]
	return category, ok
}

// Classify maps a reason to its category: exact code lookup first, then the
// legacy free-text patterns, then Other. Guarantees every historical message
// still lands in a sensible bucket.
func Classify(code, message string) Category {
	if category, ok := codeCategories[code]; ok {
		return category
	}
	for _, p := range legacyPatterns {
		if p.re.MatchString(message) || p.re.MatchString(code) {
			return p.category
		}
	}
	return CategoryOther
}

// ClassifyLegacy normalizes one legacy free-text reason into a Detail
func ClassifyLegacy(message string) Detail {
	return Detail{
		Category: Classify("", message),
		Code:     "legacy",
		Message:  message,
	}
}
