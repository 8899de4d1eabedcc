package importer

import "strings"

// Canonical logical column names.
const (
	ColDate        = "date"
	ColAmount      = "amount"
	ColDescription = "description"
	ColMerchant    = "merchant"
	ColTxnType     = "txn_type"
	ColCategory    = "category"
)

// headerSynonyms maps lowercased source headers to canonical names.
var headerSynonyms = map[string]string{
	"merchant_name":        ColMerchant,
	"vendor":               ColMerchant,
	"payee":                ColMerchant,
	"memo":                 ColDescription,
	"details":              ColDescription,
	"notes":                ColDescription,
	"note":                 ColDescription,
	"narrative":            ColDescription,
	"narration":            ColDescription,
	"title":                ColDescription,
	"category_description": ColDescription,
	"category title":       ColDescription,
	"category_title":       ColDescription,
	"category name":        ColDescription,
	"category_name":        ColDescription,
	"amount_usd":           ColAmount,
	"value":                ColAmount,
	"transaction_date":     ColDate,
	"transaction type":     ColTxnType,
	"transaction_type":     ColTxnType,
	"type":                 ColTxnType,
	"dr_cr":                ColTxnType,
	"credit/debit":         ColTxnType,
}

// NormalizeHeader trims, strips a leading byte-order mark, lowercases, and
// maps known synonyms to their canonical name.
func NormalizeHeader(h string) string {
	base := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(h), "\ufeff"))
	base = strings.TrimSpace(base)
	if canon, ok := headerSynonyms[base]; ok {
		return canon
	}
	return base
}

// NormalizeHeaders applies NormalizeHeader to every column, keeping order.
// Repeated canonical names are kept; lookups resolve to the last one.
func NormalizeHeaders(headers []string) []string {
	out := make([]string, len(headers))
	for i, h := range headers {
		out[i] = NormalizeHeader(h)
	}
	return out
}
