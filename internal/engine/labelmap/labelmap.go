// Package labelmap maps raw classifier labels to broad disease categories.
package labelmap

import "sort"

// Unknown is substituted for any label outside the table.
const Unknown = "Unknown Condition"

// Entry is one row of the mapping table.
type Entry struct {
	Label       string `json:"label"`
	Description string `json:"description"`
}

// broad is the fixed disease-category table. It is never mutated after init.
var broad = map[string]string{
	"LABEL_0": "No significant condition",
	"LABEL_1": "Cardiovascular Diseases (e.g., hypertension, heart disease)",
	"LABEL_2": "Metabolic and Endocrine Disorders (e.g., diabetes, thyroid issues)",
	"LABEL_3": "Respiratory Diseases (e.g., asthma, COPD)",
	"LABEL_4": "Neurological Conditions (e.g., stroke, epilepsy)",
	"LABEL_5": "Infectious Diseases (e.g., influenza, COVID-19)",
	"LABEL_6": "Oncological Conditions (e.g., cancers)",
	"LABEL_7": "Gastrointestinal Disorders (e.g., IBS, Crohn’s disease)",
	"LABEL_8": "Musculoskeletal Disorders (e.g., arthritis, osteoporosis)",
	"LABEL_9": "Immunological/Autoimmune Disorders (e.g., lupus, rheumatoid arthritis)",
}

// Lookup returns the description for label, or Unknown.
func Lookup(label string) string {
	if d, ok := broad[label]; ok {
		return d
	}
	return Unknown
}

// Known reports whether label is in the table.
func Known(label string) bool {
	_, ok := broad[label]
	return ok
}

// Entries returns a copy of the table ordered by label.
func Entries() []Entry {
	out := make([]Entry, 0, len(broad))
	for l, d := range broad {
		out = append(out, Entry{Label: l, Description: d})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out
}
