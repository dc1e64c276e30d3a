package pipeline

import "github.com/matjmiles/healthcare-job-organizer/internal/posting"

// Dedupe collapses records sharing a dedup key. The last record for a key
// wins and output keeps the order in which keys were first seen, so running
// it twice changes nothing. removed is len(records) - len(out).
func Dedupe(records []posting.Normalized) (out []posting.Normalized, removed int) {
	index := make(map[string]int, len(records))
	out = make([]posting.Normalized, 0, len(records))

	for _, rec := range records {
		key := rec.DedupKey
		if key == "" {
			key = posting.DedupKey(rec.SourceFile, rec.Company, rec.JobTitle, rec.Location)
		}
		if i, ok := index[key]; ok {
			out[i] = rec
			continue
		}
		index[key] = len(out)
		out = append(out, rec)
	}
	return out, len(records) - len(out)
}
