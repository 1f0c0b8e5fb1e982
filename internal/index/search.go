package index

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
)

// Search scans retained file contents for query and returns up to k hits
// ranked by term frequency. A non-positive k yields no hits. Matching uses
// Unicode case folding on both sides; a file only matches when its folded
// content contains the whole folded query. Files indexed without content
// never match. Ordering is deterministic: stable sort by descending score,
// ties keep file order.
func (ix *Index) Search(query string, k int) []SearchHit {
	if k <= 0 {
		return nil
	}
	fold := cases.Fold()
	q := fold.String(query)
	terms := strings.Fields(q)

	var hits []SearchHit
	for _, f := range ix.Files {
		if f.Content == "" {
			continue
		}
		folded := fold.String(f.Content)
		if !strings.Contains(folded, q) {
			continue
		}
		occurrences := 0
		for _, t := range terms {
			occurrences += strings.Count(folded, t)
		}
		hits = append(hits, SearchHit{
			Path:    f.Path,
			Score:   float64(occurrences) / float64(len(terms)+1),
			Excerpt: excerpt(f.Content, folded, q),
		})
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if k < len(hits) {
		hits = hits[:k]
	}
	return hits
}

// excerpt renders a short context window around the first occurrence of the
// folded query. The window is located in the folded content but sliced from
// the original text, so offsets are clamped to the original's bounds. When
// the query cannot be located the first 100 bytes serve as the excerpt.
func excerpt(original, folded, q string) string {
	pos := strings.Index(folded, q)
	if pos < 0 {
		head := original
		if len(head) > 100 {
			head = head[:100]
		}
		return head + "..."
	}
	start := max(pos-50, 0)
	end := min(pos+len(q)+50, len(original))
	if start > end {
		start = end
	}
	return "..." + original[start:end] + "..."
}
