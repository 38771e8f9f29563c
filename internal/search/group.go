package search

// Group holds the results of one chapter.
type Group struct {
	ChapterID    string   `json:"chapter_id"`
	ChapterTitle string   `json:"chapter_title"`
	Items        []Result `json:"items"`
	// More counts items cut by Preview.
	More int `json:"more,omitempty"`
}

// GroupByChapter buckets results by chapter. Groups appear in the order their
// chapter is first seen and items keep their relative order.
func GroupByChapter(results []Result) []Group {
	var groups []Group
	index := make(map[string]int)
	for _, r := range results {
		i, ok := index[r.ChapterID]
		if !ok {
			i = len(groups)
			index[r.ChapterID] = i
			groups = append(groups, Group{ChapterID: r.ChapterID, ChapterTitle: r.ChapterTitle})
		}
		groups[i].Items = append(groups[i].Items, r)
	}
	return groups
}

// Flatten concatenates group items back into a single sequence.
func Flatten(groups []Group) []Result {
	var n int
	for _, g := range groups {
		n += len(g.Items)
	}
	if n == 0 {
		return nil
	}
	out := make([]Result, 0, n)
	for _, g := range groups {
		out = append(out, g.Items...)
	}
	return out
}

// Preview returns a copy of g with at most n items; the rest are counted in
// More.
func (g Group) Preview(n int) Group {
	if n < 0 || len(g.Items) <= n {
		return g
	}
	g.More += len(g.Items) - n
	g.Items = g.Items[:n:n]
	return g
}

// Count returns the number of results across groups, including hidden ones.
func Count(groups []Group) int {
	var n int
	for _, g := range groups {
		n += len(g.Items) + g.More
	}
	return n
}
