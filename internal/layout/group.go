package layout

// Label is one chunk of consecutive input lines
type Label struct {
	Index int      `json:"index"`
	Lines []string `json:"lines"`
}

// GroupLines chunks lines into labels of n lines in input order.
// The last label holds the remainder. Nothing is dropped or reordered.
func GroupLines(lines []string, n int) []Label {
	if n < 1 || len(lines) == 0 {
		return nil
	}

	labels := make([]Label, 0, (len(lines)+n-1)/n)
	for start := 0; start < len(lines); start += n {
		end := min(start+n, len(lines))
		chunk := make([]string, end-start)
		copy(chunk, lines[start:end])
		labels = append(labels, Label{Index: len(labels), Lines: chunk})
	}
	return labels
}

// Paginate splits labels into consecutive pages of at most perPage labels
func Paginate(labels []Label, perPage int) [][]Label {
	if perPage < 1 || len(labels) == 0 {
		return nil
	}

	pages := make([][]Label, 0, (len(labels)+perPage-1)/perPage)
	for start := 0; start < len(labels); start += perPage {
		pages = append(pages, labels[start:min(start+perPage, len(labels))])
	}
	return pages
}
