package catalog

// windowRadius is how many page buttons are shown on each side of the current one
const windowRadius = 2

// PageWindow is the set of pagination controls to render
type PageWindow struct {
	Pages    []int `json:"pages"`
	Current  int   `json:"current"`
	Total    int   `json:"total"`
	Ellipsis bool  `json:"ellipsis"`
	ShowLast bool  `json:"showLast"`
	Last     int   `json:"last"`
	HasPrev  bool  `json:"hasPrev"`
	HasNext  bool  `json:"hasNext"`
	// Visible is false when everything fits on one page
	Visible bool `json:"visible"`
}

// Window computes the controls for current out of total pages. Candidates
// run from current-2 to current+2 and are dropped when outside [1, total].
func Window(current, total int) PageWindow {
	w := PageWindow{
		Pages:   []int{},
		Current: current,
		Total:   total,
		Last:    total,
		HasPrev: current > 1,
		HasNext: current < total,
		Visible: total > 1,
	}

	for page := current - windowRadius; page <= current+windowRadius; page++ {
		if page >= 1 && page <= total {
			w.Pages = append(w.Pages, page)
		}
	}

	if total > 5 {
		w.Ellipsis = current < total-2
		w.ShowLast = current < total-1
	}
	return w
}
