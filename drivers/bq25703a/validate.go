package bq25703a

// ValidCellCount reports whether cells is a count the regulator's
// per-cell-count voltage table supports (0 disables charging; 1-4 are the
// series configurations this chip's table covers).
func ValidCellCount(cells int) bool {
	return cells >= 0 && cells <= 4
}
