package treeboard

import "sort"

type rowLess func(a, b Row) bool

// MergeSortRows returns a stably sorted copy of rows
func MergeSortRows(rows []Row, column string, dir Direction) []Row {
	out := copyRows(rows)
	if len(out) < 2 {
		return out
	}
	less := byColumn(column, dir)
	buf := make([]Row, len(out))
	mergeSort(out, buf, less)
	return out
}

func mergeSort(rows, buf []Row, less rowLess) {
	if len(rows) < 2 {
		return
	}
	mid := len(rows) / 2
	mergeSort(rows[:mid], buf[:mid], less)
	mergeSort(rows[mid:], buf[mid:], less)

	i, j, k := 0, mid, 0
	for i < mid && j < len(rows) {
		// take from the right only when strictly smaller to stay stable
		if less(rows[j], rows[i]) {
			buf[k] = rows[j]
			j++
		} else {
			buf[k] = rows[i]
			i++
		}
		k++
	}
	k += copy(buf[k:], rows[i:mid])
	copy(buf[k:], rows[j:])
	copy(rows, buf[:len(rows)])
}

// HeapSortRows returns a sorted copy of rows. Not stable.
func HeapSortRows(rows []Row, column string, dir Direction) []Row {
	out := copyRows(rows)
	less := byColumn(column, dir)
	n := len(out)
	for i := n/2 - 1; i >= 0; i-- {
		siftDown(out, i, n, less)
	}
	for end := n - 1; end > 0; end-- {
		out[0], out[end] = out[end], out[0]
		siftDown(out, 0, end, less)
	}
	return out
}

func siftDown(rows []Row, root, n int, less rowLess) {
	for {
		child := 2*root + 1
		if child >= n {
			return
		}
		if child+1 < n && less(rows[child], rows[child+1]) {
			child++
		}
		if !less(rows[root], rows[child]) {
			return
		}
		rows[root], rows[child] = rows[child], rows[root]
		root = child
	}
}

// BuiltinSortRows returns a copy of rows sorted with sort.SliceStable
func BuiltinSortRows(rows []Row, column string, dir Direction) []Row {
	out := copyRows(rows)
	less := byColumn(column, dir)
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

func byColumn(column string, dir Direction) rowLess {
	return func(a, b Row) bool {
		return compareRows(a, b, column, dir) < 0
	}
}
