package project

// rowRanges splits [0, height) into at most n contiguous row ranges for
// parallel dispatch across a projector's worker pool.
func rowRanges(height, n int) [][2]int {
	if n < 1 {
		n = 1
	}
	if n > height {
		n = height
	}
	if n == 0 {
		return nil
	}
	chunk := (height + n - 1) / n
	var ranges [][2]int
	for start := 0; start < height; start += chunk {
		end := start + chunk
		if end > height {
			end = height
		}
		ranges = append(ranges, [2]int{start, end})
	}
	return ranges
}

// runTask invokes fn via executor if one is configured, or inline
// otherwise. Matching the teacher's Executor hook: nil means synchronous.
func runTask(executor func(func()), fn func()) {
	if executor == nil {
		fn()
		return
	}
	executor(fn)
}
