package feeder

// Partition splits symbols into consecutive batches of at most size symbols.
// Every symbol lands in exactly one batch, in input order.
func Partition(symbols []string, size int) [][]string {
	if size < 1 {
		size = 1
	}

	batches := make([][]string, 0, (len(symbols)+size-1)/size)
	for start := 0; start < len(symbols); start += size {
		end := min(start+size, len(symbols))
		batch := make([]string, end-start)
		copy(batch, symbols[start:end])
		batches = append(batches, batch)
	}
	return batches
}
