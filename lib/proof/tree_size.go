package proof

// levelSizes returns the node count of every layer of a layered tree with
// nLeaves leaves, leaves first. An odd node is carried into the next layer, so
// each layer holds ceil(prev/2) nodes.
func levelSizes(nLeaves int) []int {
	if nLeaves <= 0 {
		return nil
	}
	sizes := []int{nLeaves}
	for n := nLeaves; n > 1; {
		n = (n + 1) / 2
		sizes = append(sizes, n)
	}
	return sizes
}

// ProofLength returns the number of siblings in a layered proof for leafIndex.
// Layers where the node is carried contribute nothing.
func ProofLength(nLeaves, leafIndex int) int {
	n := 0
	index := leafIndex
	for _, size := range levelSizes(nLeaves) {
		if index^1 < size {
			n++
		}
		index /= 2
	}
	return n
}

// NodeLevel returns the number of layers of a layered tree with the given
// leaf count.
func NodeLevel(leaves int) int {
	return len(levelSizes(leaves))
}
