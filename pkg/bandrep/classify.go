package bandrep

// Classify decides whether a band representation is elementary with
// respect to a basis of band representations, conventionally those
// induced from the group's maximal Wyckoff positions. A band
// representation is composite when its content at every k-vector equals a
// non-negative integer combination of at least two basis entries (the
// candidate itself excluded); otherwise it is elementary.
//
// Cached results are shared between callers, so the candidate is not
// mutated; callers record the flag on their own copies.
func (c *Client) Classify(candidate *BandRepresentation, basis []*BandRepresentation) bool {
	others := make([]*BandRepresentation, 0, len(basis))
	for _, b := range basis {
		if b == candidate || sameBandRep(b, candidate) {
			continue
		}
		others = append(others, b)
	}

	// Content vectors are aligned over the union of (k, irrep) slots so
	// a basis entry occupying a slot the candidate leaves empty simply
	// never fits.
	slots := make(map[string]int)
	index := func(br *BandRepresentation) {
		for _, content := range br.Contents {
			for _, term := range content.Terms {
				key := content.K.Label + "\x00" + term.Label
				if _, ok := slots[key]; !ok {
					slots[key] = len(slots)
				}
			}
		}
	}
	index(candidate)
	for _, b := range others {
		index(b)
	}

	target := contentVector(candidate, slots)
	vectors := make([][]int, 0, len(others))
	for _, b := range others {
		vectors = append(vectors, contentVector(b, slots))
	}
	return !decomposable(target, vectors, 0, 0)
}

func sameBandRep(a, b *BandRepresentation) bool {
	return a.Wyckoff == b.Wyckoff && a.SiteIrRep == b.SiteIrRep
}

// contentVector flattens a band representation into multiplicities over
// the given (k-label, irrep-label) slot index.
func contentVector(br *BandRepresentation, slots map[string]int) []int {
	v := make([]int, len(slots))
	for _, content := range br.Contents {
		for _, term := range content.Terms {
			v[slots[content.K.Label+"\x00"+term.Label]] += term.Count
		}
	}
	return v
}

// decomposable reports whether target is a sum of basis vectors, each
// usable any number of times, with at least two summands in total. The
// search space is tiny: band-representation dimensions are small
// integers, so the depth-first subtraction terminates quickly.
func decomposable(target []int, basis [][]int, start, pieces int) bool {
	zero := true
	for _, t := range target {
		if t < 0 {
			return false
		}
		if t != 0 {
			zero = false
		}
	}
	if zero {
		return pieces >= 2
	}
	for i := start; i < len(basis); i++ {
		b := basis[i]
		fits := true
		nonzero := false
		for j, c := range b {
			if c > target[j] {
				fits = false
				break
			}
			if c != 0 {
				nonzero = true
			}
		}
		if !fits || !nonzero {
			continue
		}
		rest := make([]int, len(target))
		for j := range target {
			rest[j] = target[j] - b[j]
		}
		if decomposable(rest, basis, i, pieces+1) {
			return true
		}
	}
	return false
}
