package shuffle

// FisherYates shuffles slices with a single generator. Successive calls keep
// drawing from the same stream, so one instance must be reused for every
// round of a block.
type FisherYates struct {
	rng *Xoshiro256Plus
}

// NewFisherYates seeds a shuffler.
func NewFisherYates(seed [32]byte) *FisherYates {
	return &FisherYates{rng: NewXoshiro256Plus(seed)}
}

// Shuffle permutes items in place, walking from the last index down to 1 and
// swapping each with an index drawn from [0, i].
func Shuffle[T any](f *FisherYates, items []T) {
	for i := len(items) - 1; i > 0; i-- {
		j := f.rng.NextBounded(uint64(i) + 1)
		items[i], items[j] = items[j], items[i]
	}
}
