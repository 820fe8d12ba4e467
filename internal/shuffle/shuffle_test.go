package shuffle

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func sequentialSeed() [32]byte {
	var seed [32]byte
	for i := range seed {
		seed[i] = byte(i + 1)
	}
	return seed
}

func TestXoshiro256Plus_Vectors(t *testing.T) {
	x := NewXoshiro256Plus(sequentialSeed())
	require.Equal(t, uint64(0x28262422201e1c1a), x.Next())
	require.Equal(t, uint64(0x3a191c1716151413), x.Next())
	require.Equal(t, uint64(0x5d0d6e4dad0dedcd), x.Next())
}

func TestXoshiro256Plus_NextU32UsesHighBits(t *testing.T) {
	x := NewXoshiro256Plus(sequentialSeed())
	require.Equal(t, uint32(0x28262422), x.NextU32())
	require.Equal(t, uint32(0x3a191c17), x.NextU32())
	require.Equal(t, uint32(0x5d0d6e4d), x.NextU32())
	require.Equal(t, uint32(0x6c86d127), x.NextU32())
}

func TestXoshiro256Plus_NextU64ComposesHalves(t *testing.T) {
	x := NewXoshiro256Plus(sequentialSeed())
	require.Equal(t, uint64(0x282624223a191c17), x.NextU64())
	require.Equal(t, uint64(0x5d0d6e4d6c86d127), x.NextU64())
}

func TestXoshiro256Plus_ZeroSeed(t *testing.T) {
	x := NewXoshiro256Plus([32]byte{})
	for i := 0; i < 4; i++ {
		require.Zero(t, x.NextU64())
	}
}

func TestShuffle_KnownPermutation(t *testing.T) {
	items := []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	Shuffle(NewFisherYates(sequentialSeed()), items)
	require.Equal(t, []int{4, 8, 1, 3, 2, 5, 6, 9, 0, 7}, items)
}

func TestShuffle_ZeroSeedThreeSigners(t *testing.T) {
	first := []string{"A", "B", "C"}
	Shuffle(NewFisherYates([32]byte{}), first)
	require.Equal(t, []string{"B", "C", "A"}, first)
	require.ElementsMatch(t, []string{"A", "B", "C"}, first)

	second := []string{"A", "B", "C"}
	Shuffle(NewFisherYates([32]byte{}), second)
	require.Equal(t, first, second)
}

func TestShuffle_StreamContinuesAcrossCalls(t *testing.T) {
	f := NewFisherYates(sequentialSeed())

	round1 := []string{"A", "B", "C"}
	Shuffle(f, round1)
	require.Equal(t, []string{"C", "B", "A"}, round1)

	round2 := []string{"D", "E"}
	Shuffle(f, round2)
	require.Equal(t, []string{"D", "E"}, round2)
}

func TestShuffle_Trivial(t *testing.T) {
	f := NewFisherYates(sequentialSeed())

	var empty []int
	Shuffle(f, empty)
	require.Empty(t, empty)

	one := []int{42}
	Shuffle(f, one)
	require.Equal(t, []int{42}, one)
}

func TestShuffle_Deterministic(t *testing.T) {
	seed := sequentialSeed()
	seed[0] = 0xff
	for run := 0; run < 5; run++ {
		a := []int{1, 2, 3, 4, 5, 6, 7}
		b := []int{1, 2, 3, 4, 5, 6, 7}
		Shuffle(NewFisherYates(seed), a)
		Shuffle(NewFisherYates(seed), b)
		require.Equal(t, a, b)
		require.ElementsMatch(t, []int{1, 2, 3, 4, 5, 6, 7}, a)
	}
}
