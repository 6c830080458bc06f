package pitfall

import "math/rand/v2"

const (
	DefaultSequenceSize = 10000
	DefaultSequenceMax  = 1000
)

// GenerateSequence returns n pseudo-random integers in [0, max).
func GenerateSequence(rng *rand.Rand, n, max int) []int {
	nums := make([]int, n)
	for i := range nums {
		nums[i] = rng.IntN(max)
	}
	return nums
}

// FindDuplicates returns the values that occur more than once in nums, in
// the order their second occurrence is seen. It runs in O(n) time using a
// "seen" set and a "duplicates" set.
func FindDuplicates(nums []int) []int {
	seen := make(map[int]struct{}, len(nums))
	dups := make(map[int]struct{})
	out := []int{}

	for _, n := range nums {
		if _, ok := seen[n]; !ok {
			seen[n] = struct{}{}
			continue
		}
		if _, ok := dups[n]; !ok {
			dups[n] = struct{}{}
			out = append(out, n)
		}
	}

	return out
}
