//go:build !amd64
// +build !amd64

package sptensor

// deposit scatters the low bits of x into the set bits of mask.
func deposit(x, mask uint64) uint64 {
	return depositGeneric(x, mask)
}
