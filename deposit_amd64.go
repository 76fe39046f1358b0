package sptensor

import "golang.org/x/sys/cpu"

var hasBMI2 = cpu.X86.HasBMI2

// deposit scatters the low bits of x into the set bits of mask.
func deposit(x, mask uint64) uint64 {
	if hasBMI2 {
		return pdep(x, mask)
	}
	return depositGeneric(x, mask)
}
