package main

import (
	. "github.com/mmcloughlin/avo/build"
)

//go:generate go run asm.go -out ../pdep_amd64.s -stubs ../pdep_stub_amd64.go -pkg sptensor

func main() {
	// Callers must check for BMI2 first. See deposit_amd64.go.
	TEXT("pdep", NOSPLIT, "func(x, mask uint64) uint64")
	Doc("pdep deposits the low bits of x into the set bit positions of mask, lowest first.")
	Comment("Get our input parameters")
	x := Load(Param("x"), GP64())
	mask := Load(Param("mask"), GP64())

	Comment("Scatter the bits of x into the positions selected by mask")
	PDEPQ(mask, x, x)

	Store(x, ReturnIndex(0))
	RET()
	Generate()
}
