// Package blend implements the per-pixel compositing algebra.
//
// Storage is never premultiplied. The over operator therefore divides by the
// resulting alpha; for 8-bit data it is evaluated in integers so results are
// bit-exact across platforms:
//
//	over.a == 0                  -> base
//	over.a == 255 || base.a == 0 -> over
//	A = over.a*255 + base.a*(255-over.a)
//	c = (over.c*over.a*255 + base.c*base.a*(255-over.a)) / A
//	a = div255(A)
//
// where div255(x) = (x*257 + 256) >> 16.
//
// Sources in Gray8 or GrayF are coverage stencils: each pixel scales
// [Op].Color. All other sources are full colour. A [Kernel] for every
// (source, destination) format pair is built once at init; [Lookup] returns
// [ErrUnsupportedPair] for anything outside the table.
package blend
