// Package tile stores sparse pixel data as fixed-size panels.
//
// A [Panel] is a Size x Size pixel buffer at an offset that is a multiple of
// Size. A [Store] keeps panels sorted row-major, y first, so lookups are a
// binary search and iteration visits rows top to bottom. A [Layer] groups
// three stores: the committed primary pixels, the alternate preview written
// while a tool is being adjusted, and the alternate selection scoping that
// preview.
package tile
