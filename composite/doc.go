// Package composite blends tiled layers into each other.
//
// Every function works in canvas space: a panel's pixels sit at its owning
// layer's Offset plus the panel Offset. Rectangles that do not overlap are
// silently skipped, and writes never leave the intersection of the
// destination panel, the source panel and any clip rectangle.
//
// Stroke rendering, alternate-collection previews and flattening for export
// are all built from RenderToSinglePanel:
//
//	RenderToLayer          stroke or source layer -> destination collection
//	ComposePanels          primary + alternate    -> preview tile
//	FinishAlternatePanels  alternate              -> primary (commit)
//	RenderToPanel          layers                 -> one flat buffer
package composite
