// Package picture schedules the pictures of a frame into ordered update passes
// and runs the two per-frame walks that depend on that order.
//
// # Overview
//
// A frame is described by a flat arena of pictures addressed by
// [frame.PictureIndex]. Each picture lists its child pictures, so the arena
// encodes a directed acyclic graph purely through indices. Some pictures need
// their own offscreen surface (filters, blends, picture caches), and both the
// surface a picture draws into and the bounds of that surface depend on its
// ancestors and descendants respectively.
//
// [Graph] turns the arena into a sequence of update passes:
//
//	g := picture.New()
//	g.AddRoot(root)
//	g.BuildUpdatePasses(pics, fc)
//	g.AssignSurfaces(pics, &surfaces, tileCaches, fc)
//	g.PropagateBoundingRects(pics, surfaces, fc, stores, prims)
//
// Every scheduled picture sits in a strictly later pass than every parent
// that reached it. [Graph.AssignSurfaces] walks the passes in ascending order
// so parents resolve their surface before children ask for it.
// [Graph.PropagateBoundingRects] walks them in descending order so a child's
// bounds are final before its parent folds them in.
//
// # Pruning
//
// A picture whose [Picture.PreUpdate] reports false is left out of the frame:
// it gets no pass, no surface and no bounds update, and its children are not
// visited through it. The picture stays in the arena.
//
// # Depth
//
// Scene graphs can be very deep. Pass building uses an explicit work stack
// instead of recursion, so stack usage does not grow with graph depth.
//
// # Failure Model
//
// The scheduler trusts its input. An out-of-range index or a cyclic child
// graph is a scene construction bug and panics. There is no error return.
//
// # Multiple Parents
//
// A picture reachable along several paths is scheduled at the deepest depth
// seen over all committed paths. Its recorded parent is the last picture that
// reached it during traversal, and that parent decides which surface it draws
// into. Scene builders that care about a specific parent should produce trees.
//
// # Concurrency
//
// A Graph is not safe for concurrent use. It is meant to be owned by a single
// frame builder and reused from frame to frame.
package picture
