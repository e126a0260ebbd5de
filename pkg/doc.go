// Package pkg provides the libraries behind picgraph, a per-frame scheduler
// for picture dependency graphs.
//
// # Overview
//
// A frame starts from a flat arena of pictures that reference their children
// by index. Picgraph orders the reachable pictures into update passes, gives
// each picture the surface it draws into, and grows surface bounds from the
// leaves back up to the roots. The pkg directory is organized as:
//
//  1. [geom], [frame] - Rectangles and per-frame shared state
//  2. [picture] - Pass building and the two pass-ordered walks
//  3. [scene] - A concrete picture arena, scene files and generated scenes
//  4. [builder] - Runs one frame and produces a serializable report
//  5. [pipeline] - Build and render with caching, shared by CLI and server
//  6. [render] - DOT, SVG, PNG and PDF output of a scheduled frame
//  7. [cache], [config], [errors], [observability], [httputil] - Infrastructure
//
// # Architecture
//
//	Scene file (TOML/JSON)
//	         ↓
//	    [scene] package (arena + validation)
//	         ↓
//	    [picture] package (passes → surfaces → bounds)
//	         ↓
//	    [builder] package (report)
//	         ↓
//	    DOT/SVG/PNG/PDF/JSON output
//
// # Quick Start
//
//	s, err := scene.Load("demo.toml")
//	if err != nil {
//	    return err
//	}
//	report, err := builder.New(builder.Options{DevicePixelRatio: 2}).Build(ctx, s)
//	if err != nil {
//	    return err
//	}
//	for i, pass := range report.Passes {
//	    fmt.Println(i, pass)
//	}
package pkg
