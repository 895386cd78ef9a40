// Package blueprint renders Mek images as technical drawings.
//
// Two renderers are provided. Classic produces the white-on-blue sheet used
// for the bulk catalogue: contour tracing plus Canny detail over a gridded
// background. Technical produces the gold-on-black variant used by the web
// tooling, with multi-threshold edges, corner overshoot marks and labelled
// leader lines.
//
// Both implement Renderer and are safe for concurrent use; each call to
// Render draws from its own random stream.
package blueprint
