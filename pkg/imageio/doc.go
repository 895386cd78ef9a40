// Package imageio reads and writes the raster formats used across the
// toolkit: WebP, PNG and JPEG on input, PNG and lossless WebP on output.
package imageio
