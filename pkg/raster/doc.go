/*
Package raster implements the grayscale image-processing primitives used by the
blueprint renderers.

Every operation works on *image.Gray planes whose bounds start at the origin
(use ToGray to normalize arbitrary images) or on Field, a float32 plane used
for gradients and corner responses. Borders are handled by reflecting around
the edge pixel ("reflect 101") unless an operation documents otherwise, so
results line up with what computer-vision tooling usually produces.

The package is deliberately small and allocation-heavy rather than clever:
each function returns a fresh plane and never mutates its inputs.
*/
package raster
