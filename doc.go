/*
Package mekforge is an asset pipeline for Mek collectible artwork.

It turns rendered character images into blueprint-style technical drawings,
generates placeholder "essence" icons for every trait variation, and audits
generated asset folders against each other and against metadata manifests.

# Concept

Every routine is a linear job: load an image, transform its pixels, draw
graphics and text on top, write the result. Batches apply the same
stateless job to many files with a bounded worker pool; per-file failures
are logged and counted while the rest of the batch continues.

# Usage

A Toolkit carries the renderer defaults, the variation catalog and the
batch settings.

	package main

	import (
		"context"
		"log"

		"github.com/mektycoon/mekforge"
	)

	func main() {
		kit, err := mekforge.New(mekforge.WithWorkers(8))
		if err != nil {
			log.Fatal(err)
		}

		sum, err := kit.ConvertDir(context.Background(), mekforge.ModeClassic, "renders", "blueprints", "*.webp")
		if err != nil {
			log.Fatal(err)
		}
		log.Printf("%d ok, %d failed", sum.OK, sum.Failed)
	}

The building blocks live in their own packages: pkg/raster (image
processing primitives), pkg/blueprint (renderers), pkg/essence (icons),
pkg/audit (reconciliation reports) and pkg/imageio (codecs).
*/
package mekforge
