/*
Package domain contains the shared vocabulary of the Mek asset pipeline.

It defines the trait variations that make up a Mek (heads, bodies and traits),
the named options used by the blueprint renderers, and the sentinel errors
returned across packages. This package is kept free of I/O so it can be used
by the renderers, the auditors and every adapter alike.

# Key Entities

  - Variation: A single trait variation with its source key and rarity data.
  - VariationType: The slot a variation occupies (head, body or trait).
  - Position: A canvas corner used to place blueprint annotations.
  - DetailLevel: How much structure the classic blueprint keeps.
*/
package domain
