// Package essence draws the placeholder "essence" icons shown for each
// variation: a translucent disc tinted by slot type with the variation name
// written across it.
package essence
