// Package btrbk models the btrbk.conf configuration dialect: the option
// catalog, the per-section option schema, the configuration tree built from
// an instance declaration, the deterministic renderer that produces
// btrbk.conf text, and the round-trip check that runs the rendered text
// through the btrbk binary before deployment.
//
// The dialect is line oriented. A section is introduced by a "keyword name"
// header (volume, subvolume, target) and its body is indented one space per
// nesting depth; everything else is a "key value" assignment. The top level
// is the implicit global section and has no header.
package btrbk
