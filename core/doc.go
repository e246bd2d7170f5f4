// Package core defines the shared domain types exchanged between the
// perception, decision, action and memory layers: the Profile record, the
// Intent sum type produced by the reply parser, the fixed reply markers and
// the profile shape validation used by the verifier.
package core
