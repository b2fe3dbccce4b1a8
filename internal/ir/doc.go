// Package ir holds the record types shared by every other package: experiment
// states, action names, recorded transitions and their canonical encoding.
//
// ir imports nothing internal.
//
// Constraints:
//   - no floats and no nulls in canonical values; an unset node is omitted
//   - ordering uses the logical seq, never the wall-clock timestamp
package ir
