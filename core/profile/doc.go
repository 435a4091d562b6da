// Package profile holds the daily base-demand and weather profile used by the
// simulation. A Table maps a second of the day to a Row of named columns and
// answers lookups for arbitrary times by linear interpolation between the
// surrounding keys. Lookups outside the key range return the boundary row.
package profile
