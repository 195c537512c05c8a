// Package repository provides typed access to the collections held by a
// stores.RecordStore. Each repository owns one collection key; writes are
// validated and applied with a single read-modify-write.
package repository
