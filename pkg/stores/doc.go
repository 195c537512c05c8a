// Package stores provides the persistence layer for complyeasy. A RecordStore
// keeps named collections of JSON records on top of a pluggable Medium
// (memory, SQLite, Redis or a directory of files), and the Seeder writes the
// baseline dataset on first start.
package stores
