// Package election defines the types shared by the crawl, extraction and
// assembly stages: page descriptors, nullable cells, tables and the error
// taxonomy used to isolate per-page failures.
package election
