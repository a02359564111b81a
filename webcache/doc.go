// Package webcache maintains a local BadgerDB cache of LOINC detail pages
// fetched from loinc.org. Fetches are rate limited, retried on transient
// failures, and skipped for codes already cached, so a large crawl can be
// interrupted and resumed without refetching.
package webcache
