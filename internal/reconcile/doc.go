// Package reconcile merges one video's upstream resources into the store.
//
// Each entity has a single merge function parametrized by the endpoint that
// produced the update. Fields an endpoint does not report are carried over
// from the stored row, so the aggregated statistics and the flat list
// endpoints can both feed interaction and question rows without clobbering
// each other. Answer rows follow one extra rule: an incoming zero count never
// replaces a stored positive count.
package reconcile
