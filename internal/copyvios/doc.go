// Package copyvios implements a concurrent content-similarity check engine.
//
// A check compares one document against a set of candidate URLs. Candidate
// URLs are partitioned into per-domain FIFO queues so that requests to a
// single host are serialized while different hosts proceed in parallel. A
// fixed set of workers claims domains from a shared dispatch list, fetches
// each source, fingerprints its text, and reports the comparison back to the
// owning Workspace, which tracks the best match seen so far and cancels the
// remaining sources once the minimum confidence threshold is met.
//
// Workers can either be private to one check (the default) or shared across
// any number of concurrent checks through a Pool handle.
package copyvios
