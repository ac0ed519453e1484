// Package colstore implements the columnar on-disk store for bulk
// domain-summary files: built once from a (possibly gzip-compressed) TSV,
// then queried many times by UniProt accession set.
//
// File layout: a fixed 64-byte header, row blocks each followed by a Bloom
// filter over the block's key values, and a compressed JSON footer holding
// the schema and per-block metadata (offsets, key min/max, checksums).
// Queries prune blocks by key range and Bloom filter before decoding, so
// cost scales with the number of matching blocks rather than total rows.
//
// Stores are immutable after Build; concurrent readers need no locking.
// Builds replace an existing store atomically (temp file + rename), so
// in-flight readers keep seeing a complete store.
package colstore
