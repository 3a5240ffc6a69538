/*
Package persistent provides immutable maps that share structure between
versions. Every update returns a new map; the map it was made from is left
untouched and stays fully usable, so old versions cost only the nodes that
differ from newer ones.

Two maps are offered:

SortedMap keeps its entries in key order in a weight-balanced binary tree
(package tree). It supports ordered iteration from any key in either
direction, min/max lookups, set operations, and DiffIter, which streams the
differences between two versions while skipping everything they share.

HashMap stores its entries in a hash array mapped trie (package hamt).
Lookups and updates cost a few array indexings regardless of how keys
compare. Keys whose hashes collide completely are kept in a small ordered
tree, so even adversarial hashes degrade to logarithmic rather than linear
cost. HashMapFrom builds a map in one pass using mutable nodes that are
frozen before they are returned.

Keys

Maps take their key behavior from package keys. keys.NaturalOrder and
keys.NaturalHash cover Go's ordered types; keys.OrderOf and keys.HashOf
derive contracts at run time for integers, floats, strings, byte slices,
booleans, time.Time, named types over those, and types that implement
keys.Ordered or keys.Hashable. keys.KeyedStrings seeds a hash that outside
input cannot steer into collisions.

Concurrency

Maps are values. Any number of goroutines may read a map, and derive new
maps from it, without locking.

Logging

The packages log nothing until UseLogger is given a btclog.Logger.
*/
package persistent
