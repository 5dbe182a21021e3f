package store

import (
	ds "github.com/ipfs/go-datastore"
	ktds "github.com/ipfs/go-datastore/keytransform"
)

// DefaultPrefix namespaces everything the block executor writes, so the
// datastore can be shared with other node components.
const DefaultPrefix = "blockexec"

// NewPrefixKVStore returns a view of kv in which every key is prefixed.
func NewPrefixKVStore(kv ds.Batching, prefix string) ds.Batching {
	return ktds.Wrap(kv, ktds.PrefixTransform{Prefix: ds.NewKey(prefix)})
}
