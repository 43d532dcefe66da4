package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// EmptyParamsToken is the hash segment used when a parameter set is empty,
// so zero-argument operations produce a stable, readable key.
const EmptyParamsToken = "empty"

// hashPrefixLen is the number of hex characters kept from the digest.
// 16 chars (64 bits) keeps the collision probability negligible even for
// millions of distinct parameter sets; this is a cache-tuning bound, not
// a security property.
const hashPrefixLen = 16

// Cache keys follow the convention "<type>:<identifier>" for plain
// resource lookups and "<type>:<identifier>:<hash>" for parameterized
// ones. The hash is derived from a canonical serialization of the
// parameter set, so semantically identical calls always collide and
// semantically different ones essentially never do.

// ProductKey returns the cache key for a product looked up by slug.
func ProductKey(slug string) string {
	return "product:" + slug
}

// CategoryKey returns the cache key for a category looked up by id.
func CategoryKey(id string) string {
	return "category:" + id
}

// CollectionKey returns the cache key for a collection looked up by id.
func CollectionKey(id string) string {
	return "collection:" + id
}

// BrandKey returns the cache key for a brand looked up by id.
func BrandKey(id string) string {
	return "brand:" + id
}

// SearchKey returns the cache key for a search result set. The full
// parameter object (query text, filters, pagination) feeds the hash.
func SearchKey(params map[string]any) string {
	return "search:results:" + HashParams(params)
}

// OperationKey returns the cache key for an arbitrary GraphQL operation
// identified by name plus its variable set.
func OperationKey(name string, variables map[string]any) string {
	return "operation:" + name + ":" + HashParams(variables)
}

// HashParams derives the deterministic hash segment for a parameter set.
// Keys are serialized canonically (lexicographic key order at every map
// level) and digested with SHA-256 truncated to a fixed prefix. An empty
// or nil set maps to EmptyParamsToken.
func HashParams(params map[string]any) string {
	if len(params) == 0 {
		return EmptyParamsToken
	}

	canonical, err := json.Marshal(params)
	if err != nil {
		// Parameter sets are plain data by contract; a marshal failure
		// means a caller passed something exotic. Fall back to the
		// non-canonical textual form rather than failing the lookup.
		canonical = []byte(fmt.Sprintf("%v", params))
	}

	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:])[:hashPrefixLen]
}
