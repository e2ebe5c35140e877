package ai

import (
	"strconv"
	"strings"
)

// HashModelPrefix marks model identifiers served by the built-in hashing
// embedder rather than a remote API, e.g. "hash-256".
const HashModelPrefix = "hash-"

// KnownDimensions maps common embedding model identifiers to their vector
// dimensions, used to fill Config.Dimensions when left unset.
var KnownDimensions = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
	"nomic-embed-text":       768,
	"embeddinggemma":         768,
	"mxbai-embed-large":      1024,
	"all-minilm":             384,
}

// IsHashModel reports whether the model identifier selects the built-in
// hashing embedder.
func IsHashModel(model string) bool {
	return strings.HasPrefix(model, HashModelPrefix)
}

// HashModelDimensions parses the dimension suffix of a hashing model
// identifier. Returns 0 when the identifier is not a hash model or the
// suffix is not a positive integer.
func HashModelDimensions(model string) int {
	if !IsHashModel(model) {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimPrefix(model, HashModelPrefix))
	if err != nil || n <= 0 {
		return 0
	}
	return n
}
