package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
)

// Stage names the pipeline step a cache entry was produced by.
type Stage string

const (
	StageLayout   Stage = "layout"
	StageArtifact Stage = "artifact"
)

// Stages lists every cached stage in pipeline order.
var Stages = []Stage{StageLayout, StageArtifact}

// hashKey returns "stage:sha256(parts)". Parts are JSON-encoded first, so
// struct options hash by field value.
func hashKey(stage Stage, parts ...any) string {
	data, _ := json.Marshal(parts)
	return string(stage) + ":" + Hash(data)
}

// StageOf reports the stage encoded in key. Scope prefixes added by
// [ScopedKeyer] are skipped. Keys not built by a [Keyer] return "".
func StageOf(key string) Stage {
	i := strings.LastIndexByte(key, ':')
	if i < 0 {
		return ""
	}
	head := key[:i]
	if j := strings.LastIndexByte(head, ':'); j >= 0 {
		head = head[j+1:]
	}
	for _, s := range Stages {
		if head == string(s) {
			return s
		}
	}
	return ""
}

// Hash returns the hex SHA-256 of data. Diagram fingerprints and file cache
// paths are built from it.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
