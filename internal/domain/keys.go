package domain

import (
	"regexp"
	"strings"
)

// VectorKeyPrefix is the keyspace holding one JSON blob per semantic type.
const VectorKeyPrefix = "semantic-type-vectors/"

const vectorKeySuffix = ".json"

var nonAlnumRun = regexp.MustCompile(`[^a-z0-9]+`)

var keyReplacer = strings.NewReplacer(
	"/", "_SLASH_",
	"\\", "_BACKSLASH_",
	":", "_COLON_",
	"*", "_STAR_",
	"?", "_QUESTION_",
	"\"", "_QUOTE_",
	"<", "_LT_",
	">", "_GT_",
	"|", "_PIPE_",
	" ", "_",
)

// GenerateVectorID derives the stable record id for a semantic type name.
func GenerateVectorID(semanticType string) string {
	if strings.TrimSpace(semanticType) == "" {
		return ""
	}
	id := nonAlnumRun.ReplaceAllString(strings.ToLower(semanticType), "-")
	return strings.Trim(id, "-")
}

// VectorKey returns the storage key for a semantic type. Characters that would
// split the flat keyspace are spelled out so every type maps to exactly one key.
func VectorKey(semanticType string) string {
	return VectorKeyPrefix + keyReplacer.Replace(semanticType) + vectorKeySuffix
}

// IsVectorKey reports whether key names a vector blob.
func IsVectorKey(key string) bool {
	return strings.HasPrefix(key, VectorKeyPrefix) && strings.HasSuffix(key, vectorKeySuffix)
}
