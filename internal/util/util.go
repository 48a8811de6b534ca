package util

import (
	"strconv"
	"strings"
)

// JoinIDs renders numeric identifiers as a comma separated list, the format
// the bulk endpoints expect in their ids query parameter.
func JoinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}
