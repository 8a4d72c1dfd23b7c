package paramcache

import (
	"strconv"

	"github.com/vvka-141/sphelper/pkg/sphelper"
)

// Key returns the cache key for commandText under connectionIdentity. The
// identity is length-prefixed, so no two (identity, text) pairs share a key.
func Key(connectionIdentity, commandText string) string {
	return strconv.Itoa(len(connectionIdentity)) + ":" + connectionIdentity + ":" + commandText
}

// ProcedureKey returns the key used for discovered procedure shapes. Without
// the return value it equals Key, so CacheParameterSet seeds it. Sets that
// keep the return value carry a marker no Key can start with.
func ProcedureKey(connectionIdentity, procedureName string, includeReturnValue bool) string {
	key := Key(connectionIdentity, procedureName)
	if includeReturnValue {
		key = sphelper.ReturnValueKeyPrefix + key
	}
	return key
}
