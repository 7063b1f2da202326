package reconcile

import (
	"sort"
	"strings"

	"github.com/vorvix/zato/internal/diag"
)

// Merge combines a local document with a catalog snapshot into one
// consolidated universe. The snapshot is deep-copied first; then every
// local item replaces any remote item with the same identity in its
// bucket, so local definitions always win while unmatched remote items
// are preserved. On any type-key error no universe is produced at all.
//
// The http/soap connection flavours all collapse into the snapshot's
// single http_soap bucket, where identity additionally includes the
// connection and transport discriminators derived from the local type
// key.
func Merge(local, remote Universe) (Universe, *diag.Result) {
	result := &diag.Result{}
	merged := remote.Clone()

	for _, localKey := range sortedKeys(local) {
		remoteKey := localKey
		if isHTTPSOAPKey(localKey) {
			remoteKey = "http_soap"
		}

		if _, ok := merged[remoteKey]; !ok {
			known := make([]string, 0, len(merged))
			for key := range merged {
				known = append(known, key)
			}
			sort.Strings(known)
			result.AddError([2]any{localKey, known}, diag.ErrInvalidKey,
				"Key '%s' not one of %v", remoteKey, known)
			continue
		}

		for _, localItem := range local[localKey] {
			if isHTTPSOAPKey(localKey) {
				connection, transport := splitHTTPSOAPKey(localKey)
				merged[remoteKey] = removeMatching(merged[remoteKey], func(it Item) bool {
					return it.GetString("connection") == connection &&
						it.GetString("transport") == transport &&
						it.Name() == localItem.Name()
				})
			} else {
				merged[remoteKey] = removeMatching(merged[remoteKey], func(it Item) bool {
					return it.Name() == localItem.Name()
				})
			}
			merged[remoteKey] = append(merged[remoteKey], localItem)
		}
	}

	if !result.OK() {
		return nil, result
	}
	return merged, result
}

func isHTTPSOAPKey(key string) bool {
	return strings.Contains(key, "http") || strings.Contains(key, "soap")
}

// splitHTTPSOAPKey derives the (connection, transport) discriminator
// pair from a document type key such as channel_plain_http or
// outconn_soap.
func splitHTTPSOAPKey(key string) (connection, transport string) {
	parts := strings.SplitN(key, "_", 2)
	connection = parts[0]
	if len(parts) == 2 {
		transport = parts[1]
	}
	if connection == "outconn" {
		connection = "outgoing"
	}
	return connection, transport
}

func removeMatching(items []Item, match func(Item) bool) []Item {
	out := items[:0]
	for _, it := range items {
		if !match(it) {
			out = append(out, it)
		}
	}
	return out
}
