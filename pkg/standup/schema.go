package standup

import "fmt"

// Redis key pattern helpers
//
// All Redis keys and Pub/Sub channels are namespaced by workspace name so that
// several boards can share one Redis server.
//
// Key pattern: standup:{workspace}:{entity}
// Channel pattern: standup:{workspace}:{event_type}_events

// StorageKey is the local-storage key of the persisted document. Older documents
// were stored under other keys and are not migrated.
const StorageKey = "standup_data_v2"

// SharedFileName is the file created inside a connected shared directory.
const SharedFileName = "DSM.json"

// DataKey returns the Redis key holding the whole document.
// Pattern: standup:{workspace}:standup_data_v2
func DataKey(workspace string) string {
	return fmt.Sprintf("standup:%s:%s", workspace, StorageKey)
}

// DataEventsChannel returns the Pub/Sub channel carrying document writes.
// Pattern: standup:{workspace}:data_events
func DataEventsChannel(workspace string) string {
	return fmt.Sprintf("standup:%s:data_events", workspace)
}
