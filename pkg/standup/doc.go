// Package standup provides type-safe Go definitions for the standup tracker's
// persisted document and the Redis schema patterns used to store it.
//
// # Overview
//
// A standup board is a single JSON document (StandupData) holding five ordered
// collections of task records plus free-text meeting notes:
//
//   - planning, devQa, prod: CommonTask records (development work items)
//   - release: ReleaseTask records (items planned for a release)
//   - rwt: RwtTask records (rework-testing items)
//
// The document is stored whole. There is no per-record storage and no merge:
// the most recent full read of the document wins.
//
// # Revival
//
// Persisted documents may have been written by older versions or edited by
// hand. Revive normalises arbitrary JSON into fully-populated records:
//
//	data, err := standup.Revive(raw)
//	if err != nil {
//		// not a JSON object at all; callers fall back to standup.Empty()
//	}
//
// Missing or malformed fields are defaulted, never rejected. Records without an
// id receive a fresh UUID.
//
// # Redis Schema
//
// All Redis keys follow the pattern: standup:{workspace}:{entity}
//
// Document: standup:{workspace}:standup_data_v2
//
// Pub/Sub channel: standup:{workspace}:data_events
package standup
