package redis

import "strconv"

// Redis key naming conventions for plancraft data.
// All keys are prefixed with "plancraft:" to avoid collisions.

const keyPrefix = "plancraft:"

// threadKey returns the key for a thread record: plancraft:thread:{id}
func threadKey(id string) string { return keyPrefix + "thread:" + id }

// threadIDsKey is the Set tracking all thread IDs for enumeration.
const threadIDsKey = keyPrefix + "thread_ids"

// checkpointKey returns the key for one snapshot: plancraft:checkpoint:{threadID}:{seq}
func checkpointKey(threadID string, seq int) string {
	return keyPrefix + "checkpoint:" + threadID + ":" + strconv.Itoa(seq)
}

// checkpointIndexKey returns the Sorted Set key ordering a thread's
// snapshots by sequence number.
func checkpointIndexKey(threadID string) string {
	return keyPrefix + "checkpoint_idx:" + threadID
}

// interruptKey returns the key for the pending interrupt record:
// plancraft:interrupt:{threadID}
func interruptKey(threadID string) string { return keyPrefix + "interrupt:" + threadID }
