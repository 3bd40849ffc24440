// Package plancraft provides a durable, resumable orchestration engine for
// multi-step LLM planning pipelines. It turns a short user request into a
// structured planning document through a checkpointed workflow
// (analyze → structure → write → review → refine → format) with
// human-in-the-loop clarification and a bounded refinement loop.
//
// Plancraft is designed as a library, not a service. Import it, configure a
// checkpoint store and an LLM client, and drive threads through the engine:
//
//	eng, err := engine.New(
//	    engine.WithStore(memory.New()),
//	    engine.WithLLM(llmClient),
//	)
//	snap, err := eng.Run(ctx, engine.RunRequest{UserInput: "..."})
//
// # Architecture
//
// The workflow is a directed graph of named nodes with conditional edges.
// A scheduler drives one node at a time, persisting a full state checkpoint
// after every transition, keyed by thread ID. When a node needs human input
// it returns a suspension token instead of a new state; the scheduler
// records a durable pending interrupt and halts. A later Resume call maps
// the human answer back into state and re-enters the graph at the suspended
// node.
//
// Nodes are replay-safe: re-executing a suspended node with the same state
// produces the same suspension envelope and no side effects. This is what
// allows a thread to survive process restarts: the scheduler replays from
// the last checkpoint.
//
// All entity IDs use TypeID (type-prefixed, K-sortable, UUIDv7-based
// identifiers).
package plancraft
