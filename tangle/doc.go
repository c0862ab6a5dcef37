// Package tangle indexes the messages of one tangle: a DAG of messages sharing
// a root.
//
// A Tangle only grows. Add trusts its input; callers run the validate package
// first and call Add only for accepted messages. Query methods never fail when
// the root is still unknown: they log a warning through the injected logger and
// return an empty result.
//
// A Tangle has no internal locking. Use Clone to hand a snapshot to readers.
package tangle
