/*
Package session serializes access to conversation state.

Turns of the same conversation never interleave: the Manager holds a
reference-counted in-process mutex per conversation and, when configured,
a distributed lock so replicas sharing a store do the same.
*/
package session
