/*
Package session implements call management and snapshot persistence orchestration.

The Manager registers the calls running in this process, lets callers hang them
up, checkpoints session snapshots through lifecycle hooks, and serializes store
access per session with ref-counted local locks and an optional distributed lock
for deployments with several replicas.
*/
package session
