// Package memory provides in-process adapters: a session snapshot store, a
// reservation service and a notification broker. They back tests, the console
// runner and single-replica deployments.
package memory
