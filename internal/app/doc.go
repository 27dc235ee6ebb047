// Package app holds host-side runtime state shared by the workspace core and
// its transports. Today that is the notification hub that fans
// WorkspaceCompleted events out to bridge subscribers.
package app
