// Package daemonservice assembles the slate host: the main loop, the screen,
// the session resolution chain, the draft and media sources and the
// notification hub, behind the transport-neutral contracts.DaemonService.
//
// Responsibilities:
// - Build collaborators from hostconfig and caller supplied overrides.
// - Own the host lifecycle (main loop, root window, storage handles).
// - Delegate bridge commands to the workspace dispatcher.
//
// Non-responsibilities:
// - Wire protocol details (internal/adapters/rpc).
// - Session resolution rules (internal/workspace).
//
//goland:noinspection GoCommentStart
package daemonservice
