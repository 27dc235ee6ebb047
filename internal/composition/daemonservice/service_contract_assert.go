package daemonservice

import "slate-workspace/go-backend/internal/domains/contracts"

var _ contracts.WorkspaceAPI = (*Service)(nil)
var _ contracts.HostAPI = (*Service)(nil)
var _ contracts.DaemonService = (*Service)(nil)
