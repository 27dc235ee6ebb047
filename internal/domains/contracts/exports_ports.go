package contracts

import contractports "slate-workspace/go-backend/internal/domains/contracts/ports"

type WorkspaceAPI = contractports.WorkspaceAPI
type HostAPI = contractports.HostAPI
type DaemonService = contractports.DaemonService
type NotificationEvent = contractports.NotificationEvent
