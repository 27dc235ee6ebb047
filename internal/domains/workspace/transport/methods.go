package transport

const (
	MethodTestConnection    = "testConnection"
	MethodGetDrafts         = "getDrafts"
	MethodOpenWorkspace     = "openWorkspace"
	MethodOpenContentEditor = "openContentEditor"
	MethodCreateNewDraft    = "createNewDraft"
	MethodGetRecentMedia    = "getRecentMedia"

	MethodWorkspaceCurrent = "workspace.current"
	MethodWorkspaceDismiss = "workspace.dismiss"
)

const NotificationWorkspaceCompleted = "WorkspaceCompleted"

// StreamCursorLive asks the event stream for new notifications only.
const StreamCursorLive = "live"

// APIVersion is the request api_version this contract answers to. Notification
// params carry NotificationVersion.
const (
	APIVersion          = 1
	MinAPIVersion       = 1
	NotificationVersion = 1
)

// Error codes carried in JSON-RPC error objects.
const (
	CodeNoPresentationContext = -32040
	CodeWorkspaceBusy         = -32041
	CodeNoWorkspace           = -32042
	CodeDraftAllocation       = -32043
	CodeDraftSource           = -32044
	CodeMediaSource           = -32045
	CodeUnsupportedAction     = -32046
	CodeInternal              = -32050
)

var reasons = map[int]string{
	CodeNoPresentationContext: "NO_ROOT_VC",
	CodeWorkspaceBusy:         "WORKSPACE_BUSY",
	CodeNoWorkspace:           "NO_WORKSPACE",
	CodeDraftAllocation:       "DRAFT_ALLOCATION_FAILED",
	CodeDraftSource:           "DRAFT_SOURCE_FAILED",
	CodeMediaSource:           "MEDIA_SOURCE_FAILED",
	CodeUnsupportedAction:     "UNSUPPORTED_ACTION",
	CodeInternal:              "INTERNAL",
}

// Reason returns the symbolic name for a workspace error code, or "".
func Reason(code int) string {
	return reasons[code]
}

// Methods lists every bridge command in registration order.
func Methods() []string {
	return []string{
		MethodTestConnection,
		MethodGetDrafts,
		MethodOpenWorkspace,
		MethodOpenContentEditor,
		MethodCreateNewDraft,
		MethodGetRecentMedia,
		MethodWorkspaceCurrent,
		MethodWorkspaceDismiss,
	}
}
