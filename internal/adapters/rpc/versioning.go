package rpc

import "slate-workspace/go-backend/internal/domains/workspace/transport"

const (
	codeVersionTooNew = -32080
	codeVersionTooOld = -32081
)

// checkAPIVersion accepts requests without api_version; the contract then
// applies its current version.
func checkAPIVersion(requested *int) *rpcError {
	switch {
	case requested == nil:
		return nil
	case *requested < transport.MinAPIVersion:
		return &rpcError{Code: codeVersionTooOld, Message: "api_version is below the oldest supported version", Data: versionData()}
	case *requested > transport.APIVersion:
		return &rpcError{Code: codeVersionTooNew, Message: "api_version is newer than this host", Data: versionData()}
	}
	return nil
}

func versionData() map[string]int {
	return map[string]int{"current": transport.APIVersion, "minimum": transport.MinAPIVersion}
}

func versionInfo() map[string]any {
	return map[string]any{
		"current_version":      transport.APIVersion,
		"min_version":          transport.MinAPIVersion,
		"notification_version": transport.NotificationVersion,
		"methods":              transport.Methods(),
		"notifications":        []string{transport.NotificationWorkspaceCompleted},
	}
}
