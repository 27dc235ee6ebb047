package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"slate-workspace/go-backend/internal/domains/contracts"
	"slate-workspace/go-backend/internal/domains/rpckit"
	"slate-workspace/go-backend/internal/domains/workspace/transport"
	"slate-workspace/go-backend/internal/workspace"
)

func Dispatch(ctx context.Context, service contracts.DaemonService, method string, rawParams json.RawMessage) (any, *rpckit.Error, bool) {
	switch method {
	case transport.MethodTestConnection:
		result, rpcErr := callWithoutParams(rawParams, transport.CodeInternal, func() (any, error) {
			return service.TestConnection(ctx)
		})
		return result, rpcErr, true
	case transport.MethodGetDrafts:
		result, rpcErr := callWithoutParams(rawParams, transport.CodeDraftSource, func() (any, error) {
			return service.GetDrafts(ctx)
		})
		return result, rpcErr, true
	case transport.MethodOpenWorkspace:
		draftID, err := decodeOptionalDraftIDParam(rawParams)
		if err != nil {
			return nil, rpckit.InvalidParams(), true
		}
		result, err := service.OpenWorkspace(ctx, draftID)
		if err != nil {
			return nil, serviceError(transport.CodeInternal, err), true
		}
		return result, nil, true
	case transport.MethodOpenContentEditor:
		result, rpcErr := callWithoutParams(rawParams, transport.CodeInternal, func() (any, error) {
			return service.OpenContentEditor(ctx)
		})
		return result, rpcErr, true
	case transport.MethodCreateNewDraft:
		result, rpcErr := callWithoutParams(rawParams, transport.CodeDraftAllocation, func() (any, error) {
			return service.CreateNewDraft(ctx)
		})
		return result, rpcErr, true
	case transport.MethodGetRecentMedia:
		result, rpcErr := callWithoutParams(rawParams, transport.CodeMediaSource, func() (any, error) {
			return service.GetRecentMedia(ctx)
		})
		return result, rpcErr, true
	case transport.MethodWorkspaceCurrent:
		result, rpcErr := callWithoutParams(rawParams, transport.CodeInternal, func() (any, error) {
			current, ok, err := service.CurrentWorkspace(ctx)
			if err != nil {
				return nil, err
			}
			if !ok {
				return map[string]any{"presented": false}, nil
			}
			return map[string]any{"presented": true, "workspace": current}, nil
		})
		return result, rpcErr, true
	case transport.MethodWorkspaceDismiss:
		result, rpcErr := callWithSingleStringParam(rawParams, transport.CodeInternal, func(action string) (any, error) {
			if err := service.DismissWorkspace(ctx, action); err != nil {
				return nil, err
			}
			return map[string]bool{"dismissed": true}, nil
		})
		return result, rpcErr, true
	default:
		return nil, nil, false
	}
}

func callWithoutParams(rawParams json.RawMessage, serviceErrCode int, call func() (any, error)) (any, *rpckit.Error) {
	if !isEmptyParams(rawParams) {
		return nil, rpckit.InvalidParams()
	}
	result, err := call()
	if err != nil {
		return nil, serviceError(serviceErrCode, err)
	}
	return result, nil
}

func callWithSingleStringParam(rawParams json.RawMessage, serviceErrCode int, call func(string) (any, error)) (any, *rpckit.Error) {
	param, err := decodeSingleStringParam(rawParams)
	if err != nil {
		return nil, rpckit.InvalidParams()
	}
	result, err := call(param)
	if err != nil {
		return nil, serviceError(serviceErrCode, err)
	}
	return result, nil
}

// serviceError maps host errors to their stable codes; anything unrecognised
// gets the method's fallback code.
func serviceError(fallback int, err error) *rpckit.Error {
	code := fallback
	switch {
	case errors.Is(err, workspace.ErrUnknownAction):
		return rpckit.FromError(rpckit.CodeInvalidParams, "", err)
	case errors.Is(err, workspace.ErrLoopStopped):
		return rpckit.NotInitialized()
	case errors.Is(err, workspace.ErrNoPresentationContext):
		code = transport.CodeNoPresentationContext
	case errors.Is(err, workspace.ErrWorkspaceBusy):
		code = transport.CodeWorkspaceBusy
	case errors.Is(err, workspace.ErrNoWorkspace), errors.Is(err, workspace.ErrAlreadyDismissed):
		code = transport.CodeNoWorkspace
	case errors.Is(err, workspace.ErrUnsupportedAction):
		code = transport.CodeUnsupportedAction
	case errors.Is(err, workspace.ErrDraftAllocation):
		code = transport.CodeDraftAllocation
	case errors.Is(err, workspace.ErrDraftSource):
		code = transport.CodeDraftSource
	case errors.Is(err, workspace.ErrMediaSource):
		code = transport.CodeMediaSource
	}
	return rpckit.FromError(code, transport.Reason(code), err)
}

func isEmptyParams(raw json.RawMessage) bool {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return true
	}
	var arr []json.RawMessage
	if err := json.Unmarshal(raw, &arr); err == nil {
		return len(arr) == 0
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err == nil {
		return len(obj) == 0
	}
	return false
}

// decodeOptionalDraftIDParam accepts [], [null], [""], ["<id>"], {"draftId": ...}
// or no params at all. An absent identifier means a new draft.
func decodeOptionalDraftIDParam(raw json.RawMessage) (string, error) {
	if isEmptyParams(raw) {
		return "", nil
	}
	var arr []*string
	if err := json.Unmarshal(raw, &arr); err == nil {
		if len(arr) != 1 {
			return "", errInvalidParams
		}
		if arr[0] == nil {
			return "", nil
		}
		return *arr[0], nil
	}
	var payload struct {
		DraftID *string `json:"draftId"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return "", errInvalidParams
	}
	if payload.DraftID == nil {
		return "", nil
	}
	return *payload.DraftID, nil
}

func decodeSingleStringParam(raw json.RawMessage) (string, error) {
	var arr []string
	if err := json.Unmarshal(raw, &arr); err == nil && len(arr) == 1 && strings.TrimSpace(arr[0]) != "" {
		return arr[0], nil
	}
	return "", errInvalidParams
}

var errInvalidParams = errors.New("invalid params")
