package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"slate-workspace/go-backend/internal/domains/contracts"
	"slate-workspace/go-backend/internal/domains/workspace/transport"
	"slate-workspace/go-backend/internal/workspace"
	"slate-workspace/go-backend/pkg/models"
)

type fakeService struct {
	openErr    error
	dismissErr error
	opened     []string
	dismissed  []string
	current    *models.PresentedWorkspace
}

var _ contracts.DaemonService = (*fakeService)(nil)

func (f *fakeService) TestConnection(context.Context) (models.ConnectionTest, error) {
	return models.ConnectionTest{Status: models.ConnectionStatusConnected, Message: "ok"}, nil
}

func (f *fakeService) GetDrafts(context.Context) ([]models.Draft, error) {
	return nil, fmt.Errorf("%w: disk gone", workspace.ErrDraftSource)
}

func (f *fakeService) OpenWorkspace(_ context.Context, draftID string) (models.WorkspaceResult, error) {
	if f.openErr != nil {
		return models.WorkspaceResult{}, f.openErr
	}
	f.opened = append(f.opened, draftID)
	return models.WorkspaceResult{Success: true, DraftID: draftID}, nil
}

func (f *fakeService) OpenContentEditor(context.Context) (models.WorkspaceResult, error) {
	return models.WorkspaceResult{Success: true}, nil
}

func (f *fakeService) CreateNewDraft(context.Context) (models.CreateDraftResult, error) {
	return models.CreateDraftResult{}, errors.New("id source exhausted")
}

func (f *fakeService) GetRecentMedia(context.Context) ([]models.MediaItem, error) {
	return []models.MediaItem{}, nil
}

func (f *fakeService) CurrentWorkspace(context.Context) (models.PresentedWorkspace, bool, error) {
	if f.current == nil {
		return models.PresentedWorkspace{}, false, nil
	}
	return *f.current, true, nil
}

func (f *fakeService) DismissWorkspace(_ context.Context, action string) error {
	f.dismissed = append(f.dismissed, action)
	return f.dismissErr
}

func (f *fakeService) StartHost(context.Context) error { return nil }
func (f *fakeService) StopHost(context.Context) error  { return nil }

func (f *fakeService) SubscribeNotifications(int64) ([]contracts.NotificationEvent, <-chan contracts.NotificationEvent, func()) {
	return nil, nil, func() {}
}

func TestDispatchOpenWorkspaceParamShapes(t *testing.T) {
	cases := []struct {
		params string
		want   string
	}{
		{params: ``, want: ""},
		{params: `[]`, want: ""},
		{params: `[null]`, want: ""},
		{params: `[""]`, want: ""},
		{params: `["draft_2"]`, want: "draft_2"},
		{params: `{"draftId":"draft_3"}`, want: "draft_3"},
		{params: `[" draft 4 "]`, want: " draft 4 "},
		{params: `{"draftId":"Draft_5\t"}`, want: "Draft_5\t"},
	}
	for _, tc := range cases {
		svc := &fakeService{}
		_, rpcErr, ok := Dispatch(context.Background(), svc, transport.MethodOpenWorkspace, json.RawMessage(tc.params))
		if !ok || rpcErr != nil {
			t.Fatalf("params %q: unexpected ok=%v err=%+v", tc.params, ok, rpcErr)
		}
		if len(svc.opened) != 1 || svc.opened[0] != tc.want {
			t.Fatalf("params %q: expected draft id %q, got %q", tc.params, tc.want, svc.opened)
		}
	}
}

func TestDispatchOpenWorkspaceRejectsMalformedParams(t *testing.T) {
	for _, params := range []string{`[1]`, `["a","b"]`, `{"draftId":7}`, `"draft_1"`} {
		_, rpcErr, _ := Dispatch(context.Background(), &fakeService{}, transport.MethodOpenWorkspace, json.RawMessage(params))
		if rpcErr == nil || rpcErr.Code != -32602 {
			t.Fatalf("params %s: expected invalid params, got %+v", params, rpcErr)
		}
	}
}

func TestDispatchMapsWorkspaceErrors(t *testing.T) {
	cases := []struct {
		err    error
		code   int
		reason string
	}{
		{err: workspace.ErrNoPresentationContext, code: transport.CodeNoPresentationContext, reason: "NO_ROOT_VC"},
		{err: workspace.ErrWorkspaceBusy, code: transport.CodeWorkspaceBusy, reason: "WORKSPACE_BUSY"},
		{err: errors.New("unexpected"), code: transport.CodeInternal, reason: "INTERNAL"},
		{err: workspace.ErrLoopStopped, code: -32099},
	}
	for _, tc := range cases {
		svc := &fakeService{openErr: tc.err}
		_, rpcErr, _ := Dispatch(context.Background(), svc, transport.MethodOpenWorkspace, json.RawMessage(`["draft_1"]`))
		if rpcErr == nil || rpcErr.Code != tc.code || rpcErr.Reason != tc.reason {
			t.Fatalf("%v: expected code %d reason %q, got %+v", tc.err, tc.code, tc.reason, rpcErr)
		}
	}
	_, rpcErr, _ := Dispatch(context.Background(), &fakeService{}, transport.MethodOpenWorkspace, json.RawMessage(`[]`))
	if rpcErr != nil {
		t.Fatalf("unexpected error %+v", rpcErr)
	}
}

func TestDispatchNoRootMessage(t *testing.T) {
	svc := &fakeService{openErr: workspace.ErrNoPresentationContext}
	_, rpcErr, _ := Dispatch(context.Background(), svc, transport.MethodOpenContentEditor, nil)
	if rpcErr != nil {
		t.Fatalf("content editor does not consult openErr, got %+v", rpcErr)
	}
	_, rpcErr, _ = Dispatch(context.Background(), svc, transport.MethodOpenWorkspace, nil)
	if rpcErr.Message != "no root view controller found" {
		t.Fatalf("unexpected message %q", rpcErr.Message)
	}
}

func TestDispatchFallbackCodesPerMethod(t *testing.T) {
	svc := &fakeService{}
	_, rpcErr, _ := Dispatch(context.Background(), svc, transport.MethodGetDrafts, nil)
	if rpcErr == nil || rpcErr.Code != transport.CodeDraftSource {
		t.Fatalf("expected draft source code, got %+v", rpcErr)
	}
	_, rpcErr, _ = Dispatch(context.Background(), svc, transport.MethodCreateNewDraft, json.RawMessage(`[]`))
	if rpcErr == nil || rpcErr.Code != transport.CodeDraftAllocation {
		t.Fatalf("expected allocation code, got %+v", rpcErr)
	}
}

func TestDispatchRejectsParamsOnParameterlessMethods(t *testing.T) {
	_, rpcErr, ok := Dispatch(context.Background(), &fakeService{}, transport.MethodTestConnection, json.RawMessage(`["x"]`))
	if !ok || rpcErr == nil || rpcErr.Code != -32602 {
		t.Fatalf("expected invalid params, got ok=%v err=%+v", ok, rpcErr)
	}
}

func TestDispatchWorkspaceDismissAndCurrent(t *testing.T) {
	svc := &fakeService{}
	result, rpcErr, _ := Dispatch(context.Background(), svc, transport.MethodWorkspaceCurrent, nil)
	if rpcErr != nil {
		t.Fatalf("current: %+v", rpcErr)
	}
	if presented := result.(map[string]any)["presented"]; presented != false {
		t.Fatalf("expected nothing presented, got %v", result)
	}

	if _, rpcErr, _ := Dispatch(context.Background(), svc, transport.MethodWorkspaceDismiss, json.RawMessage(`[]`)); rpcErr == nil || rpcErr.Code != -32602 {
		t.Fatalf("expected invalid params for missing action, got %+v", rpcErr)
	}
	if _, rpcErr, _ := Dispatch(context.Background(), svc, transport.MethodWorkspaceDismiss, json.RawMessage(`["export"]`)); rpcErr != nil {
		t.Fatalf("dismiss: %+v", rpcErr)
	}
	if len(svc.dismissed) != 1 || svc.dismissed[0] != "export" {
		t.Fatalf("unexpected dismiss calls %q", svc.dismissed)
	}

	svc.dismissErr = fmt.Errorf("dismiss: %w", workspace.ErrUnknownAction)
	if _, rpcErr, _ := Dispatch(context.Background(), svc, transport.MethodWorkspaceDismiss, json.RawMessage(`["wave"]`)); rpcErr == nil || rpcErr.Code != -32602 {
		t.Fatalf("expected invalid params for unknown action, got %+v", rpcErr)
	}
	svc.dismissErr = workspace.ErrNoWorkspace
	if _, rpcErr, _ := Dispatch(context.Background(), svc, transport.MethodWorkspaceDismiss, json.RawMessage(`["close"]`)); rpcErr == nil || rpcErr.Code != transport.CodeNoWorkspace {
		t.Fatalf("expected no workspace code, got %+v", rpcErr)
	}
}

func TestDispatchUnknownMethodIsNotHandled(t *testing.T) {
	if _, _, ok := Dispatch(context.Background(), &fakeService{}, "message.send", nil); ok {
		t.Fatal("unknown method must fall through")
	}
}
