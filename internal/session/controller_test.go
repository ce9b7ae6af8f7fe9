package session

import (
	"context"
	"errors"
	"testing"

	"chemviz/internal/api"
	"chemviz/internal/dataset"
)

type fakeGateway struct {
	listings  [][]api.Dataset
	listErr   error
	listCalls int

	registerErr   error
	registerCalls int

	// beforeReply runs between the request being issued and the reply
	// being returned, to simulate a logout racing an in-flight probe.
	beforeReply func()
}

func (f *fakeGateway) ListDatasets(ctx context.Context, cred api.Credential) ([]api.Dataset, error) {
	f.listCalls++
	if f.beforeReply != nil {
		f.beforeReply()
	}
	if f.listErr != nil {
		return nil, f.listErr
	}
	if len(f.listings) == 0 {
		return nil, nil
	}
	listing := f.listings[0]
	if len(f.listings) > 1 {
		f.listings = f.listings[1:]
	}
	return listing, nil
}

func (f *fakeGateway) Register(ctx context.Context, cred api.Credential) error {
	f.registerCalls++
	return f.registerErr
}

func newTestController(gw *fakeGateway) (*Controller, *Session, *dataset.Store) {
	sess := New()
	store := dataset.NewStore(gw, nil)
	ctrl := NewController(gw, sess, store, "admin", nil)
	return ctrl, sess, store
}

func listing(entries ...[2]string) []api.Dataset {
	var out []api.Dataset
	for i, e := range entries {
		out = append(out, api.Dataset{ID: i + 1, File: e[0], UploadedBy: e[1]})
	}
	return out
}

func TestLogin_Success(t *testing.T) {
	gw := &fakeGateway{listings: [][]api.Dataset{listing(
		[2]string{"/uploads/a.csv", "bob"},
		[2]string{"/uploads/b.csv", "bob"},
	)}}
	ctrl, sess, store := newTestController(gw)

	if err := ctrl.Login(context.Background(), api.Credential{Username: "bob", Password: "pw"}); err != nil {
		t.Fatalf("Login: %v", err)
	}
	cred, ok := sess.Credential()
	if !ok || cred.Username != "bob" {
		t.Fatalf("credential not stored: %+v ok=%v", cred, ok)
	}
	if sess.IsAdmin() {
		t.Fatalf("bob seeing only his own uploads must not be admin")
	}
	if sess.LastError() != ErrNone {
		t.Fatalf("LastError = %v, want ErrNone", sess.LastError())
	}
	if store.Len() != 2 {
		t.Fatalf("store.Len() = %d, want 2", store.Len())
	}
	if _, ok := store.Selected(); !ok {
		t.Fatalf("login must select the first dataset")
	}
}

func TestLogin_FailureKinds(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{name: "unauthorized", err: &api.Error{Kind: api.KindUnauthorized, Status: 401}, want: ErrInvalidCredentials},
		{name: "server error", err: &api.Error{Kind: api.KindServerError, Status: 503}, want: ErrServerUnavailable},
		{name: "malformed", err: &api.Error{Kind: api.KindMalformedResponse}, want: ErrUnreachable},
		{name: "network", err: &api.Error{Kind: api.KindNetworkFailure}, want: ErrUnreachable},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			gw := &fakeGateway{listErr: tc.err}
			ctrl, sess, store := newTestController(gw)

			err := ctrl.Login(context.Background(), api.Credential{Username: "bob", Password: "wrong"})
			if err == nil {
				t.Fatalf("expected error")
			}
			if _, ok := sess.Credential(); ok {
				t.Fatalf("credential must not be stored on failure")
			}
			if sess.LastError() != tc.want {
				t.Fatalf("LastError = %v, want %v", sess.LastError(), tc.want)
			}
			if store.Len() != 0 {
				t.Fatalf("store must stay empty on login failure")
			}
			if gw.listCalls != 1 {
				t.Fatalf("no automatic retries: listCalls = %d", gw.listCalls)
			}
		})
	}
}

func TestAdminInference(t *testing.T) {
	ctrl, _, _ := newTestController(&fakeGateway{})

	tests := []struct {
		name     string
		username string
		listing  []api.Dataset
		want     bool
	}{
		{
			name:     "admin username always admin",
			username: "admin",
			listing:  nil,
			want:     true,
		},
		{
			name:     "foreign uploader implies admin",
			username: "admin2",
			listing:  listing([2]string{"/u/a.csv", "bob"}, [2]string{"/u/b.csv", "carol"}),
			want:     true,
		},
		{
			name:     "own uploads only",
			username: "bob",
			listing:  listing([2]string{"/u/a.csv", "bob"}),
			want:     false,
		},
		{
			name:     "unknown uploader is not evidence",
			username: "bob",
			listing:  []api.Dataset{{ID: 1, UploadedBy: ""}},
			want:     false,
		},
		{
			name:     "empty listing non-admin user",
			username: "bob",
			listing:  nil,
			want:     false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ctrl.IsAdminCredential(tc.username, tc.listing); got != tc.want {
				t.Fatalf("IsAdminCredential(%q) = %v, want %v", tc.username, got, tc.want)
			}
		})
	}
}

func TestLogin_AdminSeesOtherUsers(t *testing.T) {
	gw := &fakeGateway{listings: [][]api.Dataset{listing(
		[2]string{"/u/a.csv", "bob"},
		[2]string{"/u/b.csv", "carol"},
	)}}
	ctrl, sess, _ := newTestController(gw)

	if err := ctrl.Login(context.Background(), api.Credential{Username: "admin", Password: "admin"}); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if !sess.IsAdmin() {
		t.Fatalf("admin login over foreign uploads must infer admin")
	}
}

func TestRegister_AutoLogin(t *testing.T) {
	gw := &fakeGateway{listings: [][]api.Dataset{nil}}
	ctrl, sess, _ := newTestController(gw)

	if err := ctrl.Register(context.Background(), api.Credential{Username: "dana", Password: "secret"}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if gw.registerCalls != 1 || gw.listCalls != 1 {
		t.Fatalf("register must be followed by exactly one login probe: register=%d list=%d",
			gw.registerCalls, gw.listCalls)
	}
	if cred, ok := sess.Credential(); !ok || cred.Username != "dana" {
		t.Fatalf("auto-login did not store the credential")
	}
}

func TestRegister_ValidationFailureSkipsLogin(t *testing.T) {
	gw := &fakeGateway{registerErr: &api.ValidationError{Field: "username", Messages: []string{"taken"}}}
	ctrl, sess, _ := newTestController(gw)

	err := ctrl.Register(context.Background(), api.Credential{Username: "dana", Password: "secret"})
	var ve *api.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *api.ValidationError, got %v", err)
	}
	if gw.listCalls != 0 {
		t.Fatalf("failed registration must not probe login")
	}
	if _, ok := sess.Credential(); ok {
		t.Fatalf("session must stay anonymous")
	}
}

func TestLogout_Idempotent(t *testing.T) {
	gw := &fakeGateway{listings: [][]api.Dataset{listing([2]string{"/u/a.csv", "bob"})}}
	ctrl, sess, store := newTestController(gw)

	if err := ctrl.Login(context.Background(), api.Credential{Username: "bob", Password: "pw"}); err != nil {
		t.Fatalf("Login: %v", err)
	}

	ctrl.Logout()
	first := snapshotState(sess, store)
	ctrl.Logout()
	second := snapshotState(sess, store)

	if first != second {
		t.Fatalf("logout must be idempotent: %+v vs %+v", first, second)
	}
	if first.authenticated || first.storeLen != 0 || first.isAdmin {
		t.Fatalf("logout must clear everything: %+v", first)
	}
}

type stateSnapshot struct {
	authenticated bool
	isAdmin       bool
	lastError     ErrorKind
	storeLen      int
	hasSelection  bool
}

func snapshotState(sess *Session, store *dataset.Store) stateSnapshot {
	_, _, hasSel := store.Snapshot()
	return stateSnapshot{
		authenticated: sess.Authenticated(),
		isAdmin:       sess.IsAdmin(),
		lastError:     sess.LastError(),
		storeLen:      store.Len(),
		hasSelection:  hasSel,
	}
}

func TestLogin_ResultAfterLogoutIsDiscarded(t *testing.T) {
	gw := &fakeGateway{listings: [][]api.Dataset{listing([2]string{"/u/a.csv", "bob"})}}
	ctrl, sess, store := newTestController(gw)

	// The listing reply arrives after the user has already logged out.
	gw.beforeReply = func() { ctrl.Logout() }

	err := ctrl.Login(context.Background(), api.Credential{Username: "bob", Password: "pw"})
	if err == nil {
		t.Fatalf("stale login must not report success")
	}
	if _, ok := sess.Credential(); ok {
		t.Fatalf("stale probe result must not authenticate a cleared session")
	}
	if store.Len() != 0 {
		t.Fatalf("stale listing must not repopulate a cleared store")
	}
}
