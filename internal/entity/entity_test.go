package entity

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"entityaudit/internal/audit"
	"entityaudit/internal/backend"
	apperrors "entityaudit/internal/errors"
	"entityaudit/internal/logger"
	"entityaudit/internal/store/memory"
	"entityaudit/internal/testutil"
	"entityaudit/internal/tracking"
)

// fakeBackend records calls and returns canned results.
type fakeBackend struct {
	updateErr  error
	destroyErr error
	panicWith  any
	resp       *backend.Response
	updates    int
	destroys   int
	onUpdate   func(ctx context.Context)
}

func (f *fakeBackend) Update(ctx context.Context) (*backend.Response, error) {
	f.updates++
	if f.onUpdate != nil {
		f.onUpdate(ctx)
	}
	if f.panicWith != nil {
		panic(f.panicWith)
	}
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return f.resp, nil
}

func (f *fakeBackend) Destroy(context.Context) error {
	f.destroys++
	if f.panicWith != nil {
		panic(f.panicWith)
	}
	return f.destroyErr
}

type fixture struct {
	def     *Definition
	store   *memory.Store
	backend *fakeBackend
	writer  *audit.Writer
}

func setup(t *testing.T, opts ...Option) *fixture {
	t.Helper()

	store := memory.NewStore()
	stores := audit.NewStores()
	stores.Register("audit_logs", store)
	w, err := audit.NewWriter(audit.Settings{CurrentUser: "system", AuditWith: "audit_logs"}, stores)
	testutil.AssertNoError(t, err)

	fb := &fakeBackend{resp: &backend.Response{StatusCode: http.StatusOK, Body: map[string]any{"ok": true}}}
	opts = append([]Option{WithBackendFunc(func(*Model) Backend { return fb })}, opts...)
	def, err := Define("Dog", w, opts...)
	testutil.AssertNoError(t, err)

	return &fixture{def: def, store: store, backend: fb, writer: w}
}

func (f *fixture) logs(t *testing.T, m *Model) []audit.Record {
	t.Helper()
	records, err := m.AuditLogs(context.Background())
	testutil.AssertNoError(t, err)
	return records
}

func TestUpdate_RecordsDiff(t *testing.T) {
	f := setup(t)
	m := f.def.New(map[string]any{"uid": "d-1", "name": "Rex", "age": 3})
	if m.Changed() {
		t.Fatal("a new model should have no pending changes")
	}

	resp, err := m.Update(context.Background(), map[string]any{"name": "Max"})
	testutil.AssertNoError(t, err)
	if resp != f.backend.resp {
		t.Errorf("expected the backend response to be returned")
	}
	if m.Changed() {
		t.Error("changes should be committed after a successful update")
	}

	records := f.logs(t, m)
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	rec := records[0]
	if rec.Action != audit.ActionUpdate || !rec.Success || rec.Error != "" {
		t.Errorf("unexpected record: %+v", rec)
	}
	if rec.SubjectType != "Dog" || rec.SubjectID != "d-1" || rec.Actor != "system" {
		t.Errorf("unexpected subject or actor: %+v", rec)
	}
	want := tracking.Changes{"name": {Old: "Rex", New: "Max"}}
	if !reflect.DeepEqual(rec.Metadata, want) {
		t.Errorf("expected metadata %v, got %v", want, rec.Metadata)
	}
}

func TestUpdate_NoChangesNoRecord(t *testing.T) {
	f := setup(t)
	m := f.def.New(map[string]any{"uid": "d-1", "name": "Rex"})

	_, err := m.Update(context.Background(), map[string]any{"name": "Rex"})
	testutil.AssertNoError(t, err)

	if f.backend.updates != 1 {
		t.Errorf("expected the backend to be called once, got %d", f.backend.updates)
	}
	if n := f.store.Len(); n != 0 {
		t.Errorf("expected no records for a no-op update, got %d", n)
	}
}

func TestUpdate_FailurePreservesError(t *testing.T) {
	f := setup(t)
	boom := errors.New("backend unavailable")
	f.backend.updateErr = boom
	m := f.def.New(map[string]any{"uid": "d-1", "name": "Rex"})

	resp, err := m.Update(context.Background(), map[string]any{"name": "Max"})
	testutil.AssertSameError(t, err, boom)
	if resp != nil {
		t.Errorf("expected nil response, got %+v", resp)
	}
	if !m.Changed() {
		t.Error("changes should stay pending after a failed update")
	}

	records := f.logs(t, m)
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	rec := records[0]
	if rec.Success || rec.Error != "backend unavailable" || rec.Metadata != nil {
		t.Errorf("unexpected failure record: %+v", rec)
	}
}

func TestUpdate_FailureWithoutChangesIsRecorded(t *testing.T) {
	f := setup(t)
	f.backend.updateErr = errors.New("timeout")
	m := f.def.New(map[string]any{"uid": "d-1"})

	_, err := m.Update(context.Background(), nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if n := f.store.Len(); n != 1 {
		t.Errorf("expected the failed attempt to be recorded, got %d records", n)
	}
}

func TestUpdate_CancelledContextIsRecorded(t *testing.T) {
	f := setup(t)
	f.backend.onUpdate = func(ctx context.Context) { f.backend.updateErr = ctx.Err() }
	m := f.def.New(map[string]any{"uid": "d-1", "name": "Rex"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := m.Update(ctx, map[string]any{"name": "Max"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	records := f.logs(t, m)
	if len(records) != 1 || records[0].Success {
		t.Fatalf("expected one failed record, got %+v", records)
	}
}

func TestDestroy_AlwaysRecords(t *testing.T) {
	f := setup(t)
	m := f.def.New(map[string]any{"uid": "d-1"})

	testutil.AssertNoError(t, m.Destroy(context.Background()))

	gone := errors.New("already gone")
	f.backend.destroyErr = gone
	testutil.AssertSameError(t, m.Destroy(context.Background()), gone)

	records := f.logs(t, m)
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Action != audit.ActionDelete || records[0].Success || records[0].Error != "already gone" {
		t.Errorf("unexpected newest record: %+v", records[0])
	}
	if records[1].Action != audit.ActionDelete || !records[1].Success || records[1].Metadata != nil {
		t.Errorf("unexpected oldest record: %+v", records[1])
	}
}

func TestAuditLogs_NewestFirst(t *testing.T) {
	f := setup(t)
	m := f.def.New(map[string]any{"uid": "d-1", "name": "a"})

	for _, name := range []string{"b", "c", "d"} {
		_, err := m.Update(context.Background(), map[string]any{"name": name})
		testutil.AssertNoError(t, err)
	}

	records := f.logs(t, m)
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	for i, want := range []string{"d", "c", "b"} {
		if got := records[i].Metadata["name"].New; got != want {
			t.Errorf("record %d: expected new name %s, got %v", i, want, got)
		}
	}
}

func TestHooks_RunInRegistrationOrder(t *testing.T) {
	var calls []string
	trace := func(name string) audit.Around {
		return func(ctx context.Context, _ audit.Subject, next audit.Continuation) (any, error) {
			calls = append(calls, name+":before")
			result, err := next(ctx)
			calls = append(calls, name+":after")
			return result, err
		}
	}

	f := setup(t, WithAround(audit.EventUpdate, trace("A")), WithAround(audit.EventUpdate, trace("B")))
	f.def.Around(audit.EventUpdate, trace("C"))
	f.backend.onUpdate = func(context.Context) { calls = append(calls, "backend") }

	m := f.def.New(map[string]any{"uid": "d-1", "name": "Rex"})
	_, err := m.Update(context.Background(), map[string]any{"name": "Max"})
	testutil.AssertNoError(t, err)

	want := []string{"A:before", "B:before", "C:before", "backend", "C:after", "B:after", "A:after"}
	if !reflect.DeepEqual(calls, want) {
		t.Errorf("expected %v, got %v", want, calls)
	}
	if n := f.store.Len(); n != 1 {
		t.Errorf("expected exactly one record, got %d", n)
	}
}

func TestHooks_ShortCircuitIsRecorded(t *testing.T) {
	denied := errors.New("frozen")
	f := setup(t, WithAround(audit.EventUpdate, func(context.Context, audit.Subject, audit.Continuation) (any, error) {
		return nil, denied
	}))
	m := f.def.New(map[string]any{"uid": "d-1", "name": "Rex"})

	_, err := m.Update(context.Background(), map[string]any{"name": "Max"})
	testutil.AssertSameError(t, err, denied)
	if f.backend.updates != 0 {
		t.Errorf("backend should not be called, got %d calls", f.backend.updates)
	}

	records := f.logs(t, m)
	if len(records) != 1 || records[0].Success || records[0].Error != "frozen" {
		t.Errorf("expected one failed record, got %+v", records)
	}
}

func TestAudit_Block(t *testing.T) {
	f := setup(t)
	m := f.def.New(map[string]any{"uid": "d-1", "name": "Rex", "age": 3})

	err := m.Audit(context.Background(), func(context.Context) error {
		m.Set("age", 4)
		return nil
	})
	testutil.AssertNoError(t, err)
	if m.Changed() {
		t.Error("changes should be committed after the block")
	}

	records := f.logs(t, m)
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if got := records[0].Metadata["age"]; got.Old != 3 || got.New != 4 {
		t.Errorf("expected age 3 -> 4, got %v", got)
	}
}

func TestAudit_BlockFailure(t *testing.T) {
	f := setup(t)
	m := f.def.New(map[string]any{"uid": "d-1", "age": 3})
	invalid := errors.New("invalid age")

	err := m.Audit(context.Background(), func(context.Context) error {
		m.Set("age", -1)
		return invalid
	})
	testutil.AssertSameError(t, err, invalid)
	if !m.Changed() {
		t.Error("changes should stay pending after a failed block")
	}
	records := f.logs(t, m)
	if len(records) != 1 || records[0].Success {
		t.Errorf("expected one failed record, got %+v", records)
	}
}

func TestAudit_NestedUpdateLogsOnce(t *testing.T) {
	f := setup(t)
	m := f.def.New(map[string]any{"uid": "d-1", "name": "Rex", "age": 3})

	err := m.Audit(context.Background(), func(ctx context.Context) error {
		m.Set("age", 4)
		_, err := m.Update(ctx, map[string]any{"name": "Max"})
		return err
	})
	testutil.AssertNoError(t, err)

	records := f.logs(t, m)
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	want := tracking.Changes{"name": {Old: "Rex", New: "Max"}, "age": {Old: 3, New: 4}}
	if !reflect.DeepEqual(records[0].Metadata, want) {
		t.Errorf("expected metadata %v, got %v", want, records[0].Metadata)
	}
}

func TestAudit_NestedUpdateWithDetachedContext(t *testing.T) {
	f := setup(t)
	m := f.def.New(map[string]any{"uid": "d-1", "name": "Rex"})

	err := m.Audit(context.Background(), func(context.Context) error {
		_, err := m.Update(context.Background(), map[string]any{"name": "Max"})
		return err
	})
	testutil.AssertNoError(t, err)

	records := f.logs(t, m)
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if got := records[0].Metadata["name"]; got != (tracking.Change{Old: "Rex", New: "Max"}) {
		t.Errorf("unexpected change: %v", got)
	}
	if m.Changed() {
		t.Error("changes should be committed by the outer call")
	}
}

func TestDestroy_NestedWithDetachedContext(t *testing.T) {
	f := setup(t)
	m := f.def.New(map[string]any{"uid": "d-1"})

	err := m.Destroy(context.Background())
	testutil.AssertNoError(t, err)
	if m.destroying != 0 {
		t.Errorf("expected destroy depth to unwind, got %d", m.destroying)
	}

	f.store.Clear()
	err = m.Audit(context.Background(), func(context.Context) error {
		return m.Destroy(context.Background())
	})
	testutil.AssertNoError(t, err)
	if records := f.logs(t, m); len(records) != 1 || records[0].Action != audit.ActionDelete {
		t.Errorf("expected a single delete record, got %+v", records)
	}
}

func TestUpdate_PanicIsRecordedAndRepanicked(t *testing.T) {
	f := setup(t)
	f.backend.panicWith = "boom"
	m := f.def.New(map[string]any{"uid": "d-1", "name": "Rex"})

	func() {
		defer func() {
			if r := recover(); r != "boom" {
				t.Errorf("expected the original panic value, got %v", r)
			}
		}()
		_, _ = m.Update(context.Background(), map[string]any{"name": "Max"})
	}()

	records := f.logs(t, m)
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].Success || !strings.Contains(records[0].Error, "boom") {
		t.Errorf("unexpected record: %+v", records[0])
	}
	if m.depth != 0 {
		t.Errorf("expected depth to unwind, got %d", m.depth)
	}
}

func TestActions(t *testing.T) {
	f := setup(t, WithAuditedActions("approve"))
	m := f.def.New(map[string]any{"uid": "d-1"})
	ctx := context.Background()

	t.Run("declared action records once", func(t *testing.T) {
		f.store.Clear()
		calls := 0
		err := m.Perform(ctx, "approve", func(context.Context) error { calls++; return nil })
		testutil.AssertNoError(t, err)

		records := f.logs(t, m)
		if calls != 1 || len(records) != 1 {
			t.Fatalf("expected 1 call and 1 record, got %d and %d", calls, len(records))
		}
		if records[0].Action != "approve" || !records[0].Success || records[0].Metadata != nil {
			t.Errorf("unexpected record: %+v", records[0])
		}
	})

	t.Run("undeclared action runs unrecorded", func(t *testing.T) {
		f.store.Clear()
		calls := 0
		err := m.Perform(ctx, "bark", func(context.Context) error { calls++; return nil })
		testutil.AssertNoError(t, err)
		if calls != 1 || f.store.Len() != 0 {
			t.Errorf("expected 1 call and no records, got %d and %d", calls, f.store.Len())
		}
	})

	t.Run("failure keeps the error", func(t *testing.T) {
		f.store.Clear()
		rejected := errors.New("rejected")
		err := m.Perform(ctx, "approve", func(context.Context) error { return rejected })
		testutil.AssertSameError(t, err, rejected)

		records := f.logs(t, m)
		if len(records) != 1 || records[0].Success || records[0].Error != "rejected" {
			t.Errorf("expected one failed record, got %+v", records)
		}
	})

	t.Run("binding an action does not declare it", func(t *testing.T) {
		f.store.Clear()
		other := f.def.New(map[string]any{"uid": "d-2"})
		testutil.AssertNoError(t, m.Action("groom", func(context.Context) error { return nil })(ctx))
		testutil.AssertNoError(t, other.Perform(ctx, "groom", func(context.Context) error { return nil }))

		if n := f.store.Len(); n != 0 {
			t.Errorf("expected no records, got %d", n)
		}
		if got := f.def.AuditedActions(); !reflect.DeepEqual(got, []string{"approve"}) {
			t.Errorf("unexpected audited actions: %v", got)
		}
	})

	t.Run("wrapping twice records once", func(t *testing.T) {
		f.store.Clear()
		f.def.Intercept("adopt")
		action := m.Action("adopt", m.Action("adopt", func(context.Context) error { return nil }))
		testutil.AssertNoError(t, action(ctx))

		if n := f.store.Len(); n != 1 {
			t.Errorf("expected 1 record, got %d", n)
		}
		if got := f.def.AuditedActions(); !reflect.DeepEqual(got, []string{"adopt", "approve"}) {
			t.Errorf("unexpected audited actions: %v", got)
		}
	})
}

func TestAuditWriteFailureDoesNotMaskOutcome(t *testing.T) {
	core, observed := observer.New(zap.ErrorLevel)
	restore := logger.Replace(zap.New(core))
	defer restore()

	f := setup(t)
	f.store.FailWith(errors.New("disk full"))
	m := f.def.New(map[string]any{"uid": "d-1", "name": "Rex"})

	_, err := m.Update(context.Background(), map[string]any{"name": "Max"})
	testutil.AssertNoError(t, err)

	failure := errors.New("backend down")
	f.backend.destroyErr = failure
	testutil.AssertSameError(t, m.Destroy(context.Background()), failure)

	entries := observed.FilterMessage("failed to write audit record").All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 logged write failures, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["action"] != audit.ActionUpdate || fields["operation_succeeded"] != true {
		t.Errorf("unexpected log fields: %v", fields)
	}
	if m.Changed() {
		t.Error("the successful update should still commit")
	}
}

func TestActorFromContext(t *testing.T) {
	f := setup(t)
	m := f.def.New(map[string]any{"uid": "d-1"})

	ctx := audit.WithActor(context.Background(), "alice")
	testutil.AssertNoError(t, m.Destroy(ctx))

	if records := f.logs(t, m); records[0].Actor != "alice" {
		t.Errorf("expected actor alice, got %q", records[0].Actor)
	}
}

func TestPrimaryKey(t *testing.T) {
	f := setup(t)
	if got := f.def.PrimaryKey(); got != DefaultPrimaryKey {
		t.Errorf("expected default primary key uid, got %s", got)
	}
	if got := f.def.New(map[string]any{"name": "Rex"}).SubjectID(); got != "" {
		t.Errorf("expected empty subject id, got %q", got)
	}

	f = setup(t, WithPrimaryKey("id"))
	m := f.def.New(map[string]any{"id": 42})
	if got := m.SubjectID(); got != "42" {
		t.Errorf("expected subject id 42, got %q", got)
	}
}

func TestPayloadExcludesAttributes(t *testing.T) {
	f := setup(t, WithExcludedAttributes("password"))
	m := f.def.New(map[string]any{"uid": "d-1", "name": "Rex", "password": "secret"})

	payload := m.Payload()
	if _, ok := payload["password"]; ok {
		t.Error("excluded attribute should not be sent")
	}
	if payload["name"] != "Rex" {
		t.Errorf("expected name in payload, got %v", payload)
	}
	if v, _ := m.Get("password"); v != "secret" {
		t.Error("excluded attribute should still be readable")
	}
}

func TestDefine_Misconfiguration(t *testing.T) {
	f := setup(t)

	t.Run("no backend", func(t *testing.T) {
		_, err := Define("Cat", f.writer)
		if !errors.Is(err, apperrors.ErrNoSuchBackend) {
			t.Fatalf("expected ErrNoSuchBackend, got %v", err)
		}
		for _, want := range []string{"Cat", "backends.Register", "entity.WithBackend"} {
			if !strings.Contains(err.Error(), want) {
				t.Errorf("error should mention %q: %s", want, err.Error())
			}
		}
	})

	t.Run("not in registry", func(t *testing.T) {
		_, err := Define("Cat", f.writer, WithBackends(backend.NewRegistry()))
		testutil.AssertAppError(t, err, apperrors.ErrNoSuchBackend.Code)
	})

	t.Run("no writer", func(t *testing.T) {
		_, err := Define("Cat", nil, WithBackend(backend.MustNew("cats", backend.Config{BaseURL: "http://cats.test"})))
		testutil.AssertAppError(t, err, apperrors.ErrInvalidDefinition.Code)
	})

	t.Run("no name", func(t *testing.T) {
		_, err := Define("", f.writer)
		testutil.AssertAppError(t, err, apperrors.ErrInvalidDefinition.Code)
	})
}

func TestEndToEndWithRESTBackend(t *testing.T) {
	var method, path string
	var body map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&body)
		if r.Method == http.MethodDelete {
			w.WriteHeader(http.StatusConflict)
			return
		}
		_, _ = w.Write([]byte(`{"uid":"d-1","name":"Max"}`))
	}))
	defer server.Close()

	registry := backend.NewRegistry()
	registry.Register("Dog", backend.MustNew("dogs", backend.Config{BaseURL: server.URL + "/dogs"},
		backend.WithHTTPClient(server.Client())))

	f := setup(t)
	def, err := Define("Dog", f.writer, WithBackends(registry), WithExcludedAttributes("secret"))
	testutil.AssertNoError(t, err)

	m := def.New(map[string]any{"uid": "d-1", "name": "Rex", "secret": "x"})
	resp, err := m.Update(context.Background(), map[string]any{"name": "Max"})
	testutil.AssertNoError(t, err)

	if method != http.MethodPut || path != "/dogs/d-1" {
		t.Errorf("expected PUT /dogs/d-1, got %s %s", method, path)
	}
	if _, ok := body["secret"]; ok || body["name"] != "Max" {
		t.Errorf("unexpected payload: %v", body)
	}
	if resp.Body.(map[string]any)["name"] != "Max" {
		t.Errorf("unexpected response body: %v", resp.Body)
	}

	err = m.Destroy(context.Background())
	var statusErr *backend.StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 StatusError, got %v", err)
	}

	records := f.logs(t, m)
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Action != audit.ActionDelete || records[0].Success {
		t.Errorf("unexpected delete record: %+v", records[0])
	}
	if records[1].Action != audit.ActionUpdate || !records[1].Success {
		t.Errorf("unexpected update record: %+v", records[1])
	}
}
