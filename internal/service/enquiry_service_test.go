package service

import (
	"context"
	"errors"
	"mime/multipart"
	"sort"
	"sync"
	"testing"

	"enquiry-backend/internal/model"
	"enquiry-backend/pkg/apperr"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// fakeEnquiryRepo is an in-memory EnquiryRepository.
type fakeEnquiryRepo struct {
	mu        sync.Mutex
	enquiries map[uuid.UUID]*model.Enquiry
	failNext  error
}

func newFakeEnquiryRepo() *fakeEnquiryRepo {
	return &fakeEnquiryRepo{enquiries: make(map[uuid.UUID]*model.Enquiry)}
}

func (f *fakeEnquiryRepo) takeErr() error {
	err := f.failNext
	f.failNext = nil
	return err
}

func (f *fakeEnquiryRepo) Create(ctx context.Context, enquiry *model.Enquiry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeErr(); err != nil {
		return err
	}
	enquiry.ID = uuid.New()
	cp := *enquiry
	f.enquiries[enquiry.ID] = &cp
	return nil
}

func (f *fakeEnquiryRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Enquiry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.enquiries[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *e
	return &cp, nil
}

func (f *fakeEnquiryRepo) List(ctx context.Context) ([]model.Enquiry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Enquiry
	for _, e := range f.enquiries {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeEnquiryRepo) ListReviewed(ctx context.Context) ([]model.Enquiry, error) {
	all, _ := f.List(ctx)
	var out []model.Enquiry
	for _, e := range all {
		if e.Status == model.StatusReviewed {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEnquiryRepo) ApplyProcurement(ctx context.Context, id uuid.UUID, info model.ProcurementInfo) (*model.Enquiry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeErr(); err != nil {
		return nil, err
	}
	e, ok := f.enquiries[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := info
	e.ProcurementInfo = &cp
	e.Status = model.StatusReviewed
	res := *e
	return &res, nil
}

func (f *fakeEnquiryRepo) SetStatus(ctx context.Context, id uuid.UUID, status string) (*model.Enquiry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.enquiries[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	e.Status = status
	res := *e
	return &res, nil
}

// fakeAuditRepo records audit entries in memory.
type fakeAuditRepo struct {
	mu      sync.Mutex
	entries []model.AuditLog
}

func (f *fakeAuditRepo) Log(ctx context.Context, entry *model.AuditLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeAuditRepo) List(ctx context.Context, page, limit int) ([]model.AuditLog, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.AuditLog(nil), f.entries...), int64(len(f.entries)), nil
}

// fakeTxManager runs the function directly; atomicity is the repo's concern.
type fakeTxManager struct{}

func (fakeTxManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

// fakeAttachments returns canned names and records removals.
type fakeAttachments struct {
	names   []string
	err     error
	removed []string
}

func (f *fakeAttachments) SaveAll(files []*multipart.FileHeader) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	if len(files) == 0 {
		return []string{}, nil
	}
	return f.names, nil
}

func (f *fakeAttachments) Remove(names []string) {
	f.removed = append(f.removed, names...)
}

// fakeNotifier records published events. onPublish lets a test observe
// repository state at emission time.
type fakeNotifier struct {
	mu        sync.Mutex
	events    []string
	payloads  []interface{}
	onPublish func(event string, data interface{})
}

func (f *fakeNotifier) Publish(event string, data interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	f.payloads = append(f.payloads, data)
	if f.onPublish != nil {
		f.onPublish(event, data)
	}
}

type fixture struct {
	repo     *fakeEnquiryRepo
	audit    *fakeAuditRepo
	store    *fakeAttachments
	notifier *fakeNotifier
	svc      EnquiryService
}

func newFixture() *fixture {
	f := &fixture{
		repo:     newFakeEnquiryRepo(),
		audit:    &fakeAuditRepo{},
		store:    &fakeAttachments{},
		notifier: &fakeNotifier{},
	}
	f.svc = NewEnquiryService(f.repo, f.audit, fakeTxManager{}, f.store, f.notifier)
	return f
}

var (
	executive   = Actor{ID: uuid.NewString(), Role: model.RoleExecutive}
	procurement = Actor{ID: uuid.NewString(), Role: model.RoleProcurement}
)

func validDraft() CreateEnquiryRequest {
	return CreateEnquiryRequest{
		Type:    model.ShipmentSeaExport,
		Shipper: "Acme",
		POR:     "X",
		POL:     "Y",
		POD:     "Z",
	}
}

func TestCreateEnquiry(t *testing.T) {
	f := newFixture()

	enquiry, err := f.svc.Create(context.Background(), executive, validDraft(), nil)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if enquiry.Status != model.StatusPending {
		t.Errorf("expected status %q, got %q", model.StatusPending, enquiry.Status)
	}
	if enquiry.ProcurementInfo != nil {
		t.Error("new enquiry must not carry procurement info")
	}
	if enquiry.Photos == nil || len(enquiry.Photos) != 0 {
		t.Errorf("expected empty photos, got %v", enquiry.Photos)
	}

	// Round-trip: fetch returns the created draft plus server-assigned fields
	got, err := f.svc.Get(context.Background(), procurement, enquiry.ID.String())
	if err != nil {
		t.Fatalf("get after create failed: %v", err)
	}
	if got.Type != model.ShipmentSeaExport || got.POR != "X" || got.POL != "Y" || got.POD != "Z" || got.Shipper != "Acme" {
		t.Errorf("round-trip mismatch: %+v", got)
	}

	if len(f.notifier.events) != 1 || f.notifier.events[0] != EventNewEnquiry {
		t.Errorf("expected one %s event, got %v", EventNewEnquiry, f.notifier.events)
	}
}

func TestCreateEnquiryForbiddenForProcurement(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Create(context.Background(), procurement, validDraft(), nil)
	if !apperr.IsKind(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden error, got %v", err)
	}

	if len(f.repo.enquiries) != 0 {
		t.Error("no record must be persisted on a forbidden create")
	}
	if len(f.notifier.events) != 0 {
		t.Error("no event must be emitted on a forbidden create")
	}
}

func TestCreateEnquiryMissingFields(t *testing.T) {
	f := newFixture()

	req := validDraft()
	req.POL = ""
	req.POD = ""

	_, err := f.svc.Create(context.Background(), executive, req, nil)
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	msg := err.Error()
	for _, field := range []string{"pol", "pod"} {
		if !containsField(msg, field) {
			t.Errorf("error %q should name missing field %q", msg, field)
		}
	}
}

func containsField(msg, field string) bool {
	for i := 0; i+len(field) <= len(msg); i++ {
		if msg[i:i+len(field)] == field {
			return true
		}
	}
	return false
}

func TestCreateEnquiryInvalidType(t *testing.T) {
	f := newFixture()

	req := validDraft()
	req.Type = "Teleport"

	if _, err := f.svc.Create(context.Background(), executive, req, nil); !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateEnquiryCleansUpAttachmentsOnWriteFailure(t *testing.T) {
	f := newFixture()
	f.store.names = []string{"a.png", "b.png"}
	f.repo.failNext = errors.New("disk on fire")

	files := []*multipart.FileHeader{{Filename: "a.png"}, {Filename: "b.png"}}
	_, err := f.svc.Create(context.Background(), executive, validDraft(), files)
	if !apperr.IsKind(err, apperr.KindStorage) {
		t.Fatalf("expected storage error, got %v", err)
	}

	if len(f.store.removed) != 2 {
		t.Errorf("expected both stored files removed, got %v", f.store.removed)
	}
	if len(f.notifier.events) != 0 {
		t.Error("no event must be emitted when the durable write fails")
	}
}

func TestRecordProcurement(t *testing.T) {
	f := newFixture()
	created, _ := f.svc.Create(context.Background(), executive, validDraft(), nil)

	updated, err := f.svc.RecordProcurement(context.Background(), procurement, created.ID.String(), ProcurementRequest{
		Carrier: "MSC", Rate: "100", Remarks: "ok",
	})
	if err != nil {
		t.Fatalf("record procurement failed: %v", err)
	}

	if updated.Status != model.StatusReviewed {
		t.Errorf("expected status reviewed, got %q", updated.Status)
	}
	if updated.ProcurementInfo == nil || updated.ProcurementInfo.Carrier != "MSC" {
		t.Errorf("procurement info not applied: %+v", updated.ProcurementInfo)
	}

	events := f.notifier.events
	if len(events) != 2 || events[1] != EventProcurementUpdated {
		t.Errorf("expected %s event after create event, got %v", EventProcurementUpdated, events)
	}

	payload, ok := f.notifier.payloads[1].(*model.Enquiry)
	if !ok || payload.ProcurementInfo == nil || payload.ProcurementInfo.Carrier != "MSC" {
		t.Errorf("event payload should carry the updated record, got %#v", f.notifier.payloads[1])
	}
}

func TestRecordProcurementIdempotent(t *testing.T) {
	f := newFixture()
	created, _ := f.svc.Create(context.Background(), executive, validDraft(), nil)

	req := ProcurementRequest{Carrier: "MSC", Rate: "100", Remarks: "ok"}
	first, err := f.svc.RecordProcurement(context.Background(), procurement, created.ID.String(), req)
	if err != nil {
		t.Fatalf("first submission failed: %v", err)
	}
	second, err := f.svc.RecordProcurement(context.Background(), procurement, created.ID.String(), req)
	if err != nil {
		t.Fatalf("re-submission failed: %v", err)
	}

	if *first.ProcurementInfo != *second.ProcurementInfo || first.Status != second.Status {
		t.Errorf("re-submission changed final state: %+v vs %+v", first, second)
	}
}

func TestRecordProcurementLastWriteWins(t *testing.T) {
	f := newFixture()
	created, _ := f.svc.Create(context.Background(), executive, validDraft(), nil)

	_, _ = f.svc.RecordProcurement(context.Background(), procurement, created.ID.String(), ProcurementRequest{Carrier: "MSC", Rate: "100"})
	updated, err := f.svc.RecordProcurement(context.Background(), procurement, created.ID.String(), ProcurementRequest{Carrier: "Maersk", Rate: "90", Remarks: "cheaper"})
	if err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}

	want := model.ProcurementInfo{Carrier: "Maersk", Rate: "90", Remarks: "cheaper"}
	if *updated.ProcurementInfo != want {
		t.Errorf("expected last submitted values %+v, got %+v", want, *updated.ProcurementInfo)
	}
}

func TestRecordProcurementForbiddenForExecutive(t *testing.T) {
	f := newFixture()
	created, _ := f.svc.Create(context.Background(), executive, validDraft(), nil)
	eventsBefore := len(f.notifier.events)

	_, err := f.svc.RecordProcurement(context.Background(), executive, created.ID.String(), ProcurementRequest{Carrier: "MSC"})
	if !apperr.IsKind(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden error, got %v", err)
	}

	got, _ := f.svc.Get(context.Background(), executive, created.ID.String())
	if got.Status != model.StatusPending || got.ProcurementInfo != nil {
		t.Error("forbidden call must not change state")
	}
	if len(f.notifier.events) != eventsBefore {
		t.Error("forbidden call must not emit an event")
	}
}

func TestRecordProcurementUnknownID(t *testing.T) {
	f := newFixture()

	if _, err := f.svc.RecordProcurement(context.Background(), procurement, uuid.NewString(), ProcurementRequest{}); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := f.svc.RecordProcurement(context.Background(), procurement, "not-a-uuid", ProcurementRequest{}); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Fatalf("expected not found for malformed id, got %v", err)
	}
}

func TestEventEmittedOnlyAfterDurableWrite(t *testing.T) {
	f := newFixture()

	f.notifier.onPublish = func(event string, data interface{}) {
		e, ok := data.(*model.Enquiry)
		if !ok {
			t.Errorf("unexpected payload type %T", data)
			return
		}
		if _, err := f.repo.GetByID(context.Background(), e.ID); err != nil {
			t.Errorf("%s published before the record was durable", event)
		}
	}

	created, err := f.svc.Create(context.Background(), executive, validDraft(), nil)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := f.svc.RecordProcurement(context.Background(), procurement, created.ID.String(), ProcurementRequest{Carrier: "MSC"}); err != nil {
		t.Fatalf("record procurement failed: %v", err)
	}
}

func TestGetEnquiryNotFound(t *testing.T) {
	f := newFixture()

	for _, actor := range []Actor{executive, procurement} {
		if _, err := f.svc.Get(context.Background(), actor, uuid.NewString()); !apperr.IsKind(err, apperr.KindNotFound) {
			t.Errorf("role %s: expected not found, got %v", actor.Role, err)
		}
	}
}

func TestListEnquiriesEmpty(t *testing.T) {
	f := newFixture()

	enquiries, err := f.svc.List(context.Background(), executive)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(enquiries) != 0 {
		t.Errorf("expected empty sequence, got %d entries", len(enquiries))
	}
}

func TestSetStatusValidation(t *testing.T) {
	f := newFixture()
	created, _ := f.svc.Create(context.Background(), executive, validDraft(), nil)

	if _, err := f.svc.SetStatus(context.Background(), executive, created.ID.String(), "archived"); !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for unknown status, got %v", err)
	}

	updated, err := f.svc.SetStatus(context.Background(), executive, created.ID.String(), model.StatusReviewed)
	if err != nil {
		t.Fatalf("set status failed: %v", err)
	}
	if updated.Status != model.StatusReviewed {
		t.Errorf("expected reviewed, got %q", updated.Status)
	}
}

func TestListProcurements(t *testing.T) {
	f := newFixture()
	created, _ := f.svc.Create(context.Background(), executive, validDraft(), nil)
	_, _ = f.svc.Create(context.Background(), executive, validDraft(), nil)
	_, _ = f.svc.RecordProcurement(context.Background(), procurement, created.ID.String(), ProcurementRequest{Carrier: "MSC", Rate: "100"})

	if _, err := f.svc.ListProcurements(context.Background(), executive); !apperr.IsKind(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden for executive, got %v", err)
	}

	summaries, err := f.svc.ListProcurements(context.Background(), procurement)
	if err != nil {
		t.Fatalf("list procurements failed: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("expected only the reviewed enquiry, got %d", len(summaries))
	}
	if summaries[0].Route != "X → Y → Z" {
		t.Errorf("unexpected route projection %q", summaries[0].Route)
	}
	if summaries[0].ProcurementInfo == nil || summaries[0].ProcurementInfo.Carrier != "MSC" {
		t.Errorf("summary missing procurement info: %+v", summaries[0])
	}
}

func TestGetProcurementEmptyWhenPending(t *testing.T) {
	f := newFixture()
	created, _ := f.svc.Create(context.Background(), executive, validDraft(), nil)

	info, err := f.svc.GetProcurement(context.Background(), procurement, created.ID.String())
	if err != nil {
		t.Fatalf("get procurement failed: %v", err)
	}
	if *info != (model.ProcurementInfo{}) {
		t.Errorf("expected empty info for pending enquiry, got %+v", info)
	}
}
