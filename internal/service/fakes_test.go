package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Lahiru-360/fixed-asset-registry-final/internal/lifecycle"
	"github.com/Lahiru-360/fixed-asset-registry-final/internal/model"
	"github.com/Lahiru-360/fixed-asset-registry-final/internal/report"
	"github.com/Lahiru-360/fixed-asset-registry-final/internal/repository"
	"github.com/Lahiru-360/fixed-asset-registry-final/internal/storage"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// memDB is an in-memory stand-in for the database. Its transaction manager restores a
// snapshot when the callback fails, so tests can observe rollback.
type memDB struct {
	mu         sync.Mutex
	users      map[uuid.UUID]model.User
	requests   map[uuid.UUID]model.AssetRequest
	quotations map[uuid.UUID]model.Quotation
	pos        map[uuid.UUID]model.PurchaseOrder
	grns       map[uuid.UUID]model.GoodsReceivedNote
	categories map[uuid.UUID]model.AssetCategory
	assets     []model.Asset
	audits     []model.AuditLog
	seq        map[repository.SequenceKind]int64
}

func newMemDB() *memDB {
	return &memDB{
		users:      map[uuid.UUID]model.User{},
		requests:   map[uuid.UUID]model.AssetRequest{},
		quotations: map[uuid.UUID]model.Quotation{},
		pos:        map[uuid.UUID]model.PurchaseOrder{},
		grns:       map[uuid.UUID]model.GoodsReceivedNote{},
		categories: map[uuid.UUID]model.AssetCategory{},
		seq:        map[repository.SequenceKind]int64{},
	}
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (db *memDB) snapshot() *memDB {
	db.mu.Lock()
	defer db.mu.Unlock()
	return &memDB{
		users:      copyMap(db.users),
		requests:   copyMap(db.requests),
		quotations: copyMap(db.quotations),
		pos:        copyMap(db.pos),
		grns:       copyMap(db.grns),
		categories: copyMap(db.categories),
		assets:     append([]model.Asset(nil), db.assets...),
		audits:     append([]model.AuditLog(nil), db.audits...),
	}
}

func (db *memDB) restore(s *memDB) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.users, db.requests, db.quotations = s.users, s.requests, s.quotations
	db.pos, db.grns, db.categories = s.pos, s.grns, s.categories
	db.assets, db.audits = s.assets, s.audits
}

// RunInTx implements repository.TransactionManager. Sequences are not rolled back, like the real ones.
func (db *memDB) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	snap := db.snapshot()
	if err := fn(ctx); err != nil {
		db.restore(snap)
		return err
	}
	return nil
}

func (db *memDB) Next(_ context.Context, kind repository.SequenceKind) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.seq[kind]++
	return db.seq[kind], nil
}

func (db *memDB) Log(_ context.Context, entry *model.AuditLog) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	entry.ID = uuid.New()
	entry.CreatedAt = time.Now()
	db.audits = append(db.audits, *entry)
	return nil
}

func (db *memDB) List(_ context.Context, entityID string, page, limit int) ([]model.AuditLog, int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	var out []model.AuditLog
	for i := len(db.audits) - 1; i >= 0; i-- {
		if entityID == "" || db.audits[i].EntityID == entityID {
			out = append(out, db.audits[i])
		}
	}
	total := int64(len(out))
	start := (page - 1) * limit
	if start > len(out) {
		start = len(out)
	}
	end := start + limit
	if end > len(out) {
		end = len(out)
	}
	return out[start:end], total, nil
}

func (db *memDB) auditActions() []string {
	db.mu.Lock()
	defer db.mu.Unlock()
	out := make([]string, 0, len(db.audits))
	for _, a := range db.audits {
		out = append(out, a.Action)
	}
	return out
}

// --- requests ---

type memRequests struct{ db *memDB }

func (r memRequests) Create(_ context.Context, req *model.AssetRequest) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	req.ID = uuid.New()
	req.CreatedAt = now()
	r.db.requests[req.ID] = *req
	return nil
}

func (r memRequests) FindByID(_ context.Context, id uuid.UUID) (*model.AssetRequest, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	req, ok := r.db.requests[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &req, nil
}

func (r memRequests) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.AssetRequest, error) {
	return r.FindByID(ctx, id)
}

func (r memRequests) FindByIDWithEmployee(ctx context.Context, id uuid.UUID) (*model.AssetRequest, error) {
	req, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if u, ok := r.db.users[req.EmployeeID]; ok {
		req.Employee = &u
	}
	return req, nil
}

func (r memRequests) all(keep func(model.AssetRequest) bool) []model.AssetRequest {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []model.AssetRequest
	for _, req := range r.db.requests {
		if keep(req) {
			out = append(out, req)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r memRequests) ListByEmployee(_ context.Context, employeeID uuid.UUID) ([]model.AssetRequest, error) {
	return r.all(func(req model.AssetRequest) bool { return req.EmployeeID == employeeID }), nil
}

func (r memRequests) List(_ context.Context, f repository.AssetRequestFilter) ([]model.AssetRequest, int64, error) {
	out := r.all(func(req model.AssetRequest) bool {
		if f.Status != "" && req.Status != f.Status {
			return false
		}
		return f.Search == "" || report.MatchesWordPrefix(req.AssetName, f.Search)
	})
	total := int64(len(out))
	start := (f.Page - 1) * f.Limit
	if start > len(out) {
		start = len(out)
	}
	end := start + f.Limit
	if end > len(out) {
		end = len(out)
	}
	return out[start:end], total, nil
}

func (r memRequests) Update(_ context.Context, req *model.AssetRequest) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.requests[req.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	stored := *req
	stored.Employee, stored.Reviewer = nil, nil
	r.db.requests[req.ID] = stored
	return nil
}

func (r memRequests) Stats(_ context.Context, employeeID *uuid.UUID, monthStart time.Time) (repository.RequestStats, error) {
	var s repository.RequestStats
	for _, req := range r.all(func(req model.AssetRequest) bool { return employeeID == nil || req.EmployeeID == *employeeID }) {
		s.Total++
		switch req.Status {
		case lifecycle.StatusPending:
			s.Pending++
		case lifecycle.StatusCompleted:
			s.Completed++
		case lifecycle.StatusRejected:
			s.Rejected++
		}
		if req.Status.Reached(lifecycle.StatusApproved) && !req.CreatedAt.Before(monthStart) {
			s.ApprovedThisMonth++
		}
	}
	return s, nil
}

// --- quotations ---

type memQuotations struct{ db *memDB }

func (r memQuotations) Create(_ context.Context, q *model.Quotation) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	q.ID = uuid.New()
	q.CreatedAt = time.Now()
	r.db.quotations[q.ID] = *q
	return nil
}

func (r memQuotations) FindByID(_ context.Context, id uuid.UUID) (*model.Quotation, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	q, ok := r.db.quotations[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &q, nil
}

func (r memQuotations) FindFinal(_ context.Context, requestID uuid.UUID) (*model.Quotation, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, q := range r.db.quotations {
		if q.RequestID == requestID && q.IsFinal {
			return &q, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r memQuotations) ListByRequest(_ context.Context, requestID uuid.UUID) ([]model.Quotation, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []model.Quotation
	for _, q := range r.db.quotations {
		if q.RequestID == requestID {
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r memQuotations) Update(_ context.Context, q *model.Quotation) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.quotations[q.ID] = *q
	return nil
}

func (r memQuotations) Delete(_ context.Context, id uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	delete(r.db.quotations, id)
	return nil
}

func (r memQuotations) SelectFinal(_ context.Context, requestID, quotationID uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	target, ok := r.db.quotations[quotationID]
	if !ok || target.RequestID != requestID {
		return gorm.ErrRecordNotFound
	}
	for id, q := range r.db.quotations {
		if q.RequestID == requestID {
			q.IsFinal = id == quotationID
			r.db.quotations[id] = q
		}
	}
	return nil
}

// --- purchase orders and GRNs ---

type memPOs struct{ db *memDB }

func (r memPOs) FindByRequestID(_ context.Context, requestID uuid.UUID) (*model.PurchaseOrder, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, po := range r.db.pos {
		if po.RequestID == requestID {
			return &po, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r memPOs) FindByID(_ context.Context, id uuid.UUID) (*model.PurchaseOrder, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	po, ok := r.db.pos[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &po, nil
}

func (r memPOs) CreateIfAbsent(ctx context.Context, po *model.PurchaseOrder) (*model.PurchaseOrder, bool, error) {
	if existing, err := r.FindByRequestID(ctx, po.RequestID); err == nil {
		return existing, false, nil
	}
	r.db.mu.Lock()
	po.ID = uuid.New()
	po.CreatedAt = time.Now()
	r.db.pos[po.ID] = *po
	r.db.mu.Unlock()
	stored, err := r.FindByID(ctx, po.ID)
	return stored, true, err
}

func (r memPOs) Update(_ context.Context, po *model.PurchaseOrder) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.pos[po.ID] = *po
	return nil
}

type memGRNs struct{ db *memDB }

func (r memGRNs) FindByPOID(_ context.Context, poID uuid.UUID) (*model.GoodsReceivedNote, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, g := range r.db.grns {
		if g.POID == poID {
			return &g, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r memGRNs) CreateIfAbsent(ctx context.Context, grn *model.GoodsReceivedNote) (*model.GoodsReceivedNote, bool, error) {
	if existing, err := r.FindByPOID(ctx, grn.POID); err == nil {
		return existing, false, nil
	}
	r.db.mu.Lock()
	grn.ID = uuid.New()
	r.db.grns[grn.ID] = *grn
	r.db.mu.Unlock()
	stored, err := r.FindByPOID(ctx, grn.POID)
	return stored, true, err
}

// brokenGRNs fails or loses the insert race, depending on which field is set.
type brokenGRNs struct {
	memGRNs
	err      error
	existing *model.GoodsReceivedNote
}

func (r brokenGRNs) CreateIfAbsent(_ context.Context, _ *model.GoodsReceivedNote) (*model.GoodsReceivedNote, bool, error) {
	if r.err != nil {
		return nil, false, r.err
	}
	return r.existing, false, nil
}

// --- assets and categories ---

type memAssets struct{ db *memDB }

func (r memAssets) CreateBatch(_ context.Context, assets []model.Asset) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for i := range assets {
		assets[i].ID = uuid.New()
		assets[i].CreatedAt = time.Now()
		r.db.assets = append(r.db.assets, assets[i])
	}
	return nil
}

// preload joins the current category row, like the gorm Preload in the real repository.
// Callers hold db.mu.
func (db *memDB) preload(a model.Asset) model.Asset {
	if a.CategoryID == nil {
		return a
	}
	if c, ok := db.categories[*a.CategoryID]; ok {
		a.Category = &c
	}
	return a
}

func (r memAssets) FindByID(_ context.Context, id uuid.UUID) (*model.Asset, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, a := range r.db.assets {
		if a.ID == id {
			a = r.db.preload(a)
			return &a, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r memAssets) ListByPO(_ context.Context, poID uuid.UUID) ([]model.Asset, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []model.Asset
	for _, a := range r.db.assets {
		if a.POID == poID {
			out = append(out, r.db.preload(a))
		}
	}
	return out, nil
}

func (r memAssets) ListAcquiredThrough(_ context.Context, end time.Time) ([]model.Asset, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []model.Asset
	for _, a := range r.db.assets {
		if a.AcquisitionDate.Before(end) {
			out = append(out, r.db.preload(a))
		}
	}
	return out, nil
}

func (r memAssets) List(_ context.Context, f repository.AssetFilter) ([]model.Asset, int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []model.Asset
	for _, a := range r.db.assets {
		a = r.db.preload(a)
		if f.Category != "" && f.Category != "All" && a.CategoryName() != f.Category {
			continue
		}
		if f.Search != "" && !report.MatchesWordPrefix(a.Name, f.Search) && !report.MatchesWordPrefix(a.AssetNumber, f.Search) {
			continue
		}
		out = append(out, a)
	}
	total := int64(len(out))
	start := (f.Page - 1) * f.Limit
	if start > len(out) {
		start = len(out)
	}
	end := start + f.Limit
	if end > len(out) {
		end = len(out)
	}
	return out[start:end], total, nil
}

func (r memAssets) CountByCategory(_ context.Context, categoryID uuid.UUID) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var n int64
	for _, a := range r.db.assets {
		if a.CategoryID != nil && *a.CategoryID == categoryID {
			n++
		}
	}
	return n, nil
}

type memCategories struct{ db *memDB }

func (r memCategories) List(_ context.Context) ([]model.AssetCategory, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := make([]model.AssetCategory, 0, len(r.db.categories))
	for _, c := range r.db.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IsSystem != out[j].IsSystem {
			return out[i].IsSystem
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (r memCategories) FindByID(_ context.Context, id uuid.UUID) (*model.AssetCategory, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	c, ok := r.db.categories[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &c, nil
}

func (r memCategories) FindByName(_ context.Context, name string) (*model.AssetCategory, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, c := range r.db.categories {
		if strings.EqualFold(c.Name, name) {
			return &c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r memCategories) Create(_ context.Context, c *model.AssetCategory) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	r.db.categories[c.ID] = *c
	return nil
}

func (r memCategories) Update(_ context.Context, c *model.AssetCategory) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.categories[c.ID] = *c
	return nil
}

func (r memCategories) Delete(_ context.Context, id uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	c, ok := r.db.categories[id]
	if !ok || c.IsSystem {
		return gorm.ErrRecordNotFound
	}
	delete(r.db.categories, id)
	return nil
}

// --- users and roles ---

type memUsers struct{ db *memDB }

func (r memUsers) Create(_ context.Context, u *model.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	u.ID = uuid.New()
	u.CreatedAt = time.Now()
	r.db.users[u.ID] = *u
	return nil
}

func (r memUsers) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	u, ok := r.db.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &u, nil
}

func (r memUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, u := range r.db.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

type stubRoles struct {
	perms map[string][]string
}

func (r stubRoles) ListAll(context.Context) ([]model.Role, error) {
	var out []model.Role
	for name, codes := range r.perms {
		role := model.Role{ID: uuid.New(), Name: name, IsSystem: true}
		for _, c := range codes {
			role.Permissions = append(role.Permissions, model.Permission{Code: c})
		}
		out = append(out, role)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r stubRoles) FindByName(_ context.Context, name string) (*model.Role, error) {
	if _, ok := r.perms[name]; !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &model.Role{Name: name}, nil
}

func (r stubRoles) GetPermissionsByRoleName(_ context.Context, name string) ([]string, error) {
	return r.perms[name], nil
}

// --- collaborators ---

type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
}

func newMemStore() *memStore { return &memStore{objects: map[string][]byte{}} }

func (s *memStore) Put(_ context.Context, key string, body []byte, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.putErr != nil {
		return s.putErr
	}
	s.objects[key] = append([]byte(nil), body...)
	return nil
}

func (s *memStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.objects[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return b, nil
}

func (s *memStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

func (s *memStore) keys(prefix string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for k := range s.objects {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	return out
}

func (s *memStore) URL(key string) string { return "/files/" + key }

func (s *memStore) has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[key]
	return ok
}

func (s *memStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

type fakeRenderer struct {
	err      error
	poCalls  int
	grnCalls int
}

func (r *fakeRenderer) PurchaseOrder(po *model.PurchaseOrder) ([]byte, error) {
	r.poCalls++
	if r.err != nil {
		return nil, r.err
	}
	return []byte("%PDF-PO " + po.PONumber), nil
}

func (r *fakeRenderer) GoodsReceivedNote(_ *model.PurchaseOrder, grn *model.GoodsReceivedNote) ([]byte, error) {
	r.grnCalls++
	if r.err != nil {
		return nil, r.err
	}
	return []byte("%PDF-GRN " + grn.GRNNumber), nil
}

func (r *fakeRenderer) MonthlySchedule(s report.Schedule) ([]byte, error) {
	return []byte("%PDF-SCHEDULE " + s.Period), r.err
}

func (r *fakeRenderer) SOFP(s report.SOFP) ([]byte, error) {
	return []byte("%PDF-SOFP " + s.AsOf), r.err
}

func (r *fakeRenderer) MonthlyScheduleXLSX(s report.Schedule) ([]byte, error) {
	return []byte("xlsx " + s.Period), r.err
}

func (r *fakeRenderer) SOFPXLSX(s report.SOFP) ([]byte, error) {
	return []byte("xlsx " + s.AsOf), r.err
}

type fakeMailer struct {
	err  error
	sent []string
}

func (m *fakeMailer) SendPurchaseOrder(_ context.Context, po *model.PurchaseOrder, _ []byte) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, po.PONumber)
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []lifecycle.Event
}

func (p *recordingPublisher) PublishStatusChange(e lifecycle.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) transitions() []lifecycle.Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]lifecycle.Status, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.To)
	}
	return out
}

// memCache is a map backed report cache.
type memCache struct {
	mu      sync.Mutex
	entries map[string]interface{}
	hits    int
	cleared int
}

func newMemCache() *memCache { return &memCache{entries: map[string]interface{}{}} }

func (c *memCache) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	if !ok {
		return false, nil
	}
	c.hits++
	switch d := dest.(type) {
	case *report.Schedule:
		*d = v.(report.Schedule)
	case *report.SOFP:
		*d = v.(report.SOFP)
	default:
		return false, errors.New("unsupported cache type")
	}
	return true, nil
}

func (c *memCache) Set(_ context.Context, key string, value interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch v := value.(type) {
	case *report.Schedule:
		c.entries[key] = *v
	case *report.SOFP:
		c.entries[key] = *v
	}
	return nil
}

func (c *memCache) InvalidateAll(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = map[string]interface{}{}
	c.cleared++
	return nil
}
