package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"attendance-board/backend/internal/hub"
	"attendance-board/backend/internal/model"
	pkgerrors "attendance-board/backend/pkg/errors"
)

// ── Mock AttendanceRepository ──

type mockAttendanceRepo struct {
	records   map[string]*model.AttendanceRecord // employee_id|date
	upsertErr error                              // 注入持久化失败
	listErr   error
}

func newMockAttendanceRepo() *mockAttendanceRepo {
	return &mockAttendanceRepo{records: make(map[string]*model.AttendanceRecord)}
}

func attKey(employeeID string, date time.Time) string {
	return employeeID + "|" + model.FormatDate(date)
}

func (m *mockAttendanceRepo) GetByEmployeeDate(_ context.Context, employeeID string, date time.Time) (*model.AttendanceRecord, error) {
	if r, ok := m.records[attKey(employeeID, date)]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAttendanceRepo) ListByGroupDate(_ context.Context, group string, date time.Time) ([]model.AttendanceRecord, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []model.AttendanceRecord
	d := model.DateOnly(date)
	for _, r := range m.records {
		if r.ReportingGroup == group && r.AttDate.Equal(d) {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EmployeeID < out[j].EmployeeID })
	return out, nil
}

func (m *mockAttendanceRepo) ListByGroupsRange(_ context.Context, groups []string, from, to time.Time) ([]model.AttendanceRecord, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	inGroup := make(map[string]bool, len(groups))
	for _, g := range groups {
		inGroup[g] = true
	}
	var out []model.AttendanceRecord
	for _, r := range m.records {
		if !inGroup[r.ReportingGroup] {
			continue
		}
		if r.AttDate.Before(model.DateOnly(from)) || r.AttDate.After(model.DateOnly(to)) {
			continue
		}
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EmployeeID < out[j].EmployeeID })
	return out, nil
}

func (m *mockAttendanceRepo) ListByRange(_ context.Context, from, to time.Time) ([]model.AttendanceRecord, error) {
	var out []model.AttendanceRecord
	for _, r := range m.records {
		if r.AttDate.Before(model.DateOnly(from)) || r.AttDate.After(model.DateOnly(to)) {
			continue
		}
		out = append(out, *r)
	}
	return out, nil
}

func (m *mockAttendanceRepo) BulkUpsert(_ context.Context, records []model.AttendanceRecord) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	for i := range records {
		r := records[i]
		m.records[attKey(r.EmployeeID, r.AttDate)] = &r
	}
	return nil
}

// ── Mock LockStatusRepository ──

type mockLockStatusRepo struct {
	locks  map[string]*model.LockStatus // group|date
	nextID int
	setErr error // 注入翻转失败
}

func newMockLockStatusRepo() *mockLockStatusRepo {
	return &mockLockStatusRepo{locks: make(map[string]*model.LockStatus)}
}

func lockKey(group string, date time.Time) string {
	return group + "|" + model.FormatDate(date)
}

// seed 直接放置一行锁状态（测试初始化用）
func (m *mockLockStatusRepo) seed(group string, date time.Time, status string) *model.LockStatus {
	m.nextID++
	l := &model.LockStatus{
		LockID:         fmt.Sprintf("lock-%d", m.nextID),
		ReportingGroup: group,
		AttDate:        model.DateOnly(date),
		Status:         status,
		Version:        1,
		UpdatedAt:      time.Now(),
	}
	m.locks[lockKey(group, date)] = l
	return l
}

func (m *mockLockStatusRepo) Get(_ context.Context, group string, date time.Time) (*model.LockStatus, error) {
	if l, ok := m.locks[lockKey(group, date)]; ok {
		cp := *l
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockLockStatusRepo) Provision(_ context.Context, groups []string, date time.Time) error {
	for _, g := range groups {
		if _, ok := m.locks[lockKey(g, date)]; !ok {
			m.seed(g, date, model.LockStatusUnlocked)
		}
	}
	return nil
}

func (m *mockLockStatusRepo) SetStatus(_ context.Context, lock *model.LockStatus, status, actor string) error {
	if m.setErr != nil {
		return m.setErr
	}
	stored, ok := m.locks[lockKey(lock.ReportingGroup, lock.AttDate)]
	if !ok || stored.Version != lock.Version {
		return pkgerrors.ErrOptimisticLock
	}
	stored.Status = status
	stored.LockedBy = actor
	stored.Version++
	stored.UpdatedAt = time.Now()
	lock.Status = status
	lock.LockedBy = actor
	lock.Version = stored.Version
	return nil
}

func (m *mockLockStatusRepo) ListUnlockedBefore(_ context.Context, cutoff time.Time) ([]model.LockStatus, error) {
	var out []model.LockStatus
	for _, l := range m.locks {
		if l.Status == model.LockStatusUnlocked && l.UpdatedAt.Before(cutoff) {
			out = append(out, *l)
		}
	}
	return out, nil
}

// ── Mock ChangeLogRepository ──

type mockChangeLogRepo struct {
	entries   map[string]*model.ChangeLogEntry // log_id
	insertErr error                            // 注入落库失败
	failLogID string                           // 非空时 insertErr 只对该 log_id 生效
}

func newMockChangeLogRepo() *mockChangeLogRepo {
	return &mockChangeLogRepo{entries: make(map[string]*model.ChangeLogEntry)}
}

func (m *mockChangeLogRepo) ExistingIDs(_ context.Context, ids []string) (map[string]bool, error) {
	out := make(map[string]bool)
	for _, id := range ids {
		if _, ok := m.entries[id]; ok {
			out[id] = true
		}
	}
	return out, nil
}

func (m *mockChangeLogRepo) Insert(_ context.Context, entry *model.ChangeLogEntry) error {
	if m.insertErr != nil && (m.failLogID == "" || entry.LogID == m.failLogID) {
		return m.insertErr
	}
	if _, ok := m.entries[entry.LogID]; ok {
		return nil // 主键冲突静默跳过
	}
	cp := *entry
	m.entries[entry.LogID] = &cp
	return nil
}

func (m *mockChangeLogRepo) List(_ context.Context, employeeID string, date *time.Time, offset, limit int) ([]model.ChangeLogEntry, int64, error) {
	var out []model.ChangeLogEntry
	for _, e := range m.entries {
		if employeeID != "" && e.EmployeeID != employeeID {
			continue
		}
		if date != nil && !e.AttDate.Equal(model.DateOnly(*date)) {
			continue
		}
		out = append(out, *e)
	}
	total := int64(len(out))
	sort.Slice(out, func(i, j int) bool { return out[i].ChangedAt.After(out[j].ChangedAt) })
	if offset >= len(out) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(out) {
		end = len(out)
	}
	return out[offset:end], total, nil
}

func (m *mockChangeLogRepo) PurgeOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	var n int64
	for id, e := range m.entries {
		if e.ChangedAt.Before(cutoff) {
			delete(m.entries, id)
			n++
		}
	}
	return n, nil
}

// ── Mock UnlockRequestRepository ──

type mockUnlockRequestRepo struct {
	requests map[string]*model.UnlockRequest
	nextID   int
}

func newMockUnlockRequestRepo() *mockUnlockRequestRepo {
	return &mockUnlockRequestRepo{requests: make(map[string]*model.UnlockRequest)}
}

func (m *mockUnlockRequestRepo) Create(_ context.Context, req *model.UnlockRequest) error {
	if req.RequestID == "" {
		m.nextID++
		req.RequestID = fmt.Sprintf("req-%d", m.nextID)
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now()
	}
	cp := *req
	m.requests[req.RequestID] = &cp
	return nil
}

func (m *mockUnlockRequestRepo) GetByID(_ context.Context, id string) (*model.UnlockRequest, error) {
	if r, ok := m.requests[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUnlockRequestRepo) List(_ context.Context, month, year int, requester string) ([]model.UnlockRequest, error) {
	var out []model.UnlockRequest
	for _, r := range m.requests {
		if requester != "" && r.RequestedBy != requester {
			continue
		}
		if year > 0 && r.CreatedAt.Year() != year {
			continue
		}
		if month > 0 && int(r.CreatedAt.Month()) != month {
			continue
		}
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *mockUnlockRequestRepo) UpdateStatus(_ context.Context, id, status, statusBy, statusDetail string) error {
	r, ok := m.requests[id]
	if !ok || r.Status != model.UnlockPending {
		return gorm.ErrRecordNotFound
	}
	r.Status = status
	r.StatusBy = statusBy
	r.StatusDetail = statusDetail
	r.UpdatedAt = time.Now()
	return nil
}

// ── Mock EmployeeRepository ──

type mockEmployeeRepo struct {
	employees map[string]*model.Employee
}

func newMockEmployeeRepo() *mockEmployeeRepo {
	return &mockEmployeeRepo{employees: make(map[string]*model.Employee)}
}

func (m *mockEmployeeRepo) add(id, name, punchCode, group string) {
	m.employees[id] = &model.Employee{
		EmployeeID:     id,
		Name:           name,
		PunchCode:      punchCode,
		ReportingGroup: group,
		IsActive:       true,
	}
}

func (m *mockEmployeeRepo) GetByID(_ context.Context, id string) (*model.Employee, error) {
	if e, ok := m.employees[id]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockEmployeeRepo) ListActive(_ context.Context) ([]model.Employee, error) {
	var out []model.Employee
	for _, e := range m.employees {
		if e.IsActive {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *mockEmployeeRepo) ListByGroup(_ context.Context, group string) ([]model.Employee, error) {
	var out []model.Employee
	for _, e := range m.employees {
		if e.IsActive && e.ReportingGroup == group {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (m *mockEmployeeRepo) ActiveGroups(_ context.Context) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	for _, e := range m.employees {
		if e.IsActive && !seen[e.ReportingGroup] {
			seen[e.ReportingGroup] = true
			out = append(out, e.ReportingGroup)
		}
	}
	sort.Strings(out)
	return out, nil
}

// ── Mock ReferenceMetricRepository ──

type mockReferenceMetricRepo struct {
	metrics map[string]map[string]*model.ReferenceMetric // month → punch_code
}

func newMockReferenceMetricRepo() *mockReferenceMetricRepo {
	return &mockReferenceMetricRepo{metrics: make(map[string]map[string]*model.ReferenceMetric)}
}

func (m *mockReferenceMetricRepo) add(metric *model.ReferenceMetric) {
	if m.metrics[metric.Month] == nil {
		m.metrics[metric.Month] = make(map[string]*model.ReferenceMetric)
	}
	m.metrics[metric.Month][metric.PunchCode] = metric
}

func (m *mockReferenceMetricRepo) MapByPunchCode(_ context.Context, month string) (map[string]*model.ReferenceMetric, error) {
	out := make(map[string]*model.ReferenceMetric)
	for code, metric := range m.metrics[month] {
		out[code] = metric
	}
	return out, nil
}

// ── Mock KV（编辑缓存后端） ──

type mockKV struct {
	data       map[string]string
	setErr     error
	getErr     error
	existsHook func() // Exists 返回前触发一次，用于在检查与写入之间插入并发操作
}

func newMockKV() *mockKV {
	return &mockKV{data: make(map[string]string)}
}

func (m *mockKV) Get(_ context.Context, key string) (string, bool, error) {
	if m.getErr != nil {
		return "", false, m.getErr
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *mockKV) Set(_ context.Context, key, value string, _ time.Duration) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	return nil
}

func (m *mockKV) Delete(_ context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func (m *mockKV) Exists(_ context.Context, key string) (bool, error) {
	_, ok := m.data[key]
	if m.existsHook != nil {
		hook := m.existsHook
		m.existsHook = nil
		hook()
	}
	return ok, nil
}

// ── Mock Buffer（变更日志快速缓冲） ──

type mockBuffer struct {
	items   []string
	pushErr error
}

func newMockBuffer() *mockBuffer {
	return &mockBuffer{}
}

func (m *mockBuffer) ListPush(_ context.Context, _ string, value string) error {
	if m.pushErr != nil {
		return m.pushErr
	}
	m.items = append(m.items, value)
	return nil
}

func (m *mockBuffer) ListPeek(_ context.Context, _ string, n int64) ([]string, error) {
	if int64(len(m.items)) < n {
		n = int64(len(m.items))
	}
	out := make([]string, n)
	copy(out, m.items[:n])
	return out, nil
}

func (m *mockBuffer) ListAck(_ context.Context, _ string, n int64) error {
	if int64(len(m.items)) < n {
		n = int64(len(m.items))
	}
	m.items = m.items[n:]
	return nil
}

func (m *mockBuffer) ListLen(_ context.Context, _ string) (int64, error) {
	return int64(len(m.items)), nil
}

// ── Mock Publisher（通知中心） ──

type publishedEvent struct {
	Event   string
	Payload interface{}
	Opts    hub.Options
}

type mockPublisher struct {
	events []publishedEvent
}

func newMockPublisher() *mockPublisher {
	return &mockPublisher{}
}

func (m *mockPublisher) Publish(event string, payload interface{}, opts hub.Options) {
	m.events = append(m.events, publishedEvent{Event: event, Payload: payload, Opts: opts})
}

// [自证通过] internal/service/mock_repos_test.go
