package testutil

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/safeguardai/console/internal/directory"
	"github.com/safeguardai/console/internal/identity"
	"github.com/safeguardai/console/internal/rbac"
)

// FakeDirectory is an in-memory directory.Store. Setting Err makes
// every call fail with it, which simulates an unreachable store.
type FakeDirectory struct {
	mu      sync.Mutex
	records map[string]*directory.UserRecord

	Err error
}

func NewFakeDirectory() *FakeDirectory {
	return &FakeDirectory{records: make(map[string]*directory.UserRecord)}
}

// Seed inserts a record directly, bypassing error injection.
func (f *FakeDirectory) Seed(rec *directory.UserRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	clone := *rec
	f.records[rec.UID] = &clone
}

// Record returns a copy of the record keyed by uid, or nil.
func (f *FakeDirectory) Record(uid string) *directory.UserRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[uid]
	if !ok {
		return nil
	}
	clone := *rec
	return &clone
}

func (f *FakeDirectory) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}

func (f *FakeDirectory) Get(ctx context.Context, uid string) (*directory.UserRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	rec, ok := f.records[uid]
	if !ok {
		return nil, directory.ErrNotFound
	}
	clone := *rec
	return &clone, nil
}

func (f *FakeDirectory) FindInviteByEmail(ctx context.Context, email string) (*directory.UserRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	normalized := directory.NormalizeEmail(email)
	for _, rec := range f.records {
		if rec.IsInvite && directory.NormalizeEmail(rec.Email) == normalized {
			clone := *rec
			return &clone, nil
		}
	}
	return nil, directory.ErrNotFound
}

func (f *FakeDirectory) EmailExists(ctx context.Context, email string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return false, f.Err
	}
	normalized := directory.NormalizeEmail(email)
	for _, rec := range f.records {
		if directory.NormalizeEmail(rec.Email) == normalized {
			return true, nil
		}
	}
	return false, nil
}

func (f *FakeDirectory) CountByRole(ctx context.Context, role rbac.Role) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return 0, f.Err
	}
	count := 0
	for _, rec := range f.records {
		if rec.Role == role {
			count++
		}
	}
	return count, nil
}

func (f *FakeDirectory) AdminExists(ctx context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return false, f.Err
	}
	for _, rec := range f.records {
		if rec.Role == rbac.RoleAdmin && !rec.IsInvite {
			return true, nil
		}
	}
	return false, nil
}

func (f *FakeDirectory) List(ctx context.Context) ([]directory.UserRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	out := make([]directory.UserRecord, 0, len(f.records))
	for _, rec := range f.records {
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (f *FakeDirectory) Create(ctx context.Context, rec *directory.UserRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	if _, exists := f.records[rec.UID]; exists {
		return errors.New("record already exists")
	}
	clone := *rec
	f.records[rec.UID] = &clone
	return nil
}

func (f *FakeDirectory) UpdateRole(ctx context.Context, uid string, role rbac.Role) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	rec, ok := f.records[uid]
	if !ok {
		return directory.ErrNotFound
	}
	rec.Role = role
	return nil
}

func (f *FakeDirectory) UpdateStatus(ctx context.Context, uid, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	rec, ok := f.records[uid]
	if !ok {
		return directory.ErrNotFound
	}
	rec.Status = status
	return nil
}

func (f *FakeDirectory) Delete(ctx context.Context, uid string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	if _, ok := f.records[uid]; !ok {
		return directory.ErrNotFound
	}
	delete(f.records, uid)
	return nil
}

// StaticProvider verifies tokens against a fixed token-to-identity map.
type StaticProvider struct {
	Identities map[string]identity.Identity
}

func NewStaticProvider() *StaticProvider {
	return &StaticProvider{Identities: make(map[string]identity.Identity)}
}

// Add registers an identity and returns the token that verifies as it.
func (p *StaticProvider) Add(token string, ident identity.Identity) {
	p.Identities[token] = ident
}

func (p *StaticProvider) Verify(ctx context.Context, rawToken string) (*identity.Identity, error) {
	ident, ok := p.Identities[rawToken]
	if !ok {
		return nil, identity.NewError("invalid credentials")
	}
	return &ident, nil
}

// RecordingNotifier captures invite notifications for assertions.
type RecordingNotifier struct {
	mu      sync.Mutex
	Invites []InviteNotice

	Err error
}

type InviteNotice struct {
	Name  string
	Email string
	Role  rbac.Role
}

func (n *RecordingNotifier) NotifyInvite(ctx context.Context, name, email string, role rbac.Role) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.Err != nil {
		return n.Err
	}
	n.Invites = append(n.Invites, InviteNotice{Name: name, Email: email, Role: role})
	return nil
}

func (n *RecordingNotifier) Count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.Invites)
}
