package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/pagecraft/pagecraft-backend/internal/common"
	"github.com/pagecraft/pagecraft-backend/internal/domain"
	"github.com/pagecraft/pagecraft-backend/internal/repository"
	"github.com/pagecraft/pagecraft-backend/pkg/cache"
	"gorm.io/datatypes"
)

// fakeUnitOfWork is an in-memory repository.UnitOfWork for service
// tests. InTx runs the callback against the same state; rollback is
// not emulated because the tests assert committed outcomes.
type fakeUnitOfWork struct {
	posts        map[uint64]*domain.Post
	modules      map[uint64]*domain.ModuleInstance
	placements   map[uint64]*domain.PostModule
	customFields map[uint64]map[string]interface{}
	terms        map[uint64][]uint64
	revisions    []*domain.Revision
	activities   []*domain.ActivityLog
	nextID       uint64
}

func newFakeUOW() *fakeUnitOfWork {
	return &fakeUnitOfWork{
		posts:        make(map[uint64]*domain.Post),
		modules:      make(map[uint64]*domain.ModuleInstance),
		placements:   make(map[uint64]*domain.PostModule),
		customFields: make(map[uint64]map[string]interface{}),
		terms:        make(map[uint64][]uint64),
	}
}

func (f *fakeUnitOfWork) id() uint64 {
	f.nextID++
	return f.nextID
}

func (f *fakeUnitOfWork) addPost(p *domain.Post) *domain.Post {
	if p.ID == 0 {
		p.ID = f.id()
	}
	if p.Status == "" {
		p.Status = domain.StatusDraft
	}
	f.posts[p.ID] = p
	return p
}

func (f *fakeUnitOfWork) addModule(m *domain.ModuleInstance) *domain.ModuleInstance {
	if m.ID == 0 {
		m.ID = f.id()
	}
	f.modules[m.ID] = m
	return m
}

func (f *fakeUnitOfWork) addPlacement(pm *domain.PostModule) *domain.PostModule {
	if pm.ID == 0 {
		pm.ID = f.id()
	}
	if pm.Module != nil {
		pm.ModuleInstanceID = pm.Module.ID
	}
	f.placements[pm.ID] = pm
	return pm
}

func (f *fakeUnitOfWork) Posts() repository.PostRepository               { return &fakePostRepo{f} }
func (f *fakeUnitOfWork) Modules() repository.ModuleRepository           { return &fakeModuleRepo{f} }
func (f *fakeUnitOfWork) Placements() repository.PlacementRepository     { return &fakePlacementRepo{f} }
func (f *fakeUnitOfWork) CustomFields() repository.CustomFieldRepository { return &fakeFieldRepo{f} }
func (f *fakeUnitOfWork) Taxonomy() repository.TaxonomyRepository        { return &fakeTaxonomyRepo{f} }
func (f *fakeUnitOfWork) Revisions() repository.RevisionRepository       { return &fakeRevisionRepo{f} }
func (f *fakeUnitOfWork) Activities() repository.ActivityRepository      { return &fakeActivityRepo{f} }

func (f *fakeUnitOfWork) InTx(fn func(tx repository.UnitOfWork) error) error {
	return fn(f)
}

// --- posts ---

type fakePostRepo struct{ f *fakeUnitOfWork }

func (r *fakePostRepo) FindByID(id uint64) (*domain.Post, error) {
	p, ok := r.f.posts[id]
	if !ok {
		return nil, common.ErrPostNotFound
	}
	return p, nil
}

func (r *fakePostRepo) List(page, limit int) ([]*domain.Post, int64, error) {
	out := make([]*domain.Post, 0, len(r.f.posts))
	for _, p := range r.f.posts {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (r *fakePostRepo) Create(post *domain.Post) error {
	r.f.addPost(post)
	return nil
}

func (r *fakePostRepo) Save(post *domain.Post) error {
	if _, ok := r.f.posts[post.ID]; !ok {
		return common.ErrPostNotFound
	}
	r.f.posts[post.ID] = post
	return nil
}

func (r *fakePostRepo) UpdateColumns(id uint64, values map[string]interface{}) error {
	p, ok := r.f.posts[id]
	if !ok {
		return common.ErrPostNotFound
	}
	for col, v := range values {
		switch col {
		case "title":
			p.Title = asString(v)
		case "slug":
			p.Slug = asString(v)
		case "status":
			p.Status = asString(v)
		case "excerpt":
			p.Excerpt = asString(v)
		case "locale":
			p.Locale = asString(v)
		case "meta_title":
			p.MetaTitle = asString(v)
		case "meta_description":
			p.MetaDescription = asString(v)
		case "order_index":
			p.OrderIndex = asInt(v)
		case "parent_id":
			p.ParentID = asIDPtr(v)
		case "featured_image_id":
			p.FeaturedImageID = asIDPtr(v)
		case "ab_group_id":
			p.ABGroupID = asIDPtr(v)
		case "ab_variation":
			if v == nil {
				p.ABVariation = nil
			} else {
				s := v.(string)
				p.ABVariation = &s
			}
		case "review_draft":
			p.ReviewDraft = asJSONMap(v)
		case "ai_review_draft":
			p.AIReviewDraft = asJSONMap(v)
		}
	}
	return nil
}

func (r *fakePostRepo) SoftDelete(id uint64) error {
	if _, ok := r.f.posts[id]; !ok {
		return common.ErrPostNotFound
	}
	delete(r.f.posts, id)
	return nil
}

// --- modules ---

type fakeModuleRepo struct{ f *fakeUnitOfWork }

func (r *fakeModuleRepo) FindByID(id uint64) (*domain.ModuleInstance, error) {
	m, ok := r.f.modules[id]
	if !ok {
		return nil, common.ErrModuleNotFound
	}
	return m, nil
}

func (r *fakeModuleRepo) FindGlobalBySlug(slug string) (*domain.ModuleInstance, error) {
	for _, m := range r.f.modules {
		if m.Scope == domain.ScopeGlobal && m.GlobalSlug != nil && *m.GlobalSlug == slug {
			return m, nil
		}
	}
	return nil, common.ErrModuleNotFound
}

func (r *fakeModuleRepo) Create(module *domain.ModuleInstance) error {
	r.f.addModule(module)
	return nil
}

func (r *fakeModuleRepo) Save(module *domain.ModuleInstance) error {
	if _, ok := r.f.modules[module.ID]; !ok {
		return common.ErrModuleNotFound
	}
	r.f.modules[module.ID] = module
	return nil
}

func (r *fakeModuleRepo) Delete(id uint64) error {
	delete(r.f.modules, id)
	return nil
}

// --- placements ---

type fakePlacementRepo struct{ f *fakeUnitOfWork }

func (r *fakePlacementRepo) FindByID(id uint64) (*domain.PostModule, error) {
	pm, ok := r.f.placements[id]
	if !ok {
		return nil, common.ErrPlacementNotFound
	}
	r.preload(pm)
	return pm, nil
}

func (r *fakePlacementRepo) FindByPost(postID uint64) ([]*domain.PostModule, error) {
	var out []*domain.PostModule
	for _, pm := range r.f.placements {
		if pm.PostID == postID {
			r.preload(pm)
			out = append(out, pm)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].OrderIndex != out[j].OrderIndex {
			return out[i].OrderIndex < out[j].OrderIndex
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *fakePlacementRepo) FindByPostAndModule(postID, moduleID uint64) (*domain.PostModule, error) {
	for _, pm := range r.f.placements {
		if pm.PostID == postID && pm.ModuleInstanceID == moduleID {
			r.preload(pm)
			return pm, nil
		}
	}
	return nil, common.ErrPlacementNotFound
}

func (r *fakePlacementRepo) Create(placement *domain.PostModule) error {
	r.f.addPlacement(placement)
	return nil
}

func (r *fakePlacementRepo) Save(placement *domain.PostModule) error {
	if _, ok := r.f.placements[placement.ID]; !ok {
		return common.ErrPlacementNotFound
	}
	r.f.placements[placement.ID] = placement
	return nil
}

func (r *fakePlacementRepo) Delete(id uint64) error {
	delete(r.f.placements, id)
	return nil
}

func (r *fakePlacementRepo) CountByModule(moduleID uint64) (int64, error) {
	var n int64
	for _, pm := range r.f.placements {
		if pm.ModuleInstanceID == moduleID {
			n++
		}
	}
	return n, nil
}

func (r *fakePlacementRepo) preload(pm *domain.PostModule) {
	if m, ok := r.f.modules[pm.ModuleInstanceID]; ok {
		pm.Module = m
	}
}

// --- custom fields ---

type fakeFieldRepo struct{ f *fakeUnitOfWork }

func (r *fakeFieldRepo) FindByPost(postID uint64) ([]domain.CustomField, error) {
	return nil, nil
}

func (r *fakeFieldRepo) ValuesByPost(postID uint64) (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(r.f.customFields[postID]))
	for k, v := range r.f.customFields[postID] {
		out[k] = v
	}
	return out, nil
}

func (r *fakeFieldRepo) Replace(postID uint64, values map[string]interface{}) error {
	copied := make(map[string]interface{}, len(values))
	for k, v := range values {
		copied[k] = v
	}
	r.f.customFields[postID] = copied
	return nil
}

// --- taxonomy ---

type fakeTaxonomyRepo struct{ f *fakeUnitOfWork }

func (r *fakeTaxonomyRepo) TermIDsByPost(postID uint64) ([]uint64, error) {
	return append([]uint64(nil), r.f.terms[postID]...), nil
}

func (r *fakeTaxonomyRepo) ReplaceTerms(postID uint64, termIDs []uint64) error {
	r.f.terms[postID] = append([]uint64(nil), termIDs...)
	return nil
}

func (r *fakeTaxonomyRepo) FindTerms(ids []uint64) ([]domain.Term, error) {
	return nil, nil
}

// --- revisions ---

type fakeRevisionRepo struct{ f *fakeUnitOfWork }

func (r *fakeRevisionRepo) Create(revision *domain.Revision) error {
	revision.ID = r.f.id()
	r.f.revisions = append(r.f.revisions, revision)
	return nil
}

func (r *fakeRevisionRepo) FindByID(id uint64) (*domain.Revision, error) {
	for _, rev := range r.f.revisions {
		if rev.ID == id {
			return rev, nil
		}
	}
	return nil, common.ErrRevisionNotFound
}

func (r *fakeRevisionRepo) FindByPost(postID uint64, limit int) ([]*domain.Revision, error) {
	var out []*domain.Revision
	for i := len(r.f.revisions) - 1; i >= 0; i-- {
		if r.f.revisions[i].PostID == postID {
			out = append(out, r.f.revisions[i])
			if limit > 0 && len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

// --- activities ---

type fakeActivityRepo struct{ f *fakeUnitOfWork }

func (r *fakeActivityRepo) Record(entry *domain.ActivityLog) error {
	entry.ID = r.f.id()
	r.f.activities = append(r.f.activities, entry)
	return nil
}

func (r *fakeActivityRepo) FindRecent(entityType string, entityID uint64, limit int) ([]domain.ActivityLog, error) {
	var out []domain.ActivityLog
	for i := len(r.f.activities) - 1; i >= 0; i-- {
		a := r.f.activities[i]
		if a.EntityType == entityType && a.EntityID == entityID {
			out = append(out, *a)
			if limit > 0 && len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

// --- collaborator stubs ---

// openGate allows everything
type openGate struct{}

func (openGate) CanSaveDraft(string, domain.Tier, string) bool { return true }
func (openGate) CanApprove(string, domain.Tier, string) bool   { return true }
func (openGate) CanUpdateStatus(string, string, string) bool   { return true }

// closedGate denies everything
type closedGate struct{}

func (closedGate) CanSaveDraft(string, domain.Tier, string) bool { return false }
func (closedGate) CanApprove(string, domain.Tier, string) bool   { return false }
func (closedGate) CanUpdateStatus(string, string, string) bool   { return false }

// recordingCache counts invalidations
type recordingCache struct {
	invalidated []uint64
}

func (c *recordingCache) InvalidatePost(_ context.Context, postID uint64) error {
	c.invalidated = append(c.invalidated, postID)
	return nil
}

// fakeCache is an in-memory cache.Service backed by a string map
type fakeCache struct {
	entries map[string][]byte
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string][]byte)}
}

func (c *fakeCache) IsAvailable() bool          { return true }
func (c *fakeCache) Ping(context.Context) error { return nil }

func (c *fakeCache) Get(_ context.Context, key string, dest interface{}) error {
	data, ok := c.entries[key]
	if !ok {
		return common.ErrNotFound
	}
	return json.Unmarshal(data, dest)
}

func (c *fakeCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.entries[key] = data
	return nil
}

func (c *fakeCache) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(c.entries, k)
	}
	return nil
}

func (c *fakeCache) GetPost(ctx context.Context, postID uint64, tier string, dest interface{}) error {
	return c.Get(ctx, fmt.Sprintf("%s%d:%s", cache.PrefixPost, postID, tier), dest)
}

func (c *fakeCache) SetPost(ctx context.Context, postID uint64, tier string, data interface{}) error {
	return c.Set(ctx, fmt.Sprintf("%s%d:%s", cache.PrefixPost, postID, tier), data, cache.TTLPost)
}

func (c *fakeCache) GetModules(ctx context.Context, postID uint64, tier string, dest interface{}) error {
	return c.Get(ctx, fmt.Sprintf("%s%d:%s", cache.PrefixModules, postID, tier), dest)
}

func (c *fakeCache) SetModules(ctx context.Context, postID uint64, tier string, data interface{}) error {
	return c.Set(ctx, fmt.Sprintf("%s%d:%s", cache.PrefixModules, postID, tier), data, cache.TTLModules)
}

func (c *fakeCache) InvalidatePost(_ context.Context, postID uint64) error {
	for _, prefix := range []string{cache.PrefixPost, cache.PrefixModules} {
		scope := fmt.Sprintf("%s%d:", prefix, postID)
		for key := range c.entries {
			if strings.HasPrefix(key, scope) {
				delete(c.entries, key)
			}
		}
	}
	return nil
}

// openRegistry accepts every root key
type openRegistry struct{}

func (openRegistry) ValidateFieldPath(string, string) bool { return true }

// --- value coercion for the fake column store ---

func asString(v interface{}) string {
	if v == nil {
		return ""
	}
	return v.(string)
}

func asInt(v interface{}) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}

func asIDPtr(v interface{}) *uint64 {
	switch n := v.(type) {
	case uint64:
		return &n
	case int64:
		u := uint64(n)
		return &u
	case float64:
		u := uint64(n)
		return &u
	}
	return nil
}

func asJSONMap(v interface{}) datatypes.JSONMap {
	switch m := v.(type) {
	case datatypes.JSONMap:
		return m
	case map[string]interface{}:
		return datatypes.JSONMap(m)
	}
	return nil
}
