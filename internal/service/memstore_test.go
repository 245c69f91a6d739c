package service

import (
	"context"
	"maps"
	"slices"
	"sort"
	"strconv"
	"sync"

	"github.com/utafrali/catalog/internal/domain"
	"github.com/utafrali/catalog/internal/repository"
	apperrors "github.com/utafrali/catalog/pkg/errors"
)

// memStore is an in-memory repository.Store. Transactions run against a
// copy of the data that replaces the original only on success.
type memStore struct {
	mu        sync.Mutex
	data      *memData
	calls     map[string]int
	commits   int
	rollbacks int
}

type memData struct {
	nextID     int64
	products   map[int64]domain.Product
	categories map[int64]domain.Category
	variants   map[int64]domain.Variant
	images     map[int64]domain.Image
	sizes      map[int64]domain.ProductSize
	sizeLinks  map[int64]map[int64]struct{}
	subLinks   map[int64]map[int64]struct{}
}

func newMemStore() *memStore {
	return &memStore{
		data: &memData{
			nextID:     100,
			products:   map[int64]domain.Product{},
			categories: map[int64]domain.Category{},
			variants:   map[int64]domain.Variant{},
			images:     map[int64]domain.Image{},
			sizes:      map[int64]domain.ProductSize{},
			sizeLinks:  map[int64]map[int64]struct{}{},
			subLinks:   map[int64]map[int64]struct{}{},
		},
		calls: map[string]int{},
	}
}

func cloneLinks(in map[int64]map[int64]struct{}) map[int64]map[int64]struct{} {
	out := make(map[int64]map[int64]struct{}, len(in))
	for k, v := range in {
		out[k] = maps.Clone(v)
	}
	return out
}

func (d *memData) clone() *memData {
	return &memData{
		nextID:     d.nextID,
		products:   maps.Clone(d.products),
		categories: maps.Clone(d.categories),
		variants:   maps.Clone(d.variants),
		images:     maps.Clone(d.images),
		sizes:      maps.Clone(d.sizes),
		sizeLinks:  cloneLinks(d.sizeLinks),
		subLinks:   cloneLinks(d.subLinks),
	}
}

func (d *memData) id() int64 {
	d.nextID++
	return d.nextID
}

func (s *memStore) Repositories() repository.Repositories {
	return s.reposFor(s.data)
}

func (s *memStore) RunInTx(_ context.Context, fn func(repository.Repositories) error) error {
	tx := s.data.clone()
	if err := fn(s.reposFor(tx)); err != nil {
		s.rollbacks++
		return err
	}
	s.data = tx
	s.commits++
	return nil
}

func (s *memStore) record(name string) {
	s.mu.Lock()
	s.calls[name]++
	s.mu.Unlock()
}

func (s *memStore) count(names ...string) int {
	n := 0
	for _, name := range names {
		n += s.calls[name]
	}
	return n
}

func (s *memStore) reposFor(d *memData) repository.Repositories {
	b := memBase{s: s, d: d}
	return repository.Repositories{
		Products:   memProducts{b},
		Categories: memCategories{b},
		Variants:   memVariants{b},
		Images:     memImages{b},
		Sizes:      memSizes{b},
		Links:      memLinks{b},
	}
}

// Seed helpers write straight into the committed data.

func (s *memStore) seedCategory(name string, parent *int64) int64 {
	c := domain.Category{ID: s.data.id(), Name: name, ParentID: parent}
	s.data.categories[c.ID] = c
	return c.ID
}

func (s *memStore) seedSize(name string) int64 {
	size := domain.ProductSize{ID: s.data.id(), SizeName: name}
	s.data.sizes[size.ID] = size
	return size.ID
}

func (s *memStore) seedProduct(p domain.Product) int64 {
	p.ID = s.data.id()
	s.data.products[p.ID] = p
	return p.ID
}

func (s *memStore) seedImage(img domain.Image) {
	s.data.images[img.ID] = img
}

func (s *memStore) seedVariant(v domain.Variant) {
	s.data.variants[v.ID] = v
}

type memBase struct {
	s *memStore
	d *memData
}

// --- products ---

type memProducts struct{ memBase }

func (r memProducts) Create(_ context.Context, p *domain.Product) error {
	r.s.record("products.Create")
	if _, ok := r.d.categories[p.CategoryID]; !ok {
		return apperrors.InvalidReference("category", strconv.FormatInt(p.CategoryID, 10))
	}
	p.ID = r.d.id()
	r.d.products[p.ID] = *p
	return nil
}

func (r memProducts) detail(p domain.Product) domain.ProductDetail {
	return domain.ProductDetail{Product: p, CategoryName: r.d.categories[p.CategoryID].Name}
}

func (r memProducts) GetByID(_ context.Context, id int64) (*domain.ProductDetail, error) {
	p, ok := r.d.products[id]
	if !ok {
		return nil, apperrors.NotFound("product", id)
	}
	d := r.detail(p)
	return &d, nil
}

func (r memProducts) GetForUpdate(_ context.Context, id int64) (*domain.Product, error) {
	r.s.record("products.GetForUpdate")
	p, ok := r.d.products[id]
	if !ok {
		return nil, apperrors.NotFound("product", id)
	}
	return &p, nil
}

func (r memProducts) List(_ context.Context) ([]domain.ProductDetail, error) {
	out := []domain.ProductDetail{}
	for _, id := range slices.Sorted(maps.Keys(r.d.products)) {
		out = append(out, r.detail(r.d.products[id]))
	}
	return out, nil
}

func (r memProducts) ListByCategory(_ context.Context, categoryID int64) ([]domain.ProductDetail, error) {
	out := []domain.ProductDetail{}
	for _, id := range slices.Sorted(maps.Keys(r.d.products)) {
		p := r.d.products[id]
		_, linked := r.d.subLinks[id][categoryID]
		if p.CategoryID == categoryID || linked {
			out = append(out, r.detail(p))
		}
	}
	return out, nil
}

func (r memProducts) Update(_ context.Context, p *domain.Product) error {
	r.s.record("products.Update")
	if _, ok := r.d.products[p.ID]; !ok {
		return apperrors.NotFound("product", p.ID)
	}
	r.d.products[p.ID] = *p
	return nil
}

func (r memProducts) Delete(_ context.Context, id int64) error {
	r.s.record("products.Delete")
	if _, ok := r.d.products[id]; !ok {
		return apperrors.NotFound("product", id)
	}
	delete(r.d.products, id)
	for vid, v := range r.d.variants {
		if v.ProductID == id {
			delete(r.d.variants, vid)
		}
	}
	for iid, img := range r.d.images {
		if img.ProductID == id {
			delete(r.d.images, iid)
		}
	}
	delete(r.d.sizeLinks, id)
	delete(r.d.subLinks, id)
	return nil
}

// --- categories ---

type memCategories struct{ memBase }

func (r memCategories) sorted(keep func(domain.Category) bool) []domain.Category {
	out := []domain.Category{}
	for _, c := range r.d.categories {
		if keep(c) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (r memCategories) Create(_ context.Context, c *domain.Category) error {
	c.ID = r.d.id()
	r.d.categories[c.ID] = *c
	return nil
}

func (r memCategories) GetByID(_ context.Context, id int64) (*domain.Category, error) {
	c, ok := r.d.categories[id]
	if !ok {
		return nil, apperrors.NotFound("category", id)
	}
	return &c, nil
}

func (r memCategories) FindByName(_ context.Context, name string) (*domain.Category, error) {
	for _, id := range slices.Sorted(maps.Keys(r.d.categories)) {
		if c := r.d.categories[id]; c.Name == name {
			return &c, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r memCategories) ListWithParent(_ context.Context) ([]domain.CategoryWithParent, error) {
	out := []domain.CategoryWithParent{}
	for _, c := range r.sorted(func(domain.Category) bool { return true }) {
		item := domain.CategoryWithParent{Category: c}
		if c.ParentID != nil {
			parent := r.d.categories[*c.ParentID]
			item.Parent = &domain.CategoryRef{ID: parent.ID, Name: parent.Name}
		}
		out = append(out, item)
	}
	return out, nil
}

func (r memCategories) ListRoots(_ context.Context) ([]domain.Category, error) {
	return r.sorted(func(c domain.Category) bool { return c.ParentID == nil }), nil
}

func (r memCategories) ListChildren(_ context.Context, parentID int64) ([]domain.Category, error) {
	return r.sorted(func(c domain.Category) bool { return c.ParentID != nil && *c.ParentID == parentID }), nil
}

func (r memCategories) LockTree(context.Context) error {
	r.s.record("categories.LockTree")
	return nil
}

func (r memCategories) Ancestors(_ context.Context, id int64) ([]int64, error) {
	var ids []int64
	for depth := 0; depth < 64; depth++ {
		c, ok := r.d.categories[id]
		if !ok {
			break
		}
		ids = append(ids, c.ID)
		if c.ParentID == nil {
			break
		}
		id = *c.ParentID
	}
	return ids, nil
}

func (r memCategories) IsReferenced(_ context.Context, id int64) (bool, error) {
	for pid, p := range r.d.products {
		if p.CategoryID == id {
			return true, nil
		}
		if _, ok := r.d.subLinks[pid][id]; ok {
			return true, nil
		}
	}
	for _, c := range r.d.categories {
		if c.ParentID != nil && *c.ParentID == id {
			return true, nil
		}
	}
	return false, nil
}

func (r memCategories) Update(_ context.Context, c *domain.Category) error {
	if _, ok := r.d.categories[c.ID]; !ok {
		return apperrors.NotFound("category", c.ID)
	}
	r.d.categories[c.ID] = *c
	return nil
}

func (r memCategories) Delete(_ context.Context, id int64) error {
	r.s.record("categories.Delete")
	if _, ok := r.d.categories[id]; !ok {
		return apperrors.NotFound("category", id)
	}
	delete(r.d.categories, id)
	return nil
}

// --- variants ---

type memVariants struct{ memBase }

func (r memVariants) ListByProducts(_ context.Context, productIDs []int64) (map[int64][]domain.Variant, error) {
	out := map[int64][]domain.Variant{}
	for _, id := range slices.Sorted(maps.Keys(r.d.variants)) {
		v := r.d.variants[id]
		if slices.Contains(productIDs, v.ProductID) {
			out[v.ProductID] = append(out[v.ProductID], v)
		}
	}
	return out, nil
}

func (r memVariants) Create(_ context.Context, v *domain.Variant) error {
	r.s.record("variants.Create")
	v.ID = r.d.id()
	r.d.variants[v.ID] = *v
	return nil
}

func (r memVariants) Update(_ context.Context, v *domain.Variant) error {
	r.s.record("variants.Update")
	if cur, ok := r.d.variants[v.ID]; !ok || cur.ProductID != v.ProductID {
		return apperrors.NotFound("variant", v.ID)
	}
	r.d.variants[v.ID] = *v
	return nil
}

func (r memVariants) DeleteByIDs(_ context.Context, productID int64, ids []int64) error {
	r.s.record("variants.DeleteByIDs")
	for _, id := range ids {
		if v, ok := r.d.variants[id]; ok && v.ProductID == productID {
			delete(r.d.variants, id)
		}
	}
	return nil
}

// --- images ---

type memImages struct{ memBase }

func (r memImages) ListByProducts(_ context.Context, productIDs []int64) (map[int64][]domain.Image, error) {
	r.s.record("images.ListByProducts")
	var all []domain.Image
	for _, img := range r.d.images {
		if slices.Contains(productIDs, img.ProductID) {
			all = append(all, img)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].SortOrder != all[j].SortOrder {
			return all[i].SortOrder < all[j].SortOrder
		}
		return all[i].ID < all[j].ID
	})
	out := map[int64][]domain.Image{}
	for _, img := range all {
		out[img.ProductID] = append(out[img.ProductID], img)
	}
	return out, nil
}

func (r memImages) GetByID(_ context.Context, productID, imageID int64) (*domain.Image, error) {
	img, ok := r.d.images[imageID]
	if !ok || img.ProductID != productID {
		return nil, apperrors.NotFound("image", imageID)
	}
	return &img, nil
}

func (r memImages) Create(_ context.Context, img *domain.Image) error {
	r.s.record("images.Create")
	img.ID = r.d.id()
	r.d.images[img.ID] = *img
	return nil
}

func (r memImages) Update(_ context.Context, img *domain.Image) error {
	r.s.record("images.Update")
	if cur, ok := r.d.images[img.ID]; !ok || cur.ProductID != img.ProductID {
		return apperrors.NotFound("image", img.ID)
	}
	r.d.images[img.ID] = *img
	return nil
}

func (r memImages) DeleteByIDs(_ context.Context, productID int64, ids []int64) error {
	r.s.record("images.DeleteByIDs")
	for _, id := range ids {
		if img, ok := r.d.images[id]; ok && img.ProductID == productID {
			delete(r.d.images, id)
		}
	}
	return nil
}

// --- sizes ---

type memSizes struct{ memBase }

func (r memSizes) Create(_ context.Context, s *domain.ProductSize) error {
	for _, existing := range r.d.sizes {
		if existing.SizeName == s.SizeName {
			return apperrors.AlreadyExists("product size", "size_name", s.SizeName)
		}
	}
	s.ID = r.d.id()
	r.d.sizes[s.ID] = *s
	return nil
}

func (r memSizes) GetByID(_ context.Context, id int64) (*domain.ProductSize, error) {
	s, ok := r.d.sizes[id]
	if !ok {
		return nil, apperrors.NotFound("product size", id)
	}
	return &s, nil
}

func (r memSizes) List(_ context.Context) ([]domain.ProductSize, error) {
	out := []domain.ProductSize{}
	for _, id := range slices.Sorted(maps.Keys(r.d.sizes)) {
		out = append(out, r.d.sizes[id])
	}
	return out, nil
}

func (r memSizes) Update(_ context.Context, s *domain.ProductSize) error {
	if _, ok := r.d.sizes[s.ID]; !ok {
		return apperrors.NotFound("product size", s.ID)
	}
	r.d.sizes[s.ID] = *s
	return nil
}

func (r memSizes) Delete(_ context.Context, id int64) error {
	if _, ok := r.d.sizes[id]; !ok {
		return apperrors.NotFound("product size", id)
	}
	delete(r.d.sizes, id)
	for _, links := range r.d.sizeLinks {
		delete(links, id)
	}
	return nil
}

func (r memSizes) Missing(_ context.Context, ids []int64) ([]int64, error) {
	var missing []int64
	for _, id := range ids {
		if _, ok := r.d.sizes[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

// --- links ---

type memLinks struct{ memBase }

func addLinks(links map[int64]map[int64]struct{}, productID int64, ids []int64) {
	if links[productID] == nil {
		links[productID] = map[int64]struct{}{}
	}
	for _, id := range ids {
		links[productID][id] = struct{}{}
	}
}

func (r memLinks) AddSizes(_ context.Context, productID int64, sizeIDs []int64) error {
	r.s.record("links.AddSizes")
	addLinks(r.d.sizeLinks, productID, sizeIDs)
	return nil
}

func (r memLinks) RemoveSizes(_ context.Context, productID int64, sizeIDs []int64) error {
	r.s.record("links.RemoveSizes")
	for _, id := range sizeIDs {
		delete(r.d.sizeLinks[productID], id)
	}
	return nil
}

func (r memLinks) AddSubCategories(_ context.Context, productID int64, categoryIDs []int64) error {
	r.s.record("links.AddSubCategories")
	addLinks(r.d.subLinks, productID, categoryIDs)
	return nil
}

func (r memLinks) RemoveSubCategories(_ context.Context, productID int64, categoryIDs []int64) error {
	r.s.record("links.RemoveSubCategories")
	for _, id := range categoryIDs {
		delete(r.d.subLinks[productID], id)
	}
	return nil
}

func (r memLinks) SizesByProducts(_ context.Context, productIDs []int64) (map[int64][]domain.ProductSize, error) {
	out := map[int64][]domain.ProductSize{}
	for _, pid := range productIDs {
		for _, sid := range slices.Sorted(maps.Keys(r.d.sizeLinks[pid])) {
			out[pid] = append(out[pid], r.d.sizes[sid])
		}
	}
	return out, nil
}

func (r memLinks) SubCategoriesByProducts(_ context.Context, productIDs []int64) (map[int64][]domain.CategoryRef, error) {
	out := map[int64][]domain.CategoryRef{}
	for _, pid := range productIDs {
		for _, cid := range slices.Sorted(maps.Keys(r.d.subLinks[pid])) {
			out[pid] = append(out[pid], domain.CategoryRef{ID: cid, Name: r.d.categories[cid].Name})
		}
	}
	return out, nil
}
