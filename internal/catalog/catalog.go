// Package catalog keeps an ordered list of products in memory and mirrors
// every change to a Storage snapshot.
package catalog

import (
	"context"
	"slices"
	"sync"

	"github.com/go-faster/errors"
	"go.uber.org/zap"
)

// Catalog is the product store. Every successful mutation saves the whole
// sequence; a failed save is reported but the in-memory change stays, so
// memory and storage can diverge until the next successful save.
type Catalog struct {
	mu       sync.RWMutex
	products []Product
	nextID   int

	storage Storage
	log     *zap.Logger
	metrics *Metrics
}

type Option func(*Catalog)

func WithMetrics(m *Metrics) Option {
	return func(c *Catalog) { c.metrics = m }
}

// New returns an empty catalog backed by storage. Call Load to read the
// existing snapshot.
func New(storage Storage, log *zap.Logger, opts ...Option) *Catalog {
	if log == nil {
		log = zap.NewNop()
	}

	c := &Catalog{
		products: []Product{},
		nextID:   1,
		storage:  storage,
		log:      log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load replaces the in-memory sequence with the stored snapshot. A missing
// snapshot yields an empty catalog. On a read or decode failure the current
// state is kept and the returned error matches ErrStorageRead; the catalog
// remains usable.
func (c *Catalog) Load(ctx context.Context) error {
	loaded, err := c.storage.Load(ctx)
	if err != nil {
		c.log.Error("load catalog failed", zap.Error(err))
		c.metrics.storageError(opLoad)
		return &StorageError{Op: opLoad, Err: err}
	}
	if loaded == nil {
		loaded = []Product{}
	}
	if ids, codes := duplicates(loaded); len(ids) > 0 || len(codes) > 0 {
		c.log.Warn("catalog snapshot has duplicate products; only the first of each is reachable",
			zap.Ints("ids", ids), zap.Strings("codes", codes))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.products = loaded
	c.nextID = maxID(loaded) + 1
	c.metrics.size(len(c.products))

	c.log.Info("catalog loaded", zap.Int("products", len(loaded)), zap.Int("next_id", c.nextID))
	return nil
}

// List returns a copy of all products in catalog order.
func (c *Catalog) List() []Product {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.products)
}

// Get returns the product with id; ok is false when there is none.
func (c *Catalog) Get(id int) (p Product, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	i := c.indexOf(id)
	if i < 0 {
		return Product{}, false
	}
	return c.products[i], true
}

// Add validates d, assigns the next id, appends the product and saves.
// If only the save fails, the new product is returned together with an
// error matching ErrStorageWrite.
func (c *Catalog) Add(ctx context.Context, d Draft) (Product, error) {
	if err := validateDraft(d); err != nil {
		c.log.Warn("product rejected: all fields are required",
			zap.String("title", d.Title), zap.Error(err))
		c.metrics.rejected("add", reasonValidation)
		return Product{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.indexOfCode(d.Code, -1) >= 0 {
		c.log.Warn("product rejected: code already exists",
			zap.String("title", d.Title), zap.String("code", d.Code))
		c.metrics.rejected("add", reasonDuplicate)
		return Product{}, errors.Wrapf(ErrDuplicateCode, "product %q code %q", d.Title, d.Code)
	}

	p := d.product(c.nextID)
	c.products = append(c.products, p)
	c.nextID++

	c.log.Info("product added", zap.String("title", p.Title), zap.Int("id", p.ID))
	c.metrics.added()

	return p, c.persist(ctx)
}

// Update merges patch into the product with id, keeping its id and
// position, and saves. A patch id is ignored.
func (c *Catalog) Update(ctx context.Context, id int, patch Patch) (Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexOf(id)
	if i < 0 {
		c.log.Warn("update failed: product does not exist", zap.Int("id", id))
		c.metrics.rejected("update", reasonNotFound)
		return Product{}, errors.Wrapf(ErrNotFound, "update product %d", id)
	}

	current := c.products[i]
	if err := validatePatch(current.Title, patch); err != nil {
		c.log.Warn("update rejected: invalid fields", zap.Int("id", id), zap.Error(err))
		c.metrics.rejected("update", reasonValidation)
		return Product{}, err
	}
	if patch.Code != nil && c.indexOfCode(*patch.Code, i) >= 0 {
		c.log.Warn("update rejected: code already exists",
			zap.Int("id", id), zap.String("code", *patch.Code))
		c.metrics.rejected("update", reasonDuplicate)
		return Product{}, errors.Wrapf(ErrDuplicateCode, "product %q code %q", current.Title, *patch.Code)
	}

	updated := patch.apply(current)
	c.products[i] = updated

	c.log.Info("product updated", zap.Int("id", id))
	c.metrics.updated()

	return updated, c.persist(ctx)
}

// Delete removes the product with id, keeping the order of the rest, and
// saves.
func (c *Catalog) Delete(ctx context.Context, id int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexOf(id)
	if i < 0 {
		c.log.Warn("delete failed: product does not exist", zap.Int("id", id))
		c.metrics.rejected("delete", reasonNotFound)
		return errors.Wrapf(ErrNotFound, "delete product %d", id)
	}

	c.products = slices.Delete(c.products, i, i+1)

	c.log.Info("product deleted", zap.Int("id", id))
	c.metrics.deleted()

	return c.persist(ctx)
}

func (c *Catalog) Ping(ctx context.Context) error {
	return c.storage.Ping(ctx)
}

// persist must be called with c.mu held.
func (c *Catalog) persist(ctx context.Context) error {
	c.metrics.size(len(c.products))

	if err := c.storage.Save(ctx, c.products); err != nil {
		c.log.Error("save catalog failed; memory and storage now differ",
			zap.Int("products", len(c.products)), zap.Error(err))
		c.metrics.storageError(opSave)
		return &StorageError{Op: opSave, Err: err}
	}

	c.log.Debug("catalog saved", zap.Int("products", len(c.products)))
	return nil
}

func (c *Catalog) indexOf(id int) int {
	return slices.IndexFunc(c.products, func(p Product) bool { return p.ID == id })
}

// indexOfCode finds code among products other than the one at skip.
func (c *Catalog) indexOfCode(code string, skip int) int {
	for i, p := range c.products {
		if i != skip && p.Code == code {
			return i
		}
	}
	return -1
}

// duplicates reports ids and codes that occur more than once, each listed once.
func duplicates(products []Product) (ids []int, codes []string) {
	seenID := make(map[int]int, len(products))
	seenCode := make(map[string]int, len(products))
	for _, p := range products {
		seenID[p.ID]++
		if seenID[p.ID] == 2 {
			ids = append(ids, p.ID)
		}
		seenCode[p.Code]++
		if seenCode[p.Code] == 2 {
			codes = append(codes, p.Code)
		}
	}
	return ids, codes
}

func maxID(products []Product) int {
	m := 0
	for _, p := range products {
		m = max(m, p.ID)
	}
	return m
}
