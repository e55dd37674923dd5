// Licensed to the LF AI & Data foundation under one
// or more contributor license agreements. See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership. The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License. You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package transform

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/samber/lo"
	pb "github.com/substrait-io/substrait-protobuf/go/substraitpb"
	"github.com/zeebo/xxh3"
	"google.golang.org/protobuf/proto"

	"github.com/milvus-io/milvus-flow/internal/flow/plan"
	"github.com/milvus-io/milvus-flow/internal/flow/repr"
	"github.com/milvus-io/milvus-flow/pkg/util/merr"
	"github.com/milvus-io/milvus-flow/pkg/util/paramtable"
)

// TableResolver maps the qualified name of a table read by a plan to its
// id and relation type.
type TableResolver interface {
	ResolveTable(ctx context.Context, names []string) (repr.GlobalID, repr.RelationType, error)
}

type catalogEntry struct {
	id  repr.GlobalID
	typ repr.RelationType
}

// StaticCatalog is an in-memory TableResolver. Names are matched on their
// dot-joined form.
type StaticCatalog struct {
	mu     sync.RWMutex
	tables map[string]catalogEntry
}

func NewStaticCatalog() *StaticCatalog {
	return &StaticCatalog{tables: make(map[string]catalogEntry)}
}

// Register adds or replaces a table.
func (c *StaticCatalog) Register(name string, id repr.GlobalID, typ repr.RelationType) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tables[name] = catalogEntry{id: id, typ: typ}
}

func (c *StaticCatalog) Remove(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.tables, name)
}

func (c *StaticCatalog) ResolveTable(ctx context.Context, names []string) (repr.GlobalID, repr.RelationType, error) {
	name := strings.Join(names, ".")
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.tables[name]
	if !ok {
		return repr.GlobalID{}, repr.RelationType{}, merr.WrapErrTableNotFound(name)
	}
	return entry.id, entry.typ, nil
}

// resolvedTable is a table lookup made while translating a plan.
type resolvedTable struct {
	names []string
	id    repr.GlobalID
	typ   repr.RelationType
}

// cacheEntry is a translation outcome and the table lookups it was built on.
type cacheEntry struct {
	plan   *plan.TypedPlan
	err    error
	tables []resolvedTable
}

// current reports whether every recorded table still resolves to the same
// id and relation type.
func (e *cacheEntry) current(ctx context.Context, resolver TableResolver) bool {
	return lo.EveryBy(e.tables, func(table resolvedTable) bool {
		id, typ, err := resolver.ResolveTable(ctx, table.names)
		return err == nil && id == table.id && typ.Equal(table.typ)
	})
}

// Context carries what translation needs besides the plan itself.
// It is safe for concurrent use.
type Context struct {
	resolver TableResolver
	maxDepth int
	cache    *expirable.LRU[uint64, *cacheEntry]
}

type Option func(*Context)

// WithMaxDepth bounds the nesting depth of translated expressions.
func WithMaxDepth(depth int) Option {
	return func(c *Context) {
		c.maxDepth = depth
	}
}

// WithPlanCache caches up to size translated plans for ttl. A cached plan is
// served only while the tables it reads resolve unchanged.
func WithPlanCache(size int, ttl time.Duration) Option {
	return func(c *Context) {
		c.cache = expirable.NewLRU[uint64, *cacheEntry](size, nil, ttl)
	}
}

func WithoutPlanCache() Option {
	return func(c *Context) {
		c.cache = nil
	}
}

// NewContext builds a translation context. Defaults come from paramtable.
func NewContext(resolver TableResolver, opts ...Option) *Context {
	cfg := &paramtable.Get().FlowCfg
	c := &Context{
		resolver: resolver,
		maxDepth: cfg.MaxExprDepth.GetAsInt(),
	}
	if c.maxDepth <= 0 {
		c.maxDepth = paramtable.DefaultMaxExprDepth
	}
	if cfg.PlanCacheEnabled.GetAsBool() {
		size := cfg.PlanCacheSize.GetAsInt()
		if size <= 0 {
			size = paramtable.DefaultPlanCacheSize
		}
		c.cache = expirable.NewLRU[uint64, *cacheEntry](size, nil, cfg.PlanCacheTTL.GetAsDuration(time.Second))
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Context) MaxDepth() int {
	return c.maxDepth
}

// InvalidateCache drops every cached plan.
func (c *Context) InvalidateCache() {
	if c.cache != nil {
		c.cache.Purge()
	}
}

// cached returns the entry for key if the tables it depends on are
// unchanged. Stale entries are evicted.
func (c *Context) cached(ctx context.Context, key uint64) (*cacheEntry, bool) {
	entry, ok := c.cache.Get(key)
	if !ok {
		return nil, false
	}
	if !entry.current(ctx, c.resolver) {
		c.cache.Remove(key)
		return nil, false
	}
	return entry, true
}

// digest hashes the deterministic encoding of p.
func digest(p *pb.Plan) (uint64, error) {
	bs, err := proto.MarshalOptions{Deterministic: true}.Marshal(p)
	if err != nil {
		return 0, merr.WrapErrInvalidPlan("failed to encode plan: %s", err.Error())
	}
	return xxh3.Hash(bs), nil
}
