// Package catalog keeps a history of renders in a kv.Store.
//
// Each render.Report is stored msgpack-encoded under
// render:<created-unix-nano>:<id>, so a prefix scan returns renders oldest
// first. Reports can be filtered with jq expressions evaluated against their
// JSON form.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/itchyny/gojq"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/haivivi/wombscape/pkg/kv"
	"github.com/haivivi/wombscape/pkg/render"
)

// Sentinel errors.
var (
	// ErrNotFound is returned when no report matches an id.
	ErrNotFound = errors.New("catalog: not found")

	// ErrAmbiguous is returned when an id prefix matches several reports.
	ErrAmbiguous = errors.New("catalog: ambiguous id")
)

const prefix = "render"

// Catalog stores render reports.
type Catalog struct {
	store kv.Store
}

// New returns a catalog over store. The caller owns store.
func New(store kv.Store) *Catalog {
	return &Catalog{store: store}
}

func key(r *render.Report) kv.Key {
	// Zero-padded so lexicographic order is chronological.
	return kv.Key{prefix, fmt.Sprintf("%020d", r.CreatedAt.UnixNano()), r.ID}
}

// Put stores a report. The report must have an ID and a CreatedAt time.
func (c *Catalog) Put(ctx context.Context, r *render.Report) error {
	if r.ID == "" || r.CreatedAt.IsZero() {
		return fmt.Errorf("catalog: report needs an id and a creation time")
	}
	data, err := msgpack.Marshal(r)
	if err != nil {
		return fmt.Errorf("catalog: marshal report: %w", err)
	}
	return c.store.Set(ctx, key(r), data)
}

type entry struct {
	key    kv.Key
	report *render.Report
}

func (c *Catalog) scan(ctx context.Context, fn func(entry) (bool, error)) error {
	for e, err := range c.store.List(ctx, kv.Key{prefix}) {
		if err != nil {
			return err
		}
		var r render.Report
		if err := msgpack.Unmarshal(e.Value, &r); err != nil {
			return fmt.Errorf("catalog: decode %s: %w", e.Key, err)
		}
		more, err := fn(entry{key: e.Key, report: &r})
		if err != nil || !more {
			return err
		}
	}
	return nil
}

func (c *Catalog) find(ctx context.Context, id string) (entry, error) {
	if id == "" {
		return entry{}, fmt.Errorf("%w: empty id", ErrNotFound)
	}
	var found []entry
	err := c.scan(ctx, func(e entry) (bool, error) {
		if strings.HasPrefix(e.report.ID, id) {
			found = append(found, e)
		}
		return true, nil
	})
	if err != nil {
		return entry{}, err
	}
	switch len(found) {
	case 0:
		return entry{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	case 1:
		return found[0], nil
	}
	for _, e := range found {
		if e.report.ID == id {
			return e, nil
		}
	}
	return entry{}, fmt.Errorf("%w: %s matches %d renders", ErrAmbiguous, id, len(found))
}

// Get returns the report whose ID equals or uniquely starts with id.
func (c *Catalog) Get(ctx context.Context, id string) (*render.Report, error) {
	e, err := c.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return e.report, nil
}

// List returns all reports, oldest first.
func (c *Catalog) List(ctx context.Context) ([]*render.Report, error) {
	var out []*render.Report
	err := c.scan(ctx, func(e entry) (bool, error) {
		out = append(out, e.report)
		return true, nil
	})
	return out, err
}

// Delete removes the report matching id as in Get.
func (c *Catalog) Delete(ctx context.Context, id string) (*render.Report, error) {
	e, err := c.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return e.report, c.store.Delete(ctx, e.key)
}

// Prune deletes all but the newest keep reports and returns how many were
// removed.
func (c *Catalog) Prune(ctx context.Context, keep int) (int, error) {
	if keep < 0 {
		return 0, fmt.Errorf("catalog: negative keep %d", keep)
	}
	var keys []kv.Key
	err := c.scan(ctx, func(e entry) (bool, error) {
		keys = append(keys, e.key)
		return true, nil
	})
	if err != nil {
		return 0, err
	}
	if len(keys) <= keep {
		return 0, nil
	}
	stale := keys[:len(keys)-keep]
	if err := c.store.BatchDelete(ctx, stale); err != nil {
		return 0, err
	}
	return len(stale), nil
}

// Query returns the reports for which the jq expression's first result is
// truthy (neither false nor null), oldest first. The expression sees the
// report's JSON form, e.g. `.anomalies > 0` or `.preset == "soft"`.
func (c *Catalog) Query(ctx context.Context, expr string) ([]*render.Report, error) {
	query, err := gojq.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("catalog: invalid jq expression %q: %w", expr, err)
	}
	code, err := gojq.Compile(query)
	if err != nil {
		return nil, fmt.Errorf("catalog: invalid jq expression %q: %w", expr, err)
	}

	var out []*render.Report
	err = c.scan(ctx, func(e entry) (bool, error) {
		input, err := jsonValue(e.report)
		if err != nil {
			return false, err
		}
		iter := code.RunWithContext(ctx, input)
		v, ok := iter.Next()
		if !ok {
			return true, nil
		}
		if err, ok := v.(error); ok {
			return false, fmt.Errorf("catalog: jq error on %s: %w", e.report.ID, err)
		}
		if v != nil && v != false {
			out = append(out, e.report)
		}
		return true, nil
	})
	return out, err
}

// jsonValue converts r to the generic form gojq operates on.
func jsonValue(r *render.Report) (any, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	var v map[string]any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// ShortID returns the first eight characters of a report id.
func ShortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

