package catalog

import (
	"context"

	"github.com/signalsfoundry/sdr-catalog/confdb"
	"github.com/signalsfoundry/sdr-catalog/internal/logging"
	"github.com/signalsfoundry/sdr-catalog/model"
)

// Layer names one backing context together with the layer that owns its
// records and whether the context is written back on flush.
type Layer struct {
	Context string
	Owner   model.Owner
	Save    bool
}

// loadLayered reads the given contexts in order, decodes every record, tags
// it with the owning layer, and merges by key with first-occurrence-wins
// semantics. Malformed records are skipped; a missing context file yields
// nothing. Only a store-level failure is an error.
func loadLayered[K comparable, T any](
	store *confdb.Store,
	layers []Layer,
	decode func(confdb.Object) (T, error),
	key func(T) K,
	log logging.Logger,
) (map[K]model.Layered[T], error) {
	ctx := context.Background()
	out := make(map[K]model.Layered[T])

	for _, layer := range layers {
		cc, err := store.Context(layer.Context)
		if err != nil {
			return nil, err
		}
		cc.SetSave(layer.Save)

		for i, rec := range cc.List() {
			v, err := decode(rec)
			if err != nil {
				log.Debug(ctx, "skipping malformed record",
					logging.String("context", layer.Context),
					logging.Int("position", i),
					logging.Any("error", err))
				continue
			}
			k := key(v)
			if _, dup := out[k]; dup {
				continue
			}
			out[k] = model.Layered[T]{Value: v, Owner: layer.Owner}
		}
	}
	return out, nil
}

// loadNamedObjects reads a read-only context of opaque records deduplicated
// by their "name" field (palettes, auto-gain presets, frequency-allocation
// tables). Records without a name are skipped.
func loadNamedObjects(store *confdb.Store, context string) ([]confdb.Object, error) {
	cc, err := store.Context(context)
	if err != nil {
		return nil, err
	}
	cc.SetSave(false)

	seen := make(map[string]bool)
	var out []confdb.Object
	for _, rec := range cc.List() {
		name, ok := rec.Get("name")
		if !ok || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, rec)
	}
	return out, nil
}
