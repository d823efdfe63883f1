// Package metricset declares the static metric selections charts are built from.
package metricset

import (
	"fmt"
	"strings"
)

// Metric is one entry of a selection.
type Metric struct {
	// Key is the source column. Empty means the metric is not in the sheet
	// and only its placeholder is ever reported.
	Key string `koanf:"key" json:"key"`
	// Label is the human-readable name shown to users.
	Label string `koanf:"label" json:"label"`
	// Placeholder is the stand-in value when Key is empty or absent from the
	// table. Nil falls back to the selection default.
	Placeholder *float64 `koanf:"placeholder" json:"placeholder,omitempty"`
}

// Selection is a named, ordered set of metrics for one chart.
type Selection struct {
	Name    string   `koanf:"name" json:"name"`
	Metrics []Metric `koanf:"metrics" json:"metrics"`
}

// Keys returns the non-empty source columns of the selection in order.
func (s Selection) Keys() []string {
	keys := make([]string, 0, len(s.Metrics))
	for _, m := range s.Metrics {
		if m.Key != "" {
			keys = append(keys, m.Key)
		}
	}
	return keys
}

// Labels returns the display labels in selection order.
func (s Selection) Labels() []string {
	labels := make([]string, len(s.Metrics))
	for i, m := range s.Metrics {
		labels[i] = m.Label
	}
	return labels
}

// PlaceholderFor returns the stand-in value for m, or def when unset.
func PlaceholderFor(m Metric, def float64) float64 {
	if m.Placeholder != nil {
		return *m.Placeholder
	}
	return def
}

// Validate checks that labels are non-empty and the key/label mapping is a bijection.
func (s Selection) Validate() error {
	_, err := NewLabelMap(s)
	return err
}

// LabelMap translates between source keys and display labels.
type LabelMap struct {
	toLabel map[string]string
	toKey   map[string]string
}

// NewLabelMap builds the key/label bijection of a selection. Placeholder-only
// metrics (empty key) take part in label uniqueness but have no key entry.
func NewLabelMap(s Selection) (LabelMap, error) {
	lm := LabelMap{
		toLabel: make(map[string]string, len(s.Metrics)),
		toKey:   make(map[string]string, len(s.Metrics)),
	}
	labels := make(map[string]struct{}, len(s.Metrics))
	for i, m := range s.Metrics {
		if strings.TrimSpace(m.Label) == "" {
			return LabelMap{}, fmt.Errorf("%w: %s metric %d has no label", ErrInvalidSelection, s.Name, i)
		}
		if _, dup := labels[m.Label]; dup {
			return LabelMap{}, fmt.Errorf("%w: %s label %q used twice", ErrInvalidSelection, s.Name, m.Label)
		}
		labels[m.Label] = struct{}{}
		if m.Key == "" {
			continue
		}
		if _, dup := lm.toLabel[m.Key]; dup {
			return LabelMap{}, fmt.Errorf("%w: %s key %q used twice", ErrInvalidSelection, s.Name, m.Key)
		}
		lm.toLabel[m.Key] = m.Label
		lm.toKey[m.Label] = m.Key
	}
	return lm, nil
}

// Label returns the display label for key, or key itself when unmapped.
func (lm LabelMap) Label(key string) string {
	if l, ok := lm.toLabel[key]; ok {
		return l
	}
	return key
}

// Key returns the source key for label.
func (lm LabelMap) Key(label string) (string, bool) {
	k, ok := lm.toKey[label]
	return k, ok
}

// Translate relabels a key-indexed map. Keys without a label keep their name.
func (lm LabelMap) Translate(byKey map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(byKey))
	for k, v := range byKey {
		out[lm.Label(k)] = v
	}
	return out
}
