// Package regression loads pre-trained delivery-time models and evaluates them.
package regression

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// ErrModelUnavailable is returned when the model artifact cannot be loaded.
var ErrModelUnavailable = errors.New("prediction model unavailable")

type Kind string

const (
	KindLinear  Kind = "linear"
	KindForest  Kind = "forest"
	KindBoosted Kind = "boosted"
)

// Node is one entry of a flattened decision tree.
// A node with Feature == -1 is a leaf holding Value; otherwise samples with
// x[Feature] <= Threshold continue at Left and the rest at Right.
type Node struct {
	Feature   int     `json:"feature" yaml:"feature"`
	Threshold float64 `json:"threshold" yaml:"threshold"`
	Left      int     `json:"left" yaml:"left"`
	Right     int     `json:"right" yaml:"right"`
	Value     float64 `json:"value" yaml:"value"`
}

type Tree struct {
	Nodes []Node `json:"nodes" yaml:"nodes"`
}

// Model is the serialized regression artifact.
type Model struct {
	Kind         Kind      `json:"kind" yaml:"kind"`
	FeatureNames []string  `json:"feature_names" yaml:"feature_names"`
	Intercept    float64   `json:"intercept,omitempty" yaml:"intercept,omitempty"`
	Coefficients []float64 `json:"coefficients,omitempty" yaml:"coefficients,omitempty"`
	Trees        []Tree    `json:"trees,omitempty" yaml:"trees,omitempty"`
	BaseScore    float64   `json:"base_score,omitempty" yaml:"base_score,omitempty"`
	LearningRate float64   `json:"learning_rate,omitempty" yaml:"learning_rate,omitempty"`
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// Load reads and validates a model artifact. YAML is chosen by file extension,
// anything else is decoded as JSON.
func Load(path string) (*Model, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "read model %s", path)
	}

	var m Model
	if isYAML(path) {
		err = yaml.Unmarshal(b, &m)
	} else {
		err = json.Unmarshal(b, &m)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "decode model %s", path)
	}
	if err := m.Validate(); err != nil {
		return nil, eris.Wrapf(err, "validate model %s", path)
	}
	return &m, nil
}

// Save writes m to path as JSON or YAML depending on the extension.
func Save(path string, m *Model) error {
	if err := m.Validate(); err != nil {
		return eris.Wrap(err, "save model")
	}

	var (
		b   []byte
		err error
	)
	if isYAML(path) {
		b, err = yaml.Marshal(m)
	} else {
		b, err = json.MarshalIndent(m, "", "  ")
	}
	if err != nil {
		return eris.Wrap(err, "encode model")
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return eris.Wrapf(err, "write model %s", path)
	}
	return nil
}

func (m *Model) Validate() error {
	if len(m.FeatureNames) == 0 {
		return eris.New("feature_names must not be empty")
	}
	seen := make(map[string]struct{}, len(m.FeatureNames))
	for _, f := range m.FeatureNames {
		if f == "" {
			return eris.New("feature_names contains an empty name")
		}
		if _, dup := seen[f]; dup {
			return eris.Errorf("duplicate feature %q", f)
		}
		seen[f] = struct{}{}
	}

	switch m.Kind {
	case KindLinear:
		if len(m.Coefficients) != len(m.FeatureNames) {
			return eris.Errorf("linear model has %d coefficients for %d features",
				len(m.Coefficients), len(m.FeatureNames))
		}
	case KindForest, KindBoosted:
		if len(m.Trees) == 0 {
			return eris.Errorf("%s model has no trees", m.Kind)
		}
		for i, t := range m.Trees {
			if err := t.validate(len(m.FeatureNames)); err != nil {
				return eris.Wrapf(err, "tree %d", i)
			}
		}
	default:
		return eris.Errorf("unknown model kind %q", m.Kind)
	}
	return nil
}

// Children must come after their parent so evaluation always terminates.
func (t Tree) validate(features int) error {
	if len(t.Nodes) == 0 {
		return eris.New("tree has no nodes")
	}
	for i, n := range t.Nodes {
		if n.Feature == -1 {
			continue
		}
		if n.Feature < 0 || n.Feature >= features {
			return eris.Errorf("node %d: feature index %d out of range", i, n.Feature)
		}
		for _, c := range []int{n.Left, n.Right} {
			if c <= i || c >= len(t.Nodes) {
				return eris.Errorf("node %d: child index %d out of range", i, c)
			}
		}
	}
	return nil
}

func (t Tree) eval(x []float64) float64 {
	i := 0
	for {
		n := t.Nodes[i]
		if n.Feature == -1 {
			return n.Value
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// PredictVector evaluates the model on a vector already aligned to FeatureNames.
func (m *Model) PredictVector(x []float64) (float64, error) {
	if len(x) != len(m.FeatureNames) {
		return 0, eris.Errorf("predict: got %d values for %d features", len(x), len(m.FeatureNames))
	}

	switch m.Kind {
	case KindLinear:
		y := m.Intercept
		for i, c := range m.Coefficients {
			y += c * x[i]
		}
		return y, nil
	case KindForest:
		var sum float64
		for _, t := range m.Trees {
			sum += t.eval(x)
		}
		return sum / float64(len(m.Trees)), nil
	case KindBoosted:
		lr := m.LearningRate
		if lr == 0 {
			lr = 1
		}
		y := m.BaseScore
		for _, t := range m.Trees {
			y += lr * t.eval(x)
		}
		return y, nil
	}
	return 0, eris.Errorf("predict: unknown model kind %q", m.Kind)
}
