package gfc

import (
	_ "embed"
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

//go:embed legend.yaml
var defaultLegend []byte

// Class is one legend entry. A loss class matches every loss-year code.
type Class struct {
	Name  string `yaml:"name" json:"name"`
	Label string `yaml:"label" json:"label"`
	Color string `yaml:"color" json:"color"`
	Codes []int  `yaml:"codes" json:"codes,omitempty"`
	Loss  bool   `yaml:"loss" json:"loss,omitempty"`
}

// Legend maps forest change codes to display classes.
type Legend struct {
	Classes []Class `yaml:"classes" json:"classes"`

	byCode map[Code]int
	loss   int
}

// DefaultLegend returns the built-in legend.
func DefaultLegend() *Legend {
	l, err := ParseLegend(defaultLegend)
	if err != nil {
		panic(err)
	}
	return l
}

// LoadLegend reads a legend YAML file, or returns the default when path is empty.
func LoadLegend(path string) (*Legend, error) {
	if path == "" {
		return DefaultLegend(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "gfc: read legend %s", path)
	}
	return ParseLegend(data)
}

// ParseLegend decodes and indexes a legend document.
func ParseLegend(data []byte) (*Legend, error) {
	var l Legend
	if err := yaml.Unmarshal(data, &l); err != nil {
		return nil, eris.Wrap(err, "gfc: parse legend")
	}

	l.byCode = make(map[Code]int)
	l.loss = -1
	for i, c := range l.Classes {
		if c.Name == "" {
			return nil, eris.Errorf("gfc: legend class %d has no name", i)
		}
		if c.Loss {
			if l.loss >= 0 {
				return nil, eris.New("gfc: legend has more than one loss class")
			}
			l.loss = i
		}
		for _, code := range c.Codes {
			if code <= 0 || code > 255 {
				return nil, eris.Errorf("gfc: legend class %s has invalid code %d", c.Name, code)
			}
			if _, dup := l.byCode[Code(code)]; dup {
				return nil, eris.Errorf("gfc: legend code %d assigned twice", code)
			}
			l.byCode[Code(code)] = i
		}
	}
	for _, c := range []Code{NonForest, StableForest, Gain, GainLoss} {
		if _, ok := l.byCode[c]; !ok {
			return nil, eris.Errorf("gfc: legend has no class for code %d", c)
		}
	}
	if l.loss < 0 {
		return nil, eris.New("gfc: legend has no loss class")
	}
	return &l, nil
}

// Class returns the legend entry for a code.
func (l *Legend) Class(c Code) (Class, bool) {
	if c.IsLoss() {
		return l.Classes[l.loss], true
	}
	i, ok := l.byCode[c]
	if !ok {
		return Class{}, false
	}
	return l.Classes[i], true
}

// Label returns the class label of a code, or "" for unknown codes.
func (l *Legend) Label(c Code) string {
	cl, _ := l.Class(c)
	return cl.Label
}

// ColorOf returns the colour of the class with the given label.
func (l *Legend) ColorOf(label string) string {
	for _, c := range l.Classes {
		if c.Label == label {
			return c.Color
		}
	}
	return ""
}
