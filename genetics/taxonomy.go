// Package genetics defines heritable genes, their allele variants and genotypes.
package genetics

import (
	"errors"
	"fmt"
)

// Taxonomy size limits. Genotypes are fixed-size arrays so they can live
// inside ECS components without allocation.
const (
	MaxGenes   = 8
	MaxAlleles = 255
)

// ErrConfiguration is the sentinel wrapped by every ConfigError.
var ErrConfiguration = errors.New("genetics configuration error")

// ConfigError describes an invalid gene or allele definition.
type ConfigError struct {
	Gene   string
	Allele string
	Reason string
}

func (e *ConfigError) Error() string {
	switch {
	case e.Gene != "" && e.Allele != "":
		return fmt.Sprintf("gene %q allele %q: %s", e.Gene, e.Allele, e.Reason)
	case e.Allele != "":
		return fmt.Sprintf("allele %q: %s", e.Allele, e.Reason)
	case e.Gene != "":
		return fmt.Sprintf("gene %q: %s", e.Gene, e.Reason)
	default:
		return e.Reason
	}
}

// Unwrap lets errors.Is match ErrConfiguration.
func (e *ConfigError) Unwrap() error {
	return ErrConfiguration
}

// AlleleDef declares one allele of a gene.
type AlleleDef struct {
	ID    string `yaml:"id"`
	Label string `yaml:"label"` // String-resource key; defaults to ID
}

// GeneDef declares a gene and its ordered allele set.
type GeneDef struct {
	ID      string      `yaml:"id"`
	Label   string      `yaml:"label"`
	Alleles []AlleleDef `yaml:"alleles"`
}

// Gene is a heritable trait category with a fixed set of alleles.
type Gene struct {
	id       string
	labelKey string
	index    int
	alleles  []*Allele
}

// ID returns the gene identifier.
func (g *Gene) ID() string { return g.id }

// LabelKey returns the string-resource key for the gene label.
func (g *Gene) LabelKey() string { return g.labelKey }

// Index returns the gene's position in its taxonomy.
func (g *Gene) Index() int { return g.index }

// Alleles returns the gene's alleles in definition order.
func (g *Gene) Alleles() []*Allele {
	out := make([]*Allele, len(g.alleles))
	copy(out, g.alleles)
	return out
}

// NumAlleles returns the size of the allele set.
func (g *Gene) NumAlleles() int { return len(g.alleles) }

// AlleleAt returns the allele at position i, or nil if out of range.
func (g *Gene) AlleleAt(i int) *Allele {
	if i < 0 || i >= len(g.alleles) {
		return nil
	}
	return g.alleles[i]
}

func (g *Gene) String() string { return g.id }

// Allele is one discrete variant of a gene.
type Allele struct {
	id       string
	labelKey string
	index    int
	gene     *Gene
}

// ID returns the allele identifier.
func (a *Allele) ID() string { return a.id }

// LabelKey returns the string-resource key for the allele label.
func (a *Allele) LabelKey() string { return a.labelKey }

// Index returns the allele's position within its gene.
func (a *Allele) Index() int { return a.index }

// Gene returns the owning gene.
func (a *Allele) Gene() *Gene { return a.gene }

func (a *Allele) String() string { return a.id }

// Taxonomy is the immutable set of genes known to a simulation.
type Taxonomy struct {
	genes    []*Gene
	geneByID map[string]*Gene
	byID     map[string]*Allele
}

// NewTaxonomy builds and validates a taxonomy from definitions.
// Every problem is reported here so nothing fails mid-simulation.
func NewTaxonomy(defs []GeneDef) (*Taxonomy, error) {
	if len(defs) == 0 {
		return nil, &ConfigError{Reason: "no genes defined"}
	}
	if len(defs) > MaxGenes {
		return nil, &ConfigError{Reason: fmt.Sprintf("%d genes defined, max %d", len(defs), MaxGenes)}
	}

	t := &Taxonomy{
		genes:    make([]*Gene, 0, len(defs)),
		geneByID: make(map[string]*Gene, len(defs)),
		byID:     make(map[string]*Allele),
	}

	for i, def := range defs {
		if def.ID == "" {
			return nil, &ConfigError{Reason: fmt.Sprintf("gene %d has empty id", i)}
		}
		if _, dup := t.geneByID[def.ID]; dup {
			return nil, &ConfigError{Gene: def.ID, Reason: "defined more than once"}
		}
		if len(def.Alleles) == 0 {
			return nil, &ConfigError{Gene: def.ID, Reason: "empty allele set"}
		}
		if len(def.Alleles) > MaxAlleles {
			return nil, &ConfigError{Gene: def.ID, Reason: fmt.Sprintf("%d alleles, max %d", len(def.Alleles), MaxAlleles)}
		}

		gene := &Gene{
			id:       def.ID,
			labelKey: labelOr(def.Label, def.ID),
			index:    i,
			alleles:  make([]*Allele, 0, len(def.Alleles)),
		}

		for j, ad := range def.Alleles {
			if ad.ID == "" {
				return nil, &ConfigError{Gene: def.ID, Reason: fmt.Sprintf("allele %d has empty id", j)}
			}
			if owner, taken := t.byID[ad.ID]; taken {
				return nil, &ConfigError{
					Gene:   def.ID,
					Allele: ad.ID,
					Reason: fmt.Sprintf("already belongs to gene %q", owner.gene.id),
				}
			}
			a := &Allele{
				id:       ad.ID,
				labelKey: labelOr(ad.Label, ad.ID),
				index:    j,
				gene:     gene,
			}
			gene.alleles = append(gene.alleles, a)
			t.byID[a.id] = a
		}

		t.genes = append(t.genes, gene)
		t.geneByID[gene.id] = gene
	}

	return t, nil
}

// MustTaxonomy is like NewTaxonomy but panics on error.
func MustTaxonomy(defs []GeneDef) *Taxonomy {
	t, err := NewTaxonomy(defs)
	if err != nil {
		panic(fmt.Sprintf("genetics: %v", err))
	}
	return t
}

func labelOr(label, id string) string {
	if label != "" {
		return label
	}
	return id
}

// Genes returns all genes in definition order.
func (t *Taxonomy) Genes() []*Gene {
	out := make([]*Gene, len(t.genes))
	copy(out, t.genes)
	return out
}

// NumGenes returns the number of genes.
func (t *Taxonomy) NumGenes() int { return len(t.genes) }

// Gene looks up a gene by ID.
func (t *Taxonomy) Gene(id string) (*Gene, bool) {
	g, ok := t.geneByID[id]
	return g, ok
}

// Allele looks up an allele by ID across all genes.
func (t *Taxonomy) Allele(id string) (*Allele, bool) {
	a, ok := t.byID[id]
	return a, ok
}

// AllelesOf returns the ordered, non-empty allele set of the gene with the given ID.
func (t *Taxonomy) AllelesOf(geneID string) ([]*Allele, error) {
	g, ok := t.geneByID[geneID]
	if !ok {
		return nil, &ConfigError{Gene: geneID, Reason: "unknown gene"}
	}
	return g.Alleles(), nil
}

// DefaultGeneDefs returns the stock genes: fur color, ear shape and tooth length.
func DefaultGeneDefs() []GeneDef {
	return []GeneDef{
		{
			ID: "fur", Label: "fur",
			Alleles: []AlleleDef{
				{ID: "whiteFur", Label: "whiteFur"},
				{ID: "brownFur", Label: "brownFur"},
			},
		},
		{
			ID: "ears", Label: "ears",
			Alleles: []AlleleDef{
				{ID: "erectEars", Label: "erectEars"},
				{ID: "flatEars", Label: "flatEars"},
				{ID: "tallEars", Label: "tallEars"},
			},
		},
		{
			ID: "teeth", Label: "teeth",
			Alleles: []AlleleDef{
				{ID: "shortTeeth", Label: "shortTeeth"},
				{ID: "longTeeth", Label: "longTeeth"},
			},
		},
	}
}
