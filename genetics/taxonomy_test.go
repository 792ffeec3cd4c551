package genetics

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func earsDefs() []GeneDef {
	return []GeneDef{{
		ID: "ears",
		Alleles: []AlleleDef{
			{ID: "erectEars"},
			{ID: "flatEars"},
			{ID: "tallEars"},
		},
	}}
}

func TestEarsAlleles(t *testing.T) {
	tax, err := NewTaxonomy(earsDefs())
	if err != nil {
		t.Fatalf("NewTaxonomy: %v", err)
	}

	alleles, err := tax.AllelesOf("ears")
	if err != nil {
		t.Fatalf("AllelesOf: %v", err)
	}

	var ids []string
	for _, a := range alleles {
		ids = append(ids, a.ID())
		if a.Gene().ID() != "ears" {
			t.Errorf("allele %s owned by %s, want ears", a.ID(), a.Gene().ID())
		}
	}

	want := []string{"erectEars", "flatEars", "tallEars"}
	if diff := cmp.Diff(want, ids); diff != "" {
		t.Errorf("AllelesOf(ears) mismatch (-want +got):\n%s", diff)
	}
}

func TestAllelesOfUnknownGene(t *testing.T) {
	tax := MustTaxonomy(earsDefs())
	if _, err := tax.AllelesOf("wings"); !errors.Is(err, ErrConfiguration) {
		t.Errorf("AllelesOf(wings) error = %v, want ErrConfiguration", err)
	}
}

func TestDefaultTaxonomyInvariants(t *testing.T) {
	tax := MustTaxonomy(DefaultGeneDefs())

	owners := make(map[*Allele]*Gene)
	for _, g := range tax.Genes() {
		alleles := g.Alleles()
		if len(alleles) == 0 {
			t.Errorf("gene %s has no alleles", g.ID())
		}
		for i, a := range alleles {
			if a.Gene() != g {
				t.Errorf("allele %s reports gene %s, listed under %s", a.ID(), a.Gene().ID(), g.ID())
			}
			if a.Index() != i {
				t.Errorf("allele %s index = %d, want %d", a.ID(), a.Index(), i)
			}
			if prev, dup := owners[a]; dup {
				t.Errorf("allele %s listed by both %s and %s", a.ID(), prev.ID(), g.ID())
			}
			owners[a] = g
		}
	}
}

func TestAllelesReturnsCopy(t *testing.T) {
	tax := MustTaxonomy(earsDefs())
	g, _ := tax.Gene("ears")
	alleles := g.Alleles()
	alleles[0] = nil
	if g.AlleleAt(0) == nil {
		t.Error("mutating Alleles() result changed the gene")
	}
}

func TestNewTaxonomyConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		defs []GeneDef
	}{
		{"no genes", nil},
		{"empty allele set", []GeneDef{{ID: "ears"}}},
		{"allele shared by two genes", []GeneDef{
			{ID: "ears", Alleles: []AlleleDef{{ID: "erectEars"}}},
			{ID: "tail", Alleles: []AlleleDef{{ID: "erectEars"}}},
		}},
		{"allele listed twice", []GeneDef{
			{ID: "ears", Alleles: []AlleleDef{{ID: "flatEars"}, {ID: "flatEars"}}},
		}},
		{"duplicate gene", []GeneDef{
			{ID: "ears", Alleles: []AlleleDef{{ID: "a"}}},
			{ID: "ears", Alleles: []AlleleDef{{ID: "b"}}},
		}},
		{"empty gene id", []GeneDef{{Alleles: []AlleleDef{{ID: "a"}}}}},
		{"empty allele id", []GeneDef{{ID: "ears", Alleles: []AlleleDef{{}}}}},
		{"too many genes", func() []GeneDef {
			defs := make([]GeneDef, MaxGenes+1)
			for i := range defs {
				defs[i] = GeneDef{ID: string(rune('a' + i)), Alleles: []AlleleDef{{ID: string(rune('A' + i))}}}
			}
			return defs
		}()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTaxonomy(tt.defs)
			if !errors.Is(err, ErrConfiguration) {
				t.Fatalf("error = %v, want ErrConfiguration", err)
			}
			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("error %T is not *ConfigError", err)
			}
		})
	}
}

func TestSharedAlleleErrorNamesBothGenes(t *testing.T) {
	_, err := NewTaxonomy([]GeneDef{
		{ID: "ears", Alleles: []AlleleDef{{ID: "erectEars"}}},
		{ID: "tail", Alleles: []AlleleDef{{ID: "erectEars"}}},
	})
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *ConfigError, got %v", err)
	}
	if cfgErr.Gene != "tail" || cfgErr.Allele != "erectEars" {
		t.Errorf("ConfigError = %+v", cfgErr)
	}
}

func TestMustTaxonomyPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustTaxonomy should panic on invalid defs")
		}
	}()
	MustTaxonomy([]GeneDef{{ID: "ears"}})
}

func TestLabelDefaultsToID(t *testing.T) {
	tax := MustTaxonomy(earsDefs())
	a, ok := tax.Allele("flatEars")
	if !ok {
		t.Fatal("flatEars not found")
	}
	if a.LabelKey() != "flatEars" {
		t.Errorf("LabelKey = %q, want flatEars", a.LabelKey())
	}
}

type mapStrings map[string]string

func (m mapStrings) Lookup(key string) (string, bool) {
	s, ok := m[key]
	return s, ok
}

func TestLabelOfResolvesThroughProvider(t *testing.T) {
	tax := MustTaxonomy(earsDefs())
	erect, _ := tax.Allele("erectEars")
	flat, _ := tax.Allele("flatEars")
	ears, _ := tax.Gene("ears")

	s := mapStrings{"erectEars": "Erect Ears", "ears": "Ears"}

	if got := LabelOf(erect, s); got != "Erect Ears" {
		t.Errorf("LabelOf(erect) = %q", got)
	}
	if got := LabelOf(flat, s); got != "flatEars" {
		t.Errorf("LabelOf(flat) with missing key = %q, want key fallback", got)
	}
	if got := GeneLabel(ears, s); got != "Ears" {
		t.Errorf("GeneLabel(ears) = %q", got)
	}
	if got := LabelOf(erect, nil); got != "erectEars" {
		t.Errorf("LabelOf with nil provider = %q", got)
	}
}

func TestGenotypeOf(t *testing.T) {
	tax := MustTaxonomy(DefaultGeneDefs())

	g, err := tax.GenotypeOf("brownFur", "tallEars")
	if err != nil {
		t.Fatalf("GenotypeOf: %v", err)
	}
	want := []string{"brownFur", "tallEars", "shortTeeth"}
	if diff := cmp.Diff(want, g.AlleleIDs(tax)); diff != "" {
		t.Errorf("AlleleIDs mismatch (-want +got):\n%s", diff)
	}

	if _, err := tax.GenotypeOf("whiteFur", "brownFur"); !errors.Is(err, ErrConfiguration) {
		t.Errorf("conflicting alleles error = %v", err)
	}
	if _, err := tax.GenotypeOf("stripedFur"); !errors.Is(err, ErrConfiguration) {
		t.Errorf("unknown allele error = %v", err)
	}
}

func TestGenotypeValidate(t *testing.T) {
	tax := MustTaxonomy(DefaultGeneDefs())

	var g Genotype
	if err := g.Validate(tax); err != nil {
		t.Errorf("zero genotype should be valid: %v", err)
	}

	g[1] = 3 // ears has 3 alleles
	if err := g.Validate(tax); err == nil {
		t.Error("out of range allele index should fail")
	}

	g = Genotype{}
	g[MaxGenes-1] = 1
	if err := g.Validate(tax); err == nil {
		t.Error("slot beyond taxonomy should fail")
	}
}

func TestRandomGenotypeValid(t *testing.T) {
	tax := MustTaxonomy(DefaultGeneDefs())
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		g := tax.RandomGenotype(rng)
		if err := g.Validate(tax); err != nil {
			t.Fatalf("random genotype invalid: %v", err)
		}
	}
}

func TestInheritWithoutMutation(t *testing.T) {
	tax := MustTaxonomy(DefaultGeneDefs())
	rng := rand.New(rand.NewSource(1))

	mother, _ := tax.GenotypeOf("whiteFur", "erectEars", "shortTeeth")
	father, _ := tax.GenotypeOf("brownFur", "tallEars", "longTeeth")

	for i := 0; i < 500; i++ {
		child := tax.Inherit(mother, father, rng, MutationRates{})
		for _, gene := range tax.Genes() {
			got := child.Allele(gene)
			if got.Gene() != gene {
				t.Fatalf("child allele %s belongs to %s, want %s", got.ID(), got.Gene().ID(), gene.ID())
			}
			if got != mother.Allele(gene) && got != father.Allele(gene) {
				t.Fatalf("child allele %s not from either parent", got.ID())
			}
		}
	}
}

func TestInheritAlwaysMutates(t *testing.T) {
	tax := MustTaxonomy(DefaultGeneDefs())
	rng := rand.New(rand.NewSource(3))

	parent, _ := tax.GenotypeOf("whiteFur", "flatEars", "longTeeth")
	for i := 0; i < 200; i++ {
		child := tax.Inherit(parent, parent, rng, UniformRates(1))
		for _, gene := range tax.Genes() {
			if child.Allele(gene) == parent.Allele(gene) {
				t.Fatalf("gene %s did not mutate at rate 1", gene.ID())
			}
		}
		if err := child.Validate(tax); err != nil {
			t.Fatalf("mutated genotype invalid: %v", err)
		}
	}
}

func TestInheritSingleAlleleGeneStable(t *testing.T) {
	tax := MustTaxonomy([]GeneDef{{ID: "tail", Alleles: []AlleleDef{{ID: "shortTail"}}}})
	rng := rand.New(rand.NewSource(5))
	var g Genotype
	child := tax.Inherit(g, g, rng, UniformRates(1))
	if child != g {
		t.Errorf("single-allele gene mutated: %v", child)
	}
}

func TestMutationRates(t *testing.T) {
	tax := MustTaxonomy(DefaultGeneDefs())

	rates, err := tax.MutationRates(map[string]float64{"ears": 0.5})
	if err != nil {
		t.Fatalf("MutationRates: %v", err)
	}
	ears, _ := tax.Gene("ears")
	fur, _ := tax.Gene("fur")
	if rates[ears.Index()] != 0.5 || rates[fur.Index()] != 0 {
		t.Errorf("rates = %v", rates)
	}

	if _, err := tax.MutationRates(map[string]float64{"wings": 0.1}); !errors.Is(err, ErrConfiguration) {
		t.Errorf("unknown gene error = %v", err)
	}
	if _, err := tax.MutationRates(map[string]float64{"ears": 1.5}); !errors.Is(err, ErrConfiguration) {
		t.Errorf("rate > 1 error = %v", err)
	}
}

func TestInheritMutatesOnlyConfiguredGene(t *testing.T) {
	tax := MustTaxonomy(DefaultGeneDefs())
	rng := rand.New(rand.NewSource(11))
	rates, _ := tax.MutationRates(map[string]float64{"teeth": 1})
	teeth, _ := tax.Gene("teeth")

	parent, _ := tax.GenotypeOf("brownFur", "erectEars", "shortTeeth")
	for i := 0; i < 100; i++ {
		child := tax.Inherit(parent, parent, rng, rates)
		for _, gene := range tax.Genes() {
			mutated := child.Allele(gene) != parent.Allele(gene)
			if mutated != (gene == teeth) {
				t.Fatalf("gene %s mutated = %v", gene.ID(), mutated)
			}
		}
	}
}

func TestConfigErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  *ConfigError
		want string
	}{
		{"gene and allele", &ConfigError{Gene: "ears", Allele: "flatEars", Reason: "listed twice"}, `gene "ears" allele "flatEars": listed twice`},
		{"allele only", &ConfigError{Allele: "whiteFur", Reason: "rule 1: unknown allele"}, `allele "whiteFur": rule 1: unknown allele`},
		{"gene only", &ConfigError{Gene: "wings", Reason: "mutation rate for unknown gene"}, `gene "wings": mutation rate for unknown gene`},
		{"reason only", &ConfigError{Reason: "no genes defined"}, "no genes defined"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}
