package genetics

import (
	"fmt"
	"math/rand"
)

// Genotype holds one allele index per gene, indexed by Gene.Index.
type Genotype [MaxGenes]uint8

// Allele returns the allele carried for gene.
func (g Genotype) Allele(gene *Gene) *Allele {
	return gene.AlleleAt(int(g[gene.index]))
}

// Has reports whether the genotype carries allele a.
func (g Genotype) Has(a *Allele) bool {
	return int(g[a.gene.index]) == a.index
}

// With returns a copy carrying a in place of its gene's current allele.
func (g Genotype) With(a *Allele) Genotype {
	g[a.gene.index] = uint8(a.index)
	return g
}

// Validate checks that every gene slot holds a valid allele index and
// that unused slots are zero.
func (g Genotype) Validate(t *Taxonomy) error {
	for i := range g {
		if i >= len(t.genes) {
			if g[i] != 0 {
				return fmt.Errorf("genotype slot %d set beyond %d genes", i, len(t.genes))
			}
			continue
		}
		gene := t.genes[i]
		if int(g[i]) >= len(gene.alleles) {
			return fmt.Errorf("gene %q: allele index %d out of range", gene.id, g[i])
		}
	}
	return nil
}

// AlleleIDs returns the carried allele IDs in gene order.
func (g Genotype) AlleleIDs(t *Taxonomy) []string {
	ids := make([]string, len(t.genes))
	for i, gene := range t.genes {
		if a := g.Allele(gene); a != nil {
			ids[i] = a.id
		}
	}
	return ids
}

// GenotypeOf builds a genotype from allele IDs. Genes not mentioned get their
// first allele. Two alleles of the same gene is an error.
func (t *Taxonomy) GenotypeOf(alleleIDs ...string) (Genotype, error) {
	var g Genotype
	seen := make(map[int]string, len(alleleIDs))
	for _, id := range alleleIDs {
		a, ok := t.byID[id]
		if !ok {
			return g, &ConfigError{Allele: id, Reason: "unknown allele"}
		}
		if prev, dup := seen[a.gene.index]; dup {
			return g, &ConfigError{
				Gene:   a.gene.id,
				Allele: id,
				Reason: fmt.Sprintf("conflicts with %q for the same gene", prev),
			}
		}
		seen[a.gene.index] = id
		g = g.With(a)
	}
	return g, nil
}

// RandomGenotype draws each gene's allele uniformly.
func (t *Taxonomy) RandomGenotype(rng *rand.Rand) Genotype {
	var g Genotype
	for i, gene := range t.genes {
		g[i] = uint8(rng.Intn(len(gene.alleles)))
	}
	return g
}

// MutationRates holds a per-gene mutation probability, indexed by Gene.Index.
type MutationRates [MaxGenes]float64

// UniformRates applies the same rate to every gene.
func UniformRates(rate float64) MutationRates {
	var r MutationRates
	for i := range r {
		r[i] = rate
	}
	return r
}

// MutationRates resolves a gene ID -> rate table. Unknown genes and rates
// outside [0, 1] are configuration errors.
func (t *Taxonomy) MutationRates(byGene map[string]float64) (MutationRates, error) {
	var r MutationRates
	for id, rate := range byGene {
		g, ok := t.geneByID[id]
		if !ok {
			return r, &ConfigError{Gene: id, Reason: "mutation rate for unknown gene"}
		}
		if rate < 0 || rate > 1 {
			return r, &ConfigError{Gene: id, Reason: fmt.Sprintf("mutation rate %v outside [0, 1]", rate)}
		}
		r[g.index] = rate
	}
	return r, nil
}

// Inherit produces a child genotype. Each gene comes from one parent chosen
// at random, then mutates to a different allele with that gene's rate.
// Genes with a single allele never mutate.
func (t *Taxonomy) Inherit(mother, father Genotype, rng *rand.Rand, rates MutationRates) Genotype {
	var child Genotype
	for i, gene := range t.genes {
		if rng.Intn(2) == 0 {
			child[i] = mother[i]
		} else {
			child[i] = father[i]
		}

		n := len(gene.alleles)
		if n > 1 && rates[i] > 0 && rng.Float64() < rates[i] {
			// Shift by 1..n-1 so the result always differs
			shift := 1 + rng.Intn(n-1)
			child[i] = uint8((int(child[i]) + shift) % n)
		}
	}
	return child
}
