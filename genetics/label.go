package genetics

// Strings resolves symbolic string-resource keys to display text.
type Strings interface {
	Lookup(key string) (string, bool)
}

// LabelOf returns the display label of an allele.
// Falls back to the resource key if the provider has no entry.
func LabelOf(a *Allele, s Strings) string {
	return resolve(a.labelKey, s)
}

// GeneLabel returns the display label of a gene.
func GeneLabel(g *Gene, s Strings) string {
	return resolve(g.labelKey, s)
}

func resolve(key string, s Strings) string {
	if s == nil {
		return key
	}
	if text, ok := s.Lookup(key); ok {
		return text
	}
	return key
}
