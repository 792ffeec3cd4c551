// Package population stores individuals as ECS entities.
package population

import (
	"fmt"
	"sort"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/natsel/agents"
	"github.com/pthm-cable/natsel/components"
	"github.com/pthm-cable/natsel/genetics"
)

// Member is a flat copy of one individual's components.
type Member struct {
	ID         uint32            `json:"id"`
	Generation int32             `json:"generation"`
	MotherID   uint32            `json:"mother_id,omitempty"`
	FatherID   uint32            `json:"father_id,omitempty"`
	Age        int32             `json:"age"`
	Genotype   genetics.Genotype `json:"genotype"`
}

// Death describes an individual removed by RemoveDead.
type Death struct {
	ID       uint32
	Cause    components.Cause
	Agent    string
	Genotype genetics.Genotype
}

// Population owns the ECS world holding every individual.
type Population struct {
	world *ecs.World

	mapper *ecs.Map3[components.Identity, components.Vitals, components.Heredity]
	filter *ecs.Filter3[components.Identity, components.Vitals, components.Heredity]

	vitalsMap *ecs.Map1[components.Vitals]

	entities map[uint32]ecs.Entity
	nextID   uint32
}

// New creates an empty population.
func New() *Population {
	world := ecs.NewWorld()
	return &Population{
		world:     world,
		mapper:    ecs.NewMap3[components.Identity, components.Vitals, components.Heredity](world),
		filter:    ecs.NewFilter3[components.Identity, components.Vitals, components.Heredity](world),
		vitalsMap: ecs.NewMap1[components.Vitals](world),
		entities:  make(map[uint32]ecs.Entity),
		nextID:    1,
	}
}

// Spawn adds a newborn and returns its ID.
func (p *Population) Spawn(g genetics.Genotype, generation int32, motherID, fatherID uint32) uint32 {
	id := p.nextID
	p.nextID++
	p.add(Member{ID: id, Generation: generation, MotherID: motherID, FatherID: fatherID, Genotype: g})
	return id
}

// Restore re-adds a member with its original ID, e.g. from a snapshot.
func (p *Population) Restore(m Member) error {
	if m.ID == 0 {
		return fmt.Errorf("member has zero id")
	}
	if _, exists := p.entities[m.ID]; exists {
		return fmt.Errorf("member %d already present", m.ID)
	}
	p.add(m)
	if m.ID >= p.nextID {
		p.nextID = m.ID + 1
	}
	return nil
}

func (p *Population) add(m Member) {
	entity := p.mapper.NewEntity(
		&components.Identity{ID: m.ID, Generation: m.Generation, MotherID: m.MotherID, FatherID: m.FatherID},
		&components.Vitals{Age: m.Age, Alive: true},
		&components.Heredity{Genotype: m.Genotype},
	)
	p.entities[m.ID] = entity
}

// Count returns the number of living individuals.
func (p *Population) Count() int {
	n := 0
	query := p.filter.Query()
	for query.Next() {
		_, vit, _ := query.Get()
		if vit.Alive {
			n++
		}
	}
	return n
}

// Individuals returns the living individuals ordered by ID. The slice is
// never nil, so an empty population is still a valid evaluation input.
func (p *Population) Individuals() []agents.Individual {
	out := make([]agents.Individual, 0, len(p.entities))
	query := p.filter.Query()
	for query.Next() {
		id, vit, her := query.Get()
		if vit.Alive {
			out = append(out, agents.Individual{ID: id.ID, Genotype: her.Genotype})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Members returns full copies of the living individuals ordered by ID.
func (p *Population) Members() []Member {
	out := make([]Member, 0, len(p.entities))
	query := p.filter.Query()
	for query.Next() {
		id, vit, her := query.Get()
		if vit.Alive {
			out = append(out, Member{
				ID:         id.ID,
				Generation: id.Generation,
				MotherID:   id.MotherID,
				FatherID:   id.FatherID,
				Age:        vit.Age,
				Genotype:   her.Genotype,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Get returns a member by ID, alive or pending removal.
func (p *Population) Get(id uint32) (Member, bool) {
	entity, ok := p.entities[id]
	if !ok {
		return Member{}, false
	}
	ident, vit, her := p.mapper.Get(entity)
	return Member{
		ID:         ident.ID,
		Generation: ident.Generation,
		MotherID:   ident.MotherID,
		FatherID:   ident.FatherID,
		Age:        vit.Age,
		Genotype:   her.Genotype,
	}, true
}

// Alive reports whether the individual exists and is alive.
func (p *Population) Alive(id uint32) bool {
	entity, ok := p.entities[id]
	if !ok {
		return false
	}
	return p.vitalsMap.Get(entity).Alive
}

// Kill marks an individual dead. Returns false if it was unknown or already dead.
func (p *Population) Kill(id uint32, cause components.Cause, agent string) bool {
	entity, ok := p.entities[id]
	if !ok {
		return false
	}
	vit := p.vitalsMap.Get(entity)
	if !vit.Alive {
		return false
	}
	vit.Alive = false
	vit.Cause = cause
	vit.Agent = agent
	return true
}

// AgeAll advances every living individual by one generation and kills those
// older than maxAge. maxAge <= 0 disables old-age death. Returns the number killed.
func (p *Population) AgeAll(maxAge int32) int {
	killed := 0
	query := p.filter.Query()
	for query.Next() {
		_, vit, _ := query.Get()
		if !vit.Alive {
			continue
		}
		vit.Age++
		if maxAge > 0 && vit.Age > maxAge {
			vit.Alive = false
			vit.Cause = components.CauseOldAge
			killed++
		}
	}
	return killed
}

// RemoveDead deletes dead individuals from the world and returns them ordered by ID.
func (p *Population) RemoveDead() []Death {
	type pending struct {
		entity ecs.Entity
		death  Death
	}
	var toRemove []pending

	// Collect first: the world is locked while a query is open
	query := p.filter.Query()
	for query.Next() {
		id, vit, her := query.Get()
		if !vit.Alive {
			toRemove = append(toRemove, pending{
				entity: query.Entity(),
				death:  Death{ID: id.ID, Cause: vit.Cause, Agent: vit.Agent, Genotype: her.Genotype},
			})
		}
	}

	deaths := make([]Death, 0, len(toRemove))
	for _, r := range toRemove {
		p.world.RemoveEntity(r.entity)
		delete(p.entities, r.death.ID)
		deaths = append(deaths, r.death)
	}
	sort.Slice(deaths, func(i, j int) bool { return deaths[i].ID < deaths[j].ID })
	return deaths
}

// Clear removes every individual and restarts ID assignment.
func (p *Population) Clear() {
	var all []ecs.Entity
	query := p.filter.Query()
	for query.Next() {
		all = append(all, query.Entity())
	}
	for _, e := range all {
		p.world.RemoveEntity(e)
	}
	p.entities = make(map[uint32]ecs.Entity)
	p.nextID = 1
}

// NextID returns the ID the next Spawn will assign.
func (p *Population) NextID() uint32 {
	return p.nextID
}

// SetNextID moves ID assignment forward, e.g. past IDs of individuals that
// died before a snapshot was taken. It never moves backwards.
func (p *Population) SetNextID(id uint32) {
	if id > p.nextID {
		p.nextID = id
	}
}

// AlleleCounts counts living carriers of every allele, including zeros.
func (p *Population) AlleleCounts(tax *genetics.Taxonomy) map[string]int {
	genes := tax.Genes()
	counts := make(map[string]int)
	for _, g := range genes {
		for _, a := range g.Alleles() {
			counts[a.ID()] = 0
		}
	}

	query := p.filter.Query()
	for query.Next() {
		_, vit, her := query.Get()
		if !vit.Alive {
			continue
		}
		for _, g := range genes {
			if a := her.Genotype.Allele(g); a != nil {
				counts[a.ID()]++
			}
		}
	}
	return counts
}

// Ages returns the ages of living individuals.
func (p *Population) Ages() []float64 {
	var ages []float64
	query := p.filter.Query()
	for query.Next() {
		_, vit, _ := query.Get()
		if vit.Alive {
			ages = append(ages, float64(vit.Age))
		}
	}
	return ages
}
