package media

// Collection holds entities in insertion order and indexes them by the
// identity of their primary file. Each identity appears at most once.
type Collection struct {
	entities []Entity
	index    map[FileIdentity]int
}

// NewCollection creates a collection from the given entities. An entity
// whose identity collides with an earlier one is dropped.
func NewCollection(entities ...Entity) *Collection {
	c := &Collection{index: make(map[FileIdentity]int, len(entities))}
	for _, e := range entities {
		c.Add(e)
	}
	return c
}

// Len returns the number of entities.
func (c *Collection) Len() int { return len(c.entities) }

// At returns the entity at position i in insertion order.
func (c *Collection) At(i int) Entity { return c.entities[i] }

// Get returns the entity whose primary file has the given identity.
func (c *Collection) Get(id FileIdentity) (Entity, bool) {
	i, ok := c.index[id]
	if !ok {
		return Entity{}, false
	}
	return c.entities[i], true
}

// Add appends e to the collection. It returns false when an entity with
// the same identity is already present.
func (c *Collection) Add(e Entity) bool {
	id := e.Identity()
	if _, taken := c.index[id]; taken {
		return false
	}
	c.index[id] = len(c.entities)
	c.entities = append(c.entities, e)
	return true
}

// Replace swaps the entity stored under id for e, keeping its position.
// The index key follows e's identity when it differs from id. It returns
// false when id is absent or e's identity is already held by another
// entity.
func (c *Collection) Replace(id FileIdentity, e Entity) bool {
	i, ok := c.index[id]
	if !ok {
		return false
	}
	newID := e.Identity()
	if newID != id {
		if _, taken := c.index[newID]; taken {
			return false
		}
		delete(c.index, id)
		c.index[newID] = i
	}
	c.entities[i] = e
	return true
}

// RemoveAll deletes every entity whose identity is in ids and returns
// how many were removed. The surviving entities keep their relative
// order. A single pass rebuilds the index regardless of how many
// identities are given.
func (c *Collection) RemoveAll(ids map[FileIdentity]bool) int {
	if len(ids) == 0 {
		return 0
	}
	kept := c.entities[:0]
	removed := 0
	for _, e := range c.entities {
		if ids[e.Identity()] {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	c.entities = kept
	c.index = make(map[FileIdentity]int, len(kept))
	for i, e := range kept {
		c.index[e.Identity()] = i
	}
	return removed
}

// Entities returns the entities in insertion order.
func (c *Collection) Entities() []Entity {
	out := make([]Entity, len(c.entities))
	copy(out, c.entities)
	return out
}
