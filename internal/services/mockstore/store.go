package mockstore

import (
	"errors"
	"maps"
	"strconv"
	"sync"
)

var ErrNotFound = errors.New("record not found")

// Record è un documento senza schema, come nel servizio remoto.
type Record map[string]any

// Store tiene le collezioni in memoria. Gli id sono sequenziali per
// collezione e serializzati come stringa.
type Store struct {
	mu          sync.RWMutex
	collections map[string]*collection
}

type collection struct {
	nextID  int
	order   []string
	records map[string]Record
}

func NewStore() *Store {
	return &Store{collections: make(map[string]*collection)}
}

func (s *Store) coll(name string) *collection {
	c, ok := s.collections[name]
	if !ok {
		c = &collection{records: make(map[string]Record)}
		s.collections[name] = c
	}
	return c
}

// List restituisce i record in ordine di creazione.
func (s *Store) List(name string) []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[name]
	if !ok {
		return []Record{}
	}
	out := make([]Record, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, maps.Clone(c.records[id]))
	}
	return out
}

func (s *Store) Get(name, id string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[name]
	if !ok {
		return nil, ErrNotFound
	}
	r, ok := c.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	return maps.Clone(r), nil
}

// Create assegna l'id ignorando quello eventualmente presente nel body.
func (s *Store) Create(name string, r Record) Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.coll(name)
	c.nextID++
	id := strconv.Itoa(c.nextID)

	rec := maps.Clone(r)
	if rec == nil {
		rec = Record{}
	}
	rec["id"] = id
	c.records[id] = rec
	c.order = append(c.order, id)
	return maps.Clone(rec)
}

// Update fonde i campi nel record esistente; l'id non cambia.
func (s *Store) Update(name, id string, r Record) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collections[name]
	if !ok {
		return nil, ErrNotFound
	}
	rec, ok := c.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	maps.Copy(rec, r)
	rec["id"] = id
	return maps.Clone(rec), nil
}

func (s *Store) Delete(name, id string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collections[name]
	if !ok {
		return nil, ErrNotFound
	}
	rec, ok := c.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	delete(c.records, id)
	for i, v := range c.order {
		if v == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return rec, nil
}

// Len riporta il numero di record di una collezione.
func (s *Store) Len(name string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.collections[name]; ok {
		return len(c.order)
	}
	return 0
}

// Seed popola una collezione vuota; se contiene già record non fa nulla.
func (s *Store) Seed(name string, records ...Record) int {
	if s.Len(name) > 0 {
		return 0
	}
	for _, r := range records {
		s.Create(name, r)
	}
	return len(records)
}
