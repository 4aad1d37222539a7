// Package session holds the in-memory row set for one reporting session:
// the generic list-of-rows container per category, full recomputation on
// every mutation, save-batch classification, and the two-phase delete
// protocol for persisted rows.
//
// All state belongs to a single user session with no concurrent writers, so
// the session is not internally locked; callers drive it from one goroutine.
package session

import (
	"github.com/google/uuid"

	"carbontrace/core/calc"
	"carbontrace/core/entry"
	"carbontrace/core/factors"
	"carbontrace/core/record"
	"carbontrace/internal/errors"
)

// Session is one user's in-memory row set
type Session struct {
	catalog *factors.Catalog
	rows    map[entry.Category][]entry.Entry

	// saved snapshots what storage last confirmed, keyed by local row ID
	saved map[string]*record.Record

	// pending holds delete confirmations awaiting a decision
	pending map[string]pendingDeletion
}

type pendingDeletion struct {
	rowID string
}

// New creates a session over a factor catalog. A nil catalog starts the
// session present-but-empty, the state while a dataset load is in flight.
func New(catalog *factors.Catalog) *Session {
	if catalog == nil {
		catalog = factors.EmptyCatalog()
	}
	return &Session{
		catalog: catalog,
		rows:    make(map[entry.Category][]entry.Entry),
		saved:   make(map[string]*record.Record),
		pending: make(map[string]pendingDeletion),
	}
}

// Catalog returns the session's factor catalog
func (s *Session) Catalog() *factors.Catalog {
	return s.catalog
}

// ReplaceCatalog swaps in a newly loaded catalog and recomputes every row
// against it
func (s *Session) ReplaceCatalog(catalog *factors.Catalog) {
	s.catalog = catalog
	for c, rows := range s.rows {
		for i, e := range rows {
			rows[i] = calc.Recompute(catalog, e)
		}
		s.rows[c] = rows
	}
}

// AddRow appends an empty row to a category and returns it
func (s *Session) AddRow(c entry.Category) (entry.Entry, error) {
	if !c.Valid() {
		return entry.Entry{}, errors.Inputf("unknown category: %q", c)
	}
	e := entry.New(c)
	s.rows[c] = append(s.rows[c], e)
	return e, nil
}

// Row returns a row by local ID
func (s *Session) Row(id string) (entry.Entry, error) {
	for _, rows := range s.rows {
		for _, e := range rows {
			if e.ID == id {
				return e, nil
			}
		}
	}
	return entry.Entry{}, errors.NotFound("row", id)
}

// Rows returns the rows of a category in entry order
func (s *Session) Rows(c entry.Category) []entry.Entry {
	return append([]entry.Entry(nil), s.rows[c]...)
}

// UpdateRow applies a pure update function to a row, recomputes the derived
// values, and stores the result. A rejected update (out-of-range input)
// leaves the stored row untouched.
func (s *Session) UpdateRow(id string, update func(entry.Entry) (entry.Entry, error)) (entry.Entry, error) {
	for c, rows := range s.rows {
		for i, e := range rows {
			if e.ID != id {
				continue
			}
			next, err := update(e)
			if err != nil {
				return e, err
			}
			next = calc.Recompute(s.catalog, next)
			rows[i] = next
			s.rows[c] = rows
			return next, nil
		}
	}
	return entry.Entry{}, errors.NotFound("row", id)
}

// Totals recomputes the category totals in full
func (s *Session) Totals(c entry.Category) calc.Totals {
	return calc.Aggregate(s.rows[c])
}

// KilogramGrandTotal sums emissions across all kilogram-denominated
// categories. Investment rows are tonnes CO2e and stay out of this figure.
func (s *Session) KilogramGrandTotal() calc.Totals {
	var totals []calc.Totals
	for _, c := range entry.Categories() {
		if c == entry.CategoryInvestment {
			continue
		}
		totals = append(totals, s.Totals(c))
	}
	return calc.Totals{Emissions: calc.GrandTotal(totals...)}
}

// PlannedInsert is an unsaved complete row bound for batch insert
type PlannedInsert struct {
	LocalID string
	Record  *record.Record
}

// PlannedUpdate is a persisted row whose in-memory state drifted from its
// saved record
type PlannedUpdate struct {
	LocalID     string
	PersistedID string
	Record      *record.Record
}

// SavePlan classifies the rows an external collaborator should write
type SavePlan struct {
	Inserts []PlannedInsert
	Updates []PlannedUpdate
}

// Empty reports whether there is nothing to save
func (p SavePlan) Empty() bool {
	return len(p.Inserts) == 0 && len(p.Updates) == 0
}

// PendingCount is the number of rows awaiting persistence
func (p SavePlan) PendingCount() int {
	return len(p.Inserts) + len(p.Updates)
}

// Plan classifies every row as insert, update or skip. Incomplete rows are
// never planned; persisted rows are compared field-by-field against their
// saved snapshot, so a row edited back to its saved values is a skip.
func (s *Session) Plan() SavePlan {
	var plan SavePlan
	for _, c := range entry.Categories() {
		for _, e := range s.rows[c] {
			r := record.ToRecord(e)
			if r == nil {
				continue
			}
			if e.PersistedID == "" {
				plan.Inserts = append(plan.Inserts, PlannedInsert{LocalID: e.ID, Record: r})
				continue
			}
			if record.Differs(e, s.saved[e.ID]) {
				plan.Updates = append(plan.Updates, PlannedUpdate{
					LocalID:     e.ID,
					PersistedID: e.PersistedID,
					Record:      r,
				})
			}
		}
	}
	return plan
}

// SaveResult reports one row's outcome from the persistence collaborator
type SaveResult struct {
	LocalID     string
	PersistedID string
	Err         error
}

// ApplySaveResults reconciles the session with what the collaborator reports
// as written. Only rows known to have succeeded are marked clean; failed
// rows keep their dirty or new state so a retry can pick them up.
func (s *Session) ApplySaveResults(results []SaveResult) {
	for _, res := range results {
		if res.Err != nil {
			continue
		}
		for c, rows := range s.rows {
			for i, e := range rows {
				if e.ID != res.LocalID {
					continue
				}
				if res.PersistedID != "" {
					e.PersistedID = res.PersistedID
				}
				e.State = entry.StateClean
				rows[i] = e
				s.rows[c] = rows
				s.saved[e.ID] = record.ToRecord(e)
			}
		}
	}
}

// Deletion is the outcome of a delete request
type Deletion struct {
	// Immediate is true when the row was unsaved and removed on the spot
	Immediate bool

	// Token must be confirmed or cancelled for persisted rows
	Token string
}

// RequestDelete starts row removal. An unsaved row is removed immediately
// and silently; a persisted row returns a confirmation token and nothing is
// removed until ConfirmDelete.
func (s *Session) RequestDelete(id string) (Deletion, error) {
	e, err := s.Row(id)
	if err != nil {
		return Deletion{}, err
	}

	if e.PersistedID == "" {
		s.remove(id)
		return Deletion{Immediate: true}, nil
	}

	token := uuid.NewString()
	s.pending[token] = pendingDeletion{rowID: id}
	return Deletion{Token: token}, nil
}

// ConfirmDelete removes the row behind a pending token and returns the
// persisted ID the collaborator must delete from storage
func (s *Session) ConfirmDelete(token string) (string, error) {
	p, ok := s.pending[token]
	if !ok {
		return "", errors.NotFound("pending deletion", token)
	}
	delete(s.pending, token)

	e, err := s.Row(p.rowID)
	if err != nil {
		return "", err
	}
	s.remove(p.rowID)
	return e.PersistedID, nil
}

// CancelDelete abandons a pending deletion, leaving the row untouched
func (s *Session) CancelDelete(token string) error {
	if _, ok := s.pending[token]; !ok {
		return errors.NotFound("pending deletion", token)
	}
	delete(s.pending, token)
	return nil
}

func (s *Session) remove(id string) {
	for c, rows := range s.rows {
		for i, e := range rows {
			if e.ID == id {
				s.rows[c] = append(rows[:i], rows[i+1:]...)
				delete(s.saved, id)
				return
			}
		}
	}
}

// SavedRow pairs a persisted ID with its stored record
type SavedRow struct {
	ID     string
	Record *record.Record
}

// Load reconstructs saved rows into the session, recomputing each against
// the current catalog and snapshotting the stored record for dirty
// comparison
func (s *Session) Load(rows []SavedRow) error {
	for _, row := range rows {
		e, err := record.FromRecord(row.ID, row.Record)
		if err != nil {
			return err
		}
		e = calc.Recompute(s.catalog, e)
		s.rows[e.Category] = append(s.rows[e.Category], e)
		s.saved[e.ID] = row.Record
	}
	return nil
}
