package roster

import (
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Store is the owning collection of student records plus the id counter.
//
// Records are kept in insertion order; index maps an id to its position so
// lookups do not scan. lastID is the last minted id and only moves forward
// through Add, or through SetLastID when a persisted checkpoint is restored.
type Store struct {
	records []Record
	index   map[int64]int
	lastID  int64
}

// NewStore creates an empty store with lastID = 0.
//
// The first Add returns id 1.
func NewStore() *Store {
	return &Store{index: make(map[int64]int)}
}

// Add validates f, mints the next id and appends a new record.
// Returns a ValidationError if a text field is empty or the enrollment
// year is not positive; in that case no id is consumed.
func (s *Store) Add(f Fields) (Record, error) {
	f = f.normalize()
	if err := f.validateText(); err != nil {
		return Record{}, err
	}
	if err := validateYear(f.EnrollmentYear); err != nil {
		return Record{}, err
	}

	s.lastID++
	rec := Record{
		ID:             s.lastID,
		Name:           f.Name,
		Email:          f.Email,
		Program:        f.Program,
		EnrollmentYear: f.EnrollmentYear,
	}
	s.append(rec)
	return rec, nil
}

// List returns a snapshot of all records in insertion order.
func (s *Store) List() []Record {
	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}

// Search returns records whose decimal id equals term or whose name
// contains term (case-sensitive). No match yields an empty slice, not an
// error; an empty term is a ValidationError.
func (s *Store) Search(term string) ([]Record, error) {
	if term == "" {
		return nil, newValidationError("term", "search term is empty")
	}
	term = norm.NFC.String(term)

	out := []Record{}
	for _, rec := range s.records {
		if strconv.FormatInt(rec.ID, 10) == term || strings.Contains(rec.Name, term) {
			out = append(out, rec)
		}
	}
	return out, nil
}

// Get returns the record with the given id.
func (s *Store) Get(id int64) (Record, error) {
	if err := validateID(id); err != nil {
		return Record{}, err
	}
	pos, ok := s.index[id]
	if !ok {
		return Record{}, newNotFoundError(id)
	}
	return s.records[pos], nil
}

// Update overwrites the mutable fields of the record with the given id.
// The id and the record's position are unchanged.
//
// Arguments are validated before the lookup, so an invalid year is reported
// as a ValidationError even when the id does not exist.
func (s *Store) Update(id int64, f Fields) error {
	if err := validateID(id); err != nil {
		return err
	}
	f = f.normalize()
	if err := validateYear(f.EnrollmentYear); err != nil {
		return err
	}
	if err := f.validateText(); err != nil {
		return err
	}

	pos, ok := s.index[id]
	if !ok {
		return newNotFoundError(id)
	}
	rec := &s.records[pos]
	rec.Name = f.Name
	rec.Email = f.Email
	rec.Program = f.Program
	rec.EnrollmentYear = f.EnrollmentYear
	return nil
}

// Delete removes the record with the given id without reordering the rest.
// The id is never reissued.
func (s *Store) Delete(id int64) error {
	if err := validateID(id); err != nil {
		return err
	}
	pos, ok := s.index[id]
	if !ok {
		return newNotFoundError(id)
	}

	s.records = append(s.records[:pos], s.records[pos+1:]...)
	delete(s.index, id)
	for i := pos; i < len(s.records); i++ {
		s.index[s.records[i].ID] = i
	}
	return nil
}

// Clear empties the collection. lastID is left as is.
func (s *Store) Clear() {
	s.records = nil
	s.index = make(map[int64]int)
}

// Len returns the number of live records.
func (s *Store) Len() int {
	return len(s.records)
}

// LastID returns the last minted id.
func (s *Store) LastID() int64 {
	return s.lastID
}

// SetLastID sets the id counter, e.g. from a persisted checkpoint.
// Negative values are clamped to 0.
func (s *Store) SetLastID(n int64) {
	if n < 0 {
		n = 0
	}
	s.lastID = n
}

// Restore appends a record with its id taken verbatim. It is meant for
// persistence backends rebuilding a store and does not touch lastID.
//
// Records that would break an invariant (non-positive id or year, empty
// text, duplicate id) are rejected with a ValidationError.
func (s *Store) Restore(rec Record) error {
	if err := validateID(rec.ID); err != nil {
		return err
	}
	if err := validateYear(rec.EnrollmentYear); err != nil {
		return err
	}
	f := Fields{Name: rec.Name, Email: rec.Email, Program: rec.Program}
	if err := f.validateText(); err != nil {
		return err
	}
	if _, dup := s.index[rec.ID]; dup {
		return newValidationError("id", "duplicate id "+strconv.FormatInt(rec.ID, 10))
	}
	s.append(rec)
	return nil
}

// MaxID returns the largest live id, or 0 when the store is empty.
func (s *Store) MaxID() int64 {
	var max int64
	for _, rec := range s.records {
		if rec.ID > max {
			max = rec.ID
		}
	}
	return max
}

func (s *Store) append(rec Record) {
	s.index[rec.ID] = len(s.records)
	s.records = append(s.records, rec)
}
