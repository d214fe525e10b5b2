// Package loan composes a loan (empréstimo): a customer, a date and a set of
// tapes, each priced and given a due date from its movie's rental tier.
//
// A Draft is owned by a single caller. It performs no I/O of its own; tape
// pools are fetched by the caller and handed back through ApplyPool, which
// discards any response that is no longer the latest request.
package loan

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"scv_loans/pkg/models"
	"scv_loans/pkg/ordered"
)

// Item is one tape of the loan being composed.
type Item struct {
	TapeID    uint          `json:"tapeId"`
	TapeLabel string        `json:"tapeLabel"`
	Movie     *models.Filme `json:"movie,omitempty"`
	UnitValue float64       `json:"unitValue"`
	DueDate   string        `json:"dueDate"`

	termDays int
}

// Field names the form fields that can be set through Update.
type Field string

const (
	FieldCustomer Field = "customer"
	FieldDate     Field = "date"
)

type Draft struct {
	loanID     uint
	customerID uint
	date       string
	items      *ordered.List[uint, Item]
	total      float64

	movies map[uint]models.Filme
	pool   pool
	now    func() time.Time
}

type Option func(*Draft)

// WithClock sets the clock used to date a draft whose date is unset.
func WithClock(now func() time.Time) Option {
	return func(d *Draft) { d.now = now }
}

func NewDraft(opts ...Option) *Draft {
	d := &Draft{
		items:  ordered.New[uint, Item](),
		movies: make(map[uint]models.Filme),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// SetMovies replaces the movie catalog used to price tapes.
func (d *Draft) SetMovies(movies []models.Filme) {
	d.movies = make(map[uint]models.Filme, len(movies))
	for _, m := range movies {
		d.movies[m.ID] = m
	}
}

func (d *Draft) movie(id uint) *models.Filme {
	m, ok := d.movies[id]
	if !ok {
		return nil
	}
	return &m
}

func (d *Draft) HasMovie(id uint) bool {
	_, ok := d.movies[id]
	return ok
}

func (d *Draft) SelectCustomer(id uint) {
	d.customerID = id
}

// SetDate sets the loan date and re-derives the due date of every item
// priced from a known tier. Items of a loaded loan whose movie is missing
// from the catalog keep their stored due date. An empty date falls back to
// today.
func (d *Draft) SetDate(date string) error {
	date = strings.TrimSpace(date)
	if date != "" {
		if _, err := time.Parse(DateLayout, date); err != nil {
			return invalid(ErrInvalidDate)
		}
	}
	d.date = date

	effective := d.effectiveDate()
	if d.items.Len() > 0 {
		d.date = effective
	}
	d.items.Update(func(_ uint, it Item) Item {
		if it.termDays <= 0 {
			return it
		}
		if due, err := DueDate(effective, it.termDays); err == nil {
			it.DueDate = due
		}
		return it
	})
	return nil
}

// Update sets a single form field from its textual value.
func (d *Draft) Update(field Field, value string) error {
	switch field {
	case FieldCustomer:
		value = strings.TrimSpace(value)
		if value == "" {
			d.customerID = 0
			return nil
		}
		id, err := strconv.ParseUint(value, 10, 64)
		if err != nil || id == 0 {
			return invalid(ErrInvalidCustomer)
		}
		d.SelectCustomer(uint(id))
		return nil
	case FieldDate:
		return d.SetDate(value)
	default:
		return invalid(fmt.Errorf("%w: %q", ErrUnknownField, field))
	}
}

func (d *Draft) effectiveDate() string {
	if d.date != "" {
		return d.date
	}
	return d.now().UTC().Format(DateLayout)
}

// SelectMovie starts a new pool request for movieID and clears the current
// pool. Selecting movie 0 returns the pool to idle.
func (d *Draft) SelectMovie(movieID uint) Ticket {
	d.pool.seq++
	d.pool.movieID = movieID
	d.pool.tapes = nil
	if movieID == 0 {
		d.pool.state = PoolIdle
	} else {
		d.pool.state = PoolMovieSelected
	}
	return Ticket{MovieID: movieID, seq: d.pool.seq}
}

// ApplyPool installs the tapes fetched for t. It reports false, leaving the
// pool untouched, when t is not the latest request.
func (d *Draft) ApplyPool(t Ticket, tapes []models.Fita) bool {
	if t.MovieID == 0 || t.seq != d.pool.seq || t.MovieID != d.pool.movieID {
		return false
	}
	d.pool.tapes = Available(tapes)
	d.pool.state = PoolLoaded
	return true
}

// LoadPool selects movieID and fetches its pool in one step.
func (d *Draft) LoadPool(ctx context.Context, src TapeSource, movieID uint, logger *zap.Logger) bool {
	t := d.SelectMovie(movieID)
	return d.ApplyPool(t, FetchAvailable(ctx, src, movieID, logger))
}

func (d *Draft) PoolState() PoolState {
	return d.pool.state
}

// Pool returns the loaded tapes that are not already part of the draft.
func (d *Draft) Pool() []models.Fita {
	result := make([]models.Fita, 0, len(d.pool.tapes))
	for _, t := range d.pool.tapes {
		if !d.items.Has(t.ID) {
			result = append(result, t)
		}
	}
	return result
}

// AddItem adds a tape from the loaded pool. The draft is unchanged when an
// error is returned.
func (d *Draft) AddItem(tapeID uint) (Item, error) {
	if tapeID == 0 {
		return Item{}, invalid(ErrNoTapeSelected)
	}
	if d.items.Has(tapeID) {
		return Item{}, invalid(ErrDuplicateTape)
	}
	tape, ok := d.pool.find(tapeID)
	if !ok {
		return Item{}, invalid(ErrTapeNotFound)
	}

	movie := d.movie(tape.FilmeID)
	termDays, price := Terms(movie)
	date := d.effectiveDate()
	due, err := DueDate(date, termDays)
	if err != nil {
		return Item{}, err
	}
	// an undated draft takes the date of its first item, so the payload
	// date keeps matching the due dates across midnight
	d.date = date

	item := Item{
		TapeID:    tape.ID,
		TapeLabel: tapeLabel(tape),
		Movie:     movie,
		UnitValue: price,
		DueDate:   due,
		termDays:  termDays,
	}
	d.items.Append(tape.ID, item)
	d.recompute()
	return item, nil
}

// RemoveItem drops the item for tapeID. Missing ids are ignored.
func (d *Draft) RemoveItem(tapeID uint) {
	if d.items.Remove(tapeID) {
		d.recompute()
	}
}

// Reset returns the draft to its empty state. The movie catalog is kept and
// any pool request still in flight becomes stale.
func (d *Draft) Reset() {
	d.loanID = 0
	d.customerID = 0
	d.date = ""
	d.items.Clear()
	d.total = 0
	d.SelectMovie(0)
}

// LoadLoan replaces the draft with a stored loan so it can be edited. Stored
// values and due dates are kept as they are.
func (d *Draft) LoadLoan(e models.Emprestimo) {
	d.Reset()
	d.loanID = e.ID
	d.customerID = e.ClienteID
	if d.customerID == 0 && e.Cliente != nil {
		d.customerID = e.Cliente.ID
	}
	d.date = e.Data

	for _, it := range e.Itens {
		tapeID := it.FitaID
		label := strconv.FormatUint(uint64(tapeID), 10)
		var movie *models.Filme
		if it.Fita != nil {
			if tapeID == 0 {
				tapeID = it.Fita.ID
			}
			label = tapeLabel(*it.Fita)
			movie = d.movie(it.Fita.FilmeID)
		}
		// zero keeps the stored due date on SetDate
		termDays := 0
		if movie != nil {
			termDays, _ = Terms(movie)
		}
		d.items.Append(tapeID, Item{
			TapeID:    tapeID,
			TapeLabel: label,
			Movie:     movie,
			UnitValue: it.Valor,
			DueDate:   it.Entrega,
			termDays:  termDays,
		})
	}
	d.recompute()
}

func (d *Draft) recompute() {
	total := 0.0
	for _, it := range d.items.Values() {
		total += it.UnitValue
	}
	d.total = total
}

func (d *Draft) LoanID() uint     { return d.loanID }
func (d *Draft) CustomerID() uint { return d.customerID }
func (d *Draft) Date() string     { return d.date }
func (d *Draft) Total() float64   { return d.total }
func (d *Draft) Items() []Item    { return d.items.Values() }

// Snapshot is a read-only view of a draft for rendering.
type Snapshot struct {
	LoanID     uint          `json:"loanId,omitempty"`
	CustomerID uint          `json:"customerId,omitempty"`
	Date       string        `json:"date"`
	Items      []Item        `json:"items"`
	TotalValue float64       `json:"totalValue"`
	PoolState  string        `json:"poolState"`
	MovieID    uint          `json:"movieId,omitempty"`
	Pool       []models.Fita `json:"pool"`
}

func (d *Draft) Snapshot() Snapshot {
	return Snapshot{
		LoanID:     d.loanID,
		CustomerID: d.customerID,
		Date:       d.date,
		Items:      d.items.Values(),
		TotalValue: d.total,
		PoolState:  d.pool.state.String(),
		MovieID:    d.pool.movieID,
		Pool:       d.Pool(),
	}
}

func tapeLabel(t models.Fita) string {
	if t.Numero > 0 {
		return strconv.Itoa(t.Numero)
	}
	return strconv.FormatUint(uint64(t.ID), 10)
}
