package loan_test

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"testing"

	"github.com/cucumber/godog"

	"scv_loans/pkg/loan"
	"scv_loans/pkg/models"
)

type tapeTable map[uint][]models.Fita

func (t tapeTable) FitasByFilme(_ context.Context, filmeID uint) ([]models.Fita, error) {
	return t[filmeID], nil
}

type composerTestContext struct {
	movies  []models.Filme
	tapes   tapeTable
	draft   *loan.Draft
	tickets map[uint]loan.Ticket
	err     error
}

func (c *composerTestContext) reset() {
	c.movies = nil
	c.tapes = make(tapeTable)
	c.draft = nil
	c.tickets = make(map[uint]loan.Ticket)
	c.err = nil
}

func (c *composerTestContext) current() *loan.Draft {
	if c.draft == nil {
		c.draft = loan.NewDraft()
		c.draft.SetMovies(c.movies)
	}
	return c.draft
}

func (c *composerTestContext) aMovieWithATier(id int, title string, days int, price float64) error {
	tierID := uint(id)
	c.movies = append(c.movies, models.Filme{
		ID:            uint(id),
		Titulo:        title,
		TipoDeFilmeID: &tierID,
		TipoDeFilme:   &models.TipoDeFilme{ID: tierID, Prazo: days, Preco: price},
	})
	return nil
}

func (c *composerTestContext) aMovieWithoutATier(id int, title string) error {
	c.movies = append(c.movies, models.Filme{ID: uint(id), Titulo: title})
	return nil
}

func (c *composerTestContext) movieHasAvailableTapes(movieID int, list string) error {
	for _, raw := range strings.Split(list, ",") {
		id, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return err
		}
		c.tapes[uint(movieID)] = append(c.tapes[uint(movieID)], models.Fita{
			ID:         uint(id),
			Disponivel: true,
			FilmeID:    uint(movieID),
		})
	}
	return nil
}

func (c *composerTestContext) theLoanDateIs(date string) error {
	return c.current().SetDate(date)
}

func (c *composerTestContext) customerIsSelected(id int) error {
	c.current().SelectCustomer(uint(id))
	return nil
}

func (c *composerTestContext) iSelectMovie(id int) error {
	if !c.current().LoadPool(context.Background(), c.tapes, uint(id), nil) {
		return fmt.Errorf("pool for movie %d was not applied", id)
	}
	return nil
}

func (c *composerTestContext) iSelectMovieWithoutWaiting(id int) error {
	c.tickets[uint(id)] = c.current().SelectMovie(uint(id))
	return nil
}

func (c *composerTestContext) theTapesOfMovieArrive(id int) error {
	ticket, ok := c.tickets[uint(id)]
	if !ok {
		return fmt.Errorf("movie %d was never selected", id)
	}
	c.current().ApplyPool(ticket, c.tapes[uint(id)])
	return nil
}

func (c *composerTestContext) iAddTape(id int) error {
	_, c.err = c.current().AddItem(uint(id))
	return nil
}

func (c *composerTestContext) iRemoveTape(id int) error {
	c.current().RemoveItem(uint(id))
	return nil
}

func (c *composerTestContext) iBuildTheSubmitPayload() error {
	_, c.err = c.current().SubmitPayload()
	return nil
}

func (c *composerTestContext) theDraftHasItems(n int) error {
	if got := len(c.current().Items()); got != n {
		return fmt.Errorf("expected %d items, got %d", n, got)
	}
	return nil
}

func (c *composerTestContext) itemIsValuedAndDueOn(id int, value float64, due string) error {
	for _, it := range c.current().Items() {
		if it.TapeID != uint(id) {
			continue
		}
		if math.Abs(it.UnitValue-value) > 1e-9 {
			return fmt.Errorf("expected value %.2f, got %.2f", value, it.UnitValue)
		}
		if it.DueDate != due {
			return fmt.Errorf("expected due date %q, got %q", due, it.DueDate)
		}
		return nil
	}
	return fmt.Errorf("tape %d is not in the draft", id)
}

func (c *composerTestContext) theTotalIs(total float64) error {
	if got := c.current().Total(); math.Abs(got-total) > 1e-9 {
		return fmt.Errorf("expected total %.2f, got %.2f", total, got)
	}
	return nil
}

func (c *composerTestContext) theLastOperationFailsWith(message string) error {
	if c.err == nil {
		return errors.New("expected an error but the operation succeeded")
	}
	if !loan.IsValidation(c.err) {
		return fmt.Errorf("expected a validation error, got %T", c.err)
	}
	if c.err.Error() != message {
		return fmt.Errorf("expected %q, got %q", message, c.err.Error())
	}
	return nil
}

func (c *composerTestContext) thePoolOnlyHoldsTapesOfMovie(id int) error {
	pool := c.current().Pool()
	if len(pool) == 0 {
		return errors.New("pool is empty")
	}
	for _, tape := range pool {
		if tape.FilmeID != uint(id) {
			return fmt.Errorf("pool holds tape %d of movie %d", tape.ID, tape.FilmeID)
		}
	}
	return nil
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	tc := &composerTestContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		tc.reset()
		return ctx, nil
	})

	// Given steps
	ctx.Step(`^a movie (\d+) "([^"]*)" with a tier of (\d+) days at (\d+(?:\.\d+)?)$`, tc.aMovieWithATier)
	ctx.Step(`^a movie (\d+) "([^"]*)" without a tier$`, tc.aMovieWithoutATier)
	ctx.Step(`^movie (\d+) has available tapes ([\d, ]+)$`, tc.movieHasAvailableTapes)
	ctx.Step(`^the loan date is "([^"]*)"$`, tc.theLoanDateIs)
	ctx.Step(`^customer (\d+) is selected$`, tc.customerIsSelected)

	// When steps
	ctx.Step(`^I select movie (\d+)$`, tc.iSelectMovie)
	ctx.Step(`^I select movie (\d+) without waiting for its tapes$`, tc.iSelectMovieWithoutWaiting)
	ctx.Step(`^the tapes of movie (\d+) arrive(?: late)?$`, tc.theTapesOfMovieArrive)
	ctx.Step(`^I add tape (\d+)$`, tc.iAddTape)
	ctx.Step(`^I remove tape (\d+)$`, tc.iRemoveTape)
	ctx.Step(`^I build the submit payload$`, tc.iBuildTheSubmitPayload)

	// Then steps
	ctx.Step(`^the draft has (\d+) items?$`, tc.theDraftHasItems)
	ctx.Step(`^item (\d+) is valued (\d+(?:\.\d+)?) and due on "([^"]*)"$`, tc.itemIsValuedAndDueOn)
	ctx.Step(`^the total is (\d+(?:\.\d+)?)$`, tc.theTotalIs)
	ctx.Step(`^the last operation fails with "([^"]*)"$`, tc.theLastOperationFailsWith)
	ctx.Step(`^the pool only holds tapes of movie (\d+)$`, tc.thePoolOnlyHoldsTapesOfMovie)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
