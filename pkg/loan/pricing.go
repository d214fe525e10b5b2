package loan

import (
	"time"

	"scv_loans/pkg/models"
)

const (
	DateLayout = "2006-01-02"

	// Used when a movie has no rental tier, or the tier leaves the field at zero.
	DefaultTermDays = 3
	DefaultPrice    = 5.0
)

// Terms returns the loan term in days and the unit price for a tape of movie.
// A nil movie gets the defaults.
func Terms(movie *models.Filme) (termDays int, price float64) {
	termDays, price = DefaultTermDays, DefaultPrice
	if movie == nil || movie.TipoDeFilme == nil {
		return termDays, price
	}
	if movie.TipoDeFilme.Prazo > 0 {
		termDays = movie.TipoDeFilme.Prazo
	}
	if movie.TipoDeFilme.Preco > 0 {
		price = movie.TipoDeFilme.Preco
	}
	return termDays, price
}

// DueDate adds termDays calendar days to date.
func DueDate(date string, termDays int) (string, error) {
	start, err := time.Parse(DateLayout, date)
	if err != nil {
		return "", invalid(ErrInvalidDate)
	}
	return start.AddDate(0, 0, termDays).Format(DateLayout), nil
}
