package loan

import (
	"context"

	"go.uber.org/zap"

	"scv_loans/pkg/models"
)

// TapeSource lists the tapes of a movie.
type TapeSource interface {
	FitasByFilme(ctx context.Context, filmeID uint) ([]models.Fita, error)
}

type PoolState int

const (
	PoolIdle PoolState = iota
	PoolMovieSelected
	PoolLoaded
)

func (s PoolState) String() string {
	switch s {
	case PoolIdle:
		return "IDLE"
	case PoolMovieSelected:
		return "MOVIE_SELECTED"
	case PoolLoaded:
		return "POOL_LOADED"
	default:
		return "UNKNOWN"
	}
}

// Ticket identifies one pool request. Only the ticket handed out by the most
// recent SelectMovie can apply a pool.
type Ticket struct {
	MovieID uint
	seq     uint64
}

type pool struct {
	state   PoolState
	movieID uint
	seq     uint64
	tapes   []models.Fita
}

func (p *pool) find(tapeID uint) (models.Fita, bool) {
	for _, t := range p.tapes {
		if t.ID == tapeID {
			return t, true
		}
	}
	return models.Fita{}, false
}

// Available keeps the tapes that can be lent: available and not damaged.
func Available(tapes []models.Fita) []models.Fita {
	result := make([]models.Fita, 0, len(tapes))
	for _, t := range tapes {
		if t.Disponivel && !t.Danificada {
			result = append(result, t)
		}
	}
	return result
}

// FetchAvailable asks src for the tapes of movieID and filters them. A failed
// fetch is logged and yields an empty pool.
func FetchAvailable(ctx context.Context, src TapeSource, movieID uint, logger *zap.Logger) []models.Fita {
	if movieID == 0 {
		return []models.Fita{}
	}
	tapes, err := src.FitasByFilme(ctx, movieID)
	if err != nil {
		if logger != nil {
			logger.Warn("failed to load tapes for movie",
				zap.Uint("movie_id", movieID),
				zap.Error(err))
		}
		return []models.Fita{}
	}
	return Available(tapes)
}
