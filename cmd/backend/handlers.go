package main

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"scv_loans/pkg/loan"
	"scv_loans/pkg/models"
)

// loanError is a rejected loan payload. Handlers answer it with 400.
type loanError struct {
	message string
}

func (e *loanError) Error() string { return e.message }

func rejectLoan(message string) error {
	return &loanError{message: message}
}

func getClientes(c *gin.Context) {
	var clientes []models.Cliente
	if err := db.Order("nome").Find(&clientes).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, clientes)
}

func getFilmes(c *gin.Context) {
	var filmes []models.Filme
	if err := db.Preload("TipoDeFilme").Order("titulo").Find(&filmes).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, filmes)
}

func getFitasByFilme(c *gin.Context) {
	filmeID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid movie id"})
		return
	}
	var fitas []models.Fita
	if err := db.Where("filme_id = ?", filmeID).Order("numero").Find(&fitas).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, fitas)
}

func loanQuery(tx *gorm.DB) *gorm.DB {
	return tx.Preload("Cliente").Preload("Itens.Fita")
}

// getEmprestimos lists loans newest first.
func getEmprestimos(c *gin.Context) {
	var emprestimos []models.Emprestimo
	if err := loanQuery(db).Order("id desc").Find(&emprestimos).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, emprestimos)
}

func getEmprestimo(c *gin.Context) {
	id, ok := loanID(c)
	if !ok {
		return
	}
	var emprestimo models.Emprestimo
	if err := loanQuery(db).First(&emprestimo, id).Error; err != nil {
		respondLoanError(c, err)
		return
	}
	c.JSON(http.StatusOK, emprestimo)
}

func createEmprestimo(c *gin.Context) {
	var payload loan.Payload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body", "err": err.Error()})
		return
	}

	var emprestimo models.Emprestimo
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := validateLoan(tx, payload, 0); err != nil {
			return err
		}
		emprestimo = models.Emprestimo{
			Data:      payload.Data,
			Valor:     payload.Valor,
			ClienteID: payload.Cliente.ID,
			Itens:     loanItems(payload),
		}
		if err := tx.Create(&emprestimo).Error; err != nil {
			return err
		}
		return setAvailability(tx, tapeIDs(payload), false)
	})
	if err != nil {
		respondLoanError(c, err)
		return
	}

	if err := loanQuery(db).First(&emprestimo, emprestimo.ID).Error; err != nil {
		respondLoanError(c, err)
		return
	}
	logger.Info("loan created", zap.Uint("id", emprestimo.ID), zap.Int("items", len(emprestimo.Itens)))
	c.JSON(http.StatusCreated, emprestimo)
}

// updateEmprestimo replaces a loan's header and items. Tapes dropped from the
// loan become available again.
func updateEmprestimo(c *gin.Context) {
	id, ok := loanID(c)
	if !ok {
		return
	}
	var payload loan.Payload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body", "err": err.Error()})
		return
	}

	var emprestimo models.Emprestimo
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Itens").First(&emprestimo, id).Error; err != nil {
			return err
		}
		if err := validateLoan(tx, payload, id); err != nil {
			return err
		}

		if err := setAvailability(tx, storedTapeIDs(emprestimo), true); err != nil {
			return err
		}
		if err := tx.Where("emprestimo_id = ?", id).Delete(&models.ItemEmprestimo{}).Error; err != nil {
			return err
		}

		items := loanItems(payload)
		for i := range items {
			items[i].EmprestimoID = id
		}
		if err := tx.Create(&items).Error; err != nil {
			return err
		}

		err := tx.Model(&models.Emprestimo{}).Where("id = ?", id).Updates(map[string]interface{}{
			"data":       payload.Data,
			"valor":      payload.Valor,
			"cliente_id": payload.Cliente.ID,
		}).Error
		if err != nil {
			return err
		}
		return setAvailability(tx, tapeIDs(payload), false)
	})
	if err != nil {
		respondLoanError(c, err)
		return
	}

	emprestimo = models.Emprestimo{}
	if err := loanQuery(db).First(&emprestimo, id).Error; err != nil {
		respondLoanError(c, err)
		return
	}
	logger.Info("loan updated", zap.Uint("id", id), zap.Int("items", len(emprestimo.Itens)))
	c.JSON(http.StatusOK, emprestimo)
}

// deleteEmprestimo removes a loan and makes its tapes available again.
func deleteEmprestimo(c *gin.Context) {
	id, ok := loanID(c)
	if !ok {
		return
	}
	err := db.Transaction(func(tx *gorm.DB) error {
		var emprestimo models.Emprestimo
		if err := tx.Preload("Itens").First(&emprestimo, id).Error; err != nil {
			return err
		}
		if err := setAvailability(tx, storedTapeIDs(emprestimo), true); err != nil {
			return err
		}
		if err := tx.Where("emprestimo_id = ?", id).Delete(&models.ItemEmprestimo{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Emprestimo{}, id).Error
	})
	if err != nil {
		respondLoanError(c, err)
		return
	}
	logger.Info("loan deleted", zap.Uint("id", id))
	c.Status(http.StatusNoContent)
}

// validateLoan checks a payload against the database. loanID is the loan
// being updated, whose own tapes count as available; zero on create.
func validateLoan(tx *gorm.DB, p loan.Payload, loanID uint) error {
	if p.Cliente.ID == 0 {
		return rejectLoan("customer is required")
	}
	if _, err := time.Parse(loan.DateLayout, p.Data); err != nil {
		return rejectLoan("invalid date, use YYYY-MM-DD")
	}
	if len(p.Itens) == 0 {
		return rejectLoan("a loan needs at least one item")
	}

	var cliente models.Cliente
	if err := tx.First(&cliente, p.Cliente.ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return rejectLoan("customer not found")
		}
		return err
	}

	var current []uint
	if loanID != 0 {
		err := tx.Model(&models.ItemEmprestimo{}).
			Where("emprestimo_id = ?", loanID).
			Pluck("fita_id", &current).Error
		if err != nil {
			return err
		}
	}
	owned := make(map[uint]bool, len(current))
	for _, id := range current {
		owned[id] = true
	}

	seen := make(map[uint]bool, len(p.Itens))
	for _, it := range p.Itens {
		if it.Fita.ID == 0 {
			return rejectLoan("every item needs a tape")
		}
		if seen[it.Fita.ID] {
			return rejectLoan("tape " + strconv.FormatUint(uint64(it.Fita.ID), 10) + " appears more than once")
		}
		seen[it.Fita.ID] = true

		if _, err := time.Parse(loan.DateLayout, it.Entrega); err != nil {
			return rejectLoan("invalid due date, use YYYY-MM-DD")
		}

		var fita models.Fita
		if err := tx.First(&fita, it.Fita.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return rejectLoan("tape not found")
			}
			return err
		}
		if fita.Danificada {
			return rejectLoan("tape " + strconv.FormatUint(uint64(fita.ID), 10) + " is damaged")
		}
		if !fita.Disponivel && !owned[fita.ID] {
			return rejectLoan("tape " + strconv.FormatUint(uint64(fita.ID), 10) + " is not available")
		}
	}
	return nil
}

func loanItems(p loan.Payload) []models.ItemEmprestimo {
	items := make([]models.ItemEmprestimo, len(p.Itens))
	for i, it := range p.Itens {
		items[i] = models.ItemEmprestimo{
			FitaID:  it.Fita.ID,
			Valor:   it.Valor,
			Entrega: it.Entrega,
		}
	}
	return items
}

func tapeIDs(p loan.Payload) []uint {
	ids := make([]uint, len(p.Itens))
	for i, it := range p.Itens {
		ids[i] = it.Fita.ID
	}
	return ids
}

func storedTapeIDs(e models.Emprestimo) []uint {
	ids := make([]uint, len(e.Itens))
	for i, it := range e.Itens {
		ids[i] = it.FitaID
	}
	return ids
}

func setAvailability(tx *gorm.DB, ids []uint, available bool) error {
	if len(ids) == 0 {
		return nil
	}
	return tx.Model(&models.Fita{}).Where("id IN ?", ids).Update("disponivel", available).Error
}

func loanID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid loan id"})
		return 0, false
	}
	return uint(id), true
}

func respondLoanError(c *gin.Context, err error) {
	var lerr *loanError
	switch {
	case errors.As(err, &lerr):
		c.JSON(http.StatusBadRequest, gin.H{"message": lerr.message})
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "loan not found"})
	default:
		logger.Error("loan request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to save loan"})
	}
}

func healthCheck(ctx *gin.Context) {
	sqlDB, err := db.DB()
	if err != nil {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "DOWN",
			"details": "Database connection failed",
			"error":   err.Error(),
		})
		return
	}
	if err := sqlDB.Ping(); err != nil {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "DOWN",
			"details": "Database ping failed",
			"error":   err.Error(),
		})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"status": "UP"})
}
