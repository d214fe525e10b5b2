package main

import (
	"go.uber.org/zap"

	"scv_loans/pkg/models"
)

// seedTestData fills an empty database with a small catalog so the composer
// has something to lend. Existing rows are left alone.
func seedTestData() {
	var count int64
	if err := db.Model(&models.Filme{}).Count(&count).Error; err != nil {
		logger.Warn("failed to inspect catalog", zap.Error(err))
		return
	}
	if count > 0 {
		logger.Info("catalog already present, skipping seed", zap.Int64("movies", count))
		return
	}

	tiers := []models.TipoDeFilme{
		{Nome: "Lançamento", Prazo: 2, Preco: 8.5},
		{Nome: "Catálogo", Prazo: 5, Preco: 4.0},
	}
	for i := range tiers {
		if err := db.Create(&tiers[i]).Error; err != nil {
			logger.Warn("failed to create rental tier", zap.String("nome", tiers[i].Nome), zap.Error(err))
			return
		}
	}

	filmes := []models.Filme{
		{Titulo: "Central do Brasil", TipoDeFilmeID: &tiers[1].ID},
		{Titulo: "Cidade de Deus", TipoDeFilmeID: &tiers[1].ID},
		{Titulo: "Bacurau", TipoDeFilmeID: &tiers[0].ID},
		{Titulo: "Filme sem tipo"},
	}
	for i := range filmes {
		if err := db.Create(&filmes[i]).Error; err != nil {
			logger.Warn("failed to create movie", zap.String("titulo", filmes[i].Titulo), zap.Error(err))
			continue
		}
		for n := 1; n <= 3; n++ {
			fita := models.Fita{
				Numero:     n,
				Disponivel: true,
				Danificada: n == 3,
				FilmeID:    filmes[i].ID,
			}
			if err := db.Create(&fita).Error; err != nil {
				logger.Warn("failed to create tape", zap.Uint("filmeId", filmes[i].ID), zap.Error(err))
			}
		}
	}

	clientes := []models.Cliente{
		{Nome: "Ana Souza", Cpf: "123.456.789-00"},
		{Nome: "Bruno Lima", Cpf: "987.654.321-00"},
	}
	for _, cliente := range clientes {
		if err := db.Create(&cliente).Error; err != nil {
			logger.Warn("failed to create customer", zap.String("nome", cliente.Nome), zap.Error(err))
		}
	}

	logger.Info("scv test data seeded", zap.Int("movies", len(filmes)), zap.Int("customers", len(clientes)))
}
