package models

import (
	"time"
)

type Cliente struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Nome      string    `gorm:"size:80;not null" json:"nome"`
	Cpf       string    `gorm:"size:14" json:"cpf,omitempty"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// TipoDeFilme is the rental tier of a movie: how many days a tape may stay
// out (Prazo) and what a loan of one tape costs (Preco).
type TipoDeFilme struct {
	ID    uint    `gorm:"primaryKey" json:"id"`
	Nome  string  `gorm:"size:40;not null" json:"nome"`
	Prazo int     `gorm:"not null" json:"prazo"`
	Preco float64 `gorm:"not null" json:"preco"`
}

type Filme struct {
	ID            uint         `gorm:"primaryKey" json:"id"`
	Titulo        string       `gorm:"size:120;not null" json:"titulo"`
	TipoDeFilmeID *uint        `json:"tipoDeFilmeId,omitempty"`
	TipoDeFilme   *TipoDeFilme `gorm:"foreignKey:TipoDeFilmeID" json:"tipoDeFilme,omitempty"`
}

type Fita struct {
	ID         uint `gorm:"primaryKey" json:"id"`
	Numero     int  `json:"numero,omitempty"`
	Disponivel bool `gorm:"not null" json:"disponivel"`
	Danificada bool `gorm:"not null" json:"danificada"`
	FilmeID    uint `gorm:"not null;index" json:"filmeId"`
}

// Emprestimo is a stored loan. Data is kept as a YYYY-MM-DD string, the
// same representation the API uses on the wire.
type Emprestimo struct {
	ID        uint             `gorm:"primaryKey" json:"id"`
	Data      string           `gorm:"size:10;not null" json:"data"`
	Valor     float64          `gorm:"not null" json:"valor"`
	ClienteID uint             `gorm:"not null;index" json:"clienteId"`
	Cliente   *Cliente         `gorm:"foreignKey:ClienteID" json:"cliente,omitempty"`
	Itens     []ItemEmprestimo `gorm:"foreignKey:EmprestimoID;constraint:OnDelete:CASCADE" json:"itens"`
	CreatedAt time.Time        `json:"-"`
	UpdatedAt time.Time        `json:"-"`
}

type ItemEmprestimo struct {
	EmprestimoID uint    `gorm:"primaryKey;autoIncrement:false" json:"emprestimoId"`
	FitaID       uint    `gorm:"primaryKey;autoIncrement:false" json:"fitaId"`
	Fita         *Fita   `gorm:"foreignKey:FitaID" json:"fita,omitempty"`
	Valor        float64 `gorm:"not null" json:"valor"`
	Entrega      string  `gorm:"size:10;not null" json:"entrega"`
}
