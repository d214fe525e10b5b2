package loan

type Ref struct {
	ID uint `json:"id"`
}

type PayloadItem struct {
	Fita    Ref     `json:"fita"`
	Valor   float64 `json:"valor"`
	Entrega string  `json:"entrega"`
}

// Payload is the body of POST /emprestimos and PUT /emprestimos/{id}.
type Payload struct {
	Data    string        `json:"data"`
	Valor   float64       `json:"valor"`
	Cliente Ref           `json:"cliente"`
	Itens   []PayloadItem `json:"itens"`
}

// SubmitPayload assembles the request body for the loan API. It fails when no
// customer is selected or the draft has no items.
func (d *Draft) SubmitPayload() (Payload, error) {
	if d.customerID == 0 {
		return Payload{}, invalid(ErrNoCustomer)
	}
	items := d.items.Values()
	if len(items) == 0 {
		return Payload{}, invalid(ErrNoItems)
	}

	p := Payload{
		Data:    d.effectiveDate(),
		Valor:   d.total,
		Cliente: Ref{ID: d.customerID},
		Itens:   make([]PayloadItem, len(items)),
	}
	for i, it := range items {
		p.Itens[i] = PayloadItem{
			Fita:    Ref{ID: it.TapeID},
			Valor:   it.UnitValue,
			Entrega: it.DueDate,
		}
	}
	return p, nil
}
