package scv

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scv_loans/pkg/circuitbreaker"
	"scv_loans/pkg/loan"
)

func newTestServer(t *testing.T, register func(r *gin.Engine)) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	register(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestFilmesDecodesTier(t *testing.T) {
	srv := newTestServer(t, func(r *gin.Engine) {
		r.GET("/filmes", func(c *gin.Context) {
			c.Data(http.StatusOK, "application/json", []byte(`[
				{"id": 1, "titulo": "Matrix", "tipoDeFilme": {"id": 2, "nome": "Lançamento", "prazo": 7, "preco": 12.5}},
				{"id": 2, "titulo": "Nosferatu"}
			]`))
		})
	})

	filmes, err := NewClient(srv.URL).Filmes(context.Background())
	require.NoError(t, err)
	require.Len(t, filmes, 2)
	require.NotNil(t, filmes[0].TipoDeFilme)
	assert.Equal(t, 7, filmes[0].TipoDeFilme.Prazo)
	assert.Equal(t, 12.5, filmes[0].TipoDeFilme.Preco)
	assert.Nil(t, filmes[1].TipoDeFilme)
}

func TestFitasByFilme(t *testing.T) {
	var gotPath string
	srv := newTestServer(t, func(r *gin.Engine) {
		r.GET("/fitas/findByFilme/:id", func(c *gin.Context) {
			gotPath = c.Request.URL.Path
			c.Data(http.StatusOK, "application/json", []byte(`[
				{"id": 5, "numero": 105, "disponivel": true, "danificada": false, "filmeId": 3}
			]`))
		})
	})

	fitas, err := NewClient(srv.URL+"/").FitasByFilme(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "/fitas/findByFilme/3", gotPath)
	require.Len(t, fitas, 1)
	assert.True(t, fitas[0].Disponivel)
	assert.Equal(t, uint(3), fitas[0].FilmeID)
}

func TestSaveEmprestimoCreatesOrUpdates(t *testing.T) {
	var method, path, body string
	srv := newTestServer(t, func(r *gin.Engine) {
		handler := func(c *gin.Context) {
			data, _ := io.ReadAll(c.Request.Body)
			method, path, body = c.Request.Method, c.Request.URL.Path, string(data)
			c.Data(http.StatusOK, "application/json", []byte(`{"id": 9, "data": "2024-01-10", "valor": 12.5, "clienteId": 4}`))
		}
		r.POST("/emprestimos", handler)
		r.PUT("/emprestimos/:id", handler)
	})
	client := NewClient(srv.URL)
	p := loan.Payload{
		Data:    "2024-01-10",
		Valor:   12.5,
		Cliente: loan.Ref{ID: 4},
		Itens:   []loan.PayloadItem{{Fita: loan.Ref{ID: 5}, Valor: 12.5, Entrega: "2024-01-17"}},
	}

	stored, err := client.SaveEmprestimo(context.Background(), 0, p)
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, method)
	assert.Equal(t, "/emprestimos", path)
	assert.Equal(t, uint(9), stored.ID)
	assert.JSONEq(t, `{"data":"2024-01-10","valor":12.5,"cliente":{"id":4},
		"itens":[{"fita":{"id":5},"valor":12.5,"entrega":"2024-01-17"}]}`, body)

	_, err = client.SaveEmprestimo(context.Background(), 9, p)
	require.NoError(t, err)
	assert.Equal(t, http.MethodPut, method)
	assert.Equal(t, "/emprestimos/9", path)
}

func TestAPIErrorMessage(t *testing.T) {
	srv := newTestServer(t, func(r *gin.Engine) {
		r.POST("/emprestimos", func(c *gin.Context) {
			switch c.Query("case") {
			case "message":
				c.JSON(http.StatusBadRequest, gin.H{"message": "cliente inválido"})
			case "err":
				c.JSON(http.StatusUnprocessableEntity, gin.H{"err": "fita indisponível"})
			default:
				c.Status(http.StatusBadRequest)
			}
		})
	})

	tests := []struct {
		name    string
		query   string
		status  int
		message string
	}{
		{name: "message field", query: "message", status: http.StatusBadRequest, message: "cliente inválido"},
		{name: "err field", query: "err", status: http.StatusUnprocessableEntity, message: "fita indisponível"},
		{name: "empty body", query: "none", status: http.StatusBadRequest, message: FallbackSave},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := NewClient(srv.URL)
			err := client.do(context.Background(), http.MethodPost, "/emprestimos?case="+tt.query, loan.Payload{}, nil, FallbackSave)

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.message, ErrorMessage(err, FallbackSave))
			assert.Equal(t, tt.status, StatusCode(err))
		})
	}
}

func TestClientErrorsDoNotTripBreaker(t *testing.T) {
	srv := newTestServer(t, func(r *gin.Engine) {
		r.DELETE("/emprestimos/:id", func(c *gin.Context) {
			if c.Param("id") == "500" {
				c.JSON(http.StatusInternalServerError, gin.H{"message": "db down"})
				return
			}
			c.JSON(http.StatusNotFound, gin.H{"message": "not found"})
		})
	})
	cb := circuitbreaker.NewCircuitBreaker(0, time.Minute)
	client := NewClient(srv.URL, WithBreaker(cb))

	for i := 0; i < 3; i++ {
		err := client.DeleteEmprestimo(context.Background(), 1)
		assert.Equal(t, "not found", ErrorMessage(err, FallbackDelete))
	}
	assert.Equal(t, circuitbreaker.StateClosed, client.BreakerState())

	err := client.DeleteEmprestimo(context.Background(), 500)
	assert.Equal(t, "db down", ErrorMessage(err, FallbackDelete))
	assert.Equal(t, circuitbreaker.StateOpen, client.BreakerState())

	err = client.DeleteEmprestimo(context.Background(), 1)
	assert.ErrorIs(t, err, circuitbreaker.ErrOpen)
}

func TestTransportErrorUsesFallback(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", WithHTTPClient(&http.Client{Timeout: time.Second}))

	_, err := client.Clientes(context.Background())
	require.Error(t, err)
	assert.Equal(t, FallbackLoad, ErrorMessage(err, FallbackLoad))
	assert.Equal(t, http.StatusBadGateway, StatusCode(err))
}
