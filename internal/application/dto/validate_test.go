package dto_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/domain"
)

func TestValidate_EtiquetasDeDTO(t *testing.T) {
	name := ""
	negative := int64(-1)

	cases := []struct {
		name  string
		in    any
		field string
	}{
		{"proveedor sin teléfono", dto.SupplierRequest{Name: "Agro"}, "phone (required)"},
		{"proveedor correo inválido", dto.SupplierRequest{Name: "Agro", Phone: "1", Email: "no-es-correo"}, "email (email)"},
		{"categoría larga", dto.CategoryRequest{Name: string(make([]rune, 51))}, "name (max=50)"},
		{"producto stock mínimo negativo", dto.CreateProductRequest{Name: "Sal", MinimumStock: -3}, "minimumstock (gte=0)"},
		{"actualización con nombre vacío", dto.UpdateProductRequest{Name: &name}, "name (min=1)"},
		{"actualización con mínimo negativo", dto.UpdateProductRequest{MinimumStock: &negative}, "minimumstock (gte=0)"},
		{"registro con rol desconocido", dto.RegisterRequest{Username: "anita", Password: "secreto123", Role: "auditor"}, "role (oneof=admin bodeguero)"},
		{"login sin password", dto.LoginRequest{Username: "anita"}, "password (required)"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := dto.Validate(tc.in)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
			assert.Contains(t, err.Error(), tc.field)
		})
	}
}

func TestValidate_Validos(t *testing.T) {
	assert.NoError(t, dto.Validate(dto.SupplierRequest{Name: "Agro", Phone: "3001234567", Email: "compras@agro.co"}))
	assert.NoError(t, dto.Validate(dto.UpdateProductRequest{}), "campos ausentes no se validan")
	assert.NoError(t, dto.Validate(dto.RegisterRequest{Username: "ñandú", Password: "secreto123"}))
}
