package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

const productColumns = `p.id, p.name, p.description, COALESCE(p.category_id::text, ''), COALESCE(p.supplier_id::text, ''),
	p.purchase_price, p.sale_price, p.minimum_stock, p.created_at`

// ProductRepo implementación del puerto ProductRepository sobre PostgreSQL (usable con pool o tx).
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador de persistencia para productos. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(row scanner) (*entity.Product, error) {
	var p entity.Product
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.CategoryID, &p.SupplierID,
		&p.PurchasePrice, &p.SalePrice, &p.MinimumStock, &p.CreatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

// Create persiste un nuevo producto. Categoría o proveedor inexistentes → ErrNotFound.
func (r *ProductRepo) Create(ctx context.Context, product *entity.Product) error {
	query := `
		INSERT INTO products (id, name, description, category_id, supplier_id, purchase_price, sale_price, minimum_stock, created_at)
		VALUES ($1, $2, $3, NULLIF($4, '')::uuid, NULLIF($5, '')::uuid, $6, $7, $8, $9)`
	_, err := r.q.Exec(ctx, query,
		product.ID, product.Name, product.Description, product.CategoryID, product.SupplierID,
		product.PurchasePrice, product.SalePrice, product.MinimumStock, product.CreatedAt,
	)
	return wrapErr("insert product", err)
}

// GetByID obtiene un producto por ID.
func (r *ProductRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	p, err := scanProduct(r.q.QueryRow(ctx, `SELECT `+productColumns+` FROM products p WHERE p.id = $1`, id))
	if err != nil {
		if isMissing(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

// Update actualiza los atributos del producto. La cantidad no existe aquí: se deriva de los movimientos.
func (r *ProductRepo) Update(ctx context.Context, product *entity.Product) error {
	query := `
		UPDATE products SET name = $2, description = $3,
			category_id = NULLIF($4, '')::uuid, supplier_id = NULLIF($5, '')::uuid,
			purchase_price = $6, sale_price = $7, minimum_stock = $8
		WHERE id = $1`
	_, err := r.q.Exec(ctx, query,
		product.ID, product.Name, product.Description, product.CategoryID, product.SupplierID,
		product.PurchasePrice, product.SalePrice, product.MinimumStock,
	)
	return wrapErr("update product", err)
}

// Delete elimina un producto por ID; sus movimientos caen por ON DELETE CASCADE.
func (r *ProductRepo) Delete(ctx context.Context, id string) error {
	_, err := r.q.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil && isMissing(err) {
		return nil
	}
	return wrapErr("delete product", err)
}

// List lista productos con paginación, ordenados por nombre.
func (r *ProductRepo) List(ctx context.Context, limit, offset int) ([]*entity.Product, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+productColumns+` FROM products p ORDER BY p.name, p.id LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// Count total de productos.
func (r *ProductRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM products`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return n, nil
}

// LockForMovement SELECT ... FOR UPDATE (salidas) o FOR SHARE (entradas) sobre la fila del producto.
// La espera está acotada por el lock_timeout de la transacción.
func (r *ProductRepo) LockForMovement(ctx context.Context, id string, mode repository.LockMode) (*entity.Product, error) {
	clause := "FOR SHARE"
	if mode == repository.LockExclusive {
		clause = "FOR UPDATE"
	}
	p, err := scanProduct(r.q.QueryRow(ctx, `SELECT `+productColumns+` FROM products p WHERE p.id = $1 `+clause, id))
	if err != nil {
		if isMissing(err) {
			return nil, nil
		}
		return nil, wrapErr("lock product", err)
	}
	return p, nil
}

// ListWithStock productos con totales de entradas y salidas en una sola consulta agregada.
func (r *ProductRepo) ListWithStock(ctx context.Context) ([]repository.ProductStock, error) {
	query := `
		SELECT ` + productColumns + `,
			COALESCE(SUM(m.quantity) FILTER (WHERE m.kind = 'ENTRY'), 0)::bigint AS total_entries,
			COALESCE(SUM(m.quantity) FILTER (WHERE m.kind = 'EXIT'), 0)::bigint  AS total_exits
		FROM products p
		LEFT JOIN movements m ON m.product_id = p.id
		GROUP BY p.id
		ORDER BY p.name, p.id`
	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list products with stock: %w", err)
	}
	defer rows.Close()
	out := make([]repository.ProductStock, 0)
	for rows.Next() {
		var p entity.Product
		var row repository.ProductStock
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.CategoryID, &p.SupplierID,
			&p.PurchasePrice, &p.SalePrice, &p.MinimumStock, &p.CreatedAt,
			&row.TotalEntries, &row.TotalExits); err != nil {
			return nil, fmt.Errorf("scan product stock: %w", err)
		}
		row.Product = &p
		out = append(out, row)
	}
	return out, rows.Err()
}
