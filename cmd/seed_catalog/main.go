// seed_catalog genera un script SQL idempotente para poblar categorías, proveedores y productos
// a partir de un CSV separado por ';' (UTF-8 o ISO-8859-1):
//
//	nombre;categoria;proveedor;precio_compra;precio_venta;stock_minimo
//
// Uso: go run ./cmd/seed_catalog [catalogo.csv]
// Por defecto lee catalogo.csv del directorio actual.
// Escribe: internal/infrastructure/postgres/seed_catalog.sql
package main

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// seedNamespace espacio para UUID deterministas: el mismo nombre siempre da el mismo ID.
var seedNamespace = uuid.MustParse("6f1c2b8e-3d4a-4e5f-9a0b-1c2d3e4f5a6b")

type seedProduct struct {
	ID            string
	Name          string
	Category      string
	Supplier      string
	PurchasePrice decimal.Decimal
	SalePrice     decimal.Decimal
	MinimumStock  int64
}

func main() {
	csvPath := "catalogo.csv"
	if len(os.Args) > 1 {
		csvPath = os.Args[1]
	}
	raw, err := os.ReadFile(csvPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Abrir CSV: %v\n", err)
		os.Exit(1)
	}

	products, err := parseCatalog(decodeLatin1(raw))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Leer CSV: %v\n", err)
		os.Exit(1)
	}

	moduleRoot := findModuleRoot()
	outPath := filepath.Join(moduleRoot, "internal", "infrastructure", "postgres", "seed_catalog.sql")
	out, err := os.Create(outPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Crear archivo: %v\n", err)
		os.Exit(1)
	}
	defer out.Close()

	if err := writeSQL(out, products); err != nil {
		fmt.Fprintf(os.Stderr, "Escribir SQL: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Generado %s: %d productos\n", outPath, len(products))
}

// decodeLatin1 devuelve el contenido en UTF-8. Si no es UTF-8 válido se asume ISO-8859-1.
func decodeLatin1(raw []byte) io.Reader {
	raw = bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf"))
	if utf8.Valid(raw) {
		return bytes.NewReader(raw)
	}
	return transform.NewReader(bytes.NewReader(raw), charmap.ISO8859_1.NewDecoder())
}

// parseCatalog lee las filas del CSV. La primera fila se omite si es encabezado.
func parseCatalog(r io.Reader) ([]seedProduct, error) {
	cr := csv.NewReader(r)
	cr.Comma = ';'
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = 6

	var out []seedProduct
	line := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line++
		if line == 1 && isHeader(rec[0]) {
			continue
		}
		p, err := parseRow(rec)
		if err != nil {
			return nil, fmt.Errorf("línea %d: %w", line, err)
		}
		out = append(out, p)
	}
	return out, nil
}

func isHeader(first string) bool {
	switch strings.ToLower(strings.TrimSpace(first)) {
	case "nombre", "name", "nom":
		return true
	}
	return false
}

func parseRow(rec []string) (seedProduct, error) {
	name := strings.TrimSpace(rec[0])
	if name == "" {
		return seedProduct{}, fmt.Errorf("nombre vacío")
	}
	purchase, err := parsePrice(rec[3])
	if err != nil {
		return seedProduct{}, fmt.Errorf("precio de compra: %w", err)
	}
	sale, err := parsePrice(rec[4])
	if err != nil {
		return seedProduct{}, fmt.Errorf("precio de venta: %w", err)
	}
	minimum, err := strconv.ParseInt(strings.TrimSpace(rec[5]), 10, 64)
	if err != nil || minimum < 0 {
		return seedProduct{}, fmt.Errorf("stock mínimo inválido %q", rec[5])
	}
	return seedProduct{
		ID:            seedID("product", name),
		Name:          name,
		Category:      strings.TrimSpace(rec[1]),
		Supplier:      strings.TrimSpace(rec[2]),
		PurchasePrice: purchase,
		SalePrice:     sale,
		MinimumStock:  minimum,
	}, nil
}

// parsePrice acepta coma o punto decimal ("1234,5" o "1234.50").
func parsePrice(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(s), ",", "."))
	if err != nil {
		return decimal.Zero, err
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("negativo")
	}
	return d.Round(2), nil
}

func seedID(kind, name string) string {
	return uuid.NewSHA1(seedNamespace, []byte(kind+":"+strings.ToLower(name))).String()
}

func writeSQL(w io.Writer, products []seedProduct) error {
	categories := map[string]struct{}{}
	suppliers := map[string]struct{}{}
	for _, p := range products {
		if p.Category != "" {
			categories[p.Category] = struct{}{}
		}
		if p.Supplier != "" {
			suppliers[p.Supplier] = struct{}{}
		}
	}

	var b strings.Builder
	b.WriteString("-- Catálogo inicial (generado por cmd/seed_catalog). Idempotente.\n\n")

	b.WriteString("-- 1. Categorías\n")
	for _, name := range sortedKeys(categories) {
		fmt.Fprintf(&b, "INSERT INTO categories (id, name) VALUES ('%s', '%s') ON CONFLICT DO NOTHING;\n",
			seedID("category", name), escapeSQL(name))
	}

	b.WriteString("\n-- 2. Proveedores\n")
	for _, name := range sortedKeys(suppliers) {
		fmt.Fprintf(&b, "INSERT INTO suppliers (id, name) VALUES ('%s', '%s') ON CONFLICT (id) DO NOTHING;\n",
			seedID("supplier", name), escapeSQL(name))
	}

	b.WriteString("\n-- 3. Productos\n")
	for _, p := range products {
		fmt.Fprintf(&b,
			"INSERT INTO products (id, name, category_id, supplier_id, purchase_price, sale_price, minimum_stock)\n"+
				"VALUES ('%s', '%s', %s, %s, %s, %s, %d)\n"+
				"ON CONFLICT (id) DO UPDATE SET purchase_price = EXCLUDED.purchase_price, sale_price = EXCLUDED.sale_price,"+
				" minimum_stock = EXCLUDED.minimum_stock;\n",
			p.ID, escapeSQL(p.Name),
			refOrNull("category", p.Category), refOrNull("supplier", p.Supplier),
			p.PurchasePrice.StringFixed(2), p.SalePrice.StringFixed(2), p.MinimumStock)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// refOrNull referencia por nombre a la categoría/proveedor; si ya existía con otro ID se resuelve por nombre.
func refOrNull(kind, name string) string {
	if name == "" {
		return "NULL"
	}
	table := "categories"
	if kind == "supplier" {
		table = "suppliers"
	}
	return fmt.Sprintf("(SELECT id FROM %s WHERE lower(name) = lower('%s') ORDER BY id = '%s' DESC LIMIT 1)",
		table, escapeSQL(name), seedID(kind, name))
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func escapeSQL(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

func findModuleRoot() string {
	dir, _ := os.Getwd()
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return dir
		}
		dir = parent
	}
}
