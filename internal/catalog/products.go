package catalog

import (
	"context"
	"database/sql"
	"strings"

	sq "github.com/Masterminds/squirrel"
)

var productColumns = []string{"id", "name", "price", "category_id", "supplier_id"}

func (s *Store) ListProducts(ctx context.Context, f ProductFilter) ([]Product, error) {
	b := psql.Select(productColumns...).From("products").OrderBy("id")
	if q := strings.TrimSpace(f.Query); q != "" {
		b = b.Where(sq.ILike{"name": "%" + q + "%"})
	}
	res := []Product{}
	err := s.query(ctx, b, func(rows *sql.Rows) error {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.CategoryID, &p.SupplierID); err != nil {
			return err
		}
		res = append(res, p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *Store) GetProduct(ctx context.Context, id int64) (*Product, error) {
	p := &Product{}
	b := psql.Select(productColumns...).From("products").Where(sq.Eq{"id": id})
	if err := s.queryRow(ctx, b, &p.ID, &p.Name, &p.Price, &p.CategoryID, &p.SupplierID); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Store) CreateProduct(ctx context.Context, in Product) (*Product, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" || in.Price < 0 {
		return nil, ErrInvalidInput
	}
	if err := s.mustExist(ctx, "categories", "category", in.CategoryID); err != nil {
		return nil, err
	}
	if err := s.mustExist(ctx, "suppliers", "supplier", in.SupplierID); err != nil {
		return nil, err
	}
	b := psql.Insert("products").
		Columns("name", "price", "category_id", "supplier_id").
		Values(in.Name, in.Price, in.CategoryID, in.SupplierID).
		Suffix("RETURNING id")
	if err := s.queryRow(ctx, b, &in.ID); err != nil {
		return nil, err
	}
	return &in, nil
}

func (s *Store) UpdateProduct(ctx context.Context, id int64, p ProductPatch) (*Product, error) {
	set := map[string]any{}
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return nil, ErrInvalidInput
		}
		set["name"] = name
	}
	if p.Price != nil {
		if *p.Price < 0 {
			return nil, ErrInvalidInput
		}
		set["price"] = *p.Price
	}
	if p.CategoryID != nil {
		if err := s.mustExist(ctx, "categories", "category", *p.CategoryID); err != nil {
			return nil, err
		}
		set["category_id"] = *p.CategoryID
	}
	if p.SupplierID != nil {
		if err := s.mustExist(ctx, "suppliers", "supplier", *p.SupplierID); err != nil {
			return nil, err
		}
		set["supplier_id"] = *p.SupplierID
	}
	if len(set) == 0 {
		return s.GetProduct(ctx, id)
	}
	out := &Product{}
	b := psql.Update("products").SetMap(set).Where(sq.Eq{"id": id}).
		Suffix("RETURNING " + strings.Join(productColumns, ", "))
	if err := s.queryRow(ctx, b, &out.ID, &out.Name, &out.Price, &out.CategoryID, &out.SupplierID); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) DeleteProduct(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "products", id)
}
