package catalog

import (
	"context"
	"database/sql"
	"strings"

	sq "github.com/Masterminds/squirrel"
)

// orderSelect joins each order with its customer and product so responses
// carry both inline.
func orderSelect() sq.SelectBuilder {
	return psql.Select(
		"o.id", "o.customer_id", "o.product_id", "o.quantity", "o.status", "o.notes", "o.created_at",
		"c.id", "c.name", "c.email", "c.phone",
		"p.id", "p.name", "p.price", "p.category_id", "p.supplier_id",
	).
		From("orders o").
		Join("customers c ON c.id = o.customer_id").
		Join("products p ON p.id = o.product_id")
}

func scanOrder(row interface{ Scan(...any) error }) (*Order, error) {
	o := &Order{}
	var notes, phone sql.NullString
	err := row.Scan(
		&o.ID, &o.CustomerID, &o.ProductID, &o.Quantity, &o.Status, &notes, &o.CreatedAt,
		&o.Customer.ID, &o.Customer.Name, &o.Customer.Email, &phone,
		&o.Product.ID, &o.Product.Name, &o.Product.Price, &o.Product.CategoryID, &o.Product.SupplierID,
	)
	if err != nil {
		return nil, err
	}
	o.Notes = nullString(notes)
	o.Customer.Phone = nullString(phone)
	return o, nil
}

func (s *Store) ListOrders(ctx context.Context, f OrderFilter) ([]Order, error) {
	b := orderSelect().OrderBy("o.created_at DESC", "o.id DESC")
	if f.CustomerID > 0 {
		b = b.Where(sq.Eq{"o.customer_id": f.CustomerID})
	}
	if st := strings.TrimSpace(f.Status); st != "" {
		b = b.Where(sq.Eq{"lower(o.status)": strings.ToLower(st)})
	}
	res := []Order{}
	err := s.query(ctx, b, func(rows *sql.Rows) error {
		o, err := scanOrder(rows)
		if err != nil {
			return err
		}
		res = append(res, *o)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *Store) GetOrder(ctx context.Context, id int64) (*Order, error) {
	q, args, err := orderSelect().Where(sq.Eq{"o.id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	o, err := scanOrder(s.db.QueryRowContext(ctx, q, args...))
	if err != nil {
		return nil, mapError(err)
	}
	return o, nil
}

func (s *Store) CreateOrder(ctx context.Context, in OrderInput) (*Order, error) {
	if in.Quantity == 0 {
		in.Quantity = 1
	}
	if in.Quantity < 1 {
		return nil, ErrInvalidInput
	}
	status := strings.TrimSpace(in.Status)
	if status == "" {
		status = DefaultOrderStatus
	}
	if err := s.mustExist(ctx, "customers", "customer", in.CustomerID); err != nil {
		return nil, err
	}
	if err := s.mustExist(ctx, "products", "product", in.ProductID); err != nil {
		return nil, err
	}

	var id int64
	b := psql.Insert("orders").
		Columns("customer_id", "product_id", "quantity", "status", "notes").
		Values(in.CustomerID, in.ProductID, in.Quantity, status, in.Notes).
		Suffix("RETURNING id")
	if err := s.queryRow(ctx, b, &id); err != nil {
		return nil, err
	}
	return s.GetOrder(ctx, id)
}

func (s *Store) UpdateOrder(ctx context.Context, id int64, p OrderPatch) (*Order, error) {
	set := map[string]any{}
	if p.CustomerID != nil {
		if err := s.mustExist(ctx, "customers", "customer", *p.CustomerID); err != nil {
			return nil, err
		}
		set["customer_id"] = *p.CustomerID
	}
	if p.ProductID != nil {
		if err := s.mustExist(ctx, "products", "product", *p.ProductID); err != nil {
			return nil, err
		}
		set["product_id"] = *p.ProductID
	}
	if p.Quantity != nil {
		if *p.Quantity < 1 {
			return nil, ErrInvalidInput
		}
		set["quantity"] = *p.Quantity
	}
	if p.Status != nil {
		st := strings.TrimSpace(*p.Status)
		if st == "" {
			return nil, ErrInvalidInput
		}
		set["status"] = st
	}
	if p.Notes != nil {
		set["notes"] = *p.Notes
	}
	if len(set) > 0 {
		var got int64
		b := psql.Update("orders").SetMap(set).Where(sq.Eq{"id": id}).Suffix("RETURNING id")
		if err := s.queryRow(ctx, b, &got); err != nil {
			return nil, err
		}
	}
	return s.GetOrder(ctx, id)
}

func (s *Store) DeleteOrder(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "orders", id)
}
