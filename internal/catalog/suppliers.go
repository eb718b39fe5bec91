package catalog

import (
	"context"
	"database/sql"
	"strings"

	sq "github.com/Masterminds/squirrel"
)

var supplierColumns = []string{"id", "name", "phone", "email"}

func scanSupplier(row interface{ Scan(...any) error }) (*Supplier, error) {
	sp := &Supplier{}
	var phone, email sql.NullString
	if err := row.Scan(&sp.ID, &sp.Name, &phone, &email); err != nil {
		return nil, err
	}
	sp.Phone = nullString(phone)
	sp.Email = nullString(email)
	return sp, nil
}

func (s *Store) ListSuppliers(ctx context.Context) ([]Supplier, error) {
	res := []Supplier{}
	err := s.query(ctx, psql.Select(supplierColumns...).From("suppliers").OrderBy("name"), func(rows *sql.Rows) error {
		sp, err := scanSupplier(rows)
		if err != nil {
			return err
		}
		res = append(res, *sp)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *Store) GetSupplier(ctx context.Context, id int64) (*Supplier, error) {
	q, args, err := psql.Select(supplierColumns...).From("suppliers").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	sp, err := scanSupplier(s.db.QueryRowContext(ctx, q, args...))
	if err != nil {
		return nil, mapError(err)
	}
	return sp, nil
}

func (s *Store) CreateSupplier(ctx context.Context, in Supplier) (*Supplier, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, ErrInvalidInput
	}
	b := psql.Insert("suppliers").
		Columns("name", "phone", "email").
		Values(in.Name, in.Phone, in.Email).
		Suffix("RETURNING id")
	if err := s.queryRow(ctx, b, &in.ID); err != nil {
		return nil, err
	}
	return &in, nil
}

func (s *Store) UpdateSupplier(ctx context.Context, id int64, p SupplierPatch) (*Supplier, error) {
	set := map[string]any{}
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return nil, ErrInvalidInput
		}
		set["name"] = name
	}
	if p.Phone != nil {
		set["phone"] = *p.Phone
	}
	if p.Email != nil {
		set["email"] = *p.Email
	}
	if len(set) == 0 {
		return s.GetSupplier(ctx, id)
	}
	q, args, err := psql.Update("suppliers").SetMap(set).Where(sq.Eq{"id": id}).
		Suffix("RETURNING id, name, phone, email").ToSql()
	if err != nil {
		return nil, err
	}
	sp, err := scanSupplier(s.db.QueryRowContext(ctx, q, args...))
	if err != nil {
		return nil, mapError(err)
	}
	return sp, nil
}

func (s *Store) DeleteSupplier(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "suppliers", id)
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}
