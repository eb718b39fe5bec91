package catalog

import (
	"context"
	"database/sql"
	"strings"

	sq "github.com/Masterminds/squirrel"
)

var customerColumns = []string{"id", "name", "email", "phone"}

func scanCustomer(row interface{ Scan(...any) error }) (*Customer, error) {
	c := &Customer{}
	var phone sql.NullString
	if err := row.Scan(&c.ID, &c.Name, &c.Email, &phone); err != nil {
		return nil, err
	}
	c.Phone = nullString(phone)
	return c, nil
}

func (s *Store) ListCustomers(ctx context.Context) ([]Customer, error) {
	res := []Customer{}
	err := s.query(ctx, psql.Select(customerColumns...).From("customers").OrderBy("name"), func(rows *sql.Rows) error {
		c, err := scanCustomer(rows)
		if err != nil {
			return err
		}
		res = append(res, *c)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *Store) GetCustomer(ctx context.Context, id int64) (*Customer, error) {
	q, args, err := psql.Select(customerColumns...).From("customers").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	c, err := scanCustomer(s.db.QueryRowContext(ctx, q, args...))
	if err != nil {
		return nil, mapError(err)
	}
	return c, nil
}

func (s *Store) CreateCustomer(ctx context.Context, in Customer) (*Customer, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	if in.Name == "" || in.Email == "" {
		return nil, ErrInvalidInput
	}
	b := psql.Insert("customers").
		Columns("name", "email", "phone").
		Values(in.Name, in.Email, in.Phone).
		Suffix("RETURNING id")
	if err := s.queryRow(ctx, b, &in.ID); err != nil {
		return nil, err
	}
	return &in, nil
}

func (s *Store) UpdateCustomer(ctx context.Context, id int64, p CustomerPatch) (*Customer, error) {
	set := map[string]any{}
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return nil, ErrInvalidInput
		}
		set["name"] = name
	}
	if p.Email != nil {
		email := strings.TrimSpace(*p.Email)
		if email == "" {
			return nil, ErrInvalidInput
		}
		set["email"] = email
	}
	if p.Phone != nil {
		set["phone"] = *p.Phone
	}
	if len(set) == 0 {
		return s.GetCustomer(ctx, id)
	}
	q, args, err := psql.Update("customers").SetMap(set).Where(sq.Eq{"id": id}).
		Suffix("RETURNING id, name, email, phone").ToSql()
	if err != nil {
		return nil, err
	}
	c, err := scanCustomer(s.db.QueryRowContext(ctx, q, args...))
	if err != nil {
		return nil, mapError(err)
	}
	return c, nil
}

func (s *Store) DeleteCustomer(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "customers", id)
}
