package catalog

import (
	"context"
	"database/sql"
	"strings"

	sq "github.com/Masterminds/squirrel"
)

func (s *Store) ListCategories(ctx context.Context) ([]Category, error) {
	res := []Category{}
	err := s.query(ctx, psql.Select("id", "name").From("categories").OrderBy("name"), func(rows *sql.Rows) error {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return err
		}
		res = append(res, c)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *Store) GetCategory(ctx context.Context, id int64) (*Category, error) {
	c := &Category{}
	err := s.queryRow(ctx, psql.Select("id", "name").From("categories").Where(sq.Eq{"id": id}), &c.ID, &c.Name)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Store) CreateCategory(ctx context.Context, name string) (*Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidInput
	}
	c := &Category{Name: name}
	b := psql.Insert("categories").Columns("name").Values(name).Suffix("RETURNING id")
	if err := s.queryRow(ctx, b, &c.ID); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Store) UpdateCategory(ctx context.Context, id int64, p CategoryPatch) (*Category, error) {
	if p.Name == nil {
		return s.GetCategory(ctx, id)
	}
	name := strings.TrimSpace(*p.Name)
	if name == "" {
		return nil, ErrInvalidInput
	}
	c := &Category{}
	b := psql.Update("categories").Set("name", name).Where(sq.Eq{"id": id}).Suffix("RETURNING id, name")
	if err := s.queryRow(ctx, b, &c.ID, &c.Name); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Store) DeleteCategory(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "categories", id)
}
