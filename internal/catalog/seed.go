package catalog

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type seedFile struct {
	Categories []string   `yaml:"categories"`
	Suppliers  []Supplier `yaml:"suppliers"`
	Customers  []Customer `yaml:"customers"`
}

// SeedFromFile loads sample records from a YAML file. Each table is only
// filled when it is empty, so repeated starts leave existing data alone.
func (s *Store) SeedFromFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var sf seedFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return fmt.Errorf("parse seed %s: %w", path, err)
	}

	if empty, err := s.isEmpty(ctx, "categories"); err != nil {
		return err
	} else if empty {
		for _, name := range sf.Categories {
			if _, err := s.CreateCategory(ctx, name); err != nil {
				return fmt.Errorf("seed category %q: %w", name, err)
			}
		}
	}

	if empty, err := s.isEmpty(ctx, "suppliers"); err != nil {
		return err
	} else if empty {
		for _, sp := range sf.Suppliers {
			if _, err := s.CreateSupplier(ctx, sp); err != nil {
				return fmt.Errorf("seed supplier %q: %w", sp.Name, err)
			}
		}
	}

	if empty, err := s.isEmpty(ctx, "customers"); err != nil {
		return err
	} else if empty {
		for _, c := range sf.Customers {
			if _, err := s.CreateCustomer(ctx, c); err != nil {
				return fmt.Errorf("seed customer %q: %w", c.Name, err)
			}
		}
	}
	return nil
}

func (s *Store) isEmpty(ctx context.Context, table string) (bool, error) {
	var n int64
	if err := s.queryRow(ctx, psql.Select("count(*)").From(table), &n); err != nil {
		return false, err
	}
	return n == 0, nil
}
