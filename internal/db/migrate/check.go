package dbmigrate

import (
	"context"
	"fmt"
	"strings"
)

// Pending lists migrations that have not been applied yet.
func (m *Manager) Pending(ctx context.Context) ([]string, error) {
	entries, err := m.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch migration status: %w", err)
	}
	var pending []string
	for _, e := range entries {
		if !e.Applied {
			pending = append(pending, e.Name)
		}
	}
	return pending, nil
}

// EnsureCurrent fails when the schema is behind, unless autoMigrate is set,
// in which case pending migrations are applied.
func EnsureCurrent(ctx context.Context, m *Manager, autoMigrate bool) error {
	if err := m.Init(ctx); err != nil {
		return fmt.Errorf("init migrations: %w", err)
	}

	pending, err := m.Pending(ctx)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		return nil
	}

	if !autoMigrate {
		return fmt.Errorf("pending migrations: %s. Run 'dbctl migrate up' to apply them.", strings.Join(pending, ", "))
	}

	if _, err := m.Up(ctx); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}
