package db

import (
	"fmt"
	"io"
	"io/fs"
	"strconv"
)

// MigrateActions lists the actions RunMigrateCommand accepts.
var MigrateActions = []string{"up", "down", "status", "version", "force"}

// RunMigrateCommand performs one migrate action against database using
// the given migrations and reports progress on out. "version" and
// "force" take the target version as their single argument.
func RunMigrateCommand(out io.Writer, database *DB, migrations fs.FS, action string, args []string) error {
	switch action {
	case "up":
		if err := database.MigrateUp(migrations); err != nil {
			return err
		}
		fmt.Fprintln(out, "✓ All migrations applied")
		return printVersion(out, database, migrations)

	case "down":
		if err := database.MigrateDown(migrations); err != nil {
			return err
		}
		fmt.Fprintln(out, "✓ Rolled back one migration")
		return printVersion(out, database, migrations)

	case "status":
		return printStatus(out, database, migrations)

	case "version":
		v, err := versionArg(action, args)
		if err != nil {
			return err
		}
		if err := database.MigrateTo(migrations, uint(v)); err != nil {
			return err
		}
		fmt.Fprintf(out, "✓ Migrated to version %d\n", v)
		return nil

	case "force":
		v, err := versionArg(action, args)
		if err != nil {
			return err
		}
		if err := database.MigrateForce(migrations, v); err != nil {
			return err
		}
		fmt.Fprintf(out, "✓ Migration version forced to %d\n", v)
		return nil
	}
	return fmt.Errorf("unknown migrate action %q (want one of %v)", action, MigrateActions)
}

func versionArg(action string, args []string) (int, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("migrate %s takes exactly one version number", action)
	}
	v, err := strconv.Atoi(args[0])
	if err != nil || v < 0 {
		return 0, fmt.Errorf("invalid version number: %s", args[0])
	}
	return v, nil
}

func printVersion(out io.Writer, database *DB, migrations fs.FS) error {
	version, dirty, err := database.MigrateVersion(migrations)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Current version: %d (dirty: %v)\n", version, dirty)
	return nil
}

func printStatus(out io.Writer, database *DB, migrations fs.FS) error {
	version, dirty, err := database.MigrateVersion(migrations)
	if err != nil {
		return fmt.Errorf("failed to get migration status: %w", err)
	}
	latest, err := LatestVersion(migrations)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "=== Migration Status ===")
	fmt.Fprintf(out, "Database: %s\n", database.Path())
	fmt.Fprintf(out, "Current version: %d\n", version)
	fmt.Fprintf(out, "Latest available: %d\n", latest)
	fmt.Fprintf(out, "Dirty: %v\n", dirty)
	switch {
	case dirty:
		fmt.Fprintln(out, "⚠️  A migration failed part-way. Inspect the database, then run: sympol2d migrate force <version>")
	case version < latest:
		fmt.Fprintf(out, "⚠️  Database is %d version(s) behind. Run 'sympol2d migrate up'.\n", latest-version)
	default:
		fmt.Fprintln(out, "✓ Database is up to date")
	}
	return nil
}
