package schema

import (
	"fmt"
	"sort"
	"strings"
)

// ValidationError is a problem found in a schema or between two schema
// snapshots.
type ValidationError struct {
	Table   string
	Column  string
	Message string
	// Breaking reports whether applying the change may lose data or break
	// existing queries.
	Breaking bool
}

func (e *ValidationError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("%s.%s: %s", e.Table, e.Column, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Table, e.Message)
}

// ValidationResult holds the errors and warnings of a validation.
type ValidationResult struct {
	Errors   []*ValidationError
	Warnings []*ValidationError
}

// HasErrors returns true if there are any validation errors.
func (r *ValidationResult) HasErrors() bool { return len(r.Errors) > 0 }

// HasWarnings returns true if there are any validation warnings.
func (r *ValidationResult) HasWarnings() bool { return len(r.Warnings) > 0 }

// HasBreakingChanges returns true if any error or warning is breaking.
func (r *ValidationResult) HasBreakingChanges() bool {
	for _, list := range [][]*ValidationError{r.Errors, r.Warnings} {
		for _, e := range list {
			if e.Breaking {
				return true
			}
		}
	}
	return false
}

// String returns a human-readable summary of the validation result.
func (r *ValidationResult) String() string {
	if !r.HasErrors() && !r.HasWarnings() {
		return "No issues found"
	}
	var sb strings.Builder
	write := func(title string, list []*ValidationError) {
		if len(list) == 0 {
			return
		}
		sb.WriteString(title)
		sb.WriteString(":\n")
		for _, e := range list {
			sb.WriteString("  - ")
			sb.WriteString(e.Error())
			if e.Breaking {
				sb.WriteString(" [BREAKING]")
			}
			sb.WriteByte('\n')
		}
	}
	write("Errors", r.Errors)
	write("Warnings", r.Warnings)
	return sb.String()
}

func (r *ValidationResult) warn(e *ValidationError) { r.Warnings = append(r.Warnings, e) }

// report records e as a warning if it is allowed, and as an error otherwise.
func (r *ValidationResult) report(e *ValidationError, allowed bool) {
	if allowed {
		r.Warnings = append(r.Warnings, e)
	} else {
		r.Errors = append(r.Errors, e)
	}
}

// ValidateOption configures schema validation.
type ValidateOption func(*validateConfig)

type validateConfig struct {
	allowDropColumn     bool
	allowDropTable      bool
	allowDropIndex      bool
	allowDropForeignKey bool
	allowNullToNotNull  bool
}

// AllowDropColumn reports dropped columns as warnings.
func AllowDropColumn() ValidateOption {
	return func(c *validateConfig) {
		c.allowDropColumn = true
	}
}

// AllowDropTable reports dropped tables as warnings.
func AllowDropTable() ValidateOption {
	return func(c *validateConfig) {
		c.allowDropTable = true
	}
}

// AllowDropIndex reports dropped indexes as warnings.
func AllowDropIndex() ValidateOption {
	return func(c *validateConfig) {
		c.allowDropIndex = true
	}
}

// AllowDropForeignKey reports dropped foreign keys as warnings.
func AllowDropForeignKey() ValidateOption {
	return func(c *validateConfig) {
		c.allowDropForeignKey = true
	}
}

// AllowNullToNotNull reports nullable columns becoming NOT NULL as warnings.
func AllowNullToNotNull() ValidateOption {
	return func(c *validateConfig) {
		c.allowNullToNotNull = true
	}
}

// ValidateDiff compares the schema read from a database with the desired
// one. Changes that lose data are errors unless allowed by an option, and
// changes that may fail on existing data are warnings. Results are sorted
// by table name.
//
//	current, err := insp.Table(ctx, "users")
//	result := schema.ValidateDiff([]*schema.Table{current}, desired)
//	if result.HasBreakingChanges() {
//	    return fmt.Errorf("unsafe schema change:\n%s", result)
//	}
func ValidateDiff(current, desired []*Table, opts ...ValidateOption) *ValidationResult {
	cfg := &validateConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	result := &ValidationResult{}
	wanted := make(map[string]*Table, len(desired))
	for _, t := range desired {
		wanted[t.Name] = t
	}
	for _, cur := range sorted(current) {
		next, ok := wanted[cur.Name]
		if !ok {
			result.report(&ValidationError{Table: cur.Name, Message: "table will be dropped", Breaking: true}, cfg.allowDropTable)
			continue
		}
		diffTable(cur, next, cfg, result)
	}
	return result
}

func sorted(tables []*Table) []*Table {
	s := append([]*Table(nil), tables...)
	sort.Slice(s, func(i, j int) bool { return s[i].Name < s[j].Name })
	return s
}

func diffTable(cur, next *Table, cfg *validateConfig, result *ValidationResult) {
	for _, c := range cur.Columns {
		if _, ok := next.Column(c.Name); !ok {
			result.report(&ValidationError{Table: cur.Name, Column: c.Name, Message: "column will be dropped", Breaking: true}, cfg.allowDropColumn)
		}
	}
	for _, nc := range next.Columns {
		cc, ok := cur.Column(nc.Name)
		if !ok {
			if !nc.Nullable && nc.Default == nil {
				result.warn(&ValidationError{
					Table:   cur.Name,
					Column:  nc.Name,
					Message: "new NOT NULL column without default value may fail if table has data",
				})
			}
			continue
		}
		diffColumn(cur.Name, cc, nc, cfg, result)
	}
	for _, idx := range cur.Indexes {
		if _, ok := next.Index(idx.Name); !ok {
			result.report(&ValidationError{Table: cur.Name, Message: fmt.Sprintf("index %q will be dropped", idx.Name)}, cfg.allowDropIndex)
		}
	}
	for _, idx := range next.Indexes {
		if prev, ok := cur.Index(idx.Name); idx.Unique && (!ok || !prev.Unique) {
			result.warn(&ValidationError{
				Table:   cur.Name,
				Message: fmt.Sprintf("unique index %q may fail if duplicate values exist", idx.Name),
			})
		}
	}
	for _, fk := range cur.ForeignKeys {
		if !hasForeignKey(next, fk) {
			result.report(&ValidationError{
				Table:   cur.Name,
				Message: fmt.Sprintf("foreign key %s will be dropped", describe(fk)),
			}, cfg.allowDropForeignKey)
		}
	}
	for _, fk := range next.ForeignKeys {
		if !hasForeignKey(cur, fk) {
			result.warn(&ValidationError{
				Table:   cur.Name,
				Message: fmt.Sprintf("foreign key %s may fail if orphan rows exist", describe(fk)),
			})
		}
	}
}

func diffColumn(table string, cur, next *Column, cfg *validateConfig, result *ValidationResult) {
	if !strings.EqualFold(cur.Type, next.Type) {
		result.warn(&ValidationError{
			Table:   table,
			Column:  next.Name,
			Message: fmt.Sprintf("column type changing from %s to %s", cur.Type, next.Type),
		})
	}
	if cur.Nullable && !next.Nullable {
		result.report(&ValidationError{
			Table:    table,
			Column:   next.Name,
			Message:  "column changing from NULL to NOT NULL may fail if column has NULL values",
			Breaking: true,
		}, cfg.allowNullToNotNull)
	}
	if cur.Size > 0 && next.Size > 0 && next.Size < cur.Size {
		result.warn(&ValidationError{
			Table:    table,
			Column:   next.Name,
			Message:  fmt.Sprintf("column size reducing from %d to %d may truncate data", cur.Size, next.Size),
			Breaking: true,
		})
	}
	if !cur.Unique && next.Unique {
		result.warn(&ValidationError{
			Table:   table,
			Column:  next.Name,
			Message: "adding UNIQUE constraint may fail if duplicate values exist",
		})
	}
}

// hasForeignKey reports whether t has a foreign key with the same columns
// and reference as fk. Symbols are ignored as SQLite does not report them.
func hasForeignKey(t *Table, fk *ForeignKey) bool {
	for _, other := range t.ForeignKeys {
		if describe(other) == describe(fk) {
			return true
		}
	}
	return false
}

func describe(fk *ForeignKey) string {
	ref := ""
	if fk.RefTable != nil {
		ref = fk.RefTable.Name
	}
	return fmt.Sprintf("(%s) -> %s(%s)", names(fk.Columns), ref, names(fk.RefColumns))
}

func names(columns []*Column) string {
	s := make([]string, len(columns))
	for i, c := range columns {
		s[i] = c.Name
	}
	return strings.Join(s, ", ")
}

// ValidateTable checks a single table definition for duplicate names and
// references to missing columns.
func ValidateTable(t *Table) *ValidationResult {
	result := &ValidationResult{}
	if len(t.PrimaryKey) == 0 {
		result.warn(&ValidationError{Table: t.Name, Message: "table has no primary key"})
	}
	columns := make(map[string]bool, len(t.Columns))
	for _, c := range t.Columns {
		if columns[c.Name] {
			result.Errors = append(result.Errors, &ValidationError{Table: t.Name, Column: c.Name, Message: "duplicate column name"})
		}
		columns[c.Name] = true
	}
	missing := func(what string, cs []*Column) {
		for _, c := range cs {
			if c != nil && !columns[c.Name] {
				result.Errors = append(result.Errors, &ValidationError{
					Table:   t.Name,
					Message: fmt.Sprintf("%s references non-existent column %q", what, c.Name),
				})
			}
		}
	}
	missing("primary key", t.PrimaryKey)
	indexes := make(map[string]bool, len(t.Indexes))
	for _, idx := range t.Indexes {
		if indexes[idx.Name] {
			result.Errors = append(result.Errors, &ValidationError{Table: t.Name, Message: fmt.Sprintf("duplicate index name: %s", idx.Name)})
		}
		indexes[idx.Name] = true
		missing(fmt.Sprintf("index %q", idx.Name), idx.Columns)
	}
	for _, fk := range t.ForeignKeys {
		missing("foreign key", fk.Columns)
		if len(fk.RefColumns) > 0 && len(fk.RefColumns) != len(fk.Columns) {
			result.Errors = append(result.Errors, &ValidationError{
				Table:   t.Name,
				Message: fmt.Sprintf("foreign key %s has %d columns but references %d", describe(fk), len(fk.Columns), len(fk.RefColumns)),
			})
		}
	}
	return result
}

// ValidateSchema validates all tables and the tables their foreign keys
// reference.
func ValidateSchema(tables []*Table) *ValidationResult {
	result := &ValidationResult{}
	byName := make(map[string]*Table, len(tables))
	for _, t := range tables {
		if _, ok := byName[t.Name]; ok {
			result.Errors = append(result.Errors, &ValidationError{Table: t.Name, Message: "duplicate table name"})
		}
		byName[t.Name] = t
		r := ValidateTable(t)
		result.Errors = append(result.Errors, r.Errors...)
		result.Warnings = append(result.Warnings, r.Warnings...)
	}
	for _, t := range tables {
		for _, fk := range t.ForeignKeys {
			if fk.RefTable == nil {
				continue
			}
			ref, ok := byName[fk.RefTable.Name]
			if !ok {
				result.Errors = append(result.Errors, &ValidationError{
					Table:   t.Name,
					Message: fmt.Sprintf("foreign key references non-existent table %q", fk.RefTable.Name),
				})
				continue
			}
			for _, c := range fk.RefColumns {
				if _, ok := ref.Column(c.Name); !ok {
					result.Errors = append(result.Errors, &ValidationError{
						Table:   t.Name,
						Message: fmt.Sprintf("foreign key references non-existent column %s.%s", ref.Name, c.Name),
					})
				}
			}
		}
	}
	return result
}
