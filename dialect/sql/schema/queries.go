package schema

import "github.com/syssam/sqlfluent/dialect/sql"

var mysqlQueries = queries{
	tables: func() *sql.Selector {
		return sql.Select("table_name").
			From("information_schema.tables").
			Where("table_schema").Equals("DATABASE()", sql.AsExpr()).
			And("table_type").Equals("BASE TABLE").
			OrderBy("table_name", sql.Asc)
	},
	columns: func(table string) *sql.Selector {
		return sql.Select(
			"column_name",
			"column_type",
			"is_nullable = 'YES'",
			"column_default",
			"character_maximum_length",
			"column_key = 'PRI'",
		).
			From("information_schema.columns").
			Where("table_schema").Equals("DATABASE()", sql.AsExpr()).
			And("table_name").Equals(table).
			OrderBy("ordinal_position", sql.Asc)
	},
	indexes: func(table string) *sql.Selector {
		return sql.Select("index_name", "non_unique = 0", "column_name").
			From("information_schema.statistics").
			Where("table_schema").Equals("DATABASE()", sql.AsExpr()).
			And("table_name").Equals(table).
			And("index_name").NotEquals("PRIMARY").
			OrderBy("index_name", sql.Asc).
			OrderBy("seq_in_index", sql.Asc)
	},
	foreignKeys: func(table string) *sql.Selector {
		return sql.Select(
			"kcu.constraint_name",
			"kcu.column_name",
			"kcu.referenced_table_name",
			"kcu.referenced_column_name",
			"rc.update_rule",
			"rc.delete_rule",
		).
			FromSource(sql.Table("information_schema.key_column_usage").As("kcu")).
			InnerJoin(
				sql.Table("information_schema.referential_constraints").As("rc"),
				"rc.constraint_schema = kcu.table_schema AND rc.constraint_name = kcu.constraint_name",
			).
			Where("kcu.table_schema").Equals("DATABASE()", sql.AsExpr()).
			And("kcu.table_name").Equals(table).
			And("kcu.referenced_table_name").IsNotNull().
			OrderBy("kcu.constraint_name", sql.Asc).
			OrderBy("kcu.ordinal_position", sql.Asc)
	},
}

var postgresQueries = queries{
	tables: func() *sql.Selector {
		return sql.Select("table_name").
			From("information_schema.tables").
			Where("table_schema").Equals("CURRENT_SCHEMA()", sql.AsExpr()).
			And("table_type").Equals("BASE TABLE").
			OrderBy("table_name", sql.Asc)
	},
	columns: func(table string) *sql.Selector {
		pk := sql.Select("COUNT(*)").
			FromSource(sql.Table("information_schema.key_column_usage").As("k")).
			InnerJoin(
				sql.Table("information_schema.table_constraints").As("tc"),
				"tc.constraint_schema = k.constraint_schema AND tc.constraint_name = k.constraint_name",
			).
			Where("tc.constraint_type").Equals("PRIMARY KEY").
			And("k.table_schema").Equals("c.table_schema", sql.AsExpr()).
			And("k.table_name").Equals("c.table_name", sql.AsExpr()).
			And("k.column_name").Equals("c.column_name", sql.AsExpr())
		return sql.Select(
			"c.column_name",
			"c.data_type",
			"c.is_nullable = 'YES'",
			"c.column_default",
			"c.character_maximum_length",
		).
			SelectSubquery(pk, "pk").
			FromSource(sql.Table("information_schema.columns").As("c")).
			Where("c.table_schema").Equals("CURRENT_SCHEMA()", sql.AsExpr()).
			And("c.table_name").Equals(table).
			OrderBy("c.ordinal_position", sql.Asc)
	},
	indexes: func(table string) *sql.Selector {
		return sql.Select("i.relname", "ix.indisunique", "a.attname").
			FromSource(sql.Table("pg_catalog.pg_class").As("t")).
			InnerJoin(sql.Table("pg_catalog.pg_namespace").As("n"), "n.oid = t.relnamespace").
			InnerJoin(sql.Table("pg_catalog.pg_index").As("ix"), "ix.indrelid = t.oid").
			InnerJoin(sql.Table("pg_catalog.pg_class").As("i"), "i.oid = ix.indexrelid").
			InnerJoin(sql.Table("pg_catalog.pg_attribute").As("a"), "a.attrelid = t.oid AND a.attnum = ANY(ix.indkey)").
			Where("n.nspname").Equals("CURRENT_SCHEMA()", sql.AsExpr()).
			And("t.relname").Equals(table).
			And("ix.indisprimary").Equals(false).
			OrderBy("i.relname", sql.Asc).
			OrderBy("array_position(ix.indkey::int2[], a.attnum)", sql.Asc)
	},
	foreignKeys: func(table string) *sql.Selector {
		return sql.Select(
			"kcu.constraint_name",
			"kcu.column_name",
			"rcu.table_name",
			"rcu.column_name",
			"rc.update_rule",
			"rc.delete_rule",
		).
			FromSource(sql.Table("information_schema.key_column_usage").As("kcu")).
			InnerJoin(
				sql.Table("information_schema.referential_constraints").As("rc"),
				"rc.constraint_schema = kcu.constraint_schema AND rc.constraint_name = kcu.constraint_name",
			).
			InnerJoin(
				sql.Table("information_schema.key_column_usage").As("rcu"),
				"rcu.constraint_schema = rc.unique_constraint_schema AND rcu.constraint_name = rc.unique_constraint_name AND rcu.ordinal_position = kcu.position_in_unique_constraint",
			).
			Where("kcu.table_schema").Equals("CURRENT_SCHEMA()", sql.AsExpr()).
			And("kcu.table_name").Equals(table).
			OrderBy("kcu.constraint_name", sql.Asc).
			OrderBy("kcu.ordinal_position", sql.Asc)
	},
}

// SQLite pragma functions take their argument through the hidden "arg"
// column, so table names are bound instead of inlined.
var sqliteQueries = queries{
	tables: func() *sql.Selector {
		return sql.Select("name").
			From("sqlite_master").
			Where("type").Equals("table").
			And("name").NotLike("sqlite_%").
			OrderBy("name", sql.Asc)
	},
	columns: func(table string) *sql.Selector {
		return sql.Select("name", "type", `"notnull" = 0`, "dflt_value", "NULL", "pk").
			From("pragma_table_info").
			Where("arg").Equals(table).
			OrderBy("cid", sql.Asc)
	},
	indexes: func(table string) *sql.Selector {
		return sql.Select("il.name", `il."unique"`, "ii.name").
			FromSource(sql.Table("pragma_index_list").As("il")).
			CrossJoin(sql.Table("pragma_index_info(il.name)").As("ii")).
			Where("il.arg").Equals(table).
			And("il.origin").NotEquals("pk").
			OrderBy("il.name", sql.Asc).
			OrderBy("ii.seqno", sql.Asc)
	},
	foreignKeys: func(table string) *sql.Selector {
		return sql.Select("id", `"from"`, `"table"`, `"to"`, "on_update", "on_delete").
			From("pragma_foreign_key_list").
			Where("arg").Equals(table).
			OrderBy("id", sql.Asc).
			OrderBy("seq", sql.Asc)
	},
}
