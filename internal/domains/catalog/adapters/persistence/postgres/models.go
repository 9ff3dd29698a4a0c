package postgres

// Models lists the catalog tables for schema migration.
func Models() []any {
	return []any{&productRecord{}, &clientRecord{}}
}
