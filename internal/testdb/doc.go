// Package testdb provides utilities for tests that need a real PostgreSQL
// database. Tests using it are skipped when no database URL is configured,
// so the default test run stays hermetic.
//
// Typical use:
//
//	db := testdb.GetTestDBWithT(t)
//	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
//		todos := postgres.NewPostgresTodoStore(tx, nil)
//		...
//	})
package testdb
