package infra

const (
	BackendCassandra = "cassandra"
	BackendPostgres  = "postgres"
	BackendSQLite    = "sqlite"
	BackendMemory    = "memory"

	// ViewsFromStore keeps view counters in the selected store backend.
	ViewsFromStore = "store"
	ViewsFromRedis = "redis"
)
