package repository

// Default schema names, matching the warehouse layout the ETL populates.
const (
	defaultLogSchema  = "ml_logs"
	defaultMartSchema = "mart"
)

// LogOption applies a configuration option to the PostgresLogStore.
type LogOption func(*PostgresLogStore)

// WithLogSchema overrides the schema holding the audit tables.
func WithLogSchema(schema string) LogOption {
	return func(s *PostgresLogStore) {
		if schema != "" {
			s.schema = schema
		}
	}
}

// FeatureOption applies a configuration option to the PostgresFeatureStore.
type FeatureOption func(*PostgresFeatureStore)

// WithMartSchema overrides the schema holding the feature table.
func WithMartSchema(schema string) FeatureOption {
	return func(s *PostgresFeatureStore) {
		if schema != "" {
			s.schema = schema
		}
	}
}
