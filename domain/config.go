package domain

// ConfigKeyDataMigrated marks that the legacy JSON document was imported.
// Its value is "true" once set.
const ConfigKeyDataMigrated = "data_migrated"
