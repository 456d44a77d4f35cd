package config

// DynamoDBConfig holds configuration for the DynamoDB ledger table
type DynamoDBConfig struct {
	Region string `mapstructure:"region"`
	// TableName is the single table shared by event, payment and order records
	TableName string `mapstructure:"table_name"`
}
