package types

type RunMode string

const (
	// ModeLocal runs the API server, the event consumers and the temporal worker together
	ModeLocal RunMode = "local"
	// ModeAPI is the mode for running just the API server
	ModeAPI RunMode = "api"
	// ModeConsumer is the mode for running just the event consumers
	ModeConsumer RunMode = "consumer"
	// ModeTemporalWorker is the mode for running just the temporal worker
	ModeTemporalWorker RunMode = "temporal_worker"
	// ModeAWSLambdaAPI is the mode for running the API server in AWS Lambda
	ModeAWSLambdaAPI RunMode = "aws_lambda_api"
)

type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// StoreType selects the ledger store backend
type StoreType string

const (
	StoreTypePostgres StoreType = "postgres"
	StoreTypeMemory   StoreType = "memory"
)

// PubSubType defines the type of pubsub implementation
type PubSubType string

const (
	// MemoryPubSub uses in-memory implementation
	MemoryPubSub PubSubType = "memory"

	// KafkaPubSub uses Kafka implementation
	KafkaPubSub PubSubType = "kafka"
)

// GatewayType selects the payment gateway implementation
type GatewayType string

const (
	GatewayTypeSimulated GatewayType = "simulated"
	GatewayTypeStripe    GatewayType = "stripe"
)

// NotifierType selects how customer facing notifications are delivered
type NotifierType string

const (
	NotifierTypeLog   NotifierType = "log"
	NotifierTypeEmail NotifierType = "email"
)

// ActivitySinkType selects where audit entries are appended
type ActivitySinkType string

const (
	ActivitySinkPostgres   ActivitySinkType = "postgres"
	ActivitySinkDynamoDB   ActivitySinkType = "dynamodb"
	ActivitySinkClickHouse ActivitySinkType = "clickhouse"
	ActivitySinkLog        ActivitySinkType = "log"
)
