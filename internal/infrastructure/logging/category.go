package logging

type Category string
type SubCategory string
type ExtraKey string

const (
	General         Category = "General"
	Game            Category = "Game"
	Connection      Category = "Connection"
	RabbitMQ        Category = "RabbitMQ"
	Mongo           Category = "Mongo"
	Validation      Category = "Validation"
	RequestResponse Category = "RequestResponse"
)

const (
	// General
	Startup         SubCategory = "Startup"
	RateLimiting    SubCategory = "RateLimiting"
	ExternalService SubCategory = "ExternalService"

	// Game
	RoomLifecycle SubCategory = "RoomLifecycle"
	RoundFlow     SubCategory = "RoundFlow"
	Reconnect     SubCategory = "Reconnect"
)

const (
	AppName      ExtraKey = "AppName"
	LoggerName   ExtraKey = "Logger"
	RoomCode     ExtraKey = "RoomCode"
	PlayerID     ExtraKey = "PlayerID"
	RoundNumber  ExtraKey = "RoundNumber"
	ClientIp     ExtraKey = "ClientIp"
	Method       ExtraKey = "Method"
	StatusCode   ExtraKey = "StatusCode"
	Path         ExtraKey = "Path"
	Latency      ExtraKey = "Latency"
	ErrorMessage ExtraKey = "ErrorMessage"
)
