package config

import "time"

// Application constants
const (
	AppName    = "Avanço Físico"
	AppVersion = "1.0.0"

	// Data source
	DefaultDataFile      = "CONSOLIDADO_Avanco_Fisico_2026.xlsx"
	DefaultSheet         = "CONSOLIDADO"
	DefaultTableRowLimit = 300

	// Rate limiting
	DefaultRateLimitRPS = 100
	DefaultBurstSize    = 50

	// WebSocket
	WebSocketPingPeriod      = 30 * time.Second
	WebSocketPongWait        = 60 * time.Second
	WebSocketReadBufferSize  = 1024
	WebSocketWriteBufferSize = 4096

	// Logging
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)
