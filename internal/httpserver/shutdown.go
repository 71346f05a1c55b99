package httpserver

import "time"

// ShutdownTimeout bounds graceful shutdown. Generous enough for an in-flight
// upload relay to finish writing its response.
const ShutdownTimeout = 15 * time.Second
