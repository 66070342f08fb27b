// Package sse implements the server side of the Server-Sent Events (SSE)
// protocol according to the W3C specification.
// See: https://www.w3.org/TR/2009/WD-eventsource-20091029/
//
// SSE is a one-way communication protocol that allows servers to push real-time
// updates to clients over a single HTTP connection. This package provides the
// server-side implementation, with two layers of abstraction: a low-level
// stateless encoder and an HTTP-aware streaming writer.
//
// # Features
//
//   - Complete SSE wire-format encoding
//   - Asynchronous message writing with HTTP streaming
//   - Support for all SSE fields: id, event, data, and retry
//   - Multiline data processing according to specification
//   - Message validation and sanitization
//   - Graceful shutdown and error handling
//   - Connection keep-alive with heartbeat support
//
// # Architecture
//
// The package is organized into two logical layers:
//
//   - Low-level: Encoder handles the SSE wire format
//   - Mid-level: Writer provides an HTTP-aware streaming abstraction
//
// This layered design allows you to choose the appropriate level of abstraction
// for your use case, from fine-grained control to a convenient high-level API.
//
// # Message Structure
//
// An SSE message consists of four optional fields:
//
//	type Message struct {
//	    ID    string // Unique identifier for reconnection support
//	    Event string // Event type (defaults to "message")
//	    Data  []byte // Event payload (can be multiline)
//	    Retry int    // Reconnection time in milliseconds
//	}
//
// The wire format follows the SSE specification:
//
//	id: message-id
//	event: event-type
//	data: payload line 1
//	data: payload line 2
//	retry: 3000
//	<blank line>
//
// # Server-Side Usage
//
// Use Writer for sending SSE events to HTTP clients. Writer handles HTTP headers,
// asynchronous message queuing, and graceful shutdown:
//
//	func handleSSE(w http.ResponseWriter, r *http.Request) {
//	    writer, err := sse.NewWriter(&sse.WriterConfig{
//	        Context:        r.Context(),
//	        ResponseWriter: w,
//	        HeartBeat:      15 * time.Second,  // Keep connection alive
//	        QueueSize:      64,                // Message buffer size
//	        OnError: func(err error) {
//	            log.Printf("SSE error: %v", err)
//	        },
//	    })
//	    if err != nil {
//	        http.Error(w, err.Error(), http.StatusInternalServerError)
//	        return
//	    }
//	    defer writer.Close()
//
//	    // Send structured JSON data
//	    writer.SendData(map[string]interface{}{
//	        "status": "connected",
//	        "time":   time.Now(),
//	    })
//
//	    // Send custom events
//	    writer.Send(&sse.Message{
//	        ID:    "msg-123",
//	        Event: "user.created",
//	        Data:  []byte(`{"name":"Alice"}`),
//	        Retry: 3000,
//	    })
//
//	    // Send event-only messages
//	    writer.SendEvent("heartbeat")
//
//	    // Stream from a channel
//	    for event := range eventChannel {
//	        if err := writer.SendData(event); err != nil {
//	            log.Printf("Send failed: %v", err)
//	            return
//	        }
//	    }
//	}
//
// Writer features:
//
//   - Asynchronous message processing via internal queue
//   - Automatic HTTP header configuration (Content-Type, Cache-Control, etc.)
//   - Optional heartbeat to detect disconnected clients
//   - Graceful shutdown with message queue draining
//   - Context-aware lifecycle management
//   - Thread-safe: all Send methods can be called concurrently
//
// For low-level encoding without HTTP, use Encoder directly:
//
//	encoder := sse.NewEncoder()
//	encoded, err := encoder.Encode(&sse.Message{
//	    Event: "notification",
//	    Data:  []byte("hello world"),
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	// encoded: "event: notification\ndata: hello world\n\n"
//
// # Protocol Details
//
// SSE messages are transmitted as UTF-8 encoded text. Each message consists of
// one or more fields, terminated by a blank line:
//
//	Field format:
//	  field-name: field-value\n
//
//	Comment format (ignored by clients):
//	  : comment text\n
//
// Field specifications:
//
//   - id: Sets the event ID. Persists across messages until explicitly changed.
//   - event: Sets the event type. Clients can filter events by type. Defaults to "message".
//   - data: Adds a line to the message data. Multiple data fields are joined with newlines.
//   - retry: Sets the reconnection time in milliseconds. Only positive integers are valid.
//
// An empty event name is accepted and leaves clients on the default "message"
// type. A non-empty event name must follow DOM naming rules:
//
//   - Cannot start with digits or special characters (., -, _)
//   - Can only contain letters, digits, dots, hyphens, and underscores
//
// Examples of valid event names:
//
//	"message", "user.created", "notification-received", "event_1"
//
// Examples of invalid event names:
//
//	".invalid", "-invalid", "_invalid", "123invalid"
//
// # Concurrency
//
// Thread-safe components:
//
//   - Writer: All Send methods are safe for concurrent use
//   - Encoder: Stateless, safe for concurrent use from multiple goroutines
//
// Example of concurrent writing:
//
//	go writer.SendData(data1)  // Safe
//	go writer.SendData(data2)  // Safe
//	go writer.SendEvent("ping") // Safe
//
// # Error Handling
//
// The package defines sentinel errors for common validation failures:
//
//	var (
//	    ErrMessageNoContent         error // Message has no id, event or data
//	    ErrMessageInvalidEventName  error // Event name violates naming rules
//	)
//
// Server-side error handling:
//
//   - Writer.Send methods return validation errors immediately
//   - Writer.Error() returns accumulated errors from async operations
//   - Writer.Close() returns final error state
//   - OnError callback receives errors as they occur
//
// # Resource Management
//
//	writer, err := sse.NewWriter(config)
//	if err != nil {
//	    return err
//	}
//	defer writer.Close() // Always close to ensure cleanup
//
//	// Writer automatically closes when context is canceled
//	// Close() waits for pending messages to be written; it has no timeout of its own
//
// # Performance Considerations
//
//   - Configure QueueSize based on expected message rate
//   - Enable HeartBeat to detect dead connections early
//   - Use SendData() for automatic JSON marshaling
//   - Monitor write failures via OnError callback
//   - Consider message batching for high-throughput scenarios
//
// # Standards Compliance
//
// This implementation strictly follows the W3C Server-Sent Events specification:
//
//   - Splits Data into data lines at each LF; CR characters are escaped as \\r, not treated as line breaks
//   - Validates event names according to DOM naming rules
//   - Escapes newlines in ID and Event fields (replaced with \\n and \\r)
//   - Preserves multiline Data fields with proper line joining
//   - Implements comment lines (starting with ':') for keep-alive
//   - Correctly handles empty field values per specification
//
// # Limitations
//
// Known limitations of the current implementation:
//
//   - No built-in message size limits (must be enforced at application level)
//   - No built-in authentication/authorization (use HTTP middleware)
//   - No message compression (SSE streams should not be compressed for real-time delivery)
//   - No client-side reading: this package only produces SSE streams, it does
//     not consume them
//
// # Examples
//
// Basic server:
//
//	http.HandleFunc("/events", func(w http.ResponseWriter, r *http.Request) {
//	    writer, _ := sse.NewWriter(&sse.WriterConfig{
//	        Context:        r.Context(),
//	        ResponseWriter: w,
//	    })
//	    defer writer.Close()
//
//	    ticker := time.NewTicker(time.Second)
//	    defer ticker.Stop()
//
//	    for {
//	        select {
//	        case <-r.Context().Done():
//	            return
//	        case t := <-ticker.C:
//	            writer.SendData(map[string]interface{}{
//	                "time": t.Format(time.RFC3339),
//	            })
//	        }
//	    }
//	})
//
// Fan-out to multiple clients:
//
//	type Hub struct {
//	    clients map[*sse.Writer]bool
//	    mu      sync.Mutex
//	}
//
//	func (h *Hub) Broadcast(msg *sse.Message) {
//	    h.mu.Lock()
//	    defer h.mu.Unlock()
//	    for client := range h.clients {
//	        client.Send(msg)
//	    }
//	}
//
// See package examples for more complete demonstrations.
package sse
