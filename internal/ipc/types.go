package ipc

import "time"

// StopRequest asks the daemon process to shut down.
type StopRequest struct{}

// StopResponse indicates stop result.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusResponse represents combined daemon and bridge status information.
type StatusResponse struct {
	Running         bool     `json:"running"`
	PID             int      `json:"pid"`
	LockPath        string   `json:"lock_path"`
	SocketPath      string   `json:"socket_path"`
	HTTPAddress     string   `json:"http_address"`
	Tasks           int      `json:"tasks"`
	PendingRequests int      `json:"pending_requests"`
	QueuedState     int      `json:"queued_state"`
	QueuedMethod    int      `json:"queued_method"`
	QueuedEmits     int      `json:"queued_emits"`
	Connections     int      `json:"connections"`
	Protocols       []string `json:"protocols"`
}

// TasksRequest lists supervised tasks.
type TasksRequest struct{}

// TaskInfo describes one supervised task.
type TaskInfo struct {
	Name    string    `json:"name"`
	State   string    `json:"state"`
	Exempt  bool      `json:"exempt"`
	Started time.Time `json:"started"`
}

// TasksResponse contains supervised tasks in start order.
type TasksResponse struct {
	Tasks []TaskInfo `json:"tasks"`
}

// CommandsRequest lists registered invoker commands.
type CommandsRequest struct{}

// CommandInfo describes one registered command and its parameter schema.
type CommandInfo struct {
	Name   string            `json:"name"`
	Params map[string]string `json:"params"`
}

// CommandsResponse contains registered commands sorted by name.
type CommandsResponse struct {
	Commands []CommandInfo `json:"commands"`
}
