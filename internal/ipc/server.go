package ipc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"sort"
	"sync"

	"framebridge/internal/daemon"
	"framebridge/internal/logging"
)

// Server exposes daemon control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	daemon    *daemon.Daemon
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures the IPC server at the given socket path.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, logger *slog.Logger) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires daemon")
	}
	logger = logging.NewComponentLogger(logger, "ipc")

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	rpcServer := rpc.NewServer()
	srv := &service{daemon: d, logger: logger, ctx: ctx}
	if err := rpcServer.RegisterName("Bridge", srv); err != nil {
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		path:      path,
		daemon:    d,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
	}, nil
}

// Serve starts accepting RPC connections until the context is canceled.
func (s *Server) Serve() {
	s.logger.Debug("IPC server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				if errors.Is(err, net.ErrClosed) {
					return
				}
				logging.WarnWithContext(s.logger, "accept failed", "ipc_accept_failed",
					logging.Error(err),
					logging.String(logging.FieldImpact, "IPC clients may fail to connect"),
					logging.String(logging.FieldErrorHint, "Check socket permissions and restart the daemon if needed"))
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

// Close stops the server and removes the socket file.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		logging.WarnWithContext(s.logger, "failed to remove socket", "ipc_socket_cleanup_failed",
			logging.String("socket", s.path),
			logging.Error(err),
			logging.String(logging.FieldImpact, "stale IPC socket may block future starts"),
			logging.String(logging.FieldErrorHint, "Remove the socket file manually or rerun framebridge stop"))
	}
}

type service struct {
	daemon *daemon.Daemon
	logger *slog.Logger
	ctx    context.Context
}

func (s *service) Stop(_ StopRequest, resp *StopResponse) error {
	s.logger.Info("daemon stop requested via ipc")
	s.daemon.RequestShutdown()
	resp.Stopped = true
	return nil
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status := s.daemon.Status(s.ctx)
	*resp = StatusResponse{
		Running:         status.Running,
		PID:             status.PID,
		LockPath:        status.LockFilePath,
		SocketPath:      status.SocketPath,
		HTTPAddress:     status.HTTPAddress,
		Tasks:           status.Bridge.Tasks,
		PendingRequests: status.Bridge.PendingRequests,
		QueuedState:     status.Bridge.QueuedState,
		QueuedMethod:    status.Bridge.QueuedMethod,
		QueuedEmits:     status.Bridge.QueuedEmits,
		Connections:     status.Bridge.Connections,
		Protocols:       status.Bridge.Protocols,
	}
	return nil
}

func (s *service) Tasks(_ TasksRequest, resp *TasksResponse) error {
	infos := s.daemon.Bridge().Supervisor().Snapshot()
	resp.Tasks = make([]TaskInfo, 0, len(infos))
	for _, info := range infos {
		resp.Tasks = append(resp.Tasks, TaskInfo{
			Name:    info.Name,
			State:   info.State,
			Exempt:  info.Exempt,
			Started: info.Started,
		})
	}
	return nil
}

func (s *service) Commands(_ CommandsRequest, resp *CommandsResponse) error {
	table := s.daemon.Bridge().Commands().AvailableCommands()
	resp.Commands = make([]CommandInfo, 0, len(table))
	for name, params := range table {
		resp.Commands = append(resp.Commands, CommandInfo{Name: name, Params: params})
	}
	sort.Slice(resp.Commands, func(i, j int) bool {
		return resp.Commands[i].Name < resp.Commands[j].Name
	})
	return nil
}
