package maelstrom

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/amberhq/maelstrom-node/snowflake"
)

// maxLineSize bounds a single input message.
const maxLineSize = 16 << 20

type nodeState int32

const (
	stateStarting nodeState = iota
	stateRunning
	stateShutdown
)

func (s nodeState) String() string {
	switch s {
	case stateStarting:
		return "starting"
	case stateRunning:
		return "running"
	case stateShutdown:
		return "shutdown"
	default:
		return fmt.Sprintf("nodeState<%d>", int32(s))
	}
}

// Node represents a single node in the network.
//
// A Node reads one message per line from Stdin and hands every request to the
// handler registered for its type. Handlers run on a fixed pool of worker
// goroutines, so responses can be written in a different order than their
// requests arrived.
type Node struct {
	mu        sync.Mutex // guards callbacks
	writeMu   sync.Mutex // serializes writes to Stdout
	started   atomic.Bool
	state     atomic.Int32
	workers   int
	registry  *Registry
	cluster   Cluster
	queue     *taskQueue
	done      chan struct{} // closed on shutdown
	callbacks map[snowflake.ID]HandlerFunc

	logger     *slog.Logger
	registerer prometheus.Registerer
	metrics    *Metrics

	// Stdin is for reading messages in from the Maelstrom network.
	Stdin io.Reader

	// Stdout is for writing messages out to the Maelstrom network.
	Stdout io.Writer
}

// Option configures a Node.
type Option func(*Node)

// WithWorkers sets the number of handler goroutines. Values below 1 fall back
// to DefaultWorkers.
func WithWorkers(n int) Option {
	return func(node *Node) { node.workers = n }
}

// WithLogger sets the logger used for diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(node *Node) { node.logger = logger }
}

// WithRegisterer registers the node's metrics with reg instead of a private
// registry.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(node *Node) { node.registerer = reg }
}

// NewNode returns a new instance of Node connected to STDIN/STDOUT. The "init"
// handler is registered automatically.
func NewNode(opts ...Option) *Node {
	n := &Node{
		workers:   DefaultWorkers,
		registry:  NewRegistry(),
		queue:     newTaskQueue(),
		done:      make(chan struct{}),
		callbacks: make(map[snowflake.ID]HandlerFunc),
		logger:    slog.Default(),

		Stdin:  os.Stdin,
		Stdout: os.Stdout,
	}
	for _, opt := range opts {
		opt(n)
	}
	if n.workers < 1 {
		n.workers = DefaultWorkers
	}
	if n.registerer == nil {
		n.registerer = prometheus.NewRegistry()
	}
	n.metrics = newMetrics(n.registerer)

	err := n.registry.Register(MessageInit, n.handleInit)
	invariant(err == nil, "register init handler: %v", err)
	return n
}

// ID returns the identifier for this node.
// Only valid after "init" message has been received.
func (n *Node) ID() string {
	return n.cluster.ID()
}

// NodeIDs returns a list of all node IDs in the cluster. This list include the
// local node ID and is the same order across all nodes. Only valid after "init"
// message has been received.
func (n *Node) NodeIDs() []string {
	return n.cluster.NodeIDs()
}

// Init records the cluster membership and selects the local node id. Only the
// first successful call has any effect.
func (n *Node) Init(nodeIDs []string, selfIndex int) error {
	if err := n.cluster.Init(nodeIDs, selfIndex); err != nil {
		n.logger.Warn("rejected node initialization", "node_ids", nodeIDs, "self_index", selfIndex, "err", err)
		return err
	}
	if n.cluster.HasDuplicates() {
		n.logger.Warn("cluster membership lists a node more than once", "node_ids", nodeIDs)
	}
	n.logger.Info("node initialized", "id", n.cluster.ID(), "node_ids", nodeIDs)
	return nil
}

// Handle registers a message handler for a given message type. Registering a
// second handler for the same type is logged and ignored.
func (n *Node) Handle(typ MessageType, fn HandlerFunc) {
	if err := n.registry.Register(typ, fn); err != nil {
		n.logger.Warn("handler not registered", "type", typ.String(), "err", err)
		return
	}
	n.logger.Debug("handler registered", "type", typ.String())
}

// Run executes the main event handling loop. It reads in messages from STDIN
// and delegates them to the appropriate registered handler. It returns once
// input ends (an empty line or EOF) or Stop is called, after every accepted
// message has been handled. This should be the last function executed by
// main().
func (n *Node) Run() error {
	if !n.started.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	var g errgroup.Group
	for i := 0; i < n.workers; i++ {
		logger := n.logger.With("worker", i)
		g.Go(func() error {
			n.work(logger)
			return nil
		})
	}
	n.metrics.workers.Set(float64(n.workers))

	n.state.CompareAndSwap(int32(stateStarting), int32(stateRunning))
	n.logger.Info("node running",
		"workers", n.workers,
		"handlers", lo.Map(n.registry.Types(), func(t MessageType, _ int) string { return t.String() }),
	)

	err := n.readLoop()
	if err != nil {
		n.shutdown("input error")
	} else {
		n.shutdown("end of input")
	}

	// Wait for all queued and in-flight handlers to complete.
	_ = g.Wait()
	n.metrics.workers.Set(0)
	n.logger.Info("node stopped")
	return err
}

// Stop begins shutdown. Input is no longer read and messages already accepted
// are still handled; Run returns once they are done, even if Stdin is idle.
func (n *Node) Stop() {
	n.shutdown("stop requested")
}

func (n *Node) shutdown(reason string) {
	if prev := nodeState(n.state.Swap(int32(stateShutdown))); prev != stateShutdown {
		n.logger.Info("shutting down", "reason", reason, "previous_state", prev.String())
		close(n.done)
	}
	n.queue.close()
}

// readLoop dispatches input lines until an empty line, the end of input or
// shutdown. Lines are scanned on a separate goroutine so that Stop does not
// wait for Stdin; that goroutine exits at its next line once shutdown began.
func (n *Node) readLoop() error {
	lines := make(chan []byte)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(n.Stdin)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
		for scanner.Scan() {
			select {
			case lines <- bytes.Clone(scanner.Bytes()):
			case <-n.done:
				scanErr <- nil
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	for {
		// Shutdown wins over a line that is ready at the same time.
		select {
		case <-n.done:
			return nil
		default:
		}

		select {
		case <-n.done:
			return nil
		case line, ok := <-lines:
			if !ok {
				if err := <-scanErr; err != nil {
					return fmt.Errorf("read input: %w", err)
				}
				return nil
			}
			if len(bytes.TrimSpace(line)) == 0 {
				n.logger.Debug("received empty line")
				return nil
			}
			n.dispatch(line)
		}
	}
}

// dispatch parses a single input line and routes it to a reply callback, the
// init handler, or the task queue.
func (n *Node) dispatch(line []byte) {
	msg, err := ParseMessage(line)
	if err != nil {
		outcome := "invalid"
		switch {
		case errors.Is(err, ErrMalformedMessage):
			outcome = "malformed"
		case errors.Is(err, ErrUnknownMessageType):
			outcome = "unknown_type"
		}
		n.logger.Warn("dropping message", "reason", outcome, "line", string(line), "err", err)
		n.metrics.observeReceived(outcome, "unknown")
		return
	}
	n.logger.Debug("received", "message", msg)
	origin := lo.Ternary(n.cluster.IsMember(msg.Src), "peer", "external")

	// Replies to our own RPCs go straight to their callback.
	if msg.ReplyID.Valid() {
		if cb, ok := n.takeCallback(msg.ReplyID); ok {
			n.metrics.observeReceived("reply", origin)
			n.execute(n.logger, task{msg: &msg, handler: cb})
			return
		}
	}

	h, ok := n.registry.Lookup(msg.Type)
	if !ok {
		if msg.ReplyID.Valid() {
			n.logger.Info("ignoring reply with no callback", "in_reply_to", msg.ReplyID.String(), "type", msg.Type.String())
		} else {
			n.logger.Warn("dropping message", "reason", "unroutable", "type", msg.Type.String(), "err", ErrNoHandler)
		}
		n.metrics.observeReceived("unroutable", origin)
		return
	}

	// The init message is handled on the input loop so that cluster state is
	// set before any later message is queued.
	if msg.Type == MessageInit {
		n.metrics.observeReceived("accepted", origin)
		n.execute(n.logger, task{msg: &msg, handler: h})
		return
	}

	n.metrics.queueDepth.Inc()
	if !n.queue.push(task{msg: &msg, handler: h}) {
		n.metrics.queueDepth.Dec()
		n.logger.Warn("dropping message", "reason", "rejected", "type", msg.Type.String(), "err", ErrShutdown)
		n.metrics.observeReceived("rejected", origin)
		return
	}
	n.metrics.observeReceived("accepted", origin)
}

// work runs tasks until the queue is closed and drained.
func (n *Node) work(logger *slog.Logger) {
	for {
		t, ok := n.queue.pop()
		if !ok {
			return
		}
		n.metrics.queueDepth.Dec()
		n.execute(logger, t)
	}
}

// execute invokes the task's handler and writes its response, if any. Handler
// errors are sent back as "error" replies.
func (n *Node) execute(logger *slog.Logger, t task) {
	logger.Debug("invoking handler", "type", t.msg.Type.String(), "message", *t.msg)

	start := time.Now()
	resp, err := t.handler(*t.msg)
	n.metrics.observeHandled(t.msg.Type, err, time.Since(start))

	if err != nil {
		resp = t.msg.ErrorResponse(err)
		logger.Warn("handler returned error", "type", t.msg.Type.String(), "err", err,
			"definite", resp.RPCError().Definite())
	}
	if !resp.Valid() {
		return
	}
	if err := n.write(resp); err != nil {
		logger.Error("write response", "type", resp.Type.String(), "err", err)
		return
	}
	logger.Debug("finished handling", "type", t.msg.Type.String())
}

// write serializes msg as a single line on Stdout.
func (n *Node) write(msg Message) error {
	buf, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	// Synchronize access to STDOUT.
	n.writeMu.Lock()
	defer n.writeMu.Unlock()

	n.logger.Debug("sent", "message", string(buf))

	if _, err := n.Stdout.Write(append(buf, '\n')); err != nil {
		return err
	}
	n.metrics.responses.Inc()
	return nil
}

// Send sends msg to a given destination node. Src is set to the local node id,
// so the node must have been initialized.
func (n *Node) Send(dest string, msg Message) error {
	if !n.cluster.Initialized() {
		return ErrNotInitialized
	}
	msg.Src = n.ID()
	msg.Dest = dest
	return n.write(msg)
}

// Broadcast sends msg to all other nodes.
func (n *Node) Broadcast(msg Message) error {
	for _, id := range lo.Without(n.NodeIDs(), n.ID()) {
		if err := n.Send(id, msg); err != nil {
			return err
		}
	}
	return nil
}

// RPC sends an async RPC request with a fresh msg_id. cb is invoked with the
// response message. Callbacks run on the input loop and must not block.
func (n *Node) RPC(dest string, msg Message, cb HandlerFunc) error {
	_, err := n.rpc(dest, msg, cb)
	return err
}

// SyncRPC sends an RPC request and waits for its response or for ctx to be
// done. An "error" response is returned as an *RPCError.
func (n *Node) SyncRPC(ctx context.Context, dest string, msg Message) (Message, error) {
	respCh := make(chan Message, 1)
	id, err := n.rpc(dest, msg, func(m Message) (Message, error) {
		respCh <- m
		return Message{}, nil
	})
	if err != nil {
		return Message{}, err
	}

	select {
	case <-ctx.Done():
		n.takeCallback(id)
		return Message{}, ctx.Err()
	case m := <-respCh:
		if rpcErr := m.RPCError(); rpcErr != nil {
			return m, rpcErr
		}
		return m, nil
	}
}

// BroadcastRPC sends an RPC message to all other nodes.
func (n *Node) BroadcastRPC(msg Message, cb HandlerFunc) error {
	for _, id := range lo.Without(n.NodeIDs(), n.ID()) {
		if err := n.RPC(id, msg, cb); err != nil {
			return err
		}
	}
	return nil
}

func (n *Node) rpc(dest string, msg Message, cb HandlerFunc) (snowflake.ID, error) {
	invariant(cb != nil, "nil rpc callback")

	msg.ID = snowflake.Generate64()

	// Register a handler for our callback.
	n.mu.Lock()
	n.callbacks[msg.ID] = cb
	n.mu.Unlock()

	if err := n.Send(dest, msg); err != nil {
		n.takeCallback(msg.ID)
		return msg.ID, err
	}
	return msg.ID, nil
}

// takeCallback removes and returns the callback waiting on id.
func (n *Node) takeCallback(id snowflake.ID) (HandlerFunc, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	cb, ok := n.callbacks[id]
	delete(n.callbacks, id)
	return cb, ok
}

// handleInit records the cluster membership carried by an "init" message and
// acknowledges it. A node_id missing from node_ids gets no response.
func (n *Node) handleInit(msg Message) (Message, error) {
	nodeID, okID := msg.StringField("node_id")
	nodeIDs, okIDs := msg.StringsField("node_ids")
	if !okID || !okIDs {
		return Message{}, NewRPCError(MalformedRequest, "init requires a string node_id and a string array node_ids")
	}

	selfIndex := lo.IndexOf(nodeIDs, nodeID)
	if selfIndex < 0 {
		n.logger.Warn("init names a node outside its own membership", "node_id", nodeID, "node_ids", nodeIDs)
		return Message{}, nil
	}

	// A repeated init is logged by Init and still acknowledged.
	_ = n.Init(nodeIDs, selfIndex)
	return msg.CreateResponse(), nil
}
