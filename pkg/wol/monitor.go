package wol

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"lanwake-go/pkg/log"
)

const (
	// DefaultPollTimeout is the per-socket receive deadline in the monitor
	// loop. It bounds worst-case cancellation latency to roughly
	// timeout * number_of_ports.
	DefaultPollTimeout = 100 * time.Millisecond

	defaultEventBuffer = 16
)

// DefaultMonitorPorts are the ports monitored when none are configured.
func DefaultMonitorPorts() []int { return []int{AltPort, DefaultPort} }

// MonitorConfig configures a monitor session.
type MonitorConfig struct {
	// Ports to bind, serviced in the order given. Defaults to {7, 9}.
	// Port 0 binds an ephemeral port; the session reports the actual one.
	Ports []int
	// TargetMAC, when non-nil, discards structurally valid packets
	// addressed to any other MAC.
	TargetMAC net.HardwareAddr
	// PollTimeout is the per-socket receive deadline.
	PollTimeout time.Duration
	// EventBuffer sizes the event channel.
	EventBuffer int
}

// Event is one observed magic packet.
type Event struct {
	Time       time.Time        `json:"time"`
	Source     *net.UDPAddr     `json:"-"`
	SourceIP   string           `json:"source_ip"`
	SourcePort int              `json:"source_port"`
	Port       int              `json:"receiving_port"`
	MAC        net.HardwareAddr `json:"-"`
	MACText    string           `json:"mac"`
	PacketLen  int              `json:"packet_len"`
}

type boundSocket struct {
	port int
	conn *net.UDPConn
}

// MonitorSession owns one bound socket per monitored port and a single
// poll goroutine that round-robins over them. Sockets are never exposed;
// the session is the only mutator. Lifecycle is Idle -> Running -> Idle,
// with no partial states: if any port fails to bind, nothing runs.
type MonitorSession struct {
	cfg     MonitorConfig
	sockets []boundSocket
	events  chan Event
	done    chan struct{}
	cancel  context.CancelFunc
	stop    sync.Once
	closing sync.Once
}

// StartMonitor binds every configured port and starts the poll loop.
// A bind failure on any port tears down the sockets already bound and
// returns an error naming the port; there is no partial-monitor fallback.
func StartMonitor(ctx context.Context, cfg MonitorConfig) (*MonitorSession, error) {
	if len(cfg.Ports) == 0 {
		cfg.Ports = DefaultMonitorPorts()
	}
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = DefaultPollTimeout
	}
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = defaultEventBuffer
	}

	ctx, cancel := context.WithCancel(ctx)
	lc := net.ListenConfig{Control: controlListener}

	sockets := make([]boundSocket, 0, len(cfg.Ports))
	for _, port := range cfg.Ports {
		pc, err := lc.ListenPacket(ctx, "udp4", fmt.Sprintf(":%d", port))
		if err != nil {
			for _, s := range sockets {
				s.conn.Close()
			}
			cancel()
			return nil, fmt.Errorf("wol monitor: bind port %d: %w", port, err)
		}
		conn := pc.(*net.UDPConn)
		sockets = append(sockets, boundSocket{
			port: conn.LocalAddr().(*net.UDPAddr).Port,
			conn: conn,
		})
	}

	s := &MonitorSession{
		cfg:     cfg,
		sockets: sockets,
		events:  make(chan Event, cfg.EventBuffer),
		done:    make(chan struct{}),
		cancel:  cancel,
	}

	MonitoredPorts.Set(float64(len(sockets)))
	log.Info().
		Ints("ports", s.Ports()).
		Str("target_mac", macText(cfg.TargetMAC)).
		Dur("poll_timeout", cfg.PollTimeout).
		Msg("monitor session started")

	go s.loop(ctx)
	return s, nil
}

// Ports returns the ports actually bound, in service order.
func (s *MonitorSession) Ports() []int {
	ports := make([]int, len(s.sockets))
	for i, sock := range s.sockets {
		ports[i] = sock.port
	}
	return ports
}

// Events is the stream of observed magic packets. It is closed when the
// session stops. Events are dropped, not blocked on, when the consumer
// falls behind.
func (s *MonitorSession) Events() <-chan Event { return s.events }

// Done is closed once the poll loop has exited and every socket is closed.
func (s *MonitorSession) Done() <-chan struct{} { return s.done }

// Stop transitions the session back to Idle: the loop exits within one
// poll round and every socket is closed best-effort, ignoring individual
// close failures. Stop is idempotent and blocks until teardown completes.
func (s *MonitorSession) Stop() {
	s.stop.Do(func() {
		s.cancel()
		s.closeSockets()
	})
	<-s.done
}

// closeSockets releases every bound port exactly once. It runs from Stop
// and from the loop's exit path, so cancelling the parent context frees
// the ports too.
func (s *MonitorSession) closeSockets() {
	s.closing.Do(func() {
		for _, sock := range s.sockets {
			_ = sock.conn.Close()
		}
	})
}

func (s *MonitorSession) loop(ctx context.Context) {
	defer close(s.done)
	defer close(s.events)
	defer MonitoredPorts.Set(0)
	defer s.closeSockets()

	buf := make([]byte, 1024)
	for {
		// Stop signal observed once per full round-robin pass.
		select {
		case <-ctx.Done():
			return
		default:
		}

		for _, sock := range s.sockets {
			_ = sock.conn.SetReadDeadline(time.Now().Add(s.cfg.PollTimeout))
			n, addr, err := sock.conn.ReadFromUDP(buf)
			if err != nil {
				if ne, ok := err.(net.Error); ok && ne.Timeout() {
					continue // normal idle case
				}
				if ctx.Err() != nil {
					return
				}
				// A single bad receive never terminates the session.
				ReceiveErrorsTotal.Inc()
				log.Warn().Int("port", sock.port).Err(err).Msg("monitor receive error")
				continue
			}

			m, ok := Decode(buf[:n], s.cfg.TargetMAC)
			if !ok {
				PacketsDiscardedTotal.Inc()
				continue
			}
			PacketsMatchedTotal.Inc()

			ev := Event{
				Time:       time.Now(),
				Source:     addr,
				SourceIP:   addr.IP.String(),
				SourcePort: addr.Port,
				Port:       sock.port,
				MAC:        m.MAC,
				MACText:    m.MAC.String(),
				PacketLen:  n,
			}
			log.Info().
				Str("mac", ev.MACText).
				Str("from", addr.String()).
				Int("receiving_port", sock.port).
				Int("packet_len", n).
				Msg("magic packet received")

			select {
			case s.events <- ev:
			default:
				log.Warn().Str("mac", ev.MACText).Msg("event buffer full, dropping event")
			}
		}
	}
}

func macText(hw net.HardwareAddr) string {
	if hw == nil {
		return ""
	}
	return hw.String()
}
