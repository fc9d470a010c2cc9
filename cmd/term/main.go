// Command term is an interactive terminal client built on bubbletea,
// grounded on original_source/samples/term: a single persistent connection
// where the user types a line, it's sent as a request, and incoming
// replies/events are appended to a scrolling log.
package main

import (
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sabouaram/tcpcomm/client"
	"github.com/sabouaram/tcpcomm/codec"
	"github.com/sabouaram/tcpcomm/commpool"
	"github.com/sabouaram/tcpcomm/config"
	"github.com/sabouaram/tcpcomm/dispatcher"
	"github.com/sabouaram/tcpcomm/logx"
	"github.com/sabouaram/tcpcomm/protocol"
	"github.com/sabouaram/tcpcomm/session"
	"github.com/sabouaram/tcpcomm/transport"
)

// event is how the termSession hands runtime callbacks to the bubbletea
// program: callbacks run on a dispatcher worker goroutine and must never
// touch tea.Model state directly, so they go through Program.Send instead.
type event struct{ line string }

type termSession struct {
	conn session.Conn
	prog *tea.Program
}

func (s *termSession) Connected(*session.ConnectedParams) {
	s.prog.Send(event{line: fmt.Sprintf("[%d] connected", s.conn.ID())})
}
func (s *termSession) Disconnected(p *session.DisconnectedParams) {
	s.prog.Send(event{line: "disconnected"})
}
func (s *termSession) Arrived(p *session.MessageArrivedParams) {
	lm, ok := p.In.(*codec.LineMessage)
	if !ok {
		return
	}
	s.prog.Send(event{line: fmt.Sprintf("< %s", lm.Data)})
}
func (s *termSession) Sent(*session.MessageSentParams)       {}
func (s *termSession) TimedOut(p *session.TimeoutParams)     { s.prog.Send(event{line: "timeout"}) }
func (s *termSession) Errored(p *session.ErrorParams)        { s.prog.Send(event{line: "error: " + p.Err.Error()}) }
func (s *termSession) AfterProcessed(*session.AfterProcessedParams) {}

type model struct {
	input   string
	history []string
	conn    session.Conn
}

func (m *model) Init() tea.Cmd { return nil }

// Update uses a pointer receiver and returns m itself rather than a copy,
// so the *model held by tea.Program stays the same instance the
// connection-setup closure mutated — a value receiver here would make the
// program's internal model diverge from that pointer after the first
// Update call.
func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case event:
		m.history = append(m.history, msg.line)
		return m, nil
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			if m.input != "" && m.conn != nil {
				line := m.input
				m.history = append(m.history, "> "+line)
				m.input = ""
				_, _ = m.conn.Send(codec.NewLineMessage("1", line))
			}
			return m, nil
		case tea.KeyBackspace:
			if len(m.input) > 0 {
				m.input = m.input[:len(m.input)-1]
			}
			return m, nil
		default:
			m.input += msg.String()
			return m, nil
		}
	}
	return m, nil
}

func (m *model) View() string {
	out := ""
	start := 0
	if len(m.history) > 20 {
		start = len(m.history) - 20
	}
	for _, line := range m.history[start:] {
		out += line + "\n"
	}
	out += "> " + m.input + "█\n(ctrl-c to quit)\n"
	return out
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: term <host:port>")
		os.Exit(1)
	}
	addr := os.Args[1]

	log := logx.Discard()
	pool := commpool.New()
	d := dispatcher.New(pool, 2, 500*time.Millisecond, log)

	b := config.New().
		TimeoutsEnabled(true).
		UseUniqueMessageID(true).
		MessageInfo("1", true, 5*time.Second, []string{"2"}, protocol.UndefinedPriority).
		MessageInfo("2", false, 0, nil, protocol.UndefinedPriority).
		MessageDecoder(codec.LineCodec{}).
		MessageEncoder(codec.LineCodec{}).
		Log(log)

	m := &model{}
	prog := tea.NewProgram(m)

	b.SessionFactory(func(conn session.Conn) (session.Session, error) {
		m.conn = conn
		return &termSession{conn: conn, prog: prog}, nil
	})

	resolved, err := b.Build()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	d.Reset()
	go d.Run()
	go d.Run()

	var ids protocol.ConnIDGenerator
	cl := &client.Client{
		Pool:     pool,
		IDs:      &ids,
		Settings: resolved.Settings,
		Kick:     d.Kicker(),
		Factory:  resolved.SessionFactory,
	}
	cl.Connect(transport.Endpoint{Network: transport.TCP, Address: addr}, func(p *session.ConnectErrorParams) {
		prog.Send(event{line: "connect failed: " + p.Err.Error()})
	})

	if _, err := prog.Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	d.Stop(2 * time.Second)
}
