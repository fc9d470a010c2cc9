// Command echo is the ping/pong demo app, grounded on
// original_source/samples/echo: a process that can run as a server, a
// client, or both, exchanging line-framed request/reply messages over the
// runtime built in this module.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sabouaram/tcpcomm/client"
	"github.com/sabouaram/tcpcomm/codec"
	"github.com/sabouaram/tcpcomm/commpool"
	"github.com/sabouaram/tcpcomm/config"
	"github.com/sabouaram/tcpcomm/dispatcher"
	"github.com/sabouaram/tcpcomm/logx"
	"github.com/sabouaram/tcpcomm/protocol"
	"github.com/sabouaram/tcpcomm/server"
	"github.com/sabouaram/tcpcomm/session"
	"github.com/sabouaram/tcpcomm/transport"
	"github.com/sabouaram/tcpcomm/version"
)

var buildInfo = version.NewVersion(
	version.License_MIT,
	"echo",
	"ping/pong demo over the tcpcomm runtime",
	"", "", "dev", "", "",
)

func main() {
	vip := viper.New()
	vip.SetEnvPrefix("ECHO")
	vip.AutomaticEnv()

	root := &cobra.Command{
		Use:     "echo",
		Short:   "Ping/pong demo over the tcpcomm runtime",
		Version: buildInfo.GetHeader(),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(vip)
		},
	}
	root.SetVersionTemplate(buildInfo.GetInfo() + "\n")

	root.Flags().String("listen", "", "address to accept connections on, e.g. :55555")
	root.Flags().String("connect", "", "address to dial, e.g. localhost:55555")
	root.Flags().String("message", "hello", "payload the client sends")
	root.Flags().Bool("repeat", false, "client keeps resending, once every 30 processing ticks")
	root.Flags().Int("workers", 4, "dispatcher worker count")
	root.Flags().String("message-info", "", "optional YAML file overriding the built-in message-info table")

	if err := vip.BindPFlags(root.Flags()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(vip *viper.Viper) error {
	listenAddr := vip.GetString("listen")
	connectTo := vip.GetString("connect")
	payload := vip.GetString("message")
	repeat := vip.GetBool("repeat")
	workers := vip.GetInt("workers")

	if listenAddr == "" && connectTo == "" {
		return fmt.Errorf("echo: at least one of --listen or --connect is required")
	}

	log := logx.Default()

	b := config.New().
		TimeoutsEnabled(true).
		UseUniqueMessageID(true).
		DispatcherIdleTimeout(500 * time.Millisecond).
		MessageInfo("1", true, time.Second, []string{"2"}, protocol.UndefinedPriority).
		MessageInfo("2", false, 0, nil, protocol.UndefinedPriority).
		MessageDecoder(codec.LineCodec{}).
		MessageEncoder(codec.LineCodec{}).
		Log(log)

	if mi := vip.GetString("message-info"); mi != "" {
		if err := b.LoadMessageInfoYAML(mi); err != nil {
			return err
		}
	}

	isServer := listenAddr != ""
	b.SessionFactory(func(conn session.Conn) (session.Session, error) {
		return newEchoSession(conn, log, isServer, payload, repeat), nil
	})

	resolved, err := b.Build()
	if err != nil {
		return err
	}

	pool := commpool.New()
	d := dispatcher.New(pool, workers, b.IdleTimeout(), log)
	d.Reset()

	var ids protocol.ConnIDGenerator

	for i := 0; i < workers; i++ {
		go d.Run()
	}

	if isServer {
		srv := &server.Server{
			Pool:     pool,
			IDs:      &ids,
			Settings: resolved.Settings,
			Kick:     d.Kicker(),
			Factory:  resolved.SessionFactory,
			TLS:      resolved.TLS,
			Log:      log,
		}
		if err := srv.Listen(transport.Endpoint{Network: transport.TCP, Address: listenAddr}); err != nil {
			return err
		}
		go func() {
			if err := srv.Serve(); err != nil {
				log().WithError(err).Error("echo> accept loop exited")
			}
		}()
		defer srv.Close()
	}

	if connectTo != "" {
		cl := &client.Client{
			Pool:     pool,
			IDs:      &ids,
			Settings: resolved.Settings,
			Kick:     d.Kicker(),
			Factory:  resolved.SessionFactory,
			TLS:      resolved.TLS,
			Log:      log,
		}
		cl.OnError(func(p *session.ConnectErrorParams) {
			log().WithError(p.Err).Error(fmt.Sprintf("echo> connect to %s failed", p.Endpoint))
		})
		cl.Connect(transport.Endpoint{Network: transport.TCP, Address: connectTo}, nil)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	d.Stop(5 * time.Second)
	return nil
}
