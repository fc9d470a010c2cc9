// Command httpdemo fronts the runtime with a small gin control plane:
// GET /connections lists live connection ids, POST /broadcast pushes a
// message to every connected client. Grounded on
// original_source/samples/http (a request/reply demo) plus the teacher's
// httpserver package for the "small gin router wrapping a live service"
// shape.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/sabouaram/tcpcomm/codec"
	"github.com/sabouaram/tcpcomm/commpool"
	"github.com/sabouaram/tcpcomm/config"
	"github.com/sabouaram/tcpcomm/dispatcher"
	"github.com/sabouaram/tcpcomm/logx"
	"github.com/sabouaram/tcpcomm/protocol"
	"github.com/sabouaram/tcpcomm/server"
	"github.com/sabouaram/tcpcomm/session"
	"github.com/sabouaram/tcpcomm/transport"
)

type quietSession struct {
	conn session.Conn
	log  logx.Logger
}

func (s *quietSession) Connected(p *session.ConnectedParams)       { s.log.Info("connected") }
func (s *quietSession) Disconnected(p *session.DisconnectedParams) { s.log.Info("disconnected") }
func (s *quietSession) Arrived(p *session.MessageArrivedParams) {
	lm, ok := p.In.(*codec.LineMessage)
	if !ok {
		return
	}
	p.Reply = codec.NewLineMessage("ack", lm.Data)
}
func (s *quietSession) Sent(p *session.MessageSentParams)    {}
func (s *quietSession) TimedOut(p *session.TimeoutParams)    { s.log.Warn("timeout") }
func (s *quietSession) Errored(p *session.ErrorParams)       { s.log.WithError(p.Err).Error("error") }
func (s *quietSession) AfterProcessed(*session.AfterProcessedParams) {}

// requestID stamps every HTTP request with a UUID, echoed back in the
// response header so a caller can correlate retries against server logs.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := uuid.New().String()
		c.Writer.Header().Set("X-Request-Id", id)
		c.Set("request_id", id)
		c.Next()
	}
}

func main() {
	listenAddr := envOr("TCPCOMM_LISTEN", ":55555")
	httpAddr := envOr("TCPCOMM_HTTP_LISTEN", ":8080")

	log := logx.Default()
	pool := commpool.New()
	d := dispatcher.New(pool, 4, 500*time.Millisecond, log)

	b := config.New().
		TimeoutsEnabled(false).
		UseUniqueMessageID(true).
		MessageInfo("ack", false, 0, nil, protocol.UndefinedPriority).
		MessageDecoder(codec.LineCodec{}).
		MessageEncoder(codec.LineCodec{}).
		Log(log)
	b.SessionFactory(func(conn session.Conn) (session.Session, error) {
		return &quietSession{conn: conn, log: log()}, nil
	})

	resolved, err := b.Build()
	if err != nil {
		log().WithError(err).Error("httpdemo> config")
		os.Exit(1)
	}

	d.Reset()
	for i := 0; i < 4; i++ {
		go d.Run()
	}

	var ids protocol.ConnIDGenerator
	srv := &server.Server{
		Pool:     pool,
		IDs:      &ids,
		Settings: resolved.Settings,
		Kick:     d.Kicker(),
		Factory:  resolved.SessionFactory,
		Log:      log,
	}
	if err := srv.Listen(transport.Endpoint{Network: transport.TCP, Address: listenAddr}); err != nil {
		log().WithError(err).Error("httpdemo> listen")
		os.Exit(1)
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestID())

	router.GET("/connections", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"request_id":  c.GetString("request_id"),
			"connections": d.Connections(),
			"metrics":     d.Snapshot(),
		})
	})

	router.POST("/broadcast", func(c *gin.Context) {
		var body struct {
			Message string `json:"message" binding:"required"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		sent := d.SendAll(codec.NewLineMessage("ack", body.Message))
		c.JSON(http.StatusOK, gin.H{"request_id": c.GetString("request_id"), "sent": sent})
	})

	httpSrv := &http.Server{Addr: httpAddr, Handler: router}

	// srv.Serve (the TCP accept loop) and httpSrv.ListenAndServe run under
	// one errgroup so either one's exit, or the interrupt signal below,
	// tears both down together instead of leaking the other goroutine.
	group, gctx := errgroup.WithContext(context.Background())
	group.Go(func() error {
		return srv.Serve()
	})
	group.Go(func() error {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	group.Go(func() error {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-sigCh:
		case <-gctx.Done():
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(shutdownCtx)
		_ = srv.Close()
		d.Stop(5 * time.Second)
		return nil
	})

	if err := group.Wait(); err != nil {
		log().WithError(err).Error("httpdemo> exited with error")
		os.Exit(1)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
