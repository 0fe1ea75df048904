package router

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/gobwas/ws"
	"github.com/lintang-b-s/roadmatch/pkg/concurrent"
	"github.com/lintang-b-s/roadmatch/pkg/http/router/controllers"
	http_server "github.com/lintang-b-s/roadmatch/pkg/http/server"
	"github.com/mailru/easygo/netpoll"
	"go.uber.org/zap"
)

const (
	wsPoolSize       = 64
	wsPoolQueue      = 32
	wsAcceptTimeout  = time.Second
	wsAcceptCoolDown = 5 * time.Millisecond
)

/*
handleWebsocket. websocket route matching on epoll (netpoll) with one goroutine pool for all connections.
ref: https://sergey.kamardin.org/articles/million-websocket-and-go/

the listener and each connection are registered on the epoll interest list. a goroutine is borrowed from
the pool only when a frame is ready to read, so idle connections hold no goroutine of their own.
*/
func (api *API) handleWebsocket(ctx context.Context, config http_server.Config,
	mapMatcherService controllers.MapMatcherService, errChan chan<- error,
) {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", config.WebsocketPort))
	if err != nil {
		errChan <- err
		return
	}
	api.log.Info(fmt.Sprintf("route matching websocket API run on port %d", config.WebsocketPort))

	acceptDesc, err := netpoll.HandleListener(ln, netpoll.EventRead|netpoll.EventOneShot)
	if err != nil {
		ln.Close()
		errChan <- err
		return
	}

	api.poller, err = netpoll.New(nil)
	if err != nil {
		ln.Close()
		errChan <- err
		return
	}

	api.pool = concurrent.NewGoroutinePool(wsPoolSize, wsPoolQueue)
	api.hub = controllers.NewHub(api.pool, mapMatcherService)
	api.pool.Spawn(wsPoolQueue)

	// Accept() results from the goroutine pool
	accept := make(chan error, 1)

	err = api.poller.Start(acceptDesc, func(netpoll.Event) {
		defer api.poller.Resume(acceptDesc)
		err := api.pool.ScheduleTimeout(wsAcceptTimeout, func() {
			conn, err := ln.Accept()
			if err != nil {
				accept <- err
				return
			}

			accept <- nil
			api.handle(conn)
		})
		if err == nil {
			err = <-accept
		}
		if err == nil {
			return
		}

		// pool full or accept timed out, back off
		var ne net.Error
		if errors.Is(err, concurrent.ErrScheduleTimeout) || (errors.As(err, &ne) && ne.Timeout()) {
			api.log.Info("accept error, retrying", zap.Error(err), zap.Duration("delay", wsAcceptCoolDown))
			time.Sleep(wsAcceptCoolDown)
			return
		}
		if !errors.Is(err, net.ErrClosed) {
			api.log.Error("accept error", zap.Error(err))
		}
	})
	if err != nil {
		ln.Close()
		errChan <- err
		return
	}

	<-ctx.Done()

	api.poller.Stop(acceptDesc)
	ln.Close()
	api.hub.RemoveAllUser()
	api.pool.Close()

	api.log.Info("websocket server stopped")
}

// handle. upgrades the connection and registers it on epoll. incoming frames run on the goroutine pool.
func (api *API) handle(conn net.Conn) {
	br := bufio.NewReader(conn)

	rw := struct {
		io.Reader
		io.Writer
	}{br, conn}

	hs, err := ws.Upgrade(rw)
	if err != nil {
		api.log.Info("upgrade error", zap.Error(err), zap.String("connection", nameConn(conn)))
		conn.Close()
		return
	}

	api.log.Info("established websocket connection", zap.String("connection", nameConn(conn)),
		zap.String("protocol", hs.Protocol))

	user := api.hub.Register(conn)

	desc, err := netpoll.HandleRead(conn)
	if err != nil {
		api.log.Error("netpoll handle read", zap.Error(err))
		api.hub.Remove(user)
		conn.Close()
		return
	}

	err = api.poller.Start(desc, func(ev netpoll.Event) {
		if ev&(netpoll.EventReadHup|netpoll.EventHup) != 0 {
			// peer closed
			api.log.Info("user disconnected from websocket server", zap.String("connection", nameConn(conn)))
			api.poller.Stop(desc)
			api.hub.Remove(user)
			conn.Close()
			return
		}

		api.pool.Schedule(func() {
			if err := user.RouteMatching(); err != nil {
				api.log.Info("websocket route matching stopped", zap.Error(err))
				api.poller.Stop(desc)
				api.hub.Remove(user)
			}
		})
	})
	if err != nil {
		api.log.Error("netpoll start", zap.Error(err))
		api.hub.Remove(user)
		conn.Close()
	}
}

func nameConn(conn net.Conn) string {
	return conn.LocalAddr().String() + " > " + conn.RemoteAddr().String()
}
