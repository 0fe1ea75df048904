package router

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"
	"github.com/justinas/alice"
	"github.com/lintang-b-s/roadmatch/pkg/concurrent"
	"github.com/lintang-b-s/roadmatch/pkg/http/router/controllers"
	router_helper "github.com/lintang-b-s/roadmatch/pkg/http/router/routerhelper"
	http_server "github.com/lintang-b-s/roadmatch/pkg/http/server"
	"github.com/mailru/easygo/netpoll"
	"github.com/rs/cors"
	"go.uber.org/zap"

	httpSwagger "github.com/swaggo/http-swagger"
)

type API struct {
	log    *zap.Logger
	hub    *controllers.Hub
	poller netpoll.Poller
	pool   *concurrent.GoroutinePool
}

func NewAPI(log *zap.Logger) *API {
	return &API{log: log}
}

type RateLimit struct {
	Enabled bool
	RPS     float64
	Burst   int
}

//	@title			roadmatch API
//	@version		1.0
//	@description	road network routing and gps trace route matching server.

//	@license.name	BSD License
//	@license.url	https://opensource.org/license/bsd-2-clause

// @host		localhost
// @BasePath	/api
func (api *API) Handler(rl RateLimit, routingService controllers.RoutingService,
	mapMatcherService controllers.MapMatcherService) http.Handler {
	router := httprouter.New()

	corsHandler := cors.New(cors.Options{ //nolint:gocritic // ignore
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, //nolint:mnd // ignore

	})

	router.GET("/doc/*any", swaggerHandler)

	group := router_helper.NewRouteGroup(router, "/api")

	routes := controllers.New(routingService, mapMatcherService, api.log)
	routes.Routes(group)

	mwChain := []alice.Constructor{corsHandler.Handler, EnforceJSONHandler, api.recoverPanic,
		RealIP, Heartbeat("healthz"), Logger(api.log), Labels}
	if rl.Enabled {
		mwChain = append(mwChain, Limit(rl.RPS, rl.Burst))
	}
	return alice.New(mwChain...).Then(router)
}

// Run. serves the http API, websocket route matching and the /ws proxy until ctx is done or one fails
func (api *API) Run(
	ctx context.Context,
	config http_server.Config,
	rl RateLimit,
	routingService controllers.RoutingService,
	mapMatcherService controllers.MapMatcherService,
) error {
	api.log.Info("Run httprouter API")

	var (
		errChan      = make(chan error, 1)
		errProxyChan = make(chan error, 1)
	)

	wsCtx, cancelWs := context.WithCancel(ctx)
	defer cancelWs()
	go api.handleWebsocket(wsCtx, config, mapMatcherService, errChan)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", api.upstream("route matcher", "tcp", "localhost:"+strconv.Itoa(config.WebsocketPort)))
	proxySrv := &http.Server{
		Addr:    fmt.Sprintf(":%d", config.ProxyPort),
		Handler: mux,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
		ReadHeaderTimeout: config.Timeout,
	}
	go func() {
		api.log.Info(fmt.Sprintf("WebSocket proxy running on port %d", config.ProxyPort))
		if err := proxySrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errProxyChan <- err
		}
	}()

	srv := http_server.New(ctx, api.Handler(rl, routingService, mapMatcherService), config, false)
	api.log.Info(fmt.Sprintf("API run on port %d", config.Port))

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.ListenAndServe()
	}()

	shutdown := func() {
		_ = srv.Shutdown(context.Background())
		_ = proxySrv.Shutdown(context.Background())
	}

	select {
	case err := <-errChan:
		api.log.Error("websocket error, shutting down server", zap.Error(err))
		shutdown()
		return err
	case err := <-errProxyChan:
		api.log.Error("websocket proxy error, shutting down server", zap.Error(err))
		shutdown()
		return err
	case err := <-serverErr:
		api.log.Info("HTTP server stopped", zap.Error(err))
		_ = proxySrv.Shutdown(context.Background())
		return err
	case <-ctx.Done():
		api.log.Info("context canceled, shutting down server")
		shutdown()
		return nil
	}
}

func swaggerHandler(res http.ResponseWriter, req *http.Request, _ httprouter.Params) {
	httpSwagger.WrapHandler(res, req)
}
