package main

import (
	"context"
	"encoding/hex"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path"
	"regexp"
	"strconv"
	"syscall"
	"time"

	"maidops/src/boot"
	"maidops/src/common"
	"maidops/src/config"
	"maidops/src/controllers"
	"maidops/src/earnings"
	"maidops/src/lib"
	awslib "maidops/src/lib/aws"
	"maidops/src/lifecycle"
	"maidops/src/loyalty"
	"maidops/src/middlewares"
	"maidops/src/pricing"
	"maidops/src/repository"
	"maidops/src/types"

	"github.com/covalenthq/lumberjack"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const apiPrefix = "/api/v1"

var transitModeValidatorFunc validator.Func = func(fl validator.FieldLevel) bool {
	return types.TransitMode(fl.Field().String()).IsValid()
}

var bookingTypeValidatorFunc validator.Func = func(fl validator.FieldLevel) bool {
	return types.BookingType(fl.Field().String()).IsValid()
}

var serviceDateValidatorFunc validator.Func = func(fl validator.FieldLevel) bool {
	_, err := time.ParseInLocation(config.DATE_FORMAT, fl.Field().String(), config.Location())
	return err == nil
}

func registerValidators() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("transitmode", transitModeValidatorFunc)
		v.RegisterValidation("bookingtype", bookingTypeValidatorFunc)
		v.RegisterValidation("servicedate", serviceDateValidatorFunc)
	}
}

func setupRouter() *gin.Engine {
	router := gin.Default()
	router.Use(middlewares.SecureHeaders, middlewares.RequestID)
	router.GET("/", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, "ok")
	})
	return router
}

func maintenanceModeMiddleware(g *gin.Engine) *gin.Engine {
	g.Use(middlewares.Maintenance(func() bool {
		on, err := strconv.ParseBool(os.Getenv("MAINTENANCE_MODE"))
		return err == nil && on
	}))
	return g
}

func apiv1Group(g *gin.Engine) *gin.RouterGroup {
	apiv1 := g.Group(apiPrefix)
	return apiv1
}

func apiRoutes(g *gin.Engine, api *controllers.API, secret []byte) *gin.RouterGroup {
	authorized := apiv1Group(g)
	authorized.Use(middlewares.Auth(secret))
	bookingHandlers(authorized, api)
	quoteHandlers(authorized, api)
	earningHandlers(authorized.Group(""), api)
	return authorized
}

func corsMiddleware(apiEnv, appHost string) gin.HandlerFunc {
	if types.Environment(apiEnv) == types.Local {
		return cors.Default()
	}
	cc := cors.DefaultConfig()
	cc.AllowMethods = append(cc.AllowMethods, "GET", "POST", "PATCH", "PUT", "DELETE", "HEAD")
	cc.AllowHeaders = append(cc.AllowHeaders, "Origin", "Authorization", middlewares.RequestIDHeader)
	cc.AllowOriginFunc = func(origin string) bool {
		if appHost == "" {
			return false
		}
		match, _ := regexp.MatchString(appHost, origin)
		if match {
			return true
		}
		match, _ = regexp.MatchString("app:mobile", origin)
		return match
	}
	cc.AllowCredentials = true
	cc.AllowAllOrigins = false
	return cors.New(cc)
}

func initLogger() {
	cwd, _ := os.Getwd()
	logsDir := path.Join(cwd, "logs")
	if err := os.MkdirAll(logsDir, 0o755); err != nil {
		log.Printf("Error creating logs directory: %s\n", err.Error())
	}
	serverLogs := path.Join(logsDir, "server.log")
	apiLogs := path.Join(logsDir, "api.log")
	gin.ForceConsoleColor()

	if f, err := os.Create(apiLogs); err == nil {
		gin.DefaultWriter = io.MultiWriter(f, os.Stdout)
	}
	log.SetOutput(&lumberjack.Logger{
		Filename:   serverLogs,
		MaxSize:    500,
		MaxBackups: 3,
		MaxAge:     30,
		Compress:   true,
	})
}

func main() {
	apiEnv := os.Getenv("API_ENV")
	if types.Environment(apiEnv) == types.Local {
		cwd, _ := os.Getwd()
		if err := godotenv.Load(path.Join(cwd, ".env")); err != nil {
			panic(err)
		}
	}
	initLogger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("error loading configuration: %s", err.Error())
	}
	if cfg.IsProd() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cfg.LoadDatabaseSecret(ctx); err != nil {
		log.Fatalf("error loading database secret: %s", err.Error())
	}
	dbi := boot.InitDb(cfg)
	repo := repository.New(dbi)

	var cache earnings.SummaryCache
	if rd := lib.GetRedisClient(cfg.RedisHost); rd != nil {
		rc := lib.NewRedisCache(rd)
		if err := rc.Ping(ctx); err != nil {
			log.Printf("Redis is unreachable, summaries will not be cached: %s\n", err.Error())
		} else {
			cache = rc
		}
	}

	pricingEngine := pricing.NewEngine(repo)
	ledger := loyalty.NewLedger(repo)
	earningsEngine := earnings.NewEngine(repo, cache, earnings.WithPointsAwarder(ledger))

	opts := []lifecycle.Option{
		lifecycle.WithQuoter(pricingEngine),
		lifecycle.WithCompletionHooks(ledger, earningsEngine),
	}
	if cfg.KafkaBroker != "" {
		go boot.InitBroker(cfg.KafkaBroker, cfg.KafkaStatusTopic)
		publisher, err := lib.NewKafkaPublisher(cfg.KafkaBroker, "maidops-api")
		if err != nil {
			log.Printf("Booking events are disabled: %s\n", err.Error())
		} else {
			defer publisher.Close()
			opts = append(opts, lifecycle.WithPublisher(publisher, cfg.KafkaStatusTopic))
		}
	}
	if cfg.RabbitMQURL != "" {
		rp, err := lib.NewRabbitPublisher(cfg.RabbitMQURL, cfg.RabbitMQExchange)
		if err != nil {
			log.Printf("RabbitMQ events are disabled: %s\n", err.Error())
		} else {
			defer rp.Close()
			opts = append(opts, lifecycle.WithPublisher(rp, ""))
		}
	}
	if cfg.EventsTopicArn != "" {
		if sp := awslib.NewSNSPublisher(ctx, cfg.EventsTopicArn); sp != nil {
			opts = append(opts, lifecycle.WithPublisher(sp, ""))
		}
	}
	machine := lifecycle.NewMachine(repo, opts...)

	var qrcKey []byte
	if cfg.QRCSecret != "" {
		if qrcKey, err = hex.DecodeString(cfg.QRCSecret); err != nil {
			log.Printf("Could not read key from string: %s\n", err.Error())
		}
	}
	api := &controllers.API{
		Machine:  machine,
		Pricing:  pricingEngine,
		Earnings: earningsEngine,
		Loyalty:  ledger,
		QRCKey:   qrcKey,
		TempDir:  cfg.TempDir,
	}

	router := setupRouter()
	router.Use(corsMiddleware(apiEnv, cfg.AllowOrigins))
	registerValidators()
	router = maintenanceModeMiddleware(router)
	apiRoutes(router, api, []byte(cfg.JWTSecret))

	if cfg.PaymentUpdatesQueue != "" {
		common.PaymentUpdatesConsumer(ctx, cfg.PaymentUpdatesQueue, earningsEngine)
	}
	boot.InitScheduler(earningsEngine, cfg.ReconcileInterval, cfg.ReconcileLookback)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}
	go func() {
		log.Printf("Listening on %s\n", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %s\n", err.Error())
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %s\n", err.Error())
	}
	boot.StopScheduler()
}
