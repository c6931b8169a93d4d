package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/nexusshop/backend/internal/chapa"
	"github.com/nexusshop/backend/internal/config"
	"github.com/nexusshop/backend/internal/handlers"
	"github.com/nexusshop/backend/internal/logging"
	loggingmw "github.com/nexusshop/backend/internal/middleware/logging"
	"github.com/nexusshop/backend/internal/mykafka"
	"github.com/nexusshop/backend/internal/repo"
	"github.com/nexusshop/backend/internal/service/checkout"
	"github.com/nexusshop/backend/internal/service/payment"
	"github.com/nexusshop/backend/internal/service/token"
	httpserver "github.com/nexusshop/backend/internal/transport/http"
)

func main() {
	db, err := config.InitDB()
	if err != nil {
		log.Fatalf("database init error: %v", err)
	}

	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	jwtSecret := []byte(configuration.JWT_SECRET)
	refreshSecret := []byte(configuration.REFRESH_SECRET)

	brokers := []string{configuration.KAFKA_ADDRESS}
	topics := []string{"user_events", "cart_events", "product_events", "order_events", "payment_events"}
	prod, err := mykafka.NewProducer(brokers, topics)
	if err != nil {
		log.Fatal(err)
	}

	store := repo.NewGormStore(db)
	chapaClient := chapa.NewClient(configuration.CHAPA_BASE_URL, configuration.CHAPA_SECRET_KEY)
	paymentSvc := &payment.Service{
		Store:       store,
		Chapa:       chapaClient,
		CallbackURL: configuration.BACKEND_CALLBACK_URL,
		ReturnURL:   configuration.FRONTEND_RETURN_URL,
	}

	logger := logging.New(os.Getenv("LOG_LEVEL"))

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())
	e.Use(loggingmw.RequestLogger(logger))

	deps := httpserver.Deps{
		DB:              db,
		AuthHandler:     &handlers.AuthHandler{DB: db, JWTSecret: jwtSecret, RefreshSecret: refreshSecret, Producer: prod},
		ProductHandler:  &handlers.ProductHandler{DB: db, Producer: prod},
		CategoryHandler: &handlers.CategoryHandler{DB: db},
		CartHandler:     &handlers.CartHandler{DB: db, Producer: prod},
		OrderHandler:    &handlers.OrderHandler{DB: db, Checkout: &checkout.Service{Store: store}, Producer: prod},
		PaymentHandler: &handlers.PaymentHandler{
			Svc:           paymentSvc,
			WebhookSecret: []byte(configuration.CHAPA_WEBHOOK_SECRET),
			Producer:      prod,
		},
		TokenService: &token.TokenService{DB: db, JWTSecret: jwtSecret, RefreshSecret: refreshSecret},
	}

	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         ":8080",
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("db close error: %v", err)
		}
	} else {
		log.Printf("db() error: %v", err)
	}

	if err := prod.Close(); err != nil {
		log.Printf("kafka close error: %v", err)
	}

	log.Println("shutdown complete")
}
