package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"credledger/internal/db"
	"credledger/internal/handlers"
	"credledger/internal/ipfs"
	"credledger/internal/issuer"
	"credledger/internal/ledger"
	"credledger/internal/notify"
	"credledger/internal/revocation"
	"credledger/internal/router"
	"credledger/internal/store"
	"credledger/internal/verifier"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using process environment")
	}

	db.Init()
	stores := store.NewGormStores(db.DB)

	rpcURL := os.Getenv("ETH_RPC_URL")
	contractAddr := os.Getenv("REGISTRY_CONTRACT_ADDRESS")
	issuerKey := os.Getenv("ISSUER_PRIVATE_KEY")
	if rpcURL == "" || contractAddr == "" || issuerKey == "" {
		log.Fatal("ETH_RPC_URL, REGISTRY_CONTRACT_ADDRESS and ISSUER_PRIVATE_KEY are required")
	}
	ledgerClient, err := ledger.DialEth(rpcURL, contractAddr, issuerKey)
	if err != nil {
		log.Fatal("ledger client init failed: ", err)
	}

	var cache *redis.Client
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		opts, err := redis.ParseURL(redisURL)
		if err != nil {
			log.Fatal("invalid REDIS_URL: ", err)
		}
		cache = redis.NewClient(opts)
	} else {
		log.Println("REDIS_URL not set, ledger read caching disabled")
	}

	revocations := revocation.NewManager(stores.Revocations, stores.Credentials)

	iss := issuer.New(ledgerClient, stores.Credentials, stores.Students, stores.Transactions).
		WithIssuerAddress(os.Getenv("ISSUER_ADDRESS"))
	if pinner, err := ipfs.NewPinata(); err == nil {
		iss = iss.WithPinner(pinner)
	} else {
		log.Println("attachment pinning disabled:", err)
	}
	if webhook := os.Getenv("NOTIFY_WEBHOOK_URL"); webhook != "" {
		iss = iss.WithNotifier(notify.NewWebhook(webhook))
	}

	handlers.Init(handlers.Deps{
		Issuer:        iss,
		Verifier:      verifier.New(ledgerClient, stores.Credentials, revocations, cache),
		Revocations:   revocations,
		Credentials:   stores.Credentials,
		Students:      stores.Students,
		Transactions:  stores.Transactions,
		IssuerAddress: os.Getenv("ISSUER_ADDRESS"),
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router.RegisterRouter(),
	}

	log.Println("credledger listening on :" + port)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server error: ", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("graceful shutdown failed: ", err)
	}
}
