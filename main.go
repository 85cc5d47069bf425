package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/MarcGrol/cryptocheckout/lib/myhttpclient"
	"github.com/MarcGrol/cryptocheckout/lib/mylog"
	"github.com/MarcGrol/cryptocheckout/lib/mypublisher"
	"github.com/MarcGrol/cryptocheckout/lib/mypubsub"
	"github.com/MarcGrol/cryptocheckout/lib/myqueue"
	"github.com/MarcGrol/cryptocheckout/lib/mystore"
	"github.com/MarcGrol/cryptocheckout/lib/mytime"
	"github.com/MarcGrol/cryptocheckout/lib/myuuid"
	"github.com/MarcGrol/cryptocheckout/services/checkoutcrypto"
	"github.com/MarcGrol/cryptocheckout/services/crossmint"
	"github.com/MarcGrol/cryptocheckout/services/orderlifecycle"
	"github.com/MarcGrol/cryptocheckout/services/solanawallet"
	"github.com/MarcGrol/cryptocheckout/services/warmup"
)

const (
	defaultRPCEndpoint = "https://api.devnet.solana.com"
	providerTimeout    = 10 * time.Second
)

func main() {
	c := context.Background()

	router := mux.NewRouter()
	clock := mytime.NewRealClock()

	pubsub, pubsubCleanup, err := mypubsub.New(c)
	if err != nil {
		log.Fatalf("Error creating pubsub: %s", err)
	}
	defer pubsubCleanup()

	queue, queueCleanup, err := myqueue.New(c)
	if err != nil {
		log.Fatalf("Error creating queue: %s", err)
	}
	defer queueCleanup()

	publisher, publisherCleanup, err := mypublisher.New(c, pubsub, queue, clock)
	if err != nil {
		log.Fatalf("Error creating publisher: %s", err)
	}
	defer publisherCleanup()
	publisher.RegisterEndpoints(c, router)

	sessionStore, sessionStoreCleanup, err := mystore.New[checkoutcrypto.CheckoutSession](c)
	if err != nil {
		log.Fatalf("Error creating session store: %s", err)
	}
	defer sessionStoreCleanup()

	orderStore, orderStoreCleanup, err := mystore.New[checkoutcrypto.OrderRecord](c)
	if err != nil {
		log.Fatalf("Error creating order store: %s", err)
	}
	defer orderStoreCleanup()

	rpcEndpoint := getenv("SOLANA_RPC_URL", defaultRPCEndpoint)

	provider := crossmint.NewClient(crossmint.Config{
		BaseURL:    os.Getenv("CROSSMINT_API_URL"),
		UseTestnet: getenvBool("CROSSMINT_USE_TESTNET", true),
		ServerKey:  mustGetenv("CROSSMINT_SERVER_KEY"),
		ClientKey:  mustGetenv("CROSSMINT_CLIENT_KEY"),
	}, myhttpclient.New(providerTimeout), mylog.New("crossmint"))

	signer, err := solanawallet.NewSigner(mustGetenv("SOLANA_PRIVATE_KEY"), rpcEndpoint)
	if err != nil {
		log.Fatalf("Error creating signer: %s", err)
	}
	log.Printf("Signing with wallet %s on %s", signer.Address(), rpcEndpoint)

	balances, err := solanawallet.NewBalanceReader(rpcEndpoint, os.Getenv("USDC_MINT"))
	if err != nil {
		log.Fatalf("Error creating balance reader: %s", err)
	}

	cfg := orderlifecycle.DefaultConfig()
	cfg.CollectionID = os.Getenv("CROSSMINT_COLLECTION_ID")
	cfg.Email = os.Getenv("CHECKOUT_EMAIL")
	cfg.RPCEndpoint = rpcEndpoint
	cfg.MaxSigningAttempts = getenvInt("MAX_SIGNING_ATTEMPTS", orderlifecycle.DefaultMaxSigningAttempts)

	// one collection for all checkout sessions
	cfg.Collections = orderlifecycle.NewCollections(cfg.CollectionID, provider, mylog.New("orderlifecycle"))

	newController := func() *orderlifecycle.Controller {
		return orderlifecycle.NewController(cfg, provider, signer, clock, mylog.New("orderlifecycle"))
	}

	checkoutService := checkoutcrypto.NewWebService(clock, myuuid.RealUUIDer{}, newController, sessionStore, orderStore, publisher, pubsub, balances)
	err = checkoutService.RegisterEndpoints(c, router)
	if err != nil {
		log.Fatalf("Error registering checkout endpoints: %s", err)
	}
	defer checkoutService.Close()

	warmupService := warmup.NewService(sessionStore)
	warmupService.RegisterEndpoints(c, router)

	startWebServerBlocking(router)
}

func startWebServerBlocking(router *mux.Router) {
	port := getenv("PORT", "8080")

	log.Printf("Starting webserver on port %s (try http://localhost:%s)", port, port)
	err := http.ListenAndServe(fmt.Sprintf(":%s", port), router)
	if err != nil {
		log.Fatalf("Error starting webserver on port %s: %s", port, err)
	}
}

func getenv(name string, defaultValue string) string {
	value := os.Getenv(name)
	if value == "" {
		return defaultValue
	}
	return value
}

func mustGetenv(name string) string {
	value := os.Getenv(name)
	if value == "" {
		log.Fatalf("Missing environment variable %s", name)
	}
	return value
}

func getenvInt(name string, defaultValue int) int {
	value := os.Getenv(name)
	if value == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		log.Fatalf("Invalid value %q for %s: %s", value, name, err)
	}
	return i
}

func getenvBool(name string, defaultValue bool) bool {
	value := os.Getenv(name)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		log.Fatalf("Invalid value %q for %s: %s", value, name, err)
	}
	return b
}
