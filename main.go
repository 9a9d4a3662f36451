package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tabiji/db"
	"tabiji/expenses"
	"tabiji/export"
	"tabiji/geo"
	"tabiji/itinerary"
	"tabiji/link"
	"tabiji/maps"
	"tabiji/mirror"
	"tabiji/models"
	"tabiji/ratelim"
	"tabiji/rates"
	"tabiji/rdx"
	"tabiji/restaurants"
	"tabiji/routes"
	"tabiji/shopping"
	"tabiji/sightseeing"
	"tabiji/store"
	"tabiji/utils"
	"tabiji/websock"

	"github.com/joho/godotenv"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"
)

// securityHeaders applies a set of recommended HTTP security headers.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, private")
		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs each request method, path, remote address, and duration.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s from %s – %v", r.Method, r.RequestURI, r.RemoteAddr, time.Since(start))
	})
}

// Index is a simple health check handler.
func Index(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	fmt.Fprint(w, "200")
}

// broadcastMirror wires one mirror's change feed into its websocket room.
func broadcastMirror[T mirror.Entity](hub *websock.Hub, m *mirror.Mirror[T]) {
	collection := m.Collection()
	m.OnChange(func(items []T) {
		hub.BroadcastJSON(collection, utils.M{"collection": collection, "items": items})
	})
	m.OnError(func(err error) {
		if errors.Is(err, store.ErrPermissionDenied) {
			// Fatal for the session: no retry can succeed, tell every
			// client to block until a manual reload after reconfig.
			hub.BroadcastJSON(websock.RoomSystem, utils.M{
				"fatal":  true,
				"kind":   "permission-denied",
				"detail": err.Error(),
			})
		}
	})
}

func main() {
	// load .env if present
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found; using system environment")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = ":8080"
	} else if port[0] != ':' {
		port = ":" + port
	}

	ctx := context.Background()
	if err := db.Init(ctx); err != nil {
		log.Fatalf("Mongo init failed: %v", err)
	}
	if err := rdx.Init(ctx); err != nil {
		log.Printf("Redis unavailable (%v); running without change feed and caches", err)
	}

	adapter := store.NewMongo()

	// One mirror per collection, alive for the whole process.
	itineraryMirror := mirror.New[models.ItineraryItem](adapter, models.ColItinerary)
	expenseMirror := mirror.New[models.Expense](adapter, models.ColExpenses)
	shoppingMirror := mirror.New[models.ShoppingItem](adapter, models.ColShopping)
	restaurantMirror := mirror.New[models.Restaurant](adapter, models.ColRestaurants)
	sightseeingMirror := mirror.New[models.SightseeingSpot](adapter, models.ColSightseeing)

	hub := websock.NewHub()
	go hub.Run()

	broadcastMirror(hub, itineraryMirror)
	broadcastMirror(hub, expenseMirror)
	broadcastMirror(hub, shoppingMirror)
	broadcastMirror(hub, restaurantMirror)
	broadcastMirror(hub, sightseeingMirror)

	// The guard must see the very first snapshot, so attach before Start.
	mirror.AttachSeedGuard(adapter, itineraryMirror)

	for _, start := range []func() error{
		itineraryMirror.Start,
		expenseMirror.Start,
		shoppingMirror.Start,
		restaurantMirror.Start,
		sightseeingMirror.Start,
	} {
		if err := start(); err != nil {
			log.Fatalf("mirror start failed: %v", err)
		}
	}

	fetcher := rates.NewFetcher()
	fetcher.Start()

	resolver := geo.NewResolver()
	links := link.NewManager(adapter, shoppingMirror, expenseMirror)
	rateLimiter := ratelim.NewRateLimiter()

	mapHandlers := maps.NewHandlers(itineraryMirror, restaurantMirror, sightseeingMirror, hub)

	// First payload for a fresh websocket client: current room state.
	initial := func(room string) ([]byte, bool) {
		var payload any
		switch room {
		case models.ColItinerary:
			payload = utils.M{"collection": room, "items": itineraryMirror.Current()}
		case models.ColExpenses:
			payload = utils.M{"collection": room, "items": expenseMirror.Current()}
		case models.ColShopping:
			payload = utils.M{"collection": room, "items": shoppingMirror.Current()}
		case models.ColRestaurants:
			payload = utils.M{"collection": room, "items": restaurantMirror.Current()}
		case models.ColSightseeing:
			payload = utils.M{"collection": room, "items": sightseeingMirror.Current()}
		case websock.RoomMap:
			payload = utils.M{"action": "markers", "markers": mapHandlers.Markers()}
		default:
			return nil, false
		}
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, false
		}
		return data, true
	}

	router := httprouter.New()
	router.GET("/health", Index)
	routes.AddStaticRoutes(router)
	routes.AddItineraryRoutes(router, itinerary.NewHandlers(adapter, itineraryMirror, resolver), adapter, rateLimiter)
	routes.AddExpenseRoutes(router, expenses.NewHandlers(adapter, expenseMirror, fetcher), adapter, rateLimiter)
	routes.AddShoppingRoutes(router, shopping.NewHandlers(adapter, shoppingMirror, links), links, rateLimiter)
	routes.AddRestaurantRoutes(router, restaurants.NewHandlers(adapter, restaurantMirror, resolver), adapter, rateLimiter)
	routes.AddSightseeingRoutes(router, sightseeing.NewHandlers(adapter, sightseeingMirror, resolver), adapter, rateLimiter)
	routes.AddMapRoutes(router, mapHandlers)
	routes.AddRateRoutes(router, rates.NewHandlers(fetcher), rateLimiter)
	routes.AddExportRoutes(router, export.NewHandlers(itineraryMirror, expenseMirror, restaurantMirror, sightseeingMirror, fetcher))
	routes.AddMediaRoutes(router, rateLimiter)
	routes.AddWebsockRoutes(router, hub, initial)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"}, // lock down in production
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
	}).Handler(router)

	handler := loggingMiddleware(securityHeaders(corsHandler))

	server := &http.Server{
		Addr:              port,
		Handler:           handler,
		ReadTimeout:       7 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
	}

	server.RegisterOnShutdown(func() {
		log.Println("Shutting down mirrors and hub...")
		itineraryMirror.Close()
		expenseMirror.Close()
		shoppingMirror.Close()
		restaurantMirror.Close()
		sightseeingMirror.Close()
		fetcher.Stop()
		hub.Stop()
	})

	go func() {
		log.Printf("Server listening on %s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("Shutdown signal received; shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Graceful shutdown failed: %v", err)
	}
	db.Close(shutdownCtx)

	log.Println("Server stopped cleanly")
}
