package routes

import (
	"net/http"

	"tabiji/dels"
	"tabiji/expenses"
	"tabiji/export"
	"tabiji/filemgr"
	"tabiji/itinerary"
	"tabiji/link"
	"tabiji/maps"
	"tabiji/models"
	"tabiji/ratelim"
	"tabiji/rates"
	"tabiji/restaurants"
	"tabiji/shopping"
	"tabiji/sightseeing"
	"tabiji/store"
	"tabiji/websock"

	"github.com/julienschmidt/httprouter"
)

func AddStaticRoutes(router *httprouter.Router) {
	router.ServeFiles("/static/uploads/*filepath", http.Dir("static/uploads"))
}

func AddItineraryRoutes(router *httprouter.Router, h *itinerary.Handlers, st store.Adapter, rl *ratelim.RateLimiter) {
	router.GET("/api/itinerary", h.GetItems)
	router.POST("/api/itinerary", rl.Limit(h.CreateItem))
	router.PUT("/api/itinerary/:id", rl.Limit(h.UpdateItem))
	router.PATCH("/api/itinerary/:id/completed", rl.Limit(h.ToggleCompleted))
	router.DELETE("/api/itinerary/:id", rl.Limit(dels.SoftDelete(st, models.ColItinerary)))
	router.POST("/api/itinerary/:id/restore", rl.Limit(dels.Restore(st, models.ColItinerary)))
	router.DELETE("/api/itinerary/:id/purge", rl.Limit(dels.Purge(st, models.ColItinerary)))
}

func AddExpenseRoutes(router *httprouter.Router, h *expenses.Handlers, st store.Adapter, rl *ratelim.RateLimiter) {
	router.GET("/api/expenses", h.GetExpenses)
	router.GET("/api/expenses/totals", h.GetTotals)
	router.POST("/api/expenses", rl.Limit(h.CreateExpense))
	router.PUT("/api/expenses/:id", rl.Limit(h.UpdateExpense))
	router.DELETE("/api/expenses/:id", rl.Limit(dels.SoftDelete(st, models.ColExpenses)))
	router.POST("/api/expenses/:id/restore", rl.Limit(dels.Restore(st, models.ColExpenses)))
	router.DELETE("/api/expenses/:id/purge", rl.Limit(dels.Purge(st, models.ColExpenses)))
}

func AddShoppingRoutes(router *httprouter.Router, h *shopping.Handlers, links *link.Manager, rl *ratelim.RateLimiter) {
	router.GET("/api/shopping", h.GetItems)
	router.POST("/api/shopping", rl.Limit(h.CreateItem))
	router.PUT("/api/shopping/:id", rl.Limit(h.UpdateItem))
	router.POST("/api/shopping/:id/bought", rl.Limit(h.ToggleBought))
	router.PATCH("/api/shopping/:id/quantity", rl.Limit(h.SetQuantity))
	// Shopping trash cascades to the linked expense.
	router.DELETE("/api/shopping/:id", rl.Limit(dels.SoftDeleteLinked(links)))
	router.POST("/api/shopping/:id/restore", rl.Limit(dels.RestoreLinked(links)))
	router.DELETE("/api/shopping/:id/purge", rl.Limit(dels.PurgeLinked(links)))
}

func AddRestaurantRoutes(router *httprouter.Router, h *restaurants.Handlers, st store.Adapter, rl *ratelim.RateLimiter) {
	router.GET("/api/restaurants", h.GetRestaurants)
	router.POST("/api/restaurants", rl.Limit(h.CreateRestaurant))
	router.PUT("/api/restaurants/:id", rl.Limit(h.UpdateRestaurant))
	router.DELETE("/api/restaurants/:id", rl.Limit(dels.SoftDelete(st, models.ColRestaurants)))
	router.POST("/api/restaurants/:id/restore", rl.Limit(dels.Restore(st, models.ColRestaurants)))
	router.DELETE("/api/restaurants/:id/purge", rl.Limit(dels.Purge(st, models.ColRestaurants)))
}

func AddSightseeingRoutes(router *httprouter.Router, h *sightseeing.Handlers, st store.Adapter, rl *ratelim.RateLimiter) {
	router.GET("/api/sightseeing", h.GetSpots)
	router.POST("/api/sightseeing", rl.Limit(h.CreateSpot))
	router.PUT("/api/sightseeing/:id", rl.Limit(h.UpdateSpot))
	router.DELETE("/api/sightseeing/:id", rl.Limit(dels.SoftDelete(st, models.ColSightseeing)))
	router.POST("/api/sightseeing/:id/restore", rl.Limit(dels.Restore(st, models.ColSightseeing)))
	router.DELETE("/api/sightseeing/:id/purge", rl.Limit(dels.Purge(st, models.ColSightseeing)))
}

func AddMapRoutes(router *httprouter.Router, h *maps.Handlers) {
	router.GET("/api/map/markers", h.GetMarkers)
	router.POST("/api/map/focus", h.Focus)
}

func AddRateRoutes(router *httprouter.Router, h *rates.Handlers, rl *ratelim.RateLimiter) {
	router.GET("/api/rates", h.GetRate)
	router.POST("/api/rates/refresh", rl.Limit(h.RefreshRate))
}

func AddExportRoutes(router *httprouter.Router, h *export.Handlers) {
	router.GET("/api/export/tripbook", h.TripBook)
	router.GET("/api/export/qr/:collection/:id", h.MapsQR)
}

func AddMediaRoutes(router *httprouter.Router, rl *ratelim.RateLimiter) {
	router.POST("/api/images", rl.Limit(filemgr.Upload))
}

func AddWebsockRoutes(router *httprouter.Router, hub *websock.Hub, initial func(string) ([]byte, bool)) {
	router.GET("/ws/:room", websock.Handler(hub, initial))
}
