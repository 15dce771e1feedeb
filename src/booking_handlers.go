package main

import (
	"log"
	"net/http"

	"maidops/src/controllers"
	"maidops/src/middlewares"
	"maidops/src/types"

	"github.com/gin-gonic/gin"
)

func respond(ctx *gin.Context, status int, data any, err error) {
	if err != nil {
		ctx.JSON(status, controllers.ErrorBody(status, err))
		return
	}
	ctx.JSON(status, gin.H{"success": true, "data": data})
}

func badRequest(ctx *gin.Context, err error) {
	log.Printf("Error in validating request: %s\n", err.Error())
	ctx.JSON(http.StatusBadRequest, controllers.ErrorBody(http.StatusBadRequest, err))
}

func bookingHandlers(g *gin.RouterGroup, api *controllers.API) *gin.RouterGroup {
	g.
		POST("/bookings", middlewares.RequireRole(types.ACTOR_CUSTOMER, types.ACTOR_ADMIN), func(ctx *gin.Context) {
			var body types.CreateBookingRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				badRequest(ctx, err)
				return
			}
			booking, status, err := api.CreateBooking(ctx, body)
			respond(ctx, status, booking, err)
		}).
		GET("/bookings/:ref", func(ctx *gin.Context) {
			var params types.BookingRefParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				badRequest(ctx, err)
				return
			}
			booking, status, err := api.GetBooking(ctx, params.Ref)
			respond(ctx, status, booking, err)
		}).
		PUT("/bookings/:ref/status", func(ctx *gin.Context) {
			var params types.BookingRefParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				badRequest(ctx, err)
				return
			}
			var body types.UpdateBookingStatusRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				badRequest(ctx, err)
				return
			}
			booking, status, err := api.UpdateBookingStatus(ctx, params.Ref, body)
			respond(ctx, status, booking, err)
		}).
		GET("/bookings/:ref/activity", func(ctx *gin.Context) {
			var params types.BookingRefParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				badRequest(ctx, err)
				return
			}
			logs, status, err := api.BookingActivity(ctx, params.Ref)
			if err != nil {
				respond(ctx, status, nil, err)
				return
			}
			ctx.JSON(status, gin.H{"success": true, "data": logs, "count": len(logs)})
		}).
		PUT("/bookings/:ref/transportation", middlewares.RequireRole(types.ACTOR_HOUSEMAID, types.ACTOR_ADMIN), func(ctx *gin.Context) {
			var params types.BookingRefParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				badRequest(ctx, err)
				return
			}
			var body types.ReplaceTransportationRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				badRequest(ctx, err)
				return
			}
			details, status, err := api.ReplaceTransportation(ctx, params.Ref, body)
			respond(ctx, status, details, err)
		}).
		POST("/bookings/:ref/rating", middlewares.RequireRole(types.ACTOR_CUSTOMER), func(ctx *gin.Context) {
			var params types.BookingRefParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				badRequest(ctx, err)
				return
			}
			var body types.SubmitRatingRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				badRequest(ctx, err)
				return
			}
			rating, status, err := api.SubmitRating(ctx, params.Ref, body)
			respond(ctx, status, rating, err)
		}).
		POST("/bookings/:ref/settlement", middlewares.RequireRole(types.ACTOR_ADMIN), func(ctx *gin.Context) {
			var params types.BookingRefParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				badRequest(ctx, err)
				return
			}
			details, status, err := api.SettleBooking(ctx, params.Ref)
			respond(ctx, status, details, err)
		})
	return g
}

func quoteHandlers(g *gin.RouterGroup, api *controllers.API) *gin.RouterGroup {
	g.POST("/quotes", func(ctx *gin.Context) {
		var body types.QuoteRequestBody
		if err := ctx.ShouldBindJSON(&body); err != nil {
			badRequest(ctx, err)
			return
		}
		quote, status, err := api.GetQuote(ctx, body)
		respond(ctx, status, quote, err)
	})
	return g
}
