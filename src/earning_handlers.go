package main

import (
	"maidops/src/controllers"
	"maidops/src/middlewares"
	"maidops/src/types"

	"github.com/gin-gonic/gin"
)

func earningHandlers(g *gin.RouterGroup, api *controllers.API) *gin.RouterGroup {
	g.Use(middlewares.RequireRole(types.ACTOR_HOUSEMAID, types.ACTOR_ADMIN))
	g.
		GET("/earnings", func(ctx *gin.Context) {
			summary, status, err := api.EarningsSummary(ctx)
			respond(ctx, status, summary, err)
		}).
		GET("/earnings/:identifier", func(ctx *gin.Context) {
			var params types.EarningIdentifierParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				badRequest(ctx, err)
				return
			}
			details, status, err := api.EarningDetails(ctx, params.Identifier)
			respond(ctx, status, details, err)
		}).
		GET("/earnings/:identifier/receipt", func(ctx *gin.Context) {
			var params types.EarningIdentifierParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				badRequest(ctx, err)
				return
			}
			filepath, status, err := api.EarningReceipt(ctx, params.Identifier)
			if err != nil {
				respond(ctx, status, nil, err)
				return
			}
			ctx.FileAttachment(filepath, "receipt.jpeg")
		}).
		GET("/asenso", func(ctx *gin.Context) {
			balance, status, err := api.AsensoBalance(ctx)
			respond(ctx, status, balance, err)
		})
	return g
}
