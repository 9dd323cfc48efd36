package routes

import (
	"net/http"
	"time"

	"school_inventory/app"
	"school_inventory/controllers"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func RegisterRoutes(r *gin.Engine, a *app.App) *controllers.Srv {
	s := controllers.GetSrv(a)
	catCtl := controllers.NewCategoryController(s)
	deptCtl := controllers.NewDepartmentController(s)
	eqCtl := controllers.NewEquipmentController(s)
	borrowCtl := controllers.NewBorrowingController(s)
	reportCtl := controllers.NewReportController(s)

	r.GET("/healthz", func(c *app.Ctx) { c.JSON(http.StatusOK, app.H{"ok": true}) })
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(a.Registry, promhttp.HandlerOpts{})))

	api := r.Group("/api", app.ThrottleWrites(a.RDB, a.Config.WriteRateLimit, time.Minute))

	categories := api.Group("/categories")
	{
		categories.GET("", catCtl.List)
		categories.POST("", catCtl.Create)
		categories.DELETE("/:id", catCtl.Delete) // ?confirm=true
	}

	departments := api.Group("/departments")
	{
		departments.GET("", deptCtl.List)
		departments.POST("", deptCtl.Create)
		departments.DELETE("/:id", deptCtl.Delete) // ?confirm=true
	}

	equipment := api.Group("/equipment")
	{
		equipment.GET("", eqCtl.List) // ?category=&status=&search=
		equipment.POST("", eqCtl.Create)
		equipment.GET("/:id", eqCtl.Get)
		equipment.PUT("/:id", eqCtl.Update)
		equipment.DELETE("/:id", eqCtl.Delete) // ?confirm=true
	}

	borrowings := api.Group("/borrowings")
	{
		borrowings.GET("", borrowCtl.List) // ?status=borrowed|returned|overdue&department=
		borrowings.POST("", borrowCtl.Borrow)
		borrowings.GET("/overdue", borrowCtl.Overdue)
		borrowings.GET("/export.csv", borrowCtl.Export)
		borrowings.GET("/:id", borrowCtl.Get)
		borrowings.POST("/:id/return", borrowCtl.Return)
	}

	reports := api.Group("/reports")
	{
		reports.GET("/categories", reportCtl.ByCategory)
		reports.GET("/departments", reportCtl.ByDepartment)
	}
	api.GET("/dashboard", reportCtl.Dashboard)

	return s
}
