package router

import (
	"net/http"
	"time"

	"github.com/dev0xiinko/don-8-sub001/internal/auth"
	"github.com/dev0xiinko/don-8-sub001/internal/config"
	"github.com/dev0xiinko/don-8-sub001/internal/handler"
	"github.com/dev0xiinko/don-8-sub001/internal/logger"
	"github.com/dev0xiinko/don-8-sub001/internal/logic"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Deps everything the HTTP layer calls into
type Deps struct {
	Config       *config.Config
	Campaigns    *logic.CampaignLogic
	Donations    *logic.DonationLogic
	Withdrawals  *logic.WithdrawalLogic
	Applications *logic.ApplicationLogic
	Sync         *logic.SyncLogic
	Issuer       *auth.Issuer
	Uploader     handler.ReportUploader
}

func Setup(d Deps) *gin.Engine {
	r := gin.New()

	r.Use(requestLogger())
	r.Use(gin.Recovery())
	r.Use(corsMiddleware(d.Config.Server.CORSOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "don8-ledger",
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	timeout := d.Config.Server.StoreTimeout
	campaignHandler := handler.NewCampaignHandler(d.Campaigns, d.Uploader, timeout)
	donationHandler := handler.NewDonationHandler(d.Donations, timeout)
	withdrawalHandler := handler.NewWithdrawalHandler(d.Withdrawals, timeout)
	applicationHandler := handler.NewApplicationHandler(d.Applications, timeout)
	authHandler := handler.NewAuthHandler(d.Applications, d.Issuer, auth.AdminCredentials{
		Email:        d.Config.Auth.AdminEmail,
		PasswordHash: d.Config.Auth.AdminPasswordHash,
	}, timeout)
	adminHandler := handler.NewAdminHandler(d.Sync)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", func(c *gin.Context) {
			handler.SuccessResponse(c, http.StatusOK, "ok", nil)
		})

		campaigns := v1.Group("/campaigns")
		{
			campaigns.GET("", campaignHandler.GetCampaigns)
			campaigns.GET("/:id", campaignHandler.GetCampaign)
			campaigns.GET("/:id/stats", donationHandler.GetStats)
			campaigns.GET("/:id/donations", donationHandler.GetDonations)
			campaigns.POST("/:id/donations", donationHandler.IngestDonations)
		}

		v1.POST("/applications", applicationHandler.SubmitApplication)

		login := v1.Group("/auth")
		{
			login.POST("/ngo/login", authHandler.NGOLogin)
			login.POST("/admin/login", authHandler.AdminLogin)
		}

		ngo := v1.Group("/ngo")
		ngo.Use(auth.Middleware(d.Issuer, auth.RoleNGO))
		{
			ngo.POST("/campaigns", campaignHandler.CreateCampaign)
			ngo.POST("/campaigns/:id/updates", campaignHandler.AddUpdate)
			ngo.POST("/campaigns/:id/reports", campaignHandler.AddReport)
			ngo.PATCH("/campaigns/:id/status", campaignHandler.SetStatus)

			ngo.GET("/withdrawals/eligibility", withdrawalHandler.GetEligibility)
			ngo.POST("/withdrawals", withdrawalHandler.RecordWithdrawal)
			ngo.GET("/withdrawals", withdrawalHandler.GetWithdrawals)
			ngo.GET("/summary", withdrawalHandler.GetSummary)
		}

		admin := v1.Group("/admin")
		admin.Use(auth.Middleware(d.Issuer, auth.RoleAdmin))
		{
			admin.GET("/applications", applicationHandler.GetApplications)
			admin.GET("/applications/:id", applicationHandler.GetApplication)
			admin.PATCH("/applications/:id/status", applicationHandler.UpdateStatus)
			admin.POST("/sync", adminHandler.SyncCampaigns)
			admin.PATCH("/campaigns/:id/donations/:txHash", donationHandler.UpdateStatus)
		}
	}

	return r
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Content-Length", "Accept-Encoding", "Authorization", "If-None-Match"},
		ExposeHeaders: []string{"ETag"},
		MaxAge:        12 * time.Hour,
	}
	allowAll := len(origins) == 0
	for _, o := range origins {
		if o == "*" {
			allowAll = true
		}
	}
	if allowAll {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return cors.New(cfg)
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		l := logger.GetDefaultZapLogger()
		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			l.Error("request", fields...)
		case c.Request.URL.Path == "/health" || c.Request.URL.Path == "/metrics":
			l.Debug("request", fields...)
		default:
			l.Info("request", fields...)
		}
	}
}
