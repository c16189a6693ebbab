package main

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/madins005/KSM-Education-Home-Journal/config"
	"github.com/madins005/KSM-Education-Home-Journal/models"
	"github.com/madins005/KSM-Education-Home-Journal/services"
	"github.com/madins005/KSM-Education-Home-Journal/storage"
)

var (
	recordsAddedCounter   *prometheus.CounterVec
	recordsDeletedCounter *prometheus.CounterVec
	articleGauge          prometheus.Gauge
	visitorGauge          prometheus.Gauge
)

func init() {
	recordsAddedCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "records_added_total",
			Help: "Total number of records added, by collection.",
		},
		[]string{"collection"},
	)
	recordsDeletedCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "records_deleted_total",
			Help: "Total number of records deleted, by collection.",
		},
		[]string{"collection"},
	)
	articleGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "site_articles",
		Help: "Current article count across both collections.",
	})
	visitorGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "site_visitors",
		Help: "Current visitor count.",
	})
	prometheus.MustRegister(recordsAddedCounter, recordsDeletedCounter, articleGauge, visitorGauge)
}

func main() {
	logging, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logging.Sync()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal("Config load error", zap.Error(err))
	}

	store, err := openStore(cfg, logging)
	if err != nil {
		logging.Fatal("Failed to open store", zap.String("driver", cfg.StoreDriver), zap.Error(err))
	}
	defer store.Close()
	logging.Info("Store opened", zap.String("driver", cfg.StoreDriver))

	bus := services.NewBus(logging)
	bus.Bridge(store)

	session := services.NewSession(cfg.AdminEmail, cfg.AdminPassword)

	// The interactive yes/no dialog lives in the browser; by the time a
	// delete request reaches this boundary it has already been confirmed.
	confirmed := func(string) bool { return true }

	journals := services.NewCollection(services.CollectionConfig{
		Key:              storage.KeyJournals,
		Category:         models.CategoryJournal,
		MaxEmbedBytes:    cfg.MaxEmbedBytes,
		MaxCoverBytes:    cfg.MaxCoverBytes,
		PlaceholderCover: cfg.PlaceholderCover,
	}, store, bus, session.IsAdmin, confirmed, logging)

	opinions := services.NewCollection(services.CollectionConfig{
		Key:              storage.KeyOpinions,
		Category:         models.CategoryOpinion,
		MaxEmbedBytes:    cfg.MaxEmbedBytes,
		MaxCoverBytes:    cfg.MaxCoverBytes,
		PlaceholderCover: cfg.PlaceholderCover,
	}, store, bus, session.IsAdmin, confirmed, logging)

	stats := services.NewStatistics(store, journals, opinions, bus, nil, nil,
		func(articles, visitors int) {
			articleGauge.Set(float64(articles))
			visitorGauge.Set(float64(visitors))
		}, logging)
	stats.AnimateInitial()

	preview := services.NewPreviewResolver(store, journals, opinions)

	// Safety net against missed change events: reconcile the stats banner
	// from storage whenever the total length drifts from what was last
	// rendered.
	poller := services.NewPoller(cfg.PollSchedule, logging)
	err = poller.Track("stats-banner",
		func() int { return len(journals.Reload()) + len(opinions.Reload()) },
		func() { stats.Reconcile(500 * time.Millisecond) },
	)
	if err != nil {
		logging.Fatal("Failed to schedule polling fallback", zap.Error(err))
	}
	poller.Start()
	defer poller.Stop()

	router := gin.Default()
	router.Use(gin.Recovery())
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	setupAuthRoutes(router, session, logging)
	setupCollectionRoutes(router, "/journals", journals, cfg.JournalPageSize, session, logging)
	setupCollectionRoutes(router, "/opinions", opinions, cfg.OpinionPageSize, session, logging)
	setupDetailRoutes(router, journals, opinions, stats, session, logging)
	setupPreviewRoutes(router, preview, logging)
	setupStatsRoutes(router, stats)

	logging.Info("Starting server", zap.String("port", cfg.HTTPPort))
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logging.Fatal("Failed to run server", zap.Error(err))
	}
}

func openStore(cfg *config.Config, log *zap.Logger) (storage.Store, error) {
	switch cfg.StoreDriver {
	case "sqlite":
		return storage.NewSQLiteStore(cfg.SQLitePath)
	case "memory":
		return storage.NewMemoryStore(), nil
	default:
		return storage.NewFileStore(cfg.DataDir, log)
	}
}

// draftPayload is the JSON shape the upload form glue submits.
type draftPayload struct {
	Title      string   `json:"title" binding:"required"`
	Authors    []string `json:"authors" binding:"required"`
	Editors    []string `json:"editors"`
	Email      string   `json:"email"`
	Contact    string   `json:"contact"`
	Abstract   string   `json:"abstract"`
	Tags       []string `json:"tags"`
	FileName   string   `json:"fileName"`
	FileData   string   `json:"fileData"`
	FileSize   int64    `json:"fileSize"`
	CoverImage string   `json:"coverImage"`
	CoverSize  int64    `json:"coverSize"`
	CoverMIME  string   `json:"coverMime"`
}

func (p *draftPayload) toDraft() *models.Draft {
	return &models.Draft{
		Title:      p.Title,
		Authors:    p.Authors,
		Editors:    p.Editors,
		Email:      p.Email,
		Contact:    p.Contact,
		Abstract:   p.Abstract,
		Tags:       p.Tags,
		FileName:   p.FileName,
		FileData:   p.FileData,
		FileSize:   p.FileSize,
		CoverImage: p.CoverImage,
		CoverSize:  p.CoverSize,
		CoverMIME:  p.CoverMIME,
	}
}

// patchPayload mirrors the edit modal: absent fields stay untouched.
type patchPayload struct {
	Title    *string  `json:"title"`
	Authors  []string `json:"authors"`
	Abstract *string  `json:"abstract"`
	Email    *string  `json:"email"`
	Contact  *string  `json:"contact"`
	Tags     []string `json:"tags"`
}

func (p *patchPayload) toPatch() *models.Patch {
	return &models.Patch{
		Title:    p.Title,
		Authors:  p.Authors,
		Abstract: p.Abstract,
		Email:    p.Email,
		Contact:  p.Contact,
		Tags:     p.Tags,
	}
}

func setupAuthRoutes(router *gin.Engine, session *services.Session, log *zap.Logger) {
	router.POST("/login", func(c *gin.Context) {
		var req struct {
			Email    string `json:"email" binding:"required"`
			Password string `json:"password" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
			return
		}
		if !session.Login(req.Email, req.Password) {
			log.Warn("failed admin login", zap.String("email", req.Email))
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"admin": true})
	})

	router.POST("/logout", func(c *gin.Context) {
		session.Logout()
		c.JSON(http.StatusOK, gin.H{"admin": false})
	})
}

// setupCollectionRoutes wires one record collection's full page surface:
// paginated listing plus the add/edit/delete flows.
func setupCollectionRoutes(router *gin.Engine, base string, col *services.Collection, pageSize int, session *services.Session, log *zap.Logger) {
	rg := router.Group(base)

	rg.GET("/", func(c *gin.Context) {
		page := services.NewPagination(col, pageSize, log)
		page.SetSearch(c.Query("search"))
		page.SetSort(services.SortKey(c.Query("sort")))
		if n, err := parsePage(c.Query("page")); err == nil {
			page.GoToPage(n)
		}
		c.JSON(http.StatusOK, page.Render())
	})

	rg.POST("/", func(c *gin.Context) {
		if !session.IsAdmin() {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "admin login required"})
			return
		}
		var payload draftPayload
		if err := c.ShouldBindJSON(&payload); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		record, err := col.Add(payload.toDraft())
		if err != nil {
			respondError(c, err, log)
			return
		}
		recordsAddedCounter.WithLabelValues(col.Key()).Inc()
		c.JSON(http.StatusCreated, record)
	})

	rg.PUT("/:id", func(c *gin.Context) {
		if !session.IsAdmin() {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "admin login required"})
			return
		}
		var payload patchPayload
		if err := c.ShouldBindJSON(&payload); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		record, err := col.Update(c.Param("id"), payload.toPatch())
		if err != nil {
			respondError(c, err, log)
			return
		}
		c.JSON(http.StatusOK, record)
	})

	rg.DELETE("/:id", func(c *gin.Context) {
		if err := col.Remove(c.Param("id")); err != nil {
			respondError(c, err, log)
			return
		}
		recordsDeletedCounter.WithLabelValues(col.Key()).Inc()
		c.JSON(http.StatusOK, gin.H{"deleted": c.Param("id")})
	})

	rg.GET("/:id/download", func(c *gin.Context) {
		record, err := col.FindByID(c.Param("id"))
		if err != nil {
			respondError(c, err, log)
			return
		}
		if record.FileData == "" {
			c.JSON(http.StatusNotFound, gin.H{"error": "file not retained for this record, it exceeded the embed limit"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"fileName": record.FileName, "fileData": record.FileData})
	})
}

// setupDetailRoutes serves the article detail page: resolve by id and
// type, then count the visit. The view counter moves for everyone, admin
// or not.
func setupDetailRoutes(router *gin.Engine, journals, opinions *services.Collection, stats *services.Statistics, session *services.Session, log *zap.Logger) {
	router.GET("/articles/:id", func(c *gin.Context) {
		stats.TrackVisitor(session)

		col := journals
		if c.Query("type") == models.CategoryOpinion {
			col = opinions
		}
		col.Reload()
		record, err := col.FindByID(c.Param("id"))
		if err != nil {
			respondError(c, err, log)
			return
		}
		views, err := col.IncrementView(record.ID)
		if err != nil {
			respondError(c, err, log)
			return
		}
		record.Views = views
		c.JSON(http.StatusOK, record)
	})
}

func setupPreviewRoutes(router *gin.Engine, preview *services.PreviewResolver, log *zap.Logger) {
	router.GET("/preview/:id", func(c *gin.Context) {
		record, kind, err := preview.Resolve(c.Param("id"))
		if err != nil {
			respondError(c, err, log)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"kind":   kind,
			"record": record,
		})
	})
}

func setupStatsRoutes(router *gin.Engine, stats *services.Statistics) {
	router.GET("/stats", func(c *gin.Context) {
		snapshot := stats.Snapshot()
		c.JSON(http.StatusOK, gin.H{
			"articles":          snapshot.Articles,
			"visitors":          snapshot.Visitors,
			"lastVisit":         snapshot.LastVisit,
			"displayedArticles": stats.DisplayedArticles(),
			"displayedVisitors": stats.DisplayedVisitors(),
		})
	})
}

func respondError(c *gin.Context, err error, log *zap.Logger) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error(), "field": verr.Field})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
	case errors.Is(err, services.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "admin login required"})
	default:
		log.Error("request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func parsePage(raw string) (int, error) {
	if raw == "" {
		return 0, errors.New("empty")
	}
	n := 0
	for _, r := range raw {
		if r < '0' || r > '9' {
			return 0, errors.New("not a number")
		}
		n = n*10 + int(r-'0')
	}
	return n, nil
}
