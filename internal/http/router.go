package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/featherfn/metagate/internal/identity"
	"github.com/featherfn/metagate/internal/invoke"
	"github.com/featherfn/metagate/internal/meta"
	"github.com/featherfn/metagate/internal/store"
	"github.com/featherfn/metagate/internal/trigger"
)

// RouterConfig carries everything the HTTP surface depends on.
type RouterConfig struct {
	APIPath    string // First path segment, e.g. "api".
	APIVersion string // Second path segment, e.g. "v1".
	MetaPrefix string // Meta routing prefix, e.g. "meta" or "experimental".

	SystemNamespace string
	JWTSecret       string
	TokenExpiry     time.Duration

	Entities    store.EntityStore
	Subjects    store.SubjectStore
	Activations store.ActivationStore
	Client      *invoke.Client
	SystemCreds *identity.SystemCredentialSource
}

// NewRouter assembles the gin engine: health, auth token, meta routing,
// trigger fire, and activation read.
func NewRouter(cfg RouterConfig) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.HandleMethodNotAllowed = true
	engine.NoMethod(func(c *gin.Context) {
		c.Status(http.StatusMethodNotAllowed)
	})

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	base := "/" + cfg.APIPath + "/" + cfg.APIVersion
	authRequired := []gin.HandlerFunc{
		TransactionIDMiddleware(),
		IdentityAuthMiddleware(cfg.Subjects, cfg.JWTSecret),
	}

	authHandler := NewAuthHandler(cfg.JWTSecret, cfg.TokenExpiry)
	engine.POST(base+"/auth/token", append(authRequired, authHandler.Token)...)

	metaHandler := meta.NewHandler(meta.HandlerConfig{
		Resolver:        meta.NewResolver(cfg.Entities, cfg.SystemNamespace),
		Entities:        cfg.Entities,
		Client:          cfg.Client,
		SystemCreds:     cfg.SystemCreds,
		SystemNamespace: cfg.SystemNamespace,
		MountPath:       base + "/" + cfg.MetaPrefix,
	})
	metaGroup := engine.Group(base+"/"+cfg.MetaPrefix, authRequired...)
	for _, verb := range meta.AllowedVerbs() {
		metaGroup.Handle(verb, "/*rest", metaHandler.Serve)
	}

	fanout := trigger.NewFanout(cfg.Client)
	service := trigger.NewService(fanout, cfg.Activations)
	triggerHandler := NewTriggerHandler(cfg.Entities, cfg.Activations, service)
	engine.POST(base+"/namespaces/:namespace/triggers/:name", append(authRequired, triggerHandler.Fire)...)
	engine.GET(base+"/namespaces/:namespace/activations/:id", append(authRequired, triggerHandler.GetActivation)...)

	return engine
}
