package server

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/buildledger/docpipe/internal/common"
	"github.com/buildledger/docpipe/internal/llm"
	"github.com/buildledger/docpipe/internal/pipeline"
)

// extractRequest is the JSON body the collaborator system sends. Either
// signed_url or file_url identifies the document location.
type extractRequest struct {
	SignedURL  string `json:"signed_url"`
	FileURL    string `json:"file_url"`
	DocumentID string `json:"document_id"`
	Filename   string `json:"filename"`
}

type okResponse struct {
	OK   bool                  `json:"ok"`
	Data llm.ExtractedDocument `json:"data"`
}

type errResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

// Runner is the pipeline boundary the handler depends on.
type Runner interface {
	Run(ctx context.Context, req pipeline.Request) (llm.ExtractedDocument, error)
}

type Server struct {
	pipeline Runner
	pool     *pgxpool.Pool
	logger   *slog.Logger
}

func New(p Runner, pool *pgxpool.Pool, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{pipeline: p, pool: pool, logger: logger}
}

// Router builds the gin engine with middleware and routes.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), RequestID(), RequestLogger(s.logger))

	r.POST("/v1/extract", s.handleExtract)
	r.GET("/healthz", s.handleHealth)
	return r
}

func (s *Server) handleExtract(c *gin.Context) {
	var req extractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errResponse{OK: false, Error: "invalid request body"})
		return
	}

	ref := strings.TrimSpace(req.SignedURL)
	if ref == "" {
		ref = strings.TrimSpace(req.FileURL)
	}
	docID := strings.TrimSpace(req.DocumentID)
	if ref == "" || docID == "" {
		c.JSON(http.StatusBadRequest, errResponse{OK: false, Error: "signed_url (or file_url) and document_id are required"})
		return
	}

	ctx := common.WithDocumentID(c.Request.Context(), docID)
	doc, err := s.pipeline.Run(ctx, pipeline.Request{
		SourceRef:  ref,
		DocumentID: docID,
		Filename:   req.Filename,
	})
	if err != nil {
		s.logger.Error("server.extract.failed",
			"req_id", common.RequestIDFromContext(ctx),
			"document_id", docID,
			"kind", common.KindOf(err),
			"error", err,
		)
		c.JSON(statusFor(err), errResponse{OK: false, Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, okResponse{OK: true, Data: doc})
}

func (s *Server) handleHealth(c *gin.Context) {
	if s.pool != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()
		if err := s.pool.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db unreachable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// statusFor maps the error taxonomy onto HTTP statuses: upstream
// failures (fetch, generation service) are 502, store failures 500,
// malformed input 400.
func statusFor(err error) int {
	switch common.KindOf(err) {
	case common.KindInvalidInput:
		return http.StatusBadRequest
	case common.KindFetch, common.KindSchema:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
