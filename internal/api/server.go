// Package api exposes the prediction and explanation engines over HTTP.
package api

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v5"

	"github.com/alexarnimueller/transformer-cnn/internal/explain"
	"github.com/alexarnimueller/transformer-cnn/internal/logger"
	"github.com/alexarnimueller/transformer-cnn/internal/model"
	"github.com/alexarnimueller/transformer-cnn/internal/vocab"
)

// Server serves one loaded model. The model is immutable, so a single
// Server handles concurrent requests without locking.
type Server struct {
	model   *model.Model
	log     logger.Logger
	workers int
}

// NewServer wraps a loaded model. workers bounds the per-request explain
// pool; <= 0 lets the explain driver pick.
func NewServer(m *model.Model, log logger.Logger, workers int) *Server {
	if log == nil {
		log = logger.Default()
	}
	return &Server{model: m, log: log, workers: workers}
}

// Register attaches all routes.
func (s *Server) Register(e *echo.Echo) {
	e.POST("/v1/predict", s.handlePredict)
	e.POST("/v1/explain", s.handleExplain)
	e.GET("/v1/model", s.handleModel)
	e.GET("/healthz", s.handleHealth)
}

func (s *Server) handlePredict(c *echo.Context) error {
	req, err := decodeJSON[PredictRequest](c.Request().Body)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}
	if req.Input == "" {
		return writeBadRequest(c, "input is required")
	}

	id := "pred-" + uuid.NewString()
	ctx := logger.WithContext(c.Request().Context(), s.log.With("request_id", id))

	p, err := explain.Predict(ctx, s.model, req.Input)
	if err != nil {
		return s.writePassError(c, err)
	}
	return c.JSON(http.StatusOK, PredictResponse{
		ID:           id,
		Input:        req.Input,
		Score:        p.Score,
		Raw:          p.Raw,
		Unit:         s.model.Meta.OutputUnit,
		Chart:        p.Chart,
		Conservation: p.Conservation,
	})
}

func (s *Server) handleExplain(c *echo.Context) error {
	req, err := decodeJSON[ExplainRequest](c.Request().Body)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}
	rootings := &explain.Rootings{Input: req.Input, Atoms: req.Atoms, Roots: req.Rooted}
	if err := rootings.Validate(); err != nil {
		return writeBadRequest(c, err.Error())
	}

	id := "expl-" + uuid.NewString()
	ctx := logger.WithContext(c.Request().Context(), s.log.With("request_id", id))

	res, err := explain.Run(ctx, s.model, rootings.Input, rootings, explain.Options{Workers: s.workers})
	if err != nil {
		return s.writePassError(c, err)
	}
	return c.JSON(http.StatusOK, ExplainResponse{
		ID:        id,
		Input:     req.Input,
		Mean:      res.Mean,
		Std:       res.Std,
		HalfWidth: res.HalfWidth,
		Unit:      s.model.Meta.OutputUnit,
		Values:    res.Values,
		Atoms:     res.Atoms,
		Chart:     res.Chart,
	})
}

func (s *Server) handleModel(c *echo.Context) error {
	return c.JSON(http.StatusOK, ModelResponse{
		TaskName:        s.model.Meta.TaskName,
		TaskType:        s.model.Meta.TaskType,
		OutputTransform: s.model.Transform.String(),
		OutputUnit:      s.model.Meta.OutputUnit,
		MaxInput:        s.model.MaxInput,
	})
}

func (s *Server) handleHealth(c *echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// writePassError maps engine failures onto the error envelope. Input
// problems are the caller's fault; a numeric failure means the model could
// not score this input and is reported as unprocessable.
func (s *Server) writePassError(c *echo.Context, err error) error {
	var unknown *vocab.UnknownSymbolError
	switch {
	case errors.As(err, &unknown):
		return writeError(c, http.StatusBadRequest, "invalid_request_error", err.Error(), "input", "unknown_symbol")
	case errors.Is(err, model.ErrInputTooLong):
		return writeError(c, http.StatusBadRequest, "invalid_request_error", err.Error(), "input", "input_too_long")
	case errors.Is(err, explain.ErrNoAtoms):
		return writeBadRequest(c, err.Error())
	case errors.Is(err, model.ErrNumeric):
		s.log.Error("numeric instability", "error", err)
		return writeError(c, http.StatusUnprocessableEntity, "numeric_error", err.Error(), "", "")
	default:
		s.log.Error("request failed", "error", err)
		return writeError(c, http.StatusInternalServerError, "server_error", err.Error(), "", "")
	}
}
