package api

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v5"

	"github.com/samcharles93/lmexplorer/internal/inference"
	"github.com/samcharles93/lmexplorer/internal/logger"
)

// query decodes the body, logs it, resolves it to a typed request and runs
// it. Any failure is written as a structured error.
func query[Req, Res any](
	c *echo.Context,
	op string,
	resolve func(inference.RequestOptions) (Req, error),
	run func(context.Context, Req) (Res, error),
) error {
	body, err := decodeJSON[QueryRequest](c.Request().Body)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}

	ctx := c.Request().Context()
	log := logger.FromContext(ctx)
	if body.Previous != nil {
		attrs := []any{"op", op, "previous", *body.Previous}
		if body.Next != nil {
			attrs = append(attrs, "next", *body.Next)
		}
		log.Info("query", attrs...)
	}

	req, err := resolve(body.options())
	if err != nil {
		return writeFailure(c, err)
	}
	res, err := run(ctx, req)
	if err != nil {
		return writeFailure(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (s *Server) handlePredict(c *echo.Context) error {
	return query(c, "predict", inference.ResolvePredict, s.engine.Predict)
}

func (s *Server) handleRandom(c *echo.Context) error {
	return query(c, "random", inference.ResolveRandom, s.engine.RandomSample)
}

func (s *Server) handleBeam(c *echo.Context) error {
	return query(c, "beam", inference.ResolveBeam, s.engine.BeamSearch)
}

func (s *Server) handleGenerate(c *echo.Context) error {
	return query(c, "generate", inference.ResolveGenerate, s.engine.Generate)
}
