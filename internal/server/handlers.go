package server

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/dropurl/dropurl/internal/audit"
	"github.com/dropurl/dropurl/internal/engine"
	"github.com/dropurl/dropurl/internal/fetcher"
	"github.com/dropurl/dropurl/internal/summarizer"
)

const validateTimeout = 10 * time.Second

// runChecksRequest is a batch request. With Save set the result is
// recorded in the history.
type runChecksRequest struct {
	engine.CheckRequest
	RawInput string `json:"rawInput"`
	Source   string `json:"source"`
	Save     bool   `json:"save"`
}

type runChecksResponse struct {
	*engine.CheckResponse
	CheckID   int64  `json:"checkId,omitempty"`
	AISummary string `json:"aiSummary,omitempty"`
}

type crawlRequest struct {
	engine.CrawlRequest
	Source string `json:"source"`
	Save   bool   `json:"save"`
}

type crawlResponse struct {
	*engine.CrawlResponse
	CheckID   int64  `json:"checkId,omitempty"`
	AISummary string `json:"aiSummary,omitempty"`
}

// recordRequest stores a result computed elsewhere
type recordRequest struct {
	URLs         []string             `json:"urls"`
	RawInput     string               `json:"rawInput"`
	Source       string               `json:"source"`
	EngineResult *engine.EngineResult `json:"engineResult"`
}

type summaryRequest struct {
	URLs         []string `json:"urls"`
	Has404       bool     `json:"has404"`
	HasDuplicate bool     `json:"hasDuplicate"`
	HasSeoIssues bool     `json:"hasSeoIssues"`
	Lang         string   `json:"lang"`
}

type validateRequest struct {
	URL string `json:"url"`
}

type validateResponse struct {
	OK      bool   `json:"ok"`
	Status  int    `json:"status,omitempty"`
	Reason  string `json:"reason,omitempty"`
	Message string `json:"message,omitempty"`
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func (s *Server) handleRunChecks(c *fiber.Ctx) error {
	var req runChecksRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest("invalid JSON body")
	}

	resp, err := s.deps.Engine.RunChecks(c.UserContext(), req.CheckRequest)
	if err != nil {
		return err
	}

	out := runChecksResponse{CheckResponse: resp}
	if req.Save {
		rec, err := s.record(c, audit.Submission{
			URLs:     engine.NormalizeURLs(req.URLs),
			RawInput: req.RawInput,
			Source:   sourceOr(req.Source, "api"),
			Result:   engine.NewBatchResult(resp),
		})
		if err != nil {
			return err
		}
		out.CheckID, out.AISummary = recordFields(rec)
	}
	return c.JSON(out)
}

func (s *Server) handleCrawl(c *fiber.Ctx) error {
	var req crawlRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest("invalid JSON body")
	}

	resp, err := s.deps.Engine.RunCrawl(c.UserContext(), req.CrawlRequest)
	if err != nil {
		return err
	}

	out := crawlResponse{CrawlResponse: resp}
	if req.Save {
		rec, err := s.record(c, audit.Submission{
			URLs:   []string{resp.Meta.SeedURL},
			Source: sourceOr(req.Source, "api"),
			Result: engine.NewCrawlResult(resp),
		})
		if err != nil {
			return err
		}
		out.CheckID, out.AISummary = recordFields(rec)
	}
	return c.JSON(out)
}

func (s *Server) handleRecord(c *fiber.Ctx) error {
	var req recordRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest("invalid JSON body")
	}
	if len(req.URLs) == 0 {
		return badRequest("URLs are required")
	}
	if req.EngineResult == nil {
		return badRequest("engineResult is required")
	}

	rec, err := s.record(c, audit.Submission{
		URLs:     req.URLs,
		RawInput: req.RawInput,
		Source:   sourceOr(req.Source, "web"),
		Result:   *req.EngineResult,
	})
	if err != nil {
		return err
	}
	id, summary := recordFields(rec)
	return c.JSON(fiber.Map{"success": true, "checkId": id, "aiSummary": summary})
}

func (s *Server) handleGetCheck(c *fiber.Ctx) error {
	if s.deps.History == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "storage is disabled")
	}
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return badRequest("invalid check id")
	}
	rec, err := s.deps.History.GetCheck(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(rec)
}

func (s *Server) handleListChecks(c *fiber.Ctx) error {
	if s.deps.History == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "storage is disabled")
	}
	checks, err := s.deps.History.ListChecks(c.UserContext(), c.QueryInt("limit", 20), c.QueryInt("offset", 0))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"checks": checks})
}

func (s *Server) handleSummary(c *fiber.Ctx) error {
	var req summaryRequest
	if err := c.BodyParser(&req); err != nil || req.URLs == nil {
		return badRequest("Invalid meta data")
	}
	if s.deps.Summarizer == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "summaries are disabled")
	}

	lang := "th"
	if req.Lang == "en" {
		lang = "en"
	}
	summary, err := s.deps.Summarizer.Summarize(c.UserContext(), summarizer.Meta{
		URLs:         req.URLs,
		Has404:       req.Has404,
		HasDuplicate: req.HasDuplicate,
		HasSeoIssues: req.HasSeoIssues,
		Language:     lang,
	})
	if err != nil {
		s.logger.Warn("Summary failed", "error", err)
		return fiber.NewError(fiber.StatusBadGateway, "AI summary failed")
	}
	return c.JSON(fiber.Map{"error": false, "summary": summary})
}

// handleValidateURL reports whether a URL answers at all, whatever its status
func (s *Server) handleValidateURL(c *fiber.Ctx) error {
	var req validateRequest
	if err := c.BodyParser(&req); err != nil || req.URL == "" {
		return c.Status(fiber.StatusBadRequest).JSON(validateResponse{Reason: "invalid_input"})
	}

	u := fetcher.NormalizeInput(req.URL)
	if _, err := fetcher.Canonicalize(u); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(validateResponse{Reason: "invalid_input", Message: err.Error()})
	}

	res := s.deps.Fetcher.Fetch(c.UserContext(), u, fetcher.Options{Method: fetcher.MethodHead, Timeout: validateTimeout})
	if res.HTTPStatus == nil {
		return c.JSON(validateResponse{Reason: "unreachable", Message: res.Error})
	}
	return c.JSON(validateResponse{OK: true, Status: *res.HTTPStatus})
}

func (s *Server) record(c *fiber.Ctx, sub audit.Submission) (*audit.Record, error) {
	if s.deps.Recorder == nil {
		return nil, fiber.NewError(fiber.StatusServiceUnavailable, "storage is disabled")
	}
	return s.deps.Recorder.Record(c.UserContext(), sub)
}

func recordFields(rec *audit.Record) (int64, string) {
	if rec.AI == nil {
		return rec.Check.ID, ""
	}
	return rec.Check.ID, rec.AI.AISummary
}

func sourceOr(source, fallback string) string {
	switch source {
	case "web", "cli", "discord", "api":
		return source
	default:
		return fallback
	}
}
