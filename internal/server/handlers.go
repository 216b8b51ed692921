package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/Veraticus/finsight/internal/common"
	"github.com/Veraticus/finsight/internal/dashboard"
	"github.com/Veraticus/finsight/internal/model"
	"github.com/gin-gonic/gin"
)

const defaultHistoryLimit = 50

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": s.version,
		"storage": s.store != nil,
	})
}

// banner answers 502 with the view body when the view carries an error.
func banner(c *gin.Context, errText string, view any) {
	if errText != "" {
		c.JSON(http.StatusBadGateway, view)
		return
	}
	c.JSON(http.StatusOK, view)
}

func countSource(view string, source dashboard.Source) {
	viewSources.WithLabelValues(view, string(source)).Inc()
}

func (s *Server) overview(c *gin.Context) {
	view := s.builder.Overview(c.Request.Context())
	banner(c, view.Error, view)
}

func (s *Server) customerAnalytics(c *gin.Context) {
	view := s.builder.CustomerAnalytics(c.Request.Context())
	banner(c, view.Error, view)
}

type transactionParams struct {
	Category string `form:"category" binding:"omitempty,oneof=grocery restaurant gas retail entertainment healthcare utilities transport banking income"`
	DateFrom string `form:"date_from" binding:"omitempty,datetime=2006-01-02"`
	DateTo   string `form:"date_to" binding:"omitempty,datetime=2006-01-02"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=1000"`
}

func (s *Server) customer(c *gin.Context) {
	var params transactionParams
	if err := c.ShouldBindQuery(&params); err != nil {
		s.badRequest(c, "invalid query parameters", err)
		return
	}
	view := s.builder.Customer(c.Request.Context(), c.Param("id"), model.TransactionQuery{
		Category: model.Category(params.Category),
		DateFrom: params.DateFrom,
		DateTo:   params.DateTo,
		Page:     params.Page,
		PageSize: params.PageSize,
	})
	if view.NotFound {
		status, _ := errorStatus(common.ErrNotFound)
		c.JSON(status, view)
		return
	}
	banner(c, view.Error, view)
}

type daysParams struct {
	Days int `form:"days"`
}

func (s *Server) transactionAnalytics(c *gin.Context) {
	var params daysParams
	if err := c.ShouldBindQuery(&params); err != nil {
		s.badRequest(c, "days must be a number", err)
		return
	}
	view, err := s.builder.TransactionAnalytics(c.Request.Context(), params.Days)
	if err != nil {
		s.writeError(c, err, "failed to load transaction analytics")
		return
	}
	countSource("transaction-analytics", view.Source)
	c.JSON(http.StatusOK, view)
}

type customerParams struct {
	Search    string `form:"search" binding:"omitempty,max=128"`
	Location  string `form:"location" binding:"omitempty,max=128"`
	RiskLevel string `form:"risk_level" binding:"omitempty,oneof=Low Medium High Critical"`
	Page      int    `form:"page" binding:"omitempty,min=1"`
	PageSize  int    `form:"page_size" binding:"omitempty,min=1,max=500"`
	AgeMin    int    `form:"age_min" binding:"omitempty,min=18,max=100"`
	AgeMax    int    `form:"age_max" binding:"omitempty,min=18,max=100"`
}

func (s *Server) churn(c *gin.Context) {
	var params customerParams
	if err := c.ShouldBindQuery(&params); err != nil {
		s.badRequest(c, "invalid query parameters", err)
		return
	}
	view := s.builder.Churn(c.Request.Context(), model.CustomerQuery{
		Search:    params.Search,
		Location:  params.Location,
		RiskLevel: model.RiskLevel(params.RiskLevel),
		Page:      params.Page,
		PageSize:  params.PageSize,
		AgeMin:    params.AgeMin,
		AgeMax:    params.AgeMax,
	})
	banner(c, view.Error, view)
}

// predictRequest is a churn request, optionally with the probability already
// known for the customer.
type predictRequest struct {
	ChurnProbability *float64 `json:"churn_probability,omitempty" binding:"omitempty,gte=0,lte=1"`
	model.ChurnPredictionRequest
}

func (s *Server) predictChurn(c *gin.Context) {
	var req predictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, "invalid request body", err)
		return
	}

	var profile *model.Customer
	if req.ChurnProbability != nil {
		profile = &model.Customer{
			CustomerID:               req.CustomerID,
			DaysSinceLastTransaction: req.DaysSinceLastTransaction,
			TotalTransactions:        req.TotalTransactions,
			AvgTransactionAmount:     req.AvgTransactionAmount,
			TotalAmount:              req.TotalAmount,
			ChurnProbability:         *req.ChurnProbability,
		}
	}

	view, err := s.builder.PredictChurn(c.Request.Context(), req.ChurnPredictionRequest, profile)
	if err != nil {
		s.writeError(c, err, "failed to predict churn")
		return
	}
	c.JSON(http.StatusOK, view)
}

func (s *Server) fraud(c *gin.Context) {
	var params daysParams
	if err := c.ShouldBindQuery(&params); err != nil {
		s.badRequest(c, "days must be a number", err)
		return
	}
	view, err := s.builder.Fraud(c.Request.Context(), params.Days)
	if err != nil {
		s.writeError(c, err, "failed to load fraud view")
		return
	}
	countSource("fraud", view.Source)
	c.JSON(http.StatusOK, view)
}

func (s *Server) segmentation(c *gin.Context) {
	view := s.builder.Segmentation(c.Request.Context())
	countSource("segmentation", view.Source)
	c.JSON(http.StatusOK, view)
}

func (s *Server) modelInsights(c *gin.Context) {
	view := s.builder.ModelInsights(c.Request.Context())
	countSource("model-insights", view.Source)
	c.JSON(http.StatusOK, view)
}

func (s *Server) featureEngineering(c *gin.Context) {
	modelType := c.Query("model_type")
	if modelType != "" && modelType != "churn" && modelType != "fraud" && modelType != "segment" {
		s.badRequest(c, "model_type must be churn, fraud or segment", nil)
		return
	}
	c.JSON(http.StatusOK, s.builder.FeatureEngineering(c.Request.Context(), c.Query("customer_id"), modelType))
}

func (s *Server) apiDocumentation(c *gin.Context) {
	c.JSON(http.StatusOK, s.builder.APIDocumentation())
}

func (s *Server) docsHub(c *gin.Context) {
	c.JSON(http.StatusOK, s.builder.Library().Hub)
}

func (s *Server) docsPage(c *gin.Context) {
	page, err := s.builder.Library().Page(c.Param("slug"))
	if err != nil {
		s.writeError(c, err, fmt.Sprintf("no documentation page %q", c.Param("slug")))
		return
	}
	c.JSON(http.StatusOK, page)
}

func (s *Server) troubleshooting(c *gin.Context) {
	lib := s.builder.Library()
	issues, err := lib.Issues(c.Query("category"), c.Query("q"))
	if err != nil {
		s.writeError(c, err, "invalid search")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"categories": lib.Troubleshooting.Categories,
		"issues":     issues,
	})
}

func (s *Server) changelog(c *gin.Context) {
	c.JSON(http.StatusOK, s.builder.Library().Changelog)
}

func (s *Server) search(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		s.badRequest(c, "q is required", nil)
		return
	}
	hits, err := s.builder.Library().Search(q)
	if err != nil {
		s.writeError(c, err, "invalid search")
		return
	}
	c.JSON(http.StatusOK, gin.H{"query": q, "hits": hits})
}

func (s *Server) navigation(c *gin.Context) {
	c.JSON(http.StatusOK, s.builder.Library().Navigation)
}

type probeRequest struct {
	Method string          `json:"method" binding:"omitempty,oneof=GET POST PUT DELETE get post put delete"`
	Path   string          `json:"path" binding:"required,startswith=/"`
	Body   json.RawMessage `json:"body,omitempty"`
}

func (s *Server) probe(c *gin.Context) {
	var req probeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, "invalid probe request", err)
		return
	}
	var body any
	if len(req.Body) > 0 {
		body = req.Body
	}
	c.JSON(http.StatusOK, s.api.Probe(c.Request.Context(), req.Method, req.Path, body))
}

type historyParams struct {
	CustomerID string `form:"customer_id"`
	Limit      int    `form:"limit" binding:"omitempty,min=1,max=1000"`
}

func (s *Server) predictionHistory(c *gin.Context) {
	if s.store == nil {
		s.writeError(c, common.ErrStorageDisabled, "prediction history requires storage")
		return
	}
	var params historyParams
	if err := c.ShouldBindQuery(&params); err != nil {
		s.badRequest(c, "invalid query parameters", err)
		return
	}
	if params.Limit == 0 {
		params.Limit = defaultHistoryLimit
	}

	records, err := s.store.PredictionHistory(c.Request.Context(), params.CustomerID, params.Limit)
	if err != nil {
		s.writeError(c, err, "failed to load prediction history")
		return
	}
	if records == nil {
		records = []model.PredictionRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"customer_id": params.CustomerID, "predictions": records})
}
