package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/rustyeddy/tradegate/broker"
	"github.com/rustyeddy/tradegate/journal"
	"github.com/rustyeddy/tradegate/portfolio"
	"github.com/rustyeddy/tradegate/risk"
)

type tradeRequest struct {
	Symbol    string  `json:"symbol" binding:"required"`
	Quantity  int64   `json:"quantity" binding:"required"`
	Price     float64 `json:"price"`
	TradeType string  `json:"trade_type" binding:"required"`
	User      string  `json:"user"`
}

type tradeResponse struct {
	Decision portfolio.Decision `json:"decision"`
	OrderID  string             `json:"order_id,omitempty"`
	Risk     *risk.Assessment   `json:"risk,omitempty"`
}

type assessRequest struct {
	Symbol    string  `json:"symbol" binding:"required"`
	Quantity  int64   `json:"quantity" binding:"required"`
	Price     float64 `json:"price" binding:"required"`
	Side      string  `json:"side" binding:"required"`
	TradeType string  `json:"trade_type" binding:"required"`
}

type signalRequest struct {
	Symbol string  `json:"symbol" binding:"required"`
	Action string  `json:"action" binding:"required"`
	Price  float64 `json:"price"`
}

func isValidationFault(err error) bool {
	return errors.Is(err, portfolio.ErrInvalidQuantity) ||
		errors.Is(err, portfolio.ErrInvalidPrice) ||
		errors.Is(err, portfolio.ErrUnknownTradeType) ||
		errors.Is(err, portfolio.ErrUnknownSide)
}

func (s *Server) getPortfolio(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"holdings": s.engine.Portfolio(),
		"cash":     s.engine.CashBalance(),
	})
}

func (s *Server) getStats(c *gin.Context) {
	stats, err := s.engine.DailyTradeStats()
	if err != nil {
		s.internalError(c, "DailyTradeStats", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) getLimits(c *gin.Context) {
	c.JSON(http.StatusOK, s.cfg.Trade)
}

func (s *Server) resetStats(c *gin.Context) {
	user := c.Query("user")
	if user == "" {
		user = "api"
	}
	if err := s.engine.ResetDailyLimits(user); err != nil {
		s.internalError(c, "ResetDailyLimits", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reset": true})
}

func (s *Server) getAudit(c *gin.Context) {
	date := strings.TrimSpace(c.Query("date"))
	if date == "" {
		date = time.Now().In(s.engine.Settings().Location).Format(journal.DateFormat)
	} else if _, err := time.Parse(journal.DateFormat, date); err != nil {
		s.badRequest(c, "date must be YYYY-MM-DD")
		return
	}

	entries, err := s.jrnl.AuditByDate(date)
	if err != nil {
		s.internalError(c, "AuditByDate", err)
		return
	}
	if entries == nil {
		entries = []journal.AuditEntry{}
	}
	c.JSON(http.StatusOK, entries)
}

func (s *Server) postBuy(c *gin.Context) {
	var req tradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err.Error())
		return
	}
	tt, err := portfolio.ParseTradeType(req.TradeType)
	if err != nil {
		s.badRequest(c, err.Error())
		return
	}
	if req.Quantity <= 0 || req.Price <= 0 {
		s.badRequest(c, "quantity and price must be positive")
		return
	}
	price := decimal.NewFromFloat(req.Price)

	assessment, err := s.scorer.AssessTradeRisk(req.Symbol, req.Quantity, price, portfolio.SideBuy, tt)
	if err != nil {
		s.badRequest(c, err.Error())
		return
	}
	if !assessment.IsTradeAllowed {
		c.JSON(http.StatusOK, tradeResponse{
			Decision: portfolio.Decision{Reason: assessment.Reason},
			Risk:     &assessment,
		})
		return
	}

	decision, orderID, err := s.engine.ExecuteBuy(c.Request.Context(), req.Symbol, req.Quantity, price, tt, req.User,
		func(ctx context.Context) (string, error) {
			return s.broker.PlaceOrder(ctx, broker.OrderRequest{
				Symbol:    req.Symbol,
				Quantity:  req.Quantity,
				Price:     price,
				Side:      portfolio.SideBuy,
				OrderType: "LIMIT",
			})
		})
	if err != nil {
		if isValidationFault(err) {
			s.badRequest(c, err.Error())
			return
		}
		s.internalError(c, "ExecuteBuy", err)
		return
	}
	c.JSON(http.StatusOK, tradeResponse{Decision: decision, OrderID: orderID, Risk: &assessment})
}

func (s *Server) postSell(c *gin.Context) {
	var req tradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err.Error())
		return
	}
	tt, err := portfolio.ParseTradeType(req.TradeType)
	if err != nil {
		s.badRequest(c, err.Error())
		return
	}
	if req.Quantity <= 0 {
		s.badRequest(c, "quantity must be positive")
		return
	}

	// Sells are valued at the holding's last traded price; assess risk only
	// when the position actually exists.
	var assessment *risk.Assessment
	for _, h := range s.engine.Portfolio() {
		if h.Symbol == req.Symbol {
			a, err := s.scorer.AssessTradeRisk(req.Symbol, req.Quantity, h.LastTradedPrice, portfolio.SideSell, tt)
			if err != nil {
				s.badRequest(c, err.Error())
				return
			}
			assessment = &a
			break
		}
	}

	decision, orderID, err := s.engine.ExecuteSell(c.Request.Context(), req.Symbol, req.Quantity, tt, req.User,
		func(ctx context.Context, price decimal.Decimal) (string, error) {
			return s.broker.PlaceOrder(ctx, broker.OrderRequest{
				Symbol:    req.Symbol,
				Quantity:  req.Quantity,
				Price:     price,
				Side:      portfolio.SideSell,
				OrderType: "LIMIT",
			})
		})
	if err != nil {
		if isValidationFault(err) {
			s.badRequest(c, err.Error())
			return
		}
		s.internalError(c, "ExecuteSell", err)
		return
	}
	c.JSON(http.StatusOK, tradeResponse{Decision: decision, OrderID: orderID, Risk: assessment})
}

func (s *Server) postAssess(c *gin.Context) {
	var req assessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err.Error())
		return
	}
	side, err := portfolio.ParseSide(req.Side)
	if err != nil {
		s.badRequest(c, err.Error())
		return
	}
	tt, err := portfolio.ParseTradeType(req.TradeType)
	if err != nil {
		s.badRequest(c, err.Error())
		return
	}

	assessment, err := s.scorer.AssessTradeRisk(req.Symbol, req.Quantity, decimal.NewFromFloat(req.Price), side, tt)
	if err != nil {
		if isValidationFault(err) {
			s.badRequest(c, err.Error())
			return
		}
		s.internalError(c, "AssessTradeRisk", err)
		return
	}
	c.JSON(http.StatusOK, assessment)
}

func (s *Server) getMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, s.scorer.Metrics())
}

func (s *Server) postSignal(c *gin.Context) {
	var req signalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("Signal received: %s -> %s", req.Symbol, strings.ToUpper(req.Action)),
	})
}
