// Package api exposes the pool's read-only view operations
// (Slot0, Observe, SnapshotCumulativesInside) over HTTP, grounded on
// the teacher's gin-based quote handler. It never touches a mutator —
// every handler here calls a view method, which does not take the
// pool's reentrancy lock.
package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"

	"github.com/clamm-labs/clamm-core/pool"
)

// Response is the envelope every handler returns, matching the
// teacher's {code, message, data} shape.
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Handler serves the view surface for a single pool.
type Handler struct {
	pool *pool.Pool
}

// NewHandler constructs a Handler over an already-constructed pool.
func NewHandler(p *pool.Pool) *Handler {
	return &Handler{pool: p}
}

// SetupRoutes registers the view endpoints under /api/v1.
func SetupRoutes(r *gin.Engine, h *Handler) {
	v1 := r.Group("/api/v1")
	{
		v1.GET("/slot0", h.GetSlot0)
		v1.GET("/observe", h.Observe)
		v1.GET("/snapshot", h.SnapshotCumulativesInside)
	}
}

// Slot0Response mirrors pool.Slot0's exported fields as JSON.
type Slot0Response struct {
	SqrtPriceX96               string `json:"sqrtPriceX96"`
	Price                      string `json:"price"`
	Tick                       int32  `json:"tick"`
	ObservationIndex           uint16 `json:"observationIndex"`
	ObservationCardinality     uint16 `json:"observationCardinality"`
	ObservationCardinalityNext uint16 `json:"observationCardinalityNext"`
	FeeProtocol                uint8  `json:"feeProtocol"`
}

// GetSlot0 returns the pool's current price/tick/oracle pointer state.
func (h *Handler) GetSlot0(c *gin.Context) {
	slot0 := h.pool.Slot0()
	c.JSON(http.StatusOK, Response{
		Code:    200,
		Message: "success",
		Data: Slot0Response{
			SqrtPriceX96:               slot0.SqrtPriceX96.String(),
			Price:                      spotPrice(slot0.SqrtPriceX96).String(),
			Tick:                       slot0.Tick,
			ObservationIndex:           slot0.ObservationIndex,
			ObservationCardinality:     slot0.ObservationCardinality,
			ObservationCardinalityNext: slot0.ObservationCardinalityNext,
			FeeProtocol:                slot0.FeeProtocol,
		},
	})
}

// q96Decimal is 2^96 as a decimal.Decimal, the scale of a Q64.96 sqrt
// price. Built once since decimal.Decimal has no native shift operator.
var q96Decimal = decimalPow2(96)

func decimalPow2(n int) decimal.Decimal {
	d := decimal.New(1, 0)
	two := decimal.New(2, 0)
	for i := 0; i < n; i++ {
		d = d.Mul(two)
	}
	return d
}

// spotPrice converts a Q64.96 sqrt price into a human-readable
// token1-per-token0 price, the same figure the teacher's original pool
// model carried directly as a decimal.Decimal field.
func spotPrice(sqrtPriceX96 *uint256.Int) decimal.Decimal {
	ratio, _ := decimal.NewFromString(sqrtPriceX96.Dec())
	ratio = ratio.Div(q96Decimal)
	return ratio.Mul(ratio).Truncate(18)
}

// ObserveResponse carries the per-requested-lookback cumulative pair.
type ObserveResponse struct {
	TickCumulatives                  []int64  `json:"tickCumulatives"`
	SecondsPerLiquidityCumulativeX128 []string `json:"secondsPerLiquidityCumulativeX128"`
}

// Observe returns TWAP-input cumulatives for ?now=<unix> and one or more
// repeated secondsAgo parameters (?secondsAgo=0&secondsAgo=60).
func (h *Handler) Observe(c *gin.Context) {
	now, secondsAgos, err := parseObserveQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Code: 400, Message: err.Error()})
		return
	}

	tickCumulatives, splCumulatives, err := h.pool.Observe(now, secondsAgos)
	if err != nil {
		c.JSON(http.StatusInternalServerError, Response{Code: 500, Message: err.Error()})
		return
	}

	splStrings := make([]string, len(splCumulatives))
	for i, v := range splCumulatives {
		splStrings[i] = v.String()
	}

	c.JSON(http.StatusOK, Response{
		Code:    200,
		Message: "success",
		Data: ObserveResponse{
			TickCumulatives:                   tickCumulatives,
			SecondsPerLiquidityCumulativeX128: splStrings,
		},
	})
}

func parseObserveQuery(c *gin.Context) (now uint32, secondsAgos []uint32, err error) {
	nowParam, err := strconv.ParseUint(c.Query("now"), 10, 32)
	if err != nil {
		return 0, nil, err
	}
	now = uint32(nowParam)

	for _, s := range c.QueryArray("secondsAgo") {
		v, err := strconv.ParseUint(s, 10, 32)
		if err != nil {
			return 0, nil, err
		}
		secondsAgos = append(secondsAgos, uint32(v))
	}
	return now, secondsAgos, nil
}

// SnapshotResponse carries SnapshotCumulativesInside's three values.
type SnapshotResponse struct {
	TickCumulativeInside              int64  `json:"tickCumulativeInside"`
	SecondsPerLiquidityInsideX128 string `json:"secondsPerLiquidityInsideX128"`
	SecondsInside                 uint32 `json:"secondsInside"`
}

// SnapshotCumulativesInside handles ?tickLower=&tickUpper=&now=.
func (h *Handler) SnapshotCumulativesInside(c *gin.Context) {
	tickLower, err := strconv.ParseInt(c.Query("tickLower"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Code: 400, Message: "invalid tickLower: " + err.Error()})
		return
	}
	tickUpper, err := strconv.ParseInt(c.Query("tickUpper"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Code: 400, Message: "invalid tickUpper: " + err.Error()})
		return
	}
	now, err := strconv.ParseUint(c.Query("now"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Code: 400, Message: "invalid now: " + err.Error()})
		return
	}

	tickCumulativeInside, splInside, secondsInside, err := h.pool.SnapshotCumulativesInside(uint32(now), int32(tickLower), int32(tickUpper))
	if err != nil {
		c.JSON(http.StatusInternalServerError, Response{Code: 500, Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, Response{
		Code:    200,
		Message: "success",
		Data: SnapshotResponse{
			TickCumulativeInside:          tickCumulativeInside,
			SecondsPerLiquidityInsideX128: splInside.String(),
			SecondsInside:                 secondsInside,
		},
	})
}
