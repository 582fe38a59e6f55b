package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"

	dbt "wallet/db/db"
	"wallet/featureflag"
	applog "wallet/logger"
	"wallet/mq/mq"
	"wallet/send"
	"wallet/store"
	"wallet/tokens"
)

const maxActionBytes = 64 << 10

type handler struct {
	registry *store.Registry
	queues   mq.SendMessageQueueWrapper
	now      func() time.Time
	upgrader websocket.Upgrader
}

func abortWithError(c *gin.Context, status int, err error) {
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

func (h *handler) walletStore(c *gin.Context) (*store.Store, bool) {
	walletID, err := uuid.Parse(c.Param("id"))
	if err != nil || walletID == uuid.Nil {
		abortWithError(c, http.StatusBadRequest, errors.New("invalid wallet id"))
		return nil, false
	}
	s, err := h.registry.Get(walletID)
	if err != nil {
		applog.Web.Error().Err(err).Str("wallet", walletID.String()).Msg("failed to load wallet")
		abortWithError(c, http.StatusInternalServerError, errors.New("failed to load wallet"))
		return nil, false
	}
	return s, true
}

func readAction(c *gin.Context) (send.Action, []byte, bool) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxActionBytes))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err)
		return nil, nil, false
	}
	action, err := send.DecodeAction(body)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err)
		return nil, nil, false
	}
	return action, body, true
}

func (h *handler) getState(c *gin.Context) {
	s, ok := h.walletStore(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.State())
}

// dispatchAction applies the action synchronously and returns the new state.
func (h *handler) dispatchAction(c *gin.Context) {
	action, _, ok := readAction(c)
	if !ok {
		return
	}
	s, ok := h.walletStore(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.Dispatch(action))
}

// publishAction queues the action for the wallet's consumer.
func (h *handler) publishAction(c *gin.Context) {
	walletID, err := uuid.Parse(c.Param("id"))
	if err != nil || walletID == uuid.Nil {
		abortWithError(c, http.StatusBadRequest, errors.New("invalid wallet id"))
		return
	}
	action, body, ok := readAction(c)
	if !ok {
		return
	}
	if _, unknown := action.(send.Unknown); unknown {
		abortWithError(c, http.StatusUnprocessableEntity, errors.New("unknown or malformed action"))
		return
	}
	if err := h.queues.GetActionMessageQueue().Publish(mq.ActionMessage{WalletID: walletID, Action: body}); err != nil {
		applog.Web.Error().Err(err).Msg("failed to publish action")
		abortWithError(c, http.StatusServiceUnavailable, errors.New("failed to publish action"))
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"type": action.Type()})
}

type dailyResponse struct {
	Payments  []send.PaymentInfo `json:"payments"`
	Total     float64            `json:"total"`
	Remaining *float64           `json:"remaining,omitempty"`
}

func (h *handler) getDaily(c *gin.Context) {
	s, ok := h.walletStore(c)
	if !ok {
		return
	}
	state := s.State()
	now := h.now()

	resp := dailyResponse{
		Payments: send.PaymentsInLast24Hours(state, now),
		Total:    send.DailyTotal(state, now),
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.ParseFloat(raw, 64)
		if err != nil || limit < 0 || math.IsNaN(limit) || math.IsInf(limit, 0) {
			abortWithError(c, http.StatusBadRequest, errors.New("invalid limit"))
			return
		}
		remaining := send.DailyAmountRemaining(state, now, limit)
		resp.Remaining = &remaining
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handler) publishFeatureFlags(c *gin.Context) {
	var flags featureflag.Flags
	if err := c.ShouldBindJSON(&flags); err != nil {
		abortWithError(c, http.StatusBadRequest, err)
		return
	}
	if err := h.queues.GetFeatureFlagMessageQueue().Publish(mq.FeatureFlagMessage{Flags: flags}); err != nil {
		applog.Web.Error().Err(err).Msg("failed to publish feature flags")
		abortWithError(c, http.StatusServiceUnavailable, errors.New("failed to publish feature flags"))
		return
	}
	c.JSON(http.StatusAccepted, flags)
}

type ConvertKind string

const (
	ConvertLocalToToken ConvertKind = "localToToken"
	ConvertTokenToLocal ConvertKind = "tokenToLocal"
	ConvertToUSD        ConvertKind = "usd"
	ConvertBetween      ConvertKind = "between"
)

type convertRequest struct {
	tokens.Converter
	Kind            ConvertKind     `json:"kind" binding:"required"`
	Amount          decimal.Decimal `json:"amount"`
	TokenAddress    string          `json:"tokenAddress" binding:"required"`
	NewTokenAddress string          `json:"newTokenAddress"`
}

// convertResponse carries a null amount when a price or rate is missing.
type convertResponse struct {
	Amount *decimal.Decimal `json:"amount"`
}

func (h *handler) convertTokens(c *gin.Context) {
	var req convertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, err)
		return
	}

	var (
		amount decimal.Decimal
		ok     bool
	)
	switch req.Kind {
	case ConvertLocalToToken:
		amount, ok = req.LocalToTokenAmount(req.Amount, req.TokenAddress)
	case ConvertTokenToLocal:
		amount, ok = req.TokenToLocalAmount(req.Amount, req.TokenAddress)
	case ConvertToUSD:
		amount, ok = req.AmountAsUSD(req.Amount, req.TokenAddress)
	case ConvertBetween:
		if req.NewTokenAddress == "" {
			abortWithError(c, http.StatusBadRequest, errors.New("newTokenAddress is required"))
			return
		}
		amount, ok = tokens.ConvertBetweenTokens(req.Tokens, req.Amount, req.TokenAddress, req.NewTokenAddress)
	default:
		abortWithError(c, http.StatusBadRequest, errors.New("unknown conversion kind"))
		return
	}

	resp := convertResponse{}
	if ok {
		resp.Amount = &amount
	}
	c.JSON(http.StatusOK, resp)
}

type snapshotResponse struct {
	UpdatedAt time.Time       `json:"updatedAt"`
	Payload   json.RawMessage `json:"payload"`
}

// getSnapshots batches ?ids=a,b,c through the request's snapshot loader.
// Wallets without a snapshot are left out of the result.
func (h *handler) getSnapshots(c *gin.Context) {
	loader, err := snapshotLoader(c.Request.Context())
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err)
		return
	}

	var ids []uuid.UUID
	for _, raw := range strings.Split(c.Query("ids"), ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, errors.New("invalid wallet id "+strconv.Quote(raw)))
			return
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		abortWithError(c, http.StatusBadRequest, errors.New("ids is required"))
		return
	}

	thunks := make(map[uuid.UUID]func() (*dbt.Snapshot, error), len(ids))
	for _, id := range ids {
		thunks[id] = loader.GetSnapshot.LoadThunk(c.Request.Context(), id)
	}
	result := make(map[string]snapshotResponse, len(ids))
	for id, thunk := range thunks {
		snapshot, err := thunk()
		if err != nil || snapshot == nil || !json.Valid(snapshot.Payload) {
			continue
		}
		result[id.String()] = snapshotResponse{UpdatedAt: snapshot.UpdatedAt, Payload: snapshot.Payload}
	}
	c.JSON(http.StatusOK, gin.H{"snapshots": result})
}

func snapshotLoader(ctx context.Context) (*dbt.SnapshotDataLoader, error) {
	ginCtx, err := GinContextFromContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get Gin context: %w", err)
	}
	loader, ok := ginCtx.Value(string(dbt.DataLoaderKeySnapshot)).(*dbt.SnapshotDataLoader)
	if !ok {
		return nil, fmt.Errorf("snapshot data loader is not available")
	}
	return loader, nil
}
