package rest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/tipkeeper/internal/common"
	"github.com/dmitrijs2005/tipkeeper/internal/server/models"
	"github.com/labstack/echo/v4"
)

type walletResponse struct {
	Address *string `json:"address"`
	UID     string  `json:"uid"`
}

// quantity accepts a JSON integer or a decimal string ("5"), which is what
// existing web clients send.
type quantity int64

func (q *quantity) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return fmt.Errorf("qty %q is not an integer", s)
		}
		*q = quantity(n)
		return nil
	}
	var n int64
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*q = quantity(n)
	return nil
}

type qtyRequest struct {
	Qty quantity `json:"qty"`
}

type sendRequest struct {
	To         string   `json:"to"`
	Qty        quantity `json:"qty"`
	ReceiverID string `json:"receiverId,omitempty"`
	PublishID  string `json:"publishId,omitempty"`
}

type addressRequest struct {
	Address string `json:"address"`
}

// bind decodes the JSON body, reporting malformed input as a validation
// error.
func bind(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return fmt.Errorf("%w: malformed request body", common.ErrValidation)
	}
	return nil
}

func (s *Server) healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) verify(c echo.Context) error {
	admin, _ := c.Get(ctxAdmin).(bool)
	return c.JSON(http.StatusOK, map[string]any{"uid": userID(c), "admin": admin})
}

func (s *Server) createWallet(c echo.Context) error {
	uid := userID(c)
	w, err := s.wallets.GetOrCreateWallet(c.Request().Context(), uid)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, walletResponse{Address: &w.Address, UID: uid})
}

func (s *Server) walletAddress(c echo.Context) error {
	uid := userID(c)
	addr, ok, err := s.wallets.GetWalletAddress(c.Request().Context(), uid)
	if err != nil {
		return err
	}
	resp := walletResponse{UID: uid}
	if ok {
		resp.Address = &addr
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) balance(c echo.Context) error {
	b, err := s.wallets.Balance(c.Request().Context(), c.Param("address"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"balance": b})
}

func (s *Server) addTrackedAddress(c echo.Context) error {
	var body addressRequest
	if err := bind(c, &body); err != nil {
		return err
	}
	if err := s.wallets.AddTrackedAddress(c.Request().Context(), body.Address); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "Ok"})
}

func (s *Server) calculateTips(c echo.Context) error {
	var body qtyRequest
	if err := bind(c, &body); err != nil {
		return err
	}
	tips, err := s.tips.Calculate(c.Request().Context(), int64(body.Qty))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"tips": tips})
}

// sendTips answers {"result": null} when the transaction was mined but
// carried no transfer event.
func (s *Server) sendTips(c echo.Context) error {
	var body sendRequest
	if err := bind(c, &body); err != nil {
		return err
	}
	res, err := s.tips.Send(c.Request().Context(), models.TipTransferRequest{
		CallerID:   userID(c),
		Recipient:  body.To,
		Quantity:   int64(body.Qty),
		ReceiverID: body.ReceiverID,
		PublishID:  body.PublishID,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]*models.TipTransferResult{"result": res})
}
