package controllers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"path"
	"strconv"

	"maidops/src/earnings"
	"maidops/src/errs"
	"maidops/src/loyalty"
	"maidops/src/types"
	"maidops/src/utils"

	"github.com/gin-gonic/gin"
	"github.com/yeqown/go-qrcode"
)

// housemaidFor resolves whose earnings are read: housemaids read their own,
// admins pass ?housemaidId=.
func housemaidFor(ctx *gin.Context) (uint, error) {
	actor := ActorFrom(ctx)
	if actor.Type == types.ACTOR_HOUSEMAID && actor.ID != nil {
		return *actor.ID, nil
	}
	if actor.Type != types.ACTOR_ADMIN && actor.Type != types.ACTOR_SYSTEM {
		return 0, errs.E(errs.NotFound, "housemaidFor", "no housemaid profile for caller")
	}
	id, err := strconv.ParseUint(ctx.Query("housemaidId"), 10, 64)
	if err != nil || id == 0 {
		return 0, errs.E(errs.InvalidInput, "housemaidFor", "housemaidId is required")
	}
	return uint(id), nil
}

func (a *API) EarningsSummary(ctx *gin.Context) (*earnings.Summary, int, error) {
	housemaidID, err := housemaidFor(ctx)
	if err != nil {
		return nil, StatusFor(err), err
	}
	summary, err := a.Earnings.Summary(ctx, housemaidID)
	if err != nil {
		log.Printf("Error retrieving earnings summary for housemaid %d: %s\n", housemaidID, err.Error())
		return nil, StatusFor(err), err
	}
	return summary, http.StatusOK, nil
}

func (a *API) EarningDetails(ctx *gin.Context, identifier string) (*earnings.Details, int, error) {
	details, err := a.Earnings.GetDetails(ctx, identifier)
	if err != nil {
		return nil, StatusFor(err), err
	}
	actor := ActorFrom(ctx)
	if actor.Type == types.ACTOR_HOUSEMAID && (actor.ID == nil || *actor.ID != details.HousemaidID) {
		err := errs.E(errs.NotFound, "EarningDetails", "earning %s not found", identifier)
		return nil, http.StatusNotFound, err
	}
	if actor.Type == types.ACTOR_CUSTOMER {
		err := errs.E(errs.NotFound, "EarningDetails", "earning %s not found", identifier)
		return nil, http.StatusNotFound, err
	}
	return details, http.StatusOK, nil
}

// EarningReceipt renders the receipt as a QR code holding the encrypted
// receipt payload and returns the image path.
func (a *API) EarningReceipt(ctx *gin.Context, identifier string) (string, int, error) {
	details, status, err := a.EarningDetails(ctx, identifier)
	if err != nil {
		return "", status, err
	}
	if len(a.QRCKey) == 0 {
		err := errs.E(errs.Internal, "EarningReceipt", "receipt key is not configured")
		return "", http.StatusInternalServerError, err
	}
	raw, _ := json.Marshal(map[string]any{
		"receiptNumber": details.ReceiptNumber,
		"bookingCode":   details.BookingCode,
		"housemaidId":   details.HousemaidID,
		"total":         details.Breakdown.WorkerTotal,
	})
	encryptedMessage, err := utils.EncryptMessage(a.QRCKey, string(raw))
	if err != nil {
		log.Printf("Error encrypting message: %s\n", err.Error())
		return "", http.StatusInternalServerError, err
	}
	qrc, err := qrcode.New(encryptedMessage)
	if err != nil {
		return "", http.StatusInternalServerError, err
	}
	if err := os.MkdirAll(a.TempDir, 0o755); err != nil {
		return "", http.StatusInternalServerError, err
	}
	filepath := path.Join(a.TempDir, fmt.Sprintf("%s.jpeg", details.ReceiptNumber))
	if err := qrc.Save(filepath); err != nil {
		log.Printf("Could not save qrcode to file [%s]: %s\n", filepath, err.Error())
		return "", http.StatusInternalServerError, err
	}
	return filepath, http.StatusOK, nil
}

func (a *API) AsensoBalance(ctx *gin.Context) (*loyalty.Balance, int, error) {
	housemaidID, err := housemaidFor(ctx)
	if err != nil {
		return nil, StatusFor(err), err
	}
	balance, err := a.Loyalty.Balance(ctx, housemaidID)
	if err != nil {
		return nil, StatusFor(err), err
	}
	return balance, http.StatusOK, nil
}
