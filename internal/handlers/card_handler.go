package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "meloch/internal/errors"
	"meloch/internal/ledger"
	"meloch/internal/models"
	"meloch/internal/services"
)

// CardHandler handles card and wallet requests.
type CardHandler struct {
	cardService  services.CardServicer
	auditService services.AuditServicer
}

// NewCardHandler creates a new CardHandler.
func NewCardHandler(cardService services.CardServicer, auditService services.AuditServicer) *CardHandler {
	return &CardHandler{cardService: cardService, auditService: auditService}
}

// CreateCardRequest represents the request payload for adding a card.
// The security code is intentionally absent; it is never accepted.
type CreateCardRequest struct {
	CardNumber     string       `json:"card_number" binding:"required,numeric,min=4,max=19"`
	CardholderName string       `json:"cardholder_name" binding:"required,max=100"`
	BankName       string       `json:"bank_name" binding:"max=100"`
	ExpiryMonth    int          `json:"expiry_month" binding:"required,min=1,max=12"`
	ExpiryYear     int          `json:"expiry_year" binding:"required,min=0,max=9999"`
	Type           string       `json:"type" binding:"required,card_type"`
	Balance        ledger.Money `json:"balance" swaggertype:"string"`
}

// SetPocketMoneyRequest represents the request payload for setting pocket money
type SetPocketMoneyRequest struct {
	Amount ledger.Money `json:"amount" swaggertype:"string" binding:"nonnegative_decimal"`
}

// CardResponse represents a card in the response, with the number masked.
type CardResponse struct {
	ID             uint            `json:"id"`
	ExternalID     string          `json:"external_id"`
	CardNumber     string          `json:"card_number"`
	CardholderName string          `json:"cardholder_name"`
	BankName       string          `json:"bank_name"`
	ExpiryDate     string          `json:"expiry_date"`
	Type           models.CardType `json:"type"`
	Balance        ledger.Money    `json:"balance" swaggertype:"string"`
}

// WalletResponse is the user's pocket money together with their cards.
type WalletResponse struct {
	PocketMoney ledger.Money   `json:"pocket_money" swaggertype:"string"`
	Currency    string         `json:"currency"`
	CardsTotal  ledger.Money   `json:"cards_total" swaggertype:"string"`
	Cards       []CardResponse `json:"cards"`
}

func maskCardNumber(n string) string {
	if len(n) <= 4 {
		return n
	}
	return strings.Repeat("*", len(n)-4) + n[len(n)-4:]
}

func toCardResponse(c *models.Card) CardResponse {
	return CardResponse{
		ID:             c.ID,
		ExternalID:     c.ExternalID,
		CardNumber:     maskCardNumber(c.CardNumber),
		CardholderName: c.CardholderName,
		BankName:       c.BankName,
		ExpiryDate:     c.ExpiryDate(),
		Type:           c.Type,
		Balance:        c.Balance,
	}
}

// CreateCard adds a card to the wallet
// @Summary     Add card
// @Tags        cards
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateCardRequest true "Card details"
// @Success     201 {object} CardResponse "Card added"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /cards [post]
func (h *CardHandler) CreateCard(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	card, err := h.cardService.AddCard(userID, &models.Card{
		CardNumber:     req.CardNumber,
		CardholderName: req.CardholderName,
		BankName:       req.BankName,
		ExpiryMonth:    req.ExpiryMonth,
		ExpiryYear:     req.ExpiryYear % 100,
		Type:           models.CardType(strings.ToUpper(req.Type)),
		Balance:        req.Balance,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "ADD_CARD", "card", strconv.FormatUint(uint64(card.ID), 10), c.ClientIP(),
		map[string]any{"type": card.Type, "bank_name": card.BankName})

	c.JSON(http.StatusCreated, gin.H{"card": toCardResponse(card)})
}

// GetUserCards lists the user's cards
// @Summary     List cards
// @Tags        cards
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array} CardResponse "Cards"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /cards [get]
func (h *CardHandler) GetUserCards(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	cards, err := h.cardService.GetUserCards(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	out := make([]CardResponse, 0, len(cards))
	for i := range cards {
		out = append(out, toCardResponse(&cards[i]))
	}
	c.JSON(http.StatusOK, gin.H{"cards": out})
}

// DeleteCard removes a card
// @Summary     Delete card
// @Tags        cards
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Card ID"
// @Success     200 {object} MessageResponse "Card deleted"
// @Failure     400 {object} ErrorResponse "Invalid card ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Card not found"
// @Router      /cards/{id} [delete]
func (h *CardHandler) DeleteCard(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	cardID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.cardService.DeleteCard(userID, cardID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_CARD", "card", c.Param("id"), c.ClientIP(), nil)
	c.JSON(http.StatusOK, MessageResponse{Message: "Card deleted"})
}

// GetWallet returns pocket money and cards
// @Summary     Wallet
// @Tags        cards
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} WalletResponse "Wallet"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /wallet [get]
func (h *CardHandler) GetWallet(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	wallet, err := h.cardService.GetWallet(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	cards, err := h.cardService.GetUserCards(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	resp := WalletResponse{
		PocketMoney: wallet.PocketMoney,
		Currency:    wallet.Currency,
		CardsTotal:  decimal.Zero,
		Cards:       make([]CardResponse, 0, len(cards)),
	}
	for i := range cards {
		resp.CardsTotal = resp.CardsTotal.Add(cards[i].Balance)
		resp.Cards = append(resp.Cards, toCardResponse(&cards[i]))
	}
	c.JSON(http.StatusOK, resp)
}

// SetPocketMoney sets the cash the user carries
// @Summary     Set pocket money
// @Tags        cards
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body SetPocketMoneyRequest true "Amount"
// @Success     200 {object} models.Wallet "Wallet"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /wallet/pocket-money [put]
func (h *CardHandler) SetPocketMoney(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req SetPocketMoneyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	wallet, err := h.cardService.SetPocketMoney(userID, req.Amount)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "SET_POCKET_MONEY", "wallet", "", c.ClientIP(),
		map[string]any{"amount": req.Amount.String()})
	c.JSON(http.StatusOK, gin.H{"wallet": wallet})
}
