package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/MarkoPoloResearchLab/homeboard/internal/model"
)

const (
	jsonKeyInvites = "invites"

	logEventListInvites  = "list_invites_failed"
	logEventCreateInvite = "create_invite_failed"
	logEventDeleteInvite = "delete_invite_failed"
	logFieldInviteID     = "invite_id"
)

type inviteResponse struct {
	ID           string    `json:"id"`
	Token        string    `json:"token"`
	CreatorEmail string    `json:"creator_email"`
	ExpiresAt    time.Time `json:"expires_at"`
	CreatedAt    time.Time `json:"created_at"`
	Expired      bool      `json:"expired"`
}

type InviteHandlers struct {
	database *gorm.DB
	logger   *zap.Logger
	clock    func() time.Time
}

func NewInviteHandlers(database *gorm.DB, logger *zap.Logger) *InviteHandlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InviteHandlers{database: database, logger: logger, clock: time.Now}
}

func (handlers *InviteHandlers) List(context *gin.Context) {
	invites, listErr := listInvites(handlers.database.WithContext(context.Request.Context()))
	if listErr != nil {
		handlers.logger.Warn(logEventListInvites, zap.Error(listErr))
		context.JSON(http.StatusInternalServerError, gin.H{jsonKeyError: errorValueQueryFailed})
		return
	}
	now := handlers.clock()
	responses := make([]inviteResponse, 0, len(invites))
	for _, invite := range invites {
		responses = append(responses, newInviteResponse(invite, now))
	}
	context.JSON(http.StatusOK, gin.H{jsonKeyInvites: responses})
}

// Create issues an invite on behalf of the signed-in user.
func (handlers *InviteHandlers) Create(context *gin.Context) {
	currentUser, ok := CurrentUserFromContext(context)
	if !ok {
		context.JSON(http.StatusUnauthorized, gin.H{jsonKeyError: authErrorUnauthorized})
		return
	}
	now := handlers.clock().UTC()
	invite, inviteErr := model.NewInvite(model.InviteInput{CreatorEmail: currentUser.Email, IssuedAt: now})
	if inviteErr != nil {
		context.JSON(http.StatusBadRequest, gin.H{jsonKeyError: inviteErr.Error()})
		return
	}
	if createErr := handlers.database.WithContext(context.Request.Context()).Create(&invite).Error; createErr != nil {
		handlers.logger.Warn(logEventCreateInvite, zap.Error(createErr))
		context.JSON(http.StatusInternalServerError, gin.H{jsonKeyError: errorValueSaveFailed})
		return
	}
	context.JSON(http.StatusCreated, newInviteResponse(invite, now))
}

func (handlers *InviteHandlers) Delete(context *gin.Context) {
	inviteID := context.Param("id")
	result := handlers.database.WithContext(context.Request.Context()).Delete(&model.Invite{}, "id = ?", inviteID)
	if result.Error != nil {
		handlers.logger.Warn(logEventDeleteInvite, zap.String(logFieldInviteID, inviteID), zap.Error(result.Error))
		context.JSON(http.StatusInternalServerError, gin.H{jsonKeyError: errorValueDeleteFailed})
		return
	}
	if result.RowsAffected == 0 {
		context.JSON(http.StatusNotFound, gin.H{jsonKeyError: errorValueUnknownInvite})
		return
	}
	context.Status(http.StatusNoContent)
}

func listInvites(database *gorm.DB) ([]model.Invite, error) {
	var invites []model.Invite
	if err := database.Order("created_at desc").Find(&invites).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return invites, nil
}

func newInviteResponse(invite model.Invite, now time.Time) inviteResponse {
	return inviteResponse{
		ID:           invite.ID,
		Token:        invite.Token,
		CreatorEmail: invite.CreatorEmail,
		ExpiresAt:    invite.ExpiresAt.UTC(),
		CreatedAt:    invite.CreatedAt.UTC(),
		Expired:      invite.Expired(now),
	}
}
