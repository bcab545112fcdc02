package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"profilehub/api/internal/apperr"
	"profilehub/api/internal/models"
	"profilehub/api/internal/repository"
	"profilehub/api/internal/security"
)

type profileResponse struct {
	ID          string             `json:"id"`
	FullName    string             `json:"fullName"`
	Avatar      *string            `json:"avatar"`
	Bio         string             `json:"bio"`
	SocialLinks models.SocialLinks `json:"socialLinks"`
	Preferences models.Preferences `json:"preferences"`
	CreatedAt   time.Time          `json:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt"`
}

func toProfileResponse(profile models.Profile) profileResponse {
	return profileResponse{
		ID:          profile.ID,
		FullName:    profile.FullName,
		Avatar:      profile.Avatar,
		Bio:         profile.Bio,
		SocialLinks: profile.SocialLinks,
		Preferences: profile.Preferences,
		CreatedAt:   profile.CreatedAt,
		UpdatedAt:   profile.UpdatedAt,
	}
}

func (h HandlerSet) ListUsers(c *gin.Context) {
	params := repository.ListParams{
		Page:      1,
		Limit:     10,
		Search:    c.Query("search"),
		SortBy:    c.Query("sortBy"),
		SortOrder: c.Query("sortOrder"),
	}
	if page := c.Query("page"); page != "" {
		if v, err := strconv.Atoi(page); err == nil && v > 0 {
			params.Page = v
		}
	}
	if limit := c.Query("limit"); limit != "" {
		if v, err := strconv.Atoi(limit); err == nil && v > 0 && v <= 100 {
			params.Limit = v
		}
	}

	profiles, page, err := h.userService.ListProfiles(c.Request.Context(), params)
	if err != nil {
		respondError(c, err)
		return
	}

	items := make([]profileResponse, 0, len(profiles))
	for _, profile := range profiles {
		items = append(items, toProfileResponse(profile))
	}

	c.JSON(http.StatusOK, gin.H{
		"data": items,
		"pagination": gin.H{
			"page":       page.Page,
			"limit":      page.Limit,
			"total":      page.Total,
			"totalPages": page.TotalPages,
		},
	})
}

func (h HandlerSet) GetUser(c *gin.Context) {
	profile, err := h.userService.GetProfile(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	counts, err := h.userService.FollowCounts(c.Request.Context(), profile.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	// The route is public; a valid bearer token only enriches the view.
	isFollowing, err := h.userService.IsFollowing(c.Request.Context(), h.viewerID(c), profile.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":        toProfileResponse(profile),
		"followers":   counts.Followers,
		"following":   counts.Following,
		"isFollowing": isFollowing,
	})
}

// viewerID identifies the requester on public routes. Anonymous or
// unverifiable requests get an empty id.
func (h HandlerSet) viewerID(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	claims, err := security.ParseAccessToken(strings.TrimPrefix(header, "Bearer "), h.cfg.Security.JWTAccessSecret)
	if err != nil {
		return ""
	}
	return claims.AccountID
}

type updateProfileRequest struct {
	FullName    *string             `json:"fullName" binding:"omitempty,min=1,max=100"`
	Bio         *string             `json:"bio" binding:"omitempty,max=500"`
	SocialLinks *models.SocialLinks `json:"socialLinks"`
	Preferences *models.Preferences `json:"preferences"`
}

func (h HandlerSet) UpdateProfile(c *gin.Context) {
	account, ok := currentAccount(c)
	if !ok {
		respondKind(c, apperr.KindTokenMissing, "unauthorized")
		return
	}

	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondKind(c, apperr.KindValidation, err.Error())
		return
	}

	profile, err := h.userService.UpdateProfile(c.Request.Context(), account.ID, models.ProfilePatch{
		FullName:    req.FullName,
		Bio:         req.Bio,
		SocialLinks: req.SocialLinks,
		Preferences: req.Preferences,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": toProfileResponse(profile)})
}

const maxAvatarBytes = 5 << 20

func (h HandlerSet) UploadAvatar(c *gin.Context) {
	account, ok := currentAccount(c)
	if !ok {
		respondKind(c, apperr.KindTokenMissing, "unauthorized")
		return
	}

	file, err := c.FormFile("avatar")
	if err != nil {
		respondKind(c, apperr.KindValidation, "avatar file required")
		return
	}
	if file.Size > maxAvatarBytes {
		respondKind(c, apperr.KindValidation, "avatar exceeds 5MB")
		return
	}

	src, err := file.Open()
	if err != nil {
		respondKind(c, apperr.KindInternal, "read upload failed")
		return
	}
	defer src.Close()

	url, err := h.store.PutAvatar(c.Request.Context(), account.ID, src, file.Size, file.Header.Get("Content-Type"))
	if err != nil {
		h.log.Error().Err(err).Str("account_id", account.ID).Msg("avatar upload failed")
		respondKind(c, apperr.KindInternal, "avatar upload failed")
		return
	}

	profile, err := h.userService.SetAvatar(c.Request.Context(), account.ID, url)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": toProfileResponse(profile)})
}

func (h HandlerSet) DeleteUser(c *gin.Context) {
	if _, err := h.authService.DeleteAccount(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h HandlerSet) Follow(c *gin.Context) {
	account, ok := currentAccount(c)
	if !ok {
		respondKind(c, apperr.KindTokenMissing, "unauthorized")
		return
	}

	if err := h.userService.Follow(c.Request.Context(), account.ID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h HandlerSet) Unfollow(c *gin.Context) {
	account, ok := currentAccount(c)
	if !ok {
		respondKind(c, apperr.KindTokenMissing, "unauthorized")
		return
	}

	if err := h.userService.Unfollow(c.Request.Context(), account.ID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

type followUserResponse struct {
	ID       string  `json:"id"`
	FullName string  `json:"fullName"`
	Avatar   *string `json:"avatar"`
}

func (h HandlerSet) Followers(c *gin.Context) {
	users, err := h.userService.Followers(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"followers": toFollowUserResponses(users)})
}

func (h HandlerSet) Following(c *gin.Context) {
	users, err := h.userService.Following(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"following": toFollowUserResponses(users)})
}

func toFollowUserResponses(users []models.FollowUser) []followUserResponse {
	resp := make([]followUserResponse, 0, len(users))
	for _, user := range users {
		resp = append(resp, followUserResponse{ID: user.ID, FullName: user.FullName, Avatar: user.Avatar})
	}
	return resp
}
