package http

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/venturecrest/angelnet/internal/cms/application"
	"github.com/venturecrest/angelnet/internal/cms/domain"
	"github.com/venturecrest/angelnet/pkg/middleware"
	"github.com/venturecrest/angelnet/pkg/response"
)

// CMSHandler 站点内容 HTTP 接入层
type CMSHandler struct {
	svc         *application.CMSService
	maxFileSize int64
}

func NewCMSHandler(svc *application.CMSService, maxFileSize int64) *CMSHandler {
	return &CMSHandler{svc: svc, maxFileSize: maxFileSize}
}

// RegisterPublicRoutes 公开只读路由，仅返回已发布内容
func (h *CMSHandler) RegisterPublicRoutes(r *gin.RouterGroup) {
	r.GET("/team", h.ListPublishedTeam)
	r.GET("/partners", h.ListPublishedPartners)
}

// RegisterAdminRoutes 管理端内容维护路由
func (h *CMSHandler) RegisterAdminRoutes(r *gin.RouterGroup) {
	admin := r.Group("/admin/cms", middleware.RequireRole("admin"))
	{
		admin.GET("/team", h.ListAllTeam)
		admin.POST("/team", h.CreateTeamMember)
		admin.PUT("/team/:id", h.UpdateTeamMember)
		admin.DELETE("/team/:id", h.DeleteTeamMember)

		admin.GET("/partners", h.ListAllPartners)
		admin.POST("/partners", h.CreatePartner)
		admin.PUT("/partners/:id", h.UpdatePartner)
		admin.DELETE("/partners/:id", h.DeletePartner)

		admin.POST("/documents", h.UploadDocument)
		admin.GET("/documents", h.ListDocuments)
		admin.GET("/documents/:id", h.DownloadDocument)
		admin.DELETE("/documents/:id", h.DeleteDocument)
	}
}

type teamMemberRequest struct {
	Name         string `json:"name" binding:"required"`
	Title        string `json:"title"`
	Bio          string `json:"bio"`
	PhotoRef     string `json:"photo_ref"`
	DisplayOrder int    `json:"display_order"`
	Published    bool   `json:"published"`
}

func (h *CMSHandler) CreateTeamMember(c *gin.Context) {
	var req teamMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "INVALID_REQUEST")
		return
	}

	member, err := h.svc.CreateTeamMember(c.Request.Context(), application.TeamMemberCommand{
		Name:         req.Name,
		Title:        req.Title,
		Bio:          req.Bio,
		PhotoRef:     req.PhotoRef,
		DisplayOrder: req.DisplayOrder,
		Published:    req.Published,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, member)
}

func (h *CMSHandler) UpdateTeamMember(c *gin.Context) {
	var req teamMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "INVALID_REQUEST")
		return
	}

	member, err := h.svc.UpdateTeamMember(c.Request.Context(), c.Param("id"), application.TeamMemberCommand{
		Name:         req.Name,
		Title:        req.Title,
		Bio:          req.Bio,
		PhotoRef:     req.PhotoRef,
		DisplayOrder: req.DisplayOrder,
		Published:    req.Published,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, member)
}

func (h *CMSHandler) DeleteTeamMember(c *gin.Context) {
	if err := h.svc.DeleteTeamMember(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"success": true})
}

func (h *CMSHandler) ListPublishedTeam(c *gin.Context) {
	members, err := h.svc.ListTeamMembers(c.Request.Context(), true)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, members)
}

func (h *CMSHandler) ListAllTeam(c *gin.Context) {
	members, err := h.svc.ListTeamMembers(c.Request.Context(), false)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, members)
}

type partnerRequest struct {
	Name         string `json:"name" binding:"required"`
	Kind         string `json:"kind" binding:"required"`
	LogoRef      string `json:"logo_ref"`
	SiteURL      string `json:"site_url"`
	DisplayOrder int    `json:"display_order"`
	Published    bool   `json:"published"`
}

func (h *CMSHandler) CreatePartner(c *gin.Context) {
	var req partnerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "INVALID_REQUEST")
		return
	}

	partner, err := h.svc.CreatePartner(c.Request.Context(), application.PartnerCommand{
		Name:         req.Name,
		Kind:         domain.PartnerKind(req.Kind),
		LogoRef:      req.LogoRef,
		SiteURL:      req.SiteURL,
		DisplayOrder: req.DisplayOrder,
		Published:    req.Published,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, partner)
}

func (h *CMSHandler) UpdatePartner(c *gin.Context) {
	var req partnerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "INVALID_REQUEST")
		return
	}

	partner, err := h.svc.UpdatePartner(c.Request.Context(), c.Param("id"), application.PartnerCommand{
		Name:         req.Name,
		Kind:         domain.PartnerKind(req.Kind),
		LogoRef:      req.LogoRef,
		SiteURL:      req.SiteURL,
		DisplayOrder: req.DisplayOrder,
		Published:    req.Published,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, partner)
}

func (h *CMSHandler) DeletePartner(c *gin.Context) {
	if err := h.svc.DeletePartner(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"success": true})
}

func (h *CMSHandler) ListPublishedPartners(c *gin.Context) {
	partners, err := h.svc.ListPartners(c.Request.Context(), true)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, partners)
}

func (h *CMSHandler) ListAllPartners(c *gin.Context) {
	partners, err := h.svc.ListPartners(c.Request.Context(), false)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, partners)
}

func (h *CMSHandler) UploadDocument(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "file is required", "INVALID_REQUEST")
		return
	}
	if h.maxFileSize > 0 && fileHeader.Size > h.maxFileSize {
		response.ErrorWithStatus(c, http.StatusRequestEntityTooLarge, "file too large", "FILE_TOO_LARGE")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "cannot read file", "INVALID_REQUEST")
		return
	}
	defer file.Close()

	document, err := h.svc.UploadDocument(
		c.Request.Context(),
		middleware.UserID(c),
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		fileHeader.Size,
		file,
	)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, document)
}

func (h *CMSHandler) ListDocuments(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	documents, pagination, err := h.svc.ListDocuments(c.Request.Context(), page, pageSize)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"documents": documents, "pagination": pagination})
}

func (h *CMSHandler) DownloadDocument(c *gin.Context) {
	f, document, err := h.svc.OpenDocument(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	defer f.Close()

	c.Header("Content-Disposition", "attachment; filename="+strconv.Quote(document.Name))
	if document.MimeType != "" {
		c.Header("Content-Type", document.MimeType)
	}
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, f); err != nil {
		_ = c.Error(err)
	}
}

func (h *CMSHandler) DeleteDocument(c *gin.Context) {
	if err := h.svc.DeleteDocument(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"success": true})
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrTeamMemberNotFound),
		errors.Is(err, domain.ErrPartnerNotFound),
		errors.Is(err, domain.ErrDocumentNotFound):
		response.ErrorWithStatus(c, http.StatusNotFound, err.Error(), "NOT_FOUND")
	case errors.Is(err, domain.ErrInvalidPartnerKind):
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "INVALID_REQUEST")
	default:
		response.ErrorWithStatus(c, http.StatusInternalServerError, "internal error", "INTERNAL")
	}
}
