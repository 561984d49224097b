package handler

import (
	"mime/multipart"
	"net/http"

	"enquiry-backend/internal/middleware"
	"enquiry-backend/internal/service"
	"enquiry-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

// photosField is the multipart field carrying enquiry attachments
const photosField = "photos"

type EnquiryHandler struct {
	enquiryService service.EnquiryService
}

// NewEnquiryHandler sets up the routing dependencies for enquiry endpoints
func NewEnquiryHandler(enquiryService service.EnquiryService) *EnquiryHandler {
	return &EnquiryHandler{enquiryService: enquiryService}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup.
// Every route requires a valid token; role gates live in the service.
func (h *EnquiryHandler) RegisterRoutes(router *gin.RouterGroup) {
	enquiries := router.Group("/api/enquiries", middleware.RequireAuth())
	{
		enquiries.GET("", h.ListEnquiries)
		enquiries.POST("", h.CreateEnquiry)
		enquiries.GET("/:id", h.GetEnquiry)
		enquiries.PUT("/:id/procurement", h.RecordProcurement)
		enquiries.PUT("/:id/status", h.SetStatus)
	}
}

// CreateEnquiry submits a new enquiry with optional photo attachments
// @Summary      Create enquiry
// @Description  Submits a shipment enquiry (executive role only); accepts multipart form data with a photos[] file field
// @Tags         enquiries
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        type  formData  string  true   "Shipment type"
// @Param        por   formData  string  true   "Place of receipt"
// @Param        pol   formData  string  true   "Port of loading"
// @Param        pod   formData  string  true   "Port of discharge"
// @Success      201   {object}  response.Response{data=model.Enquiry}
// @Failure      400   {object}  response.Response
// @Failure      403   {object}  response.Response
// @Router       /api/enquiries [post]
func (h *EnquiryHandler) CreateEnquiry(c *gin.Context) {
	var req service.CreateEnquiryRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	var files []*multipart.FileHeader
	if form, err := c.MultipartForm(); err == nil && form != nil {
		files = form.File[photosField]
	}

	enquiry, err := h.enquiryService.Create(c.Request.Context(), service.ActorFromContext(c), req, files)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, enquiry))
}

// ListEnquiries returns all enquiries, most recent first
// @Summary      List enquiries
// @Description  Lists all enquiries ordered by creation time descending
// @Tags         enquiries
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]model.Enquiry}
// @Failure      500  {object}  response.Response
// @Router       /api/enquiries [get]
func (h *EnquiryHandler) ListEnquiries(c *gin.Context) {
	enquiries, err := h.enquiryService.List(c.Request.Context(), service.ActorFromContext(c))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, enquiries))
}

// GetEnquiry returns a single enquiry by id
// @Summary      Get enquiry
// @Description  Fetch a single enquiry by its UUID
// @Tags         enquiries
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Enquiry ID"
// @Success      200  {object}  response.Response{data=model.Enquiry}
// @Failure      404  {object}  response.Response
// @Router       /api/enquiries/{id} [get]
func (h *EnquiryHandler) GetEnquiry(c *gin.Context) {
	enquiry, err := h.enquiryService.Get(c.Request.Context(), service.ActorFromContext(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, enquiry))
}

// RecordProcurement applies procurement pricing to an enquiry
// @Summary      Record procurement info
// @Description  Sets carrier/rate/remarks and moves the enquiry to reviewed (procurement role only)
// @Tags         enquiries
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                      true  "Enquiry ID"
// @Param        payload  body      service.ProcurementRequest  true  "Procurement Info"
// @Success      200      {object}  response.Response{data=model.Enquiry}
// @Failure      403      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/enquiries/{id}/procurement [put]
func (h *EnquiryHandler) RecordProcurement(c *gin.Context) {
	var req service.ProcurementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload"))
		return
	}

	enquiry, err := h.enquiryService.RecordProcurement(c.Request.Context(), service.ActorFromContext(c), c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, enquiry))
}

type setStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// SetStatus forces an enquiry status without recording procurement data
// @Summary      Set enquiry status
// @Description  Directly sets the status field; does not touch procurement info
// @Tags         enquiries
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string            true  "Enquiry ID"
// @Param        payload  body      setStatusRequest  true  "Status"
// @Success      200      {object}  response.Response{data=model.Enquiry}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/enquiries/{id}/status [put]
func (h *EnquiryHandler) SetStatus(c *gin.Context) {
	var req setStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload"))
		return
	}

	enquiry, err := h.enquiryService.SetStatus(c.Request.Context(), service.ActorFromContext(c), c.Param("id"), req.Status)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, enquiry))
}
