package handler

import (
	"net/http"

	"enquiry-backend/internal/middleware"
	"enquiry-backend/internal/service"
	"enquiry-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type ProcurementHandler struct {
	enquiryService service.EnquiryService
}

// NewProcurementHandler sets up the routing dependencies for the procurement
// desk endpoints
func NewProcurementHandler(enquiryService service.EnquiryService) *ProcurementHandler {
	return &ProcurementHandler{enquiryService: enquiryService}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *ProcurementHandler) RegisterRoutes(router *gin.RouterGroup) {
	procurement := router.Group("/api/procurement", middleware.RequireAuth())
	{
		procurement.GET("", h.ListProcurements)
		procurement.POST("", h.AddProcurement)
		procurement.GET("/:enquiryId", h.GetProcurement)
		procurement.PUT("/:enquiryId", h.UpdateProcurement)
	}
}

type addProcurementRequest struct {
	EnquiryID string `json:"enquiry_id" binding:"required"`
	Carrier   string `json:"carrier"`
	Rate      string `json:"rate"`
	Remarks   string `json:"remarks"`
}

// ListProcurements returns the procurement desk's view of reviewed enquiries
// @Summary      List procurements
// @Description  Lists all reviewed enquiries with their pricing (procurement role only)
// @Tags         procurement
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]service.ProcurementSummary}
// @Failure      403  {object}  response.Response
// @Router       /api/procurement [get]
func (h *ProcurementHandler) ListProcurements(c *gin.Context) {
	summaries, err := h.enquiryService.ListProcurements(c.Request.Context(), service.ActorFromContext(c))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, summaries))
}

// AddProcurement records procurement info with the enquiry id in the body
// @Summary      Add procurement info
// @Description  Records carrier/rate/remarks for the enquiry named in the body (procurement role only)
// @Tags         procurement
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      addProcurementRequest  true  "Procurement Entry"
// @Success      200      {object}  response.Response{data=model.Enquiry}
// @Failure      403      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/procurement [post]
func (h *ProcurementHandler) AddProcurement(c *gin.Context) {
	var req addProcurementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload"))
		return
	}

	enquiry, err := h.enquiryService.RecordProcurement(c.Request.Context(), service.ActorFromContext(c), req.EnquiryID, service.ProcurementRequest{
		Carrier: req.Carrier,
		Rate:    req.Rate,
		Remarks: req.Remarks,
	})
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, enquiry))
}

// GetProcurement returns the procurement info recorded for one enquiry
// @Summary      Get procurement info
// @Description  Fetch the procurement sub-record of an enquiry (procurement role only)
// @Tags         procurement
// @Produce      json
// @Security     BearerAuth
// @Param        enquiryId  path      string  true  "Enquiry ID"
// @Success      200        {object}  response.Response{data=model.ProcurementInfo}
// @Failure      404        {object}  response.Response
// @Router       /api/procurement/{enquiryId} [get]
func (h *ProcurementHandler) GetProcurement(c *gin.Context) {
	info, err := h.enquiryService.GetProcurement(c.Request.Context(), service.ActorFromContext(c), c.Param("enquiryId"))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, info))
}

// UpdateProcurement overwrites the procurement info of an enquiry
// @Summary      Update procurement info
// @Description  Overwrites carrier/rate/remarks for an enquiry (procurement role only; last write wins)
// @Tags         procurement
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        enquiryId  path      string                      true  "Enquiry ID"
// @Param        payload    body      service.ProcurementRequest  true  "Procurement Info"
// @Success      200        {object}  response.Response{data=model.Enquiry}
// @Failure      403        {object}  response.Response
// @Failure      404        {object}  response.Response
// @Router       /api/procurement/{enquiryId} [put]
func (h *ProcurementHandler) UpdateProcurement(c *gin.Context) {
	var req service.ProcurementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload"))
		return
	}

	enquiry, err := h.enquiryService.RecordProcurement(c.Request.Context(), service.ActorFromContext(c), c.Param("enquiryId"), req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, enquiry))
}
